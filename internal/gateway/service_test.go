package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonboulle/clockwork"

	"typerace/internal/coordinator"
	"typerace/internal/race"
)

type nopSink struct{}

func (nopSink) HandleMessage(client coordinator.Client, raw []byte) {}
func (nopSink) HandleDisconnect(client coordinator.Client)          {}

func TestHandleStats(t *testing.T) {
	store := race.NewStore(clockwork.NewFakeClock())
	cm := NewConnectionManager(DefaultConnectionConfig())
	svc := NewService(cm, nopSink{}, store, "")

	cm.Join("room-a", &stubClient{id: "sess-1"})

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var stats map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats["service"] != "typerace-gateway" {
		t.Errorf("service = %v, want typerace-gateway", stats["service"])
	}
	// JSON numbers decode as float64.
	if stats["total_connections"] != float64(1) {
		t.Errorf("total_connections = %v, want 1", stats["total_connections"])
	}
}
