package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for race sessions.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	sink              EventSink
}

// NewWebSocketHandler creates a new WebSocket handler forwarding session
// events to sink.
func NewWebSocketHandler(cm *ConnectionManager, sink EventSink) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		sink:              sink,
	}
}

// HandleConnection upgrades the request to a WebSocket session. The client
// declares its room with a join message afterwards; nothing is required on
// the URL.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.connectionManager.UpgradeConnection(w, r, h.sink); err != nil {
		log.Error().Err(err).Msg("failed to establish WebSocket connection")
		return
	}
}

// HandleConnectionStats returns statistics about active connections.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
