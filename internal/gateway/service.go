package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"typerace/internal/race"
)

// Service bundles the gateway's transport surface: the WebSocket endpoint,
// the room-creation endpoint, and connection statistics.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	roomsHandler      *RoomsHandler
}

// NewService creates the gateway service. The connection manager is passed
// in rather than created here because the coordinator needs it as its hub
// before the event sink exists.
func NewService(cm *ConnectionManager, sink EventSink, store *race.Store, defaultText string) *Service {
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, sink),
		roomsHandler:      NewRoomsHandler(store, defaultText),
	}
}

// RegisterRoutes registers every gateway route with the mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.roomsHandler.RegisterRoutes(mux)
	mux.HandleFunc("/stats", s.HandleStats)
	log.Info().Msg("gateway routes registered")
}

// HandleStats returns service-level statistics.
func (s *Service) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.GetStats()); err != nil {
		log.Error().Err(err).Msg("failed to encode service stats")
	}
}

// GetStats returns statistics about the gateway service.
func (s *Service) GetStats() map[string]any {
	stats := s.connectionManager.GetConnectionStats()
	stats["service"] = "typerace-gateway"
	return stats
}
