package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"typerace/internal/race"
)

// DefaultRaceText is used when a creation request carries no text.
const DefaultRaceText = "default sample text for typing test"

// RoomsHandler exposes room creation as a plain HTTP boundary, outside the
// WebSocket event channel.
type RoomsHandler struct {
	store       *race.Store
	defaultText string
}

// NewRoomsHandler creates a rooms handler over the store. An empty
// defaultText falls back to DefaultRaceText.
func NewRoomsHandler(store *race.Store, defaultText string) *RoomsHandler {
	if defaultText == "" {
		defaultText = DefaultRaceText
	}
	return &RoomsHandler{store: store, defaultText: defaultText}
}

type createRoomRequest struct {
	Text string `json:"text"`
}

type createRoomResponse struct {
	RoomID string `json:"room_id"`
}

// HandleCreateRoom creates a room from a JSON body and returns its id.
func (h *RoomsHandler) HandleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id, err := h.createRoom(req.Text)
	if err != nil {
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(createRoomResponse{RoomID: id}); err != nil {
		log.Error().Err(err).Msg("failed to encode create room response")
	}
}

// HandleCreateRedirect creates a room from a query parameter and redirects
// to the front-end with the room id attached. Kept for link-sharing demos.
func (h *RoomsHandler) HandleCreateRedirect(w http.ResponseWriter, r *http.Request) {
	id, err := h.createRoom(r.URL.Query().Get("text"))
	if err != nil {
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/?room="+id, http.StatusSeeOther)
}

func (h *RoomsHandler) createRoom(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		text = h.defaultText
	}

	id, err := h.store.CreateRoom(text)
	if err != nil {
		log.Error().Err(err).Msg("failed to create room")
		return "", err
	}
	return id, nil
}

// RegisterRoutes registers room creation routes with an HTTP mux.
func (h *RoomsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/rooms", h.HandleCreateRoom)
	mux.HandleFunc("/create", h.HandleCreateRedirect)
}
