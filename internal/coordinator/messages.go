package coordinator

import "typerace/internal/race"

// OutboundType tags a server->client message.
type OutboundType string

const (
	OutboundTypeRoomInfo    OutboundType = "roomInfo"
	OutboundTypeLeaderboard OutboundType = "leaderboard"
	OutboundTypeError       OutboundType = "error"
)

// OutboundMessage is the wire envelope for every server->client message.
type OutboundMessage struct {
	Type    OutboundType `json:"type"`
	Payload any          `json:"payload"`
}

// RoomInfoPayload is sent to the joining session only.
type RoomInfoPayload struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

// LeaderboardPayload carries the ranked standings (possibly a top-N prefix)
// plus the room's text for late joiners rendering from scratch.
type LeaderboardPayload struct {
	Leaderboard []race.LeaderboardEntry `json:"leaderboard"`
	Text        string                  `json:"text"`
}

// ErrorPayload surfaces a failure to the requesting session only.
type ErrorPayload struct {
	Message string `json:"message"`
}

func errorMessage(msg string) OutboundMessage {
	return OutboundMessage{Type: OutboundTypeError, Payload: ErrorPayload{Message: msg}}
}
