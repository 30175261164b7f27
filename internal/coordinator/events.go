package coordinator

import (
	"encoding/json"
	"fmt"
)

// EventType tags an inbound client event.
type EventType string

const (
	EventTypeJoin       EventType = "join"
	EventTypeProgress   EventType = "progress"
	EventTypeFinish     EventType = "finish"
	eventTypeDisconnect EventType = "disconnect" // synthesized by the transport, never sent on the wire
)

// ClientEvent is the wire envelope for every client->server message.
type ClientEvent struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// JoinPayload asks to enter a room under a display name.
type JoinPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

// ProgressPayload reports the percentage of the text typed so far. Clients
// send these at their own throttle cadence.
type ProgressPayload struct {
	RoomID      string `json:"roomId"`
	ProgressPct int    `json:"progressPct"`
}

// FinishPayload reports race completion. Sent once per completed race;
// duplicates are tolerated server-side.
type FinishPayload struct {
	RoomID       string  `json:"roomId"`
	TimeSeconds  float64 `json:"timeSeconds"`
	CorrectChars int     `json:"correctChars"`
}

// parseClientEvent decodes a raw frame into its typed payload. Unknown types,
// undecodable payloads, and variants missing a room id are rejected with an
// error; callers drop such frames.
func parseClientEvent(raw []byte) (EventType, any, error) {
	var env ClientEvent
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("decode event envelope: %w", err)
	}

	switch env.Type {
	case EventTypeJoin:
		var p JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return env.Type, nil, fmt.Errorf("decode join payload: %w", err)
		}
		if p.RoomID == "" {
			return env.Type, nil, fmt.Errorf("join payload missing roomId")
		}
		return env.Type, p, nil

	case EventTypeProgress:
		var p ProgressPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return env.Type, nil, fmt.Errorf("decode progress payload: %w", err)
		}
		if p.RoomID == "" {
			return env.Type, nil, fmt.Errorf("progress payload missing roomId")
		}
		return env.Type, p, nil

	case EventTypeFinish:
		var p FinishPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return env.Type, nil, fmt.Errorf("decode finish payload: %w", err)
		}
		if p.RoomID == "" {
			return env.Type, nil, fmt.Errorf("finish payload missing roomId")
		}
		return env.Type, p, nil

	default:
		return env.Type, nil, fmt.Errorf("unknown event type %q", env.Type)
	}
}
