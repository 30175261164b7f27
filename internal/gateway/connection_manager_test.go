package gateway

import (
	"fmt"
	"testing"

	"typerace/internal/coordinator"
)

type stubClient struct {
	id      string
	sent    []coordinator.OutboundMessage
	sendErr error
}

func (s *stubClient) SessionID() string { return s.id }

func (s *stubClient) Send(msg coordinator.OutboundMessage) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestBroadcastReachesOnlyRoomMembers(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())

	inRoom := &stubClient{id: "sess-1"}
	alsoInRoom := &stubClient{id: "sess-2"}
	elsewhere := &stubClient{id: "sess-3"}
	cm.Join("room-a", inRoom)
	cm.Join("room-a", alsoInRoom)
	cm.Join("room-b", elsewhere)

	msg := coordinator.OutboundMessage{Type: coordinator.OutboundTypeLeaderboard}
	cm.Broadcast("room-a", msg)

	if len(inRoom.sent) != 1 || len(alsoInRoom.sent) != 1 {
		t.Errorf("room-a members got %d/%d messages, want 1/1", len(inRoom.sent), len(alsoInRoom.sent))
	}
	if len(elsewhere.sent) != 0 {
		t.Errorf("room-b member got %d messages, want 0", len(elsewhere.sent))
	}
}

func TestBroadcastToUnknownRoomIsNoop(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	cm.Broadcast("nowhere", coordinator.OutboundMessage{Type: coordinator.OutboundTypeLeaderboard})
}

func TestLeaveStopsDelivery(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())

	c := &stubClient{id: "sess-1"}
	cm.Join("room-a", c)
	cm.Leave("room-a", c)
	cm.Broadcast("room-a", coordinator.OutboundMessage{Type: coordinator.OutboundTypeLeaderboard})

	if len(c.sent) != 0 {
		t.Errorf("left client got %d messages, want 0", len(c.sent))
	}
}

func TestBroadcastSurvivesFailingClient(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())

	broken := &stubClient{id: "sess-1", sendErr: fmt.Errorf("send buffer full")}
	healthy := &stubClient{id: "sess-2"}
	cm.Join("room-a", broken)
	cm.Join("room-a", healthy)

	cm.Broadcast("room-a", coordinator.OutboundMessage{Type: coordinator.OutboundTypeLeaderboard})

	if len(healthy.sent) != 1 {
		t.Errorf("healthy client got %d messages despite a failing peer, want 1", len(healthy.sent))
	}
}

func TestBroadcastUnmarshalableMessageDeliversNothing(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())

	c := &stubClient{id: "sess-1"}
	cm.Join("room-a", c)

	// The message is marshaled once per broadcast; a payload that cannot be
	// marshaled aborts the whole broadcast instead of failing per client.
	cm.Broadcast("room-a", coordinator.OutboundMessage{
		Type:    coordinator.OutboundTypeLeaderboard,
		Payload: func() {},
	})

	if len(c.sent) != 0 {
		t.Errorf("client got %d messages from an unmarshalable broadcast, want 0", len(c.sent))
	}
}

func TestGetConnectionStats(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	cm.Join("room-a", &stubClient{id: "sess-1"})
	cm.Join("room-a", &stubClient{id: "sess-2"})
	cm.Join("room-b", &stubClient{id: "sess-3"})

	stats := cm.GetConnectionStats()
	if stats["total_connections"] != 3 {
		t.Errorf("total_connections = %v, want 3", stats["total_connections"])
	}
	if stats["active_rooms"] != 2 {
		t.Errorf("active_rooms = %v, want 2", stats["active_rooms"])
	}
}
