package race

import (
	"errors"
	"testing"

	"github.com/jonboulle/clockwork"
)

func newTestStore() *Store {
	return NewStore(clockwork.NewFakeClock())
}

func TestCreateRoomStoresTextVerbatim(t *testing.T) {
	s := newTestStore()

	id, err := s.CreateRoom("the quick brown fox")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if len(id) != roomIDBytes*2 {
		t.Fatalf("expected %d-char hex id, got %q", roomIDBytes*2, id)
	}

	snap, ok := s.GetRoom(id)
	if !ok {
		t.Fatalf("room %q not found after creation", id)
	}
	if snap.Text != "the quick brown fox" {
		t.Errorf("text = %q, want it stored verbatim", snap.Text)
	}
	if len(snap.Players) != 0 {
		t.Errorf("new room has %d players, want 0", len(snap.Players))
	}
}

func TestCreateRoomGeneratesDistinctIDs(t *testing.T) {
	s := newTestStore()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := s.CreateRoom("text")
		if err != nil {
			t.Fatalf("CreateRoom #%d: %v", i, err)
		}
		if seen[id] {
			t.Fatalf("id %q issued twice", id)
		}
		seen[id] = true
	}
}

func TestGetRoomUnknown(t *testing.T) {
	s := newTestStore()
	if _, ok := s.GetRoom("abc123"); ok {
		t.Error("GetRoom returned ok for a room that was never created")
	}
}

func TestAddPlayerUnknownRoom(t *testing.T) {
	s := newTestStore()
	err := s.AddPlayer("abc123", "sess-1", "alice")
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("AddPlayer err = %v, want ErrRoomNotFound", err)
	}
}

func TestAddPlayerRejoinOverwrites(t *testing.T) {
	s := newTestStore()
	id, _ := s.CreateRoom("text")

	if err := s.AddPlayer(id, "sess-1", "alice"); err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	s.UpdateProgress(id, "sess-1", 60)

	// Rejoin with the same session id: last join wins, state zeroed.
	if err := s.AddPlayer(id, "sess-1", "alice2"); err != nil {
		t.Fatalf("rejoin AddPlayer: %v", err)
	}

	snap, _ := s.GetRoom(id)
	if len(snap.Players) != 1 {
		t.Fatalf("room has %d players, want 1", len(snap.Players))
	}
	p := snap.Players[0]
	if p.Name != "alice2" || p.Progress != 0 || p.Finished {
		t.Errorf("rejoined player = %+v, want fresh state under new name", p)
	}
}

func TestUpdateProgressMonotonicMax(t *testing.T) {
	s := newTestStore()
	id, _ := s.CreateRoom("a b c")
	s.AddPlayer(id, "sess-1", "alice")

	for _, pct := range []int{33, 20} {
		if !s.UpdateProgress(id, "sess-1", pct) {
			t.Fatalf("UpdateProgress(%d) reported unknown player", pct)
		}
	}

	snap, _ := s.GetRoom(id)
	if got := snap.Players[0].Progress; got != 33 {
		t.Errorf("progress = %d after 33 then 20, want 33", got)
	}
}

func TestUpdateProgressClampsRange(t *testing.T) {
	s := newTestStore()
	id, _ := s.CreateRoom("text")
	s.AddPlayer(id, "sess-1", "alice")

	s.UpdateProgress(id, "sess-1", -10)
	snap, _ := s.GetRoom(id)
	if got := snap.Players[0].Progress; got != 0 {
		t.Errorf("progress = %d after -10, want 0", got)
	}

	s.UpdateProgress(id, "sess-1", 250)
	snap, _ = s.GetRoom(id)
	if got := snap.Players[0].Progress; got != 100 {
		t.Errorf("progress = %d after 250, want clamp to 100", got)
	}
}

func TestUpdateProgressUnknownSession(t *testing.T) {
	s := newTestStore()
	id, _ := s.CreateRoom("text")

	if s.UpdateProgress(id, "ghost", 50) {
		t.Error("UpdateProgress reported ok for unknown session")
	}
	if s.UpdateProgress("abc123", "ghost", 50) {
		t.Error("UpdateProgress reported ok for unknown room")
	}
}

func TestMarkFinishedIdempotent(t *testing.T) {
	s := newTestStore()
	id, _ := s.CreateRoom("text")
	s.AddPlayer(id, "sess-1", "alice")

	if !s.MarkFinished(id, "sess-1", 50, 80) {
		t.Fatal("first MarkFinished reported unknown player")
	}
	// Late duplicate must not overwrite the recorded result.
	s.MarkFinished(id, "sess-1", 99, 10)

	snap, _ := s.GetRoom(id)
	p := snap.Players[0]
	if !p.Finished || p.Time != 50 || p.WPM != 80 {
		t.Errorf("player = %+v, want first finish (time=50 wpm=80) kept", p)
	}
}

func TestMarkFinishedUnknownSession(t *testing.T) {
	s := newTestStore()
	id, _ := s.CreateRoom("text")

	if s.MarkFinished(id, "ghost", 10, 50) {
		t.Error("MarkFinished reported ok for unknown session")
	}
}

func TestRemovePlayer(t *testing.T) {
	s := newTestStore()
	id, _ := s.CreateRoom("text")
	s.AddPlayer(id, "sess-1", "alice")
	s.AddPlayer(id, "sess-2", "bob")

	s.RemovePlayer(id, "sess-1")
	snap, _ := s.GetRoom(id)
	if len(snap.Players) != 1 || snap.Players[0].ID != "sess-2" {
		t.Errorf("players after remove = %+v, want only sess-2", snap.Players)
	}

	// Removing an absent session or from an absent room is a no-op.
	s.RemovePlayer(id, "ghost")
	s.RemovePlayer("abc123", "sess-2")

	// The emptied room stays addressable.
	s.RemovePlayer(id, "sess-2")
	if _, ok := s.GetRoom(id); !ok {
		t.Error("room disappeared after its last player left")
	}
}
