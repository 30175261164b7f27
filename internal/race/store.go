package race

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	// ErrRoomNotFound indicates the referenced room id was never created
	// or has already been cleaned up.
	ErrRoomNotFound = errors.New("room not found")
)

const (
	// roomIDBytes gives 2^24 distinct ids, matching the short tokens
	// users share in room links.
	roomIDBytes = 3

	// maxIDAttempts bounds the uniqueness retry loop in CreateRoom.
	maxIDAttempts = 16
)

// Store owns all room and player state. It is the only holder of mutable
// race state in the process; callers only ever receive copies.
//
// The coordinator mutates players from a single goroutine, but room creation
// and janitor sweeps arrive from other goroutines, so every operation takes
// the store lock.
type Store struct {
	mu    sync.RWMutex
	clock clockwork.Clock
	rooms map[string]*room
}

// NewStore creates an empty room store. The clock is injected so tests can
// drive retention with a fake clock.
func NewStore(clock clockwork.Clock) *Store {
	return &Store{
		clock: clock,
		rooms: make(map[string]*room),
	}
}

// CreateRoom stores a new room holding the supplied text verbatim and
// returns its freshly generated id. It fails only if the id space cannot
// yield a unique token, which is practically unreachable.
func (s *Store) CreateRoom(text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		buf := make([]byte, roomIDBytes)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate room id: %w", err)
		}
		id := hex.EncodeToString(buf)
		if _, taken := s.rooms[id]; taken {
			continue
		}

		now := s.clock.Now()
		s.rooms[id] = &room{
			id:         id,
			text:       text,
			createdAt:  now,
			players:    make(map[string]*Player),
			emptySince: now,
		}

		log.Info().Str("room_id", id).Int("rooms", len(s.rooms)).Msg("room created")
		return id, nil
	}

	return "", fmt.Errorf("generate room id: space exhausted after %d attempts", maxIDAttempts)
}

// GetRoom returns a detached snapshot of the room, or false if it does not
// exist. The snapshot's player list is unranked.
func (s *Store) GetRoom(roomID string) (RoomSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return RoomSnapshot{}, false
	}

	snap := RoomSnapshot{
		ID:        r.id,
		Text:      r.text,
		CreatedAt: r.createdAt,
		Players:   make([]LeaderboardEntry, 0, len(r.players)),
	}
	for sessionID, p := range r.players {
		snap.Players = append(snap.Players, LeaderboardEntry{
			ID:       sessionID,
			Name:     p.Name,
			Progress: p.Progress,
			Finished: p.Finished,
			WPM:      p.WPM,
			Time:     p.TimeSeconds,
		})
	}
	return snap, true
}

// AddPlayer registers a session in the room with zeroed race state. A
// rejoin with the same session id overwrites the previous entry; last
// join wins.
func (s *Store) AddPlayer(roomID, sessionID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}

	r.players[sessionID] = &Player{Name: name}
	return nil
}

// RemovePlayer deletes the session's entry from the room. Unknown rooms or
// sessions are a no-op.
func (s *Store) RemovePlayer(roomID, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := r.players[sessionID]; !ok {
		return
	}

	delete(r.players, sessionID)
	if len(r.players) == 0 {
		r.emptySince = s.clock.Now()
	}
}

// UpdateProgress merges a client-reported completion percentage into the
// player's state. Out-of-range values are clamped to [0,100] and the stored
// progress never decreases. Returns false when the room or session is
// unknown, which callers treat as a silent no-op.
func (s *Store) UpdateProgress(roomID, sessionID string, pct int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	p, ok := r.players[sessionID]
	if !ok {
		return false
	}

	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}
	if pct > p.Progress {
		p.Progress = pct
	}
	return true
}

// MarkFinished records the player's final time and wpm. It is idempotent: a
// late duplicate finish never overwrites an already-recorded result. Returns
// false when the room or session is unknown.
func (s *Store) MarkFinished(roomID, sessionID string, timeSeconds float64, wpm int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	p, ok := r.players[sessionID]
	if !ok {
		return false
	}
	if p.Finished {
		return true
	}

	p.Finished = true
	p.TimeSeconds = timeSeconds
	p.WPM = wpm
	return true
}

// RoomCount reports how many rooms the store currently holds.
func (s *Store) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
