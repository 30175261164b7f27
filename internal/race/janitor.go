package race

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RunJanitor periodically deletes rooms that have had zero players for
// longer than retention. A non-positive retention disables cleanup entirely,
// preserving the rooms-live-forever baseline. Blocks until ctx is cancelled.
func (s *Store) RunJanitor(ctx context.Context, retention, interval time.Duration) {
	if retention <= 0 {
		log.Debug().Msg("room janitor disabled")
		return
	}
	if interval <= 0 {
		interval = time.Minute
	}

	log.Info().
		Dur("retention", retention).
		Dur("interval", interval).
		Msg("room janitor started")

	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("room janitor stopped")
			return
		case <-ticker.Chan():
			if removed := s.sweep(retention); removed > 0 {
				log.Info().Int("removed", removed).Int("rooms", s.RoomCount()).Msg("swept empty rooms")
			}
		}
	}
}

// sweep removes rooms whose empty window exceeds retention and reports how
// many were deleted.
func (s *Store) sweep(retention time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().Add(-retention)
	removed := 0
	for id, r := range s.rooms {
		if len(r.players) == 0 && r.emptySince.Before(cutoff) {
			delete(s.rooms, id)
			removed++
		}
	}
	return removed
}
