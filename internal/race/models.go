package race

import "time"

// Player holds the live race state for one session inside a room.
type Player struct {
	Name        string
	Progress    int // 0-100, never decreases
	Finished    bool
	WPM         int     // meaningful only once Finished
	TimeSeconds float64 // meaningful only once Finished
}

// room is the store's internal representation. Only the Store touches it;
// everything handed out of the package is a copy.
type room struct {
	id        string
	text      string
	createdAt time.Time
	players   map[string]*Player // sessionID -> player

	// emptySince is the instant the room last dropped to zero players
	// (or its creation time if nobody ever joined). The janitor uses it
	// to decide when a room is past its retention window.
	emptySince time.Time
}

// RoomSnapshot is a detached copy of a room's state, safe to rank and
// serialize without holding the store lock.
type RoomSnapshot struct {
	ID        string
	Text      string
	CreatedAt time.Time
	Players   []LeaderboardEntry
}

// LeaderboardEntry is one row of a ranked (or about-to-be-ranked) leaderboard.
type LeaderboardEntry struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Progress int     `json:"progress"`
	Finished bool    `json:"finished"`
	WPM      int     `json:"wpm"`
	Time     float64 `json:"time"`
}
