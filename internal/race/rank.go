package race

import (
	"math"
	"sort"
)

// Rank returns the entries ordered for a leaderboard: finished players
// first by ascending time, then unfinished players by descending progress.
// The sort is stable, so exact ties keep their incoming order. The input
// slice is not modified.
func Rank(entries []LeaderboardEntry) []LeaderboardEntry {
	ranked := make([]LeaderboardEntry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Finished != b.Finished {
			return a.Finished
		}
		if a.Finished {
			return a.Time < b.Time
		}
		return a.Progress > b.Progress
	})
	return ranked
}

// WPM computes a words-per-minute score from the count of correctly typed
// characters and the elapsed race time, using the conventional 5-chars-per-word
// rule. Non-positive or non-finite inputs yield 0 rather than a division
// blowup leaking into shared state.
func WPM(correctChars int, timeSeconds float64) int {
	if correctChars <= 0 || timeSeconds <= 0 {
		return 0
	}
	if math.IsNaN(timeSeconds) || math.IsInf(timeSeconds, 0) {
		return 0
	}

	words := float64(correctChars) / 5
	minutes := timeSeconds / 60
	return int(math.Round(words / minutes))
}
