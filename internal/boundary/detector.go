package boundary

import "time"

// Detect walks turns in order, scoring the signals present at each turn, and
// returns the turn indices that start a new milestone (the first turn is
// always implicitly a boundary and is not included in the result). A turn is
// a boundary when its own score reaches BoundaryThreshold; strength does not
// carry over from one turn to the next.
func Detect(turns []Turn) []int {
	var boundaries []int
	var lastRealPromptAt time.Time

	for i := range turns {
		score, sawRealPrompt := signalScore(turns, i, lastRealPromptAt)
		if sawRealPrompt {
			lastRealPromptAt = turns[i].Timestamp
		}

		if i == 0 {
			// The first turn always opens the first segment; it never
			// itself counts as a mid-stream boundary.
			continue
		}

		if score >= BoundaryThreshold {
			boundaries = append(boundaries, i)
		}
	}

	return boundaries
}
