// Package segment turns boundary-detector output into Phase 1 milestones: it
// builds turn-range segments from boundary indices, merges segments that are
// too small or too similar to their predecessor to stand alone, and
// materializes the surviving segments into heuristic Milestone records.
package segment

import (
	"time"

	"github.com/sessionmind/milestoned/internal/boundary"
	"github.com/sessionmind/milestoned/internal/milestone"
)

// Segment is a contiguous, inclusive turn range destined to become one
// Phase 1 milestone.
type Segment struct {
	StartTurn int
	EndTurn   int
}

// Span returns the number of turns covered by the segment.
func (s Segment) Span() int {
	return s.EndTurn - s.StartTurn + 1
}

// Build converts boundary start-indices (as returned by boundary.Detect)
// into contiguous segments spanning the whole transcript.
func Build(totalTurns int, boundaries []int) []Segment {
	if totalTurns == 0 {
		return nil
	}

	starts := append([]int{0}, boundaries...)
	segments := make([]Segment, 0, len(starts))
	for i, start := range starts {
		end := totalTurns - 1
		if i+1 < len(starts) {
			end = starts[i+1] - 1
		}
		segments = append(segments, Segment{StartTurn: start, EndTurn: end})
	}
	return segments
}

// minSpan is the shortest turn span a segment may have on its own; shorter
// segments are folded into the previous one.
const minSpan = 2

// mergeFileOverlapThreshold is the file-overlap fraction with the previous
// segment above which two segments are folded together.
const mergeFileOverlapThreshold = 0.50

// Merge folds segments into their predecessor when they are empty, too
// short to stand alone, or share more than mergeFileOverlapThreshold of
// touched files with the previous segment — unless a >=5 minute gap
// separates them, in which case a merge never happens even if the file
// overlap would otherwise qualify.
func Merge(segments []Segment, turns []boundary.Turn) []Segment {
	if len(segments) == 0 {
		return nil
	}

	merged := []Segment{segments[0]}
	for _, seg := range segments[1:] {
		prev := &merged[len(merged)-1]

		if seg.Span() <= 0 {
			continue
		}

		gap := timeGap(turns, prev.EndTurn, seg.StartTurn)
		if gap < boundary.TimeGapThreshold {
			if seg.Span() < minSpan || fileOverlapWithPrevious(turns, *prev, seg) > mergeFileOverlapThreshold {
				prev.EndTurn = seg.EndTurn
				continue
			}
		}

		merged = append(merged, seg)
	}
	return merged
}

func timeGap(turns []boundary.Turn, prevEnd, nextStart int) time.Duration {
	if prevEnd < 0 || prevEnd >= len(turns) || nextStart < 0 || nextStart >= len(turns) {
		return 0
	}
	return turns[nextStart].Timestamp.Sub(turns[prevEnd].Timestamp)
}

func fileOverlapWithPrevious(turns []boundary.Turn, prev, next Segment) float64 {
	prevFiles := touchedFilesIn(turns, prev)
	nextFiles := touchedFilesIn(turns, next)
	if len(prevFiles) == 0 || len(nextFiles) == 0 {
		return 0
	}

	shared := 0
	for f := range nextFiles {
		if _, ok := prevFiles[f]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(nextFiles))
}

func touchedFilesIn(turns []boundary.Turn, seg Segment) map[string]struct{} {
	set := make(map[string]struct{})
	for i := seg.StartTurn; i <= seg.EndTurn && i < len(turns); i++ {
		if i < 0 {
			continue
		}
		for _, f := range turns[i].FilesModified {
			set[f] = struct{}{}
		}
		for _, f := range turns[i].FilesRead {
			set[f] = struct{}{}
		}
	}
	return set
}

// Materialize converts surviving segments into dense, 0-indexed Phase 1
// milestones for sessionID.
func Materialize(sessionID string, segments []Segment, turns []boundary.Turn) []*milestone.Milestone {
	milestones := make([]*milestone.Milestone, 0, len(segments))
	var previousEnd time.Time

	for i, seg := range segments {
		m := &milestone.Milestone{
			SessionID:      sessionID,
			Index:          i,
			StartTurn:      seg.StartTurn,
			EndTurn:        seg.EndTurn,
			ToolUseSummary: map[string]int{},
			Phase:          milestone.PhaseHeuristic,
			Status:         milestone.StatusPending,
		}

		for t := seg.StartTurn; t <= seg.EndTurn && t < len(turns); t++ {
			turn := turns[t]
			if turn.IsUserPrompt {
				m.UserPrompts = append(m.UserPrompts, turn.PromptText)
			}
			m.FilesModified = appendUnique(m.FilesModified, turn.FilesModified...)
			m.FilesRead = appendUnique(m.FilesRead, turn.FilesRead...)
			for _, tool := range turn.ToolsUsed {
				m.ToolUseSummary[tool]++
			}
			if turn.TaskCompleted {
				m.TaskCompletions++
			}
			if turn.IsSubagent {
				m.SubagentCount++
			}
		}

		m.StartTimestamp = resolveTimestamp(turns, seg.StartTurn, previousEnd)
		m.EndTimestamp = resolveTimestamp(turns, seg.EndTurn, m.StartTimestamp)
		previousEnd = m.EndTimestamp

		milestones = append(milestones, m)
	}

	return milestones
}

func appendUnique(existing []string, values ...string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, v := range existing {
		seen[v] = struct{}{}
	}
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			existing = append(existing, v)
		}
	}
	return existing
}

// resolveTimestamp applies a 4-tier fallback when a turn lacks its own
// timestamp: (1) the turn's own timestamp, (2) the nearest turn with a
// timestamp on either side, (3) the supplied fallback (typically the
// previous milestone's end), (4) the wall-clock time, as a last resort so a
// milestone is never left with a zero timestamp.
func resolveTimestamp(turns []boundary.Turn, idx int, fallback time.Time) time.Time {
	if idx >= 0 && idx < len(turns) && !turns[idx].Timestamp.IsZero() {
		return turns[idx].Timestamp
	}

	for offset := 1; offset < len(turns); offset++ {
		if idx+offset < len(turns) && !turns[idx+offset].Timestamp.IsZero() {
			return turns[idx+offset].Timestamp
		}
		if idx-offset >= 0 && !turns[idx-offset].Timestamp.IsZero() {
			return turns[idx-offset].Timestamp
		}
	}

	if !fallback.IsZero() {
		return fallback
	}
	return time.Now()
}
