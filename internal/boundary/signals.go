package boundary

import "time"

// Signal weights, summed per turn to decide whether that turn's strength
// has crossed the boundary-selection threshold.
const (
	WeightUserPrompt        = 10
	WeightTrivialPrompt     = 1
	WeightTimeGap           = 8
	WeightTaskCompleted     = 8
	WeightPlanApproved      = 7
	WeightSubagent          = 6
	WeightFileContextSwitch = 5

	// BoundaryThreshold is the summed signal strength of a single turn at
	// which that turn is selected as a boundary.
	BoundaryThreshold = 5

	// TimeGapThreshold is the minimum elapsed time between consecutive
	// substantive user prompts that counts as a time-gap signal.
	TimeGapThreshold = 5 * time.Minute

	// fileSwitchWindow is how many trailing file-touching turns are
	// considered when evaluating a file-context-switch signal.
	fileSwitchWindow = 4

	// fileOverlapThreshold is the maximum Jaccard-style overlap between the
	// two halves of the file-switch window that still counts as a switch.
	fileOverlapThreshold = 0.30
)

// signalScore scores the signals present at turn i, given the full turn
// sequence and the timestamp of the last substantive user prompt seen.
func signalScore(turns []Turn, i int, lastRealPromptAt time.Time) (score int, sawRealPrompt bool) {
	t := turns[i]

	switch {
	case t.IsUserPrompt && t.isTrivialPrompt():
		score += WeightTrivialPrompt
	case t.IsUserPrompt:
		score += WeightUserPrompt
		sawRealPrompt = true
		if !lastRealPromptAt.IsZero() && t.Timestamp.Sub(lastRealPromptAt) >= TimeGapThreshold {
			score += WeightTimeGap
		}
	}

	if t.TaskCompleted {
		score += WeightTaskCompleted
	}
	if t.PlanApproved {
		score += WeightPlanApproved
	}
	if t.IsSubagent {
		score += WeightSubagent
	}
	if fileContextSwitchAt(turns, i) {
		score += WeightFileContextSwitch
	}

	return score, sawRealPrompt
}

// fileContextSwitchAt reports whether turn i completes a trailing window of
// fileSwitchWindow distinct file-touching turns whose first half and second
// half share less than fileOverlapThreshold of their files — a sign the
// conversation has moved to working on different files entirely.
func fileContextSwitchAt(turns []Turn, i int) bool {
	if len(turns[i].touchedFiles()) == 0 {
		return false
	}

	var window []Turn
	for j := i; j >= 0 && len(window) < fileSwitchWindow; j-- {
		if len(turns[j].touchedFiles()) > 0 {
			window = append([]Turn{turns[j]}, window...)
		}
	}
	if len(window) < fileSwitchWindow {
		return false
	}

	mid := len(window) / 2
	firstHalf := fileSet(window[:mid])
	secondHalf := fileSet(window[mid:])

	return overlapFraction(firstHalf, secondHalf) < fileOverlapThreshold
}

func fileSet(turns []Turn) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range turns {
		for _, f := range t.touchedFiles() {
			set[f] = struct{}{}
		}
	}
	return set
}

// overlapFraction returns |a ∩ b| / |a ∪ b|, or 0 if both sets are empty.
func overlapFraction(a, b map[string]struct{}) float64 {
	union := make(map[string]struct{}, len(a)+len(b))
	intersection := 0
	for f := range a {
		union[f] = struct{}{}
		if _, ok := b[f]; ok {
			intersection++
		}
	}
	for f := range b {
		union[f] = struct{}{}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}
