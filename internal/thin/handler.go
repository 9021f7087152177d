// Package thin classifies Phase 1 milestones as substantive or thin, and
// folds thin milestones into a neighbor rather than leaving noise-sized
// entries in the index.
package thin

import "github.com/sessionmind/milestoned/internal/milestone"

// minSubstantiveUserPrompts and minSubstantiveToolUses gate the fallback
// substantive check once the early-exit shortcut doesn't already decide it.
const (
	minSubstantiveUserPrompts = 2
	minSubstantiveToolUses    = 3
)

// IsSubstantive reports whether a milestone represents enough work to stand
// on its own. Any file modification or completed task is substantive on its
// own (early-exit shortcut) — most milestones are decided by that one check
// without evaluating prompt or tool-use counts at all.
func IsSubstantive(m *milestone.Milestone) bool {
	if len(m.FilesModified) > 0 || m.TaskCompletions > 0 {
		return true
	}

	if len(m.UserPrompts) >= minSubstantiveUserPrompts {
		return true
	}

	toolUses := 0
	for _, count := range m.ToolUseSummary {
		toolUses += count
	}
	return toolUses >= minSubstantiveToolUses
}

// Handle folds every thin milestone in milestones into a neighbor,
// preferring the previous milestone and falling back to the next one when
// the thin milestone is first in the session. The result has thin entries
// removed; callers must renumber (milestone.Store.SaveMilestones does this)
// since Handle does not touch Index.
func Handle(milestones []*milestone.Milestone) []*milestone.Milestone {
	result := make([]*milestone.Milestone, 0, len(milestones))

	for _, m := range milestones {
		if IsSubstantive(m) {
			result = append(result, m)
			continue
		}

		if len(result) > 0 {
			absorb(result[len(result)-1], m)
			continue
		}

		// No previous survivor yet: this thin milestone becomes a
		// placeholder that foldLeadingThinForward folds into the next
		// survivor, or drops if it is still thin and nothing follows.
		result = append(result, m)
	}

	// A leading thin milestone that was never absorbed into a predecessor
	// gets folded forward into its successor instead.
	return foldLeadingThinForward(result)
}

// foldLeadingThinForward handles the edge case where milestones[0] is thin:
// Handle's main loop has nowhere to absorb it backward, so if a substantive
// milestone follows, fold the leading thin entry into it instead of leaving
// it stranded as milestone zero. A leading thin entry with no successor is
// dropped.
func foldLeadingThinForward(result []*milestone.Milestone) []*milestone.Milestone {
	if len(result) == 0 || IsSubstantive(result[0]) {
		return result
	}
	if len(result) == 1 {
		return nil
	}

	absorb(result[1], result[0])
	return result[1:]
}

// absorb merges absorbed's fields into survivor via set-union/sum
// conservation: no user prompt, file path, or tool-use count is lost, and
// counters are summed rather than overwritten.
func absorb(survivor, absorbed *milestone.Milestone) {
	survivor.UserPrompts = unionStrings(survivor.UserPrompts, absorbed.UserPrompts)
	survivor.FilesModified = unionStrings(survivor.FilesModified, absorbed.FilesModified)
	survivor.FilesRead = unionStrings(survivor.FilesRead, absorbed.FilesRead)

	if survivor.ToolUseSummary == nil {
		survivor.ToolUseSummary = map[string]int{}
	}
	for tool, count := range absorbed.ToolUseSummary {
		survivor.ToolUseSummary[tool] += count
	}

	survivor.TaskCompletions += absorbed.TaskCompletions
	survivor.SubagentCount += absorbed.SubagentCount

	if absorbed.StartTurn < survivor.StartTurn {
		survivor.StartTurn = absorbed.StartTurn
		survivor.StartTimestamp = absorbed.StartTimestamp
	}
	if absorbed.EndTurn > survivor.EndTurn {
		survivor.EndTurn = absorbed.EndTurn
		survivor.EndTimestamp = absorbed.EndTimestamp
	}

	survivor.MergedFrom = append(survivor.MergedFrom, absorbed.ID())
	survivor.MergedFrom = append(survivor.MergedFrom, absorbed.MergedFrom...)
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range append(append([]string{}, a...), b...) {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
