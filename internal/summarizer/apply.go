package summarizer

import (
	"fmt"
	"time"

	"github.com/sessionmind/milestoned/internal/milestone"
)

// AbsorbedMilestone records a milestone's identity immediately before
// ApplyMergeDirectives resequenced its session's slice, so a caller can
// still address it — e.g. to delete its vectors — after the session's
// indices have shifted.
type AbsorbedMilestone struct {
	SessionID      string
	OriginalIndex  int
	SurvivorID     string
}

// ApplyMergeDirectives folds absorbed milestones into their survivor within
// one session's slice. A directive is honored only when every absorbed
// index is adjacent to the survivor's eventual span (no gaps), since a
// non-contiguous merge would silently drop whatever sits between them.
// Unhonored directives are skipped rather than failing the whole batch.
// It also returns each absorbed milestone's pre-resequencing identity.
func ApplyMergeDirectives(milestones []*milestone.Milestone, directives []MergeDirective) ([]*milestone.Milestone, []AbsorbedMilestone) {
	byID := make(map[string]*milestone.Milestone, len(milestones))
	indexOf := make(map[string]int, len(milestones))
	for i, m := range milestones {
		byID[m.ID()] = m
		indexOf[m.ID()] = i
	}

	toDelete := make(map[int]bool)
	var absorbedList []AbsorbedMilestone

	for _, d := range directives {
		survivor, ok := byID[d.SurvivorID]
		if !ok {
			continue
		}
		survivorIdx := indexOf[d.SurvivorID]

		absorbedIdxs := make([]int, 0, len(d.AbsorbedIDs))
		valid := true
		for _, aid := range d.AbsorbedIDs {
			if aid == d.SurvivorID {
				continue
			}
			idx, ok := indexOf[aid]
			if !ok || toDelete[idx] {
				valid = false
				break
			}
			absorbedIdxs = append(absorbedIdxs, idx)
		}
		if !valid || len(absorbedIdxs) == 0 {
			continue
		}
		if !isContiguousWith(survivorIdx, absorbedIdxs) {
			continue
		}

		for _, idx := range absorbedIdxs {
			absorbed := milestones[idx]
			survivor.UserPrompts = append(survivor.UserPrompts, absorbed.UserPrompts...)
			survivor.FilesModified = unionStrings(survivor.FilesModified, absorbed.FilesModified)
			survivor.FilesRead = unionStrings(survivor.FilesRead, absorbed.FilesRead)
			survivor.TaskCompletions += absorbed.TaskCompletions
			survivor.SubagentCount += absorbed.SubagentCount
			survivor.StartTurn = min(survivor.StartTurn, absorbed.StartTurn)
			survivor.EndTurn = max(survivor.EndTurn, absorbed.EndTurn)
			if absorbed.StartTimestamp.Before(survivor.StartTimestamp) {
				survivor.StartTimestamp = absorbed.StartTimestamp
			}
			if absorbed.EndTimestamp.After(survivor.EndTimestamp) {
				survivor.EndTimestamp = absorbed.EndTimestamp
			}
			survivor.MergedFrom = append(survivor.MergedFrom, absorbed.ID())
			absorbedList = append(absorbedList, AbsorbedMilestone{
				SessionID:     absorbed.SessionID,
				OriginalIndex: absorbed.Index,
				SurvivorID:    survivor.ID(),
			})
			toDelete[idx] = true
		}
	}

	if len(toDelete) == 0 {
		return milestones, nil
	}

	kept := make([]*milestone.Milestone, 0, len(milestones)-len(toDelete))
	for i, m := range milestones {
		if !toDelete[i] {
			kept = append(kept, m)
		}
	}
	return kept, absorbedList
}

// isContiguousWith reports whether absorbedIdxs, together with survivorIdx,
// form one unbroken run of indices.
func isContiguousWith(survivorIdx int, absorbedIdxs []int) bool {
	all := append([]int{survivorIdx}, absorbedIdxs...)
	minIdx, maxIdx := all[0], all[0]
	for _, v := range all {
		minIdx = min(minIdx, v)
		maxIdx = max(maxIdx, v)
	}
	seen := make(map[int]bool, len(all))
	for _, v := range all {
		seen[v] = true
	}
	for v := minIdx; v <= maxIdx; v++ {
		if !seen[v] {
			return false
		}
	}
	return true
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// ApplyResult writes a validated MilestoneResult onto its matching
// milestone, marking it enriched. now and model are supplied by the caller
// rather than computed here, since this package must stay deterministic for
// testing.
func ApplyResult(m *milestone.Milestone, r MilestoneResult, now time.Time, model string) {
	m.Phase2 = &milestone.Phase2Content{
		Title:                r.Title,
		Description:          r.Description,
		Type:                 r.Type,
		Outcome:              r.Outcome,
		Facts:                r.Facts,
		Concepts:             r.Concepts,
		ArchitectureRelevant: r.ArchitectureRelevant,
	}
	m.Phase = milestone.PhaseEnriched
	m.Status = milestone.StatusEnriched
	m.GeneratedAt = &now
	m.ModelUsed = model
}

// FindByID returns the milestone in milestones whose ID matches id.
func FindByID(milestones []*milestone.Milestone, id string) (*milestone.Milestone, error) {
	for _, m := range milestones {
		if m.ID() == id {
			return m, nil
		}
	}
	return nil, fmt.Errorf("no milestone with id %q in batch result", id)
}
