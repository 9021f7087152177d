// Package reextract reconciles a freshly re-segmented milestone slice
// against the previously persisted one, carrying forward Phase 2 enrichment
// for milestones whose turn ranges still correspond closely enough to not
// have changed meaning.
package reextract

import (
	"sort"

	"github.com/sessionmind/milestoned/internal/milestone"
)

// preservationOverlapThreshold is the minimum turn-span overlap (measured
// against the old milestone's span) required to carry its Phase 2 content
// forward onto a new milestone.
const preservationOverlapThreshold = 0.50

type candidate struct {
	newIndex int
	oldIndex int
	overlap  float64
}

// Reconcile copies Phase 2 content from oldMilestones onto the
// corresponding entries of newMilestones wherever their turn ranges overlap
// by at least preservationOverlapThreshold, each old milestone contributing
// to at most one new milestone. newMilestones is mutated in place and
// returned for convenience.
func Reconcile(oldMilestones, newMilestones []*milestone.Milestone) []*milestone.Milestone {
	var candidates []candidate
	for oi, old := range oldMilestones {
		if old.Phase != milestone.PhaseEnriched || old.Phase2 == nil {
			continue
		}
		for ni, next := range newMilestones {
			overlap := old.OverlapFraction(next.StartTurn, next.EndTurn)
			if overlap >= preservationOverlapThreshold {
				candidates = append(candidates, candidate{newIndex: ni, oldIndex: oi, overlap: overlap})
			}
		}
	}

	// Resolve greedily by descending overlap so the best-matching pairs
	// claim first; enforce at-most-one-claim on both sides.
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].overlap > candidates[j].overlap })

	claimedOld := make(map[int]bool)
	claimedNew := make(map[int]bool)
	for _, c := range candidates {
		if claimedOld[c.oldIndex] || claimedNew[c.newIndex] {
			continue
		}
		claimedOld[c.oldIndex] = true
		claimedNew[c.newIndex] = true

		old := oldMilestones[c.oldIndex]
		next := newMilestones[c.newIndex]
		next.Phase = milestone.PhaseEnriched
		next.Status = milestone.StatusEnriched
		next.GeneratedAt = old.GeneratedAt
		next.ModelUsed = old.ModelUsed
		phase2Copy := *old.Phase2
		next.Phase2 = &phase2Copy
	}

	return newMilestones
}

// PendingReEnrichment returns the subset of milestones that did not
// preserve Phase 2 content from the previous extraction and therefore need
// to be (re-)queued for summarization.
func PendingReEnrichment(milestones []*milestone.Milestone) []*milestone.Milestone {
	var pending []*milestone.Milestone
	for _, m := range milestones {
		if m.Phase != milestone.PhaseEnriched {
			pending = append(pending, m)
		}
	}
	return pending
}
