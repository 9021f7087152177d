package reextract

import (
	"testing"
	"time"

	"github.com/sessionmind/milestoned/internal/config"
	"github.com/sessionmind/milestoned/internal/milestone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enrichedMilestone(sessionID string, index, start, end int) *milestone.Milestone {
	now := time.Now()
	return &milestone.Milestone{
		SessionID:   sessionID,
		Index:       index,
		StartTurn:   start,
		EndTurn:     end,
		Phase:       milestone.PhaseEnriched,
		Status:      milestone.StatusEnriched,
		GeneratedAt: &now,
		ModelUsed:   "haiku",
		Phase2: &milestone.Phase2Content{
			Title: "did a thing",
			Type:  config.MilestoneTypeImplementation,
		},
	}
}

func heuristicMilestone(sessionID string, index, start, end int) *milestone.Milestone {
	return &milestone.Milestone{
		SessionID: sessionID,
		Index:     index,
		StartTurn: start,
		EndTurn:   end,
		Phase:     milestone.PhaseHeuristic,
		Status:    milestone.StatusPending,
	}
}

func TestReconcilePreservesPhase2WhenOverlapHighEnough(t *testing.T) {
	old := []*milestone.Milestone{enrichedMilestone("s", 0, 0, 9)}
	next := []*milestone.Milestone{heuristicMilestone("s", 0, 0, 8)} // 9/10 turns overlap

	result := Reconcile(old, next)

	require.Equal(t, milestone.PhaseEnriched, result[0].Phase)
	assert.Equal(t, "did a thing", result[0].Phase2.Title)
}

func TestReconcileDoesNotPreserveBelowThreshold(t *testing.T) {
	old := []*milestone.Milestone{enrichedMilestone("s", 0, 0, 9)}
	next := []*milestone.Milestone{heuristicMilestone("s", 0, 8, 20)} // tiny overlap

	result := Reconcile(old, next)

	assert.Equal(t, milestone.PhaseHeuristic, result[0].Phase)
	assert.Nil(t, result[0].Phase2)
}

func TestReconcileAtMostOneClaimPerOldMilestone(t *testing.T) {
	old := []*milestone.Milestone{enrichedMilestone("s", 0, 0, 9)}
	next := []*milestone.Milestone{
		heuristicMilestone("s", 0, 0, 9),
		heuristicMilestone("s", 1, 0, 9), // identical range, would also qualify
	}

	result := Reconcile(old, next)

	enrichedCount := 0
	for _, m := range result {
		if m.Phase == milestone.PhaseEnriched {
			enrichedCount++
		}
	}
	assert.Equal(t, 1, enrichedCount, "an old milestone's Phase2 content must be claimed by at most one new milestone")
}

func TestPendingReEnrichmentReturnsOnlyUnpreserved(t *testing.T) {
	milestones := []*milestone.Milestone{
		enrichedMilestone("s", 0, 0, 9),
		heuristicMilestone("s", 1, 10, 15),
	}

	pending := PendingReEnrichment(milestones)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Index)
}
