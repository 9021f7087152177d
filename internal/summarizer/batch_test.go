package summarizer

import (
	"testing"

	"github.com/sessionmind/milestoned/internal/config"
	"github.com/sessionmind/milestoned/internal/milestone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func milestoneWithPrompt(sessionID string, index int, prompt string) *milestone.Milestone {
	return &milestone.Milestone{SessionID: sessionID, Index: index, UserPrompts: []string{prompt}}
}

func TestFormBatchesRespectsBatchSize(t *testing.T) {
	cfg := config.DefaultSummarizerSettings()
	cfg.BatchSize = 2
	cfg.TokenBudget = 1_000_000
	cfg.ReservedTokens = 0

	sessions := []SessionBatch{
		{SessionID: "s1", Milestones: []*milestone.Milestone{milestoneWithPrompt("s1", 0, "a")}},
		{SessionID: "s2", Milestones: []*milestone.Milestone{milestoneWithPrompt("s2", 0, "b")}},
		{SessionID: "s3", Milestones: []*milestone.Milestone{milestoneWithPrompt("s3", 0, "c")}},
	}

	batches := FormBatches(sessions, cfg)
	total := 0
	for _, b := range batches {
		assert.LessOrEqual(t, len(b), cfg.BatchSize)
		total += len(b)
	}
	assert.Equal(t, 3, total)
}

func TestFormBatchesKeepsSessionTogetherWhenItFits(t *testing.T) {
	cfg := config.DefaultSummarizerSettings()
	cfg.BatchSize = 50
	cfg.TokenBudget = 1_000_000
	cfg.ReservedTokens = 0

	sessions := []SessionBatch{
		{SessionID: "s1", Milestones: []*milestone.Milestone{milestoneWithPrompt("s1", 0, "a"), milestoneWithPrompt("s1", 1, "b")}},
	}

	batches := FormBatches(sessions, cfg)
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 2)
}

func TestFormBatchesCombinesMultipleSessionsWhenTheyFitTogether(t *testing.T) {
	cfg := config.DefaultSummarizerSettings()
	cfg.BatchSize = 50
	cfg.TokenBudget = 1_000_000
	cfg.ReservedTokens = 0

	sessions := []SessionBatch{
		{SessionID: "s1", Milestones: []*milestone.Milestone{milestoneWithPrompt("s1", 0, "a"), milestoneWithPrompt("s1", 1, "b"), milestoneWithPrompt("s1", 2, "c")}},
		{SessionID: "s2", Milestones: []*milestone.Milestone{milestoneWithPrompt("s2", 0, "d"), milestoneWithPrompt("s2", 1, "e"), milestoneWithPrompt("s2", 2, "f")}},
	}

	batches := FormBatches(sessions, cfg)
	require.Len(t, batches, 1, "two small sessions that fit the budget together must land in one batch")
	assert.Len(t, batches[0], 6)
}

func TestFormBatchesDrawsSessionsInGivenOrder(t *testing.T) {
	cfg := config.DefaultSummarizerSettings()
	cfg.BatchSize = 1
	cfg.TokenBudget = 1_000_000
	cfg.ReservedTokens = 0

	sessions := []SessionBatch{
		{SessionID: "s-c", Milestones: []*milestone.Milestone{milestoneWithPrompt("s-c", 0, "a")}},
		{SessionID: "s-a", Milestones: []*milestone.Milestone{milestoneWithPrompt("s-a", 0, "b")}},
	}

	batches := FormBatches(sessions, cfg)
	require.Len(t, batches, 2)
	assert.Equal(t, "s-c", batches[0][0].SessionID)
	assert.Equal(t, "s-a", batches[1][0].SessionID)
}

func TestFormBatchesNeverSplitsASessionAcrossBatches(t *testing.T) {
	cfg := config.DefaultSummarizerSettings()
	cfg.BatchSize = 1 // forces every additional session to spill into a new batch
	cfg.TokenBudget = 1_000_000
	cfg.ReservedTokens = 0

	sessions := []SessionBatch{
		{SessionID: "s1", Milestones: []*milestone.Milestone{milestoneWithPrompt("s1", 0, "a"), milestoneWithPrompt("s1", 1, "b")}},
		{SessionID: "s2", Milestones: []*milestone.Milestone{milestoneWithPrompt("s2", 0, "c")}},
	}

	batches := FormBatches(sessions, cfg)
	for _, b := range batches {
		sessionSet := map[string]bool{}
		for _, m := range b {
			sessionSet[m.SessionID] = true
		}
		// with BatchSize 1 no two sessions fit together, so each batch holds
		// one session's milestones (possibly more than BatchSize when that
		// session alone exceeds it)
		assert.LessOrEqual(t, len(sessionSet), 1)
	}
	require.Len(t, batches, 2)
	assert.Len(t, batches[0], 2, "s1's two milestones stay in one batch even though BatchSize is 1")
}
