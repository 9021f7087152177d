package summarizer

import (
	"github.com/sessionmind/milestoned/internal/config"
	"github.com/sessionmind/milestoned/internal/milestone"
)

// SessionBatch is one session's pending milestones, in the order the
// session was drawn from the dispatch queue. FormBatches takes a slice of
// these (rather than a map) so that sessions are packed into batches in
// the same order they first appeared in the queue.
type SessionBatch struct {
	SessionID  string
	Milestones []*milestone.Milestone
}

// charsPerToken is a rough, conservative estimator used only to keep a
// batch under the configured token budget; it never needs to be exact
// since the LLM call itself is the authority on what it can accept.
const charsPerToken = 4

// EstimateTokens approximates the token cost of summarizing m.
func EstimateTokens(m *milestone.Milestone) int {
	chars := 0
	for _, p := range m.UserPrompts {
		chars += len(p)
	}
	for _, f := range m.FilesModified {
		chars += len(f)
	}
	for _, f := range m.FilesRead {
		chars += len(f)
	}
	return chars/charsPerToken + 64 // +64 covers the per-milestone prompt scaffolding
}

// FormBatches groups pending milestones into LLM-call batches honoring
// cfg.BatchSize and the token budget (cfg.TokenBudget - cfg.ReservedTokens).
// Sessions are drawn from sessions in order, and a single batch may span
// multiple sessions when they fit together — the pipeline's job is to pack
// as much pending work into one LLM call as the budget allows, not to
// dispatch one call per session. A session's own milestones are never
// split across batches, though: a partial-session enrichment would leave
// re-extraction reconciliation working from a half-updated session. A
// single session that alone exceeds the budget still goes out alone, since
// no split is defined for it.
func FormBatches(sessions []SessionBatch, cfg config.SummarizerSettings) [][]*milestone.Milestone {
	budget := cfg.TokenBudget - cfg.ReservedTokens
	if budget <= 0 {
		budget = cfg.TokenBudget
	}

	var batches [][]*milestone.Milestone
	var current []*milestone.Milestone
	currentTokens := 0

	for _, sb := range sessions {
		sessionTokens := 0
		for _, m := range sb.Milestones {
			sessionTokens += EstimateTokens(m)
		}

		fitsCurrent := len(current)+len(sb.Milestones) <= cfg.BatchSize && currentTokens+sessionTokens <= budget
		if len(current) > 0 && !fitsCurrent {
			batches = append(batches, current)
			current = nil
			currentTokens = 0
		}

		current = append(current, sb.Milestones...)
		currentTokens += sessionTokens

		if len(current) >= cfg.BatchSize || currentTokens >= budget {
			batches = append(batches, current)
			current = nil
			currentTokens = 0
		}
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}
