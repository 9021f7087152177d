// Package summarizer implements the Phase 2 batch/dispatch pipeline: it
// groups pending milestones into token-budgeted batches that may span
// multiple sessions, dispatches them to an LLM invoker under a concurrency
// cap and a rolling-minute rate limit, and applies validated results
// (including merge directives) back onto each session's milestone slice.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sessionmind/milestoned/internal/config"
	"github.com/sessionmind/milestoned/internal/llmclient"
	"github.com/sessionmind/milestoned/internal/milestone"
	"github.com/sessionmind/milestoned/internal/ratelimit"
	"golang.org/x/sync/errgroup"
)

// Store is the subset of milestone.Store the pipeline depends on, narrowed
// so tests can supply a fake. UpdateMilestones (not SaveMilestones) is used
// here since enrichment never learns a fresh transcript turn count — only a
// re-extraction notification does.
type Store interface {
	GetMilestones(sessionID string) ([]*milestone.Milestone, error)
	UpdateMilestones(sessionID string, milestones []*milestone.Milestone) error
}

// ArchitectureSink receives a milestone's facts when ArchitectureRelevant is
// true, feeding the knowledge base's architecture-update project set.
type ArchitectureSink interface {
	RecordArchitectureRelevant(sessionID string, m *milestone.Milestone)
}

// VectorIndexer is the narrow vector-store collaborator the pipeline keeps
// in sync as milestones are enriched or absorbed into a merge survivor.
// Both calls are awaited serially per milestone; a failure is logged and
// counted in Stats.VectorErrors and does not fail the batch.
type VectorIndexer interface {
	AddVectors(ctx context.Context, sessionID string, m *milestone.Milestone) error
	DeleteMilestone(ctx context.Context, sessionID string, originalIndex int) error
}

// Stats is a point-in-time snapshot of the pipeline's lifetime counters,
// read by cmd/milestoned to fill the status package's pipeline-status.json
// snapshot.
type Stats struct {
	Processing         bool
	Processed          int
	Errors             int
	LastProcessedAt     time.Time
	StartedAt          time.Time
	CurrentBatch       int
	BatchesCompleted   int
	VectorsIndexed     int
	VectorErrors       int
	MergesApplied      int
	MilestonesAbsorbed int
	CurrentModel       string
}

// Pipeline owns the concurrency-bounded, rate-limited dispatch of pending
// milestone batches to the LLM.
type Pipeline struct {
	store   Store
	invoker llmclient.Invoker
	limiter *ratelimit.Limiter
	arch    ArchitectureSink
	vectors VectorIndexer

	mu               sync.Mutex
	quiescent        bool
	completeHookFn   func()
	stats            Stats
}

// NewPipeline builds a Pipeline. arch and vectors may be nil if no
// architecture-update hook or vector-store sink is wired.
func NewPipeline(store Store, invoker llmclient.Invoker, limiter *ratelimit.Limiter, arch ArchitectureSink, vectors VectorIndexer) *Pipeline {
	return &Pipeline{store: store, invoker: invoker, limiter: limiter, arch: arch, vectors: vectors, quiescent: true, stats: Stats{StartedAt: time.Now()}}
}

// OnPipelineComplete registers a hook fired at most once per quiescent
// transition: every time the pipeline drains from having pending work back
// to empty. Re-registering replaces the previous hook.
func (p *Pipeline) OnPipelineComplete(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completeHookFn = fn
}

// Stats returns a snapshot of the pipeline's lifetime counters.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// ProcessSessions enriches pending milestones across multiple sessions,
// packing them into batches that may span session boundaries (see
// FormBatches), and dispatches those batches concurrently bounded by
// cfg.Concurrency. sessionIDs is consumed in order, so sessions drawn
// earlier from the dispatch queue are packed into earlier batches. The
// completion hook fires once all batches finish, whether or not any of
// them reported an error.
func (p *Pipeline) ProcessSessions(ctx context.Context, sessionIDs []string, cfg config.SummarizerSettings, model string) error {
	if len(sessionIDs) == 0 {
		return nil
	}

	p.mu.Lock()
	p.quiescent = false
	p.stats.Processing = true
	p.stats.CurrentModel = model
	p.mu.Unlock()
	defer p.markQuiescentIfDrained()

	sessionFull := make(map[string][]*milestone.Milestone, len(sessionIDs))
	var ordered []SessionBatch
	for _, sessionID := range sessionIDs {
		milestones, err := p.store.GetMilestones(sessionID)
		if err != nil {
			slog.Error("loading milestones for batch formation", "session_id", sessionID, "error", err)
			p.recordError()
			continue
		}
		pending := pendingMilestones(milestones)
		if len(pending) == 0 {
			continue
		}
		sessionFull[sessionID] = milestones
		ordered = append(ordered, SessionBatch{SessionID: sessionID, Milestones: pending})
	}
	if len(ordered) == 0 {
		return nil
	}

	batches := FormBatches(ordered, cfg)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Concurrency > 0 {
		g.SetLimit(cfg.Concurrency)
	}

	var resultsMu sync.Mutex
	merged := make(map[string][]*milestone.Milestone, len(sessionFull))

	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			if p.limiter != nil {
				if err := p.limiter.Wait(gctx); err != nil {
					return fmt.Errorf("rate limit wait: %w", err)
				}
			}
			updated, err := p.dispatchBatch(gctx, batch, sessionFull, model, cfg)
			if err != nil {
				slog.Error("batch dispatch failed", "error", err)
				p.recordError()
				return nil // one batch's failure must not cancel the others
			}
			p.recordBatchCompleted(len(batch))

			resultsMu.Lock()
			for sid, ms := range updated {
				merged[sid] = ms
			}
			resultsMu.Unlock()
			return nil
		})
	}

	err := g.Wait()

	for sid, ms := range merged {
		if saveErr := p.store.UpdateMilestones(sid, ms); saveErr != nil {
			slog.Error("saving enriched milestones", "session_id", sid, "error", saveErr)
			p.recordError()
		}
	}

	return err
}

// markQuiescentIfDrained fires the completion hook exactly once per
// transition into the quiescent state.
func (p *Pipeline) markQuiescentIfDrained() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.quiescent {
		return
	}
	p.quiescent = true
	p.stats.Processing = false
	if p.completeHookFn != nil {
		p.completeHookFn()
	}
}

func (p *Pipeline) recordError() {
	p.mu.Lock()
	p.stats.Errors++
	p.mu.Unlock()
}

func (p *Pipeline) recordBatchCompleted(size int) {
	p.mu.Lock()
	p.stats.Processed += size
	p.stats.BatchesCompleted++
	p.stats.LastProcessedAt = time.Now()
	p.mu.Unlock()
}

// dispatchBatch runs one LLM call covering batch (which may span multiple
// sessions), applies merge directives and results against each touched
// session's full milestone slice, and returns the updated slices keyed by
// session ID.
func (p *Pipeline) dispatchBatch(ctx context.Context, batch []*milestone.Milestone, sessionFull map[string][]*milestone.Milestone, model string, cfg config.SummarizerSettings) (map[string][]*milestone.Milestone, error) {
	p.mu.Lock()
	p.stats.CurrentBatch = len(batch)
	p.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeout())
	defer cancel()

	req := llmclient.NewRequest(BuildUserPrompt(batch), BuildSystemPrompt(), model)
	resp, err := p.invoker.Invoke(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("LLM call: %w", err)
	}

	results, directives, err := ParseResponse(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("parsing LLM response: %w", err)
	}

	directivesBySession := make(map[string][]MergeDirective)
	for _, d := range directives {
		sid := sessionIDOf(d.SurvivorID)
		directivesBySession[sid] = append(directivesBySession[sid], d)
	}
	resultsBySession := make(map[string][]MilestoneResult)
	for _, r := range results {
		sid := sessionIDOf(r.ID)
		resultsBySession[sid] = append(resultsBySession[sid], r)
	}

	touched := touchedSessions(batch)
	updated := make(map[string][]*milestone.Milestone, len(touched))
	now := time.Now()

	for _, sid := range touched {
		full := sessionFull[sid]

		kept, absorbed := ApplyMergeDirectives(full, directivesBySession[sid])
		if len(absorbed) > 0 {
			p.mu.Lock()
			p.stats.MergesApplied++
			p.stats.MilestonesAbsorbed += len(absorbed)
			p.mu.Unlock()
		}
		for _, a := range absorbed {
			if p.vectors == nil {
				continue
			}
			if err := p.vectors.DeleteMilestone(ctx, a.SessionID, a.OriginalIndex); err != nil {
				slog.Error("deleting absorbed milestone vectors", "session_id", a.SessionID, "index", a.OriginalIndex, "error", err)
				p.mu.Lock()
				p.stats.VectorErrors++
				p.mu.Unlock()
			}
		}

		for _, r := range resultsBySession[sid] {
			target, err := FindByID(kept, r.ID)
			if err != nil {
				slog.Warn("LLM result referenced unknown milestone", "session_id", sid, "id", r.ID)
				continue
			}
			ApplyResult(target, r, now, model)
			if r.ArchitectureRelevant && p.arch != nil {
				p.arch.RecordArchitectureRelevant(sid, target)
			}
			if p.vectors != nil {
				if err := p.vectors.AddVectors(ctx, sid, target); err != nil {
					slog.Error("indexing enriched milestone vectors", "session_id", sid, "id", r.ID, "error", err)
					p.mu.Lock()
					p.stats.VectorErrors++
					p.mu.Unlock()
				} else {
					p.mu.Lock()
					p.stats.VectorsIndexed++
					p.mu.Unlock()
				}
			}
		}

		updated[sid] = kept
	}

	return updated, nil
}

// sessionIDOf extracts the session ID prefix from a composite
// "sessionId:index" milestone identity.
func sessionIDOf(id string) string {
	if i := strings.LastIndex(id, ":"); i >= 0 {
		return id[:i]
	}
	return id
}

// touchedSessions returns the distinct, order-preserved session IDs present
// in batch.
func touchedSessions(batch []*milestone.Milestone) []string {
	seen := make(map[string]bool, len(batch))
	var sessions []string
	for _, m := range batch {
		if !seen[m.SessionID] {
			seen[m.SessionID] = true
			sessions = append(sessions, m.SessionID)
		}
	}
	return sessions
}

// pendingMilestones returns milestones still awaiting Phase 2 enrichment.
func pendingMilestones(milestones []*milestone.Milestone) []*milestone.Milestone {
	var pending []*milestone.Milestone
	for _, m := range milestones {
		if m.Phase != milestone.PhaseEnriched && m.Status != milestone.StatusAbsorbed {
			pending = append(pending, m)
		}
	}
	return pending
}
