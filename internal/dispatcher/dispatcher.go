// Package dispatcher wires a session-change notification (a transcript
// growing past its last-seen turn count) through re-extraction, thin-
// milestone absorption, re-extraction reconciliation, and — once a short
// quiet period has passed — Phase 2 enqueue and knowledge-base regeneration.
package dispatcher

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sessionmind/milestoned/internal/boundary"
	"github.com/sessionmind/milestoned/internal/config"
	"github.com/sessionmind/milestoned/internal/debounce"
	"github.com/sessionmind/milestoned/internal/exclusion"
	"github.com/sessionmind/milestoned/internal/milestone"
	"github.com/sessionmind/milestoned/internal/reextract"
	"github.com/sessionmind/milestoned/internal/segment"
	"github.com/sessionmind/milestoned/internal/thin"
)

// orderedSessionSet tracks the project's sessions awaiting enqueue in the
// order they first appeared, so flushEnqueue can hand the pipeline batches
// in queue order instead of Go's randomized map iteration order.
type orderedSessionSet struct {
	order []string
	seen  map[string]bool
}

func (q *orderedSessionSet) add(sessionID string) {
	if q.seen == nil {
		q.seen = make(map[string]bool)
	}
	if q.seen[sessionID] {
		return
	}
	q.seen[sessionID] = true
	q.order = append(q.order, sessionID)
}

// agentSessionPrefix marks a transcript spawned for a sub-agent turn rather
// than a top-level user session; these are never independently milestoned.
const agentSessionPrefix = "agent-"

// knowledgeGenDebounce is how long the dispatcher waits for a project to go
// quiet before triggering a knowledge-base regeneration for it.
const knowledgeGenDebounce = 2 * time.Second

// Store is the subset of milestone.Store the dispatcher depends on.
type Store interface {
	GetMilestones(sessionID string) ([]*milestone.Milestone, error)
	SaveMilestones(sessionID string, milestones []*milestone.Milestone, numTurns int, sessionTimestamp time.Time) error
	NeedsReExtraction(sessionID string, currentTurnCount int) bool
}

// Enqueuer hands sessions off to the Phase 2 summarization pipeline once
// their 5-second post-change quiet period elapses.
type Enqueuer interface {
	ProcessSessions(ctx context.Context, sessionIDs []string, cfg config.SummarizerSettings, model string) error
}

// Dispatcher receives session-change notifications and drives milestone
// re-extraction and downstream enrichment enqueue.
type Dispatcher struct {
	store    Store
	loader   *config.Loader
	enqueuer Enqueuer

	onKnowledgeGen func(projectPath string)

	mu              sync.Mutex
	enqueueDebounce map[string]*debounce.Timer        // keyed by project path
	knowledgeGenDeb map[string]*debounce.Timer        // keyed by project path
	pendingSessions map[string]*orderedSessionSet     // project path -> session IDs awaiting enqueue, in first-seen order
}

// New builds a Dispatcher. onKnowledgeGen may be nil if no knowledge-base
// regeneration hook is wired.
func New(store Store, loader *config.Loader, enqueuer Enqueuer, onKnowledgeGen func(projectPath string)) *Dispatcher {
	return &Dispatcher{
		store:           store,
		loader:          loader,
		enqueuer:        enqueuer,
		onKnowledgeGen:  onKnowledgeGen,
		enqueueDebounce: make(map[string]*debounce.Timer),
		knowledgeGenDeb: make(map[string]*debounce.Timer),
		pendingSessions: make(map[string]*orderedSessionSet),
	}
}

// IsEligible reports whether a session should be watched at all: it is not
// a sub-agent transcript, and its project is not excluded by settings.
func (d *Dispatcher) IsEligible(sessionID, projectPath string) bool {
	if strings.HasPrefix(sessionID, agentSessionPrefix) {
		return false
	}
	settings, err := d.loader.Load()
	if err != nil {
		slog.Error("loading settings for eligibility check", "error", err)
		return true // fail open: a settings read failure must not silently stop watching
	}
	return !exclusion.NewMatcher(settings.ExcludedPaths).IsExcluded(projectPath)
}

// OnSessionChanged re-extracts milestones for sessionID if its transcript
// has grown, then schedules a debounced Phase 2 enqueue and knowledge-base
// regeneration for its project.
func (d *Dispatcher) OnSessionChanged(sessionID, projectPath string, turns []boundary.Turn) error {
	if !d.IsEligible(sessionID, projectPath) {
		return nil
	}

	settings, err := d.loader.Load()
	if err != nil {
		return err
	}
	if !settings.Enabled {
		return nil
	}

	sessionTimestamp := lastTurnTimestamp(turns)
	if settings.ScanRangeDays > 0 && !sessionTimestamp.IsZero() {
		if time.Since(sessionTimestamp) > time.Duration(settings.ScanRangeDays)*24*time.Hour {
			return nil
		}
	}

	if !d.store.NeedsReExtraction(sessionID, len(turns)) {
		return nil
	}

	if err := d.reExtract(sessionID, turns, sessionTimestamp); err != nil {
		return err
	}

	if settings.AutoEnrich {
		d.scheduleEnqueue(sessionID, projectPath, settings)
	}
	if settings.AutoKnowledge {
		d.scheduleKnowledgeGen(projectPath)
	}
	return nil
}

// lastTurnTimestamp returns the most recent non-zero turn timestamp in
// turns, scanning from the end, or the zero Time if none is set.
func lastTurnTimestamp(turns []boundary.Turn) time.Time {
	for i := len(turns) - 1; i >= 0; i-- {
		if !turns[i].Timestamp.IsZero() {
			return turns[i].Timestamp
		}
	}
	return time.Time{}
}

// reExtract rebuilds Phase 1 milestones from turns and reconciles them
// against the session's previous Phase 2 enrichment, if any.
func (d *Dispatcher) reExtract(sessionID string, turns []boundary.Turn, sessionTimestamp time.Time) error {
	old, err := d.store.GetMilestones(sessionID)
	if err != nil {
		return err
	}

	boundaries := boundary.Detect(turns)
	segments := segment.Build(len(turns), boundaries)
	segments = segment.Merge(segments, turns)
	fresh := segment.Materialize(sessionID, segments, turns)
	fresh = thin.Handle(fresh)
	reconciled := reextract.Reconcile(old, fresh)

	return d.store.SaveMilestones(sessionID, reconciled, len(turns), sessionTimestamp)
}

// scheduleEnqueue debounces a project's pending sessions, flushing them to
// the enqueuer cfg.DebounceSeconds after the most recent change.
func (d *Dispatcher) scheduleEnqueue(sessionID, projectPath string, settings *config.Settings) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pendingSessions[projectPath] == nil {
		d.pendingSessions[projectPath] = &orderedSessionSet{}
	}
	d.pendingSessions[projectPath].add(sessionID)

	cfg := settings.Summarizer
	model := settings.ResolveModel("")
	timer, ok := d.enqueueDebounce[projectPath]
	if !ok {
		timer = debounce.New(cfg.DebounceInterval(), func() { d.flushEnqueue(projectPath, cfg, model) })
		d.enqueueDebounce[projectPath] = timer
	}
	timer.Reset()
}

func (d *Dispatcher) flushEnqueue(projectPath string, cfg config.SummarizerSettings, model string) {
	d.mu.Lock()
	pending := d.pendingSessions[projectPath]
	delete(d.pendingSessions, projectPath)
	d.mu.Unlock()

	if pending == nil || len(pending.order) == 0 || d.enqueuer == nil {
		return
	}

	// sessionIDs is in the order sessions first appeared in the queue, so
	// batch formation downstream draws them in that same order.
	if err := d.enqueuer.ProcessSessions(context.Background(), pending.order, cfg, model); err != nil {
		slog.Error("processing enqueued sessions", "project_path", projectPath, "error", err)
	}
}

// scheduleKnowledgeGen debounces the knowledge-base regeneration hook for a
// project.
func (d *Dispatcher) scheduleKnowledgeGen(projectPath string) {
	if d.onKnowledgeGen == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	timer, ok := d.knowledgeGenDeb[projectPath]
	if !ok {
		timer = debounce.New(knowledgeGenDebounce, func() { d.onKnowledgeGen(projectPath) })
		d.knowledgeGenDeb[projectPath] = timer
	}
	timer.Reset()
}
