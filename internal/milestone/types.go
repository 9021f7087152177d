// Package milestone defines the milestone entity and the on-disk store that
// persists it, including the bounded in-memory session cache used to avoid
// re-reading every session's file on every mutation.
package milestone

import (
	"fmt"
	"time"

	"github.com/sessionmind/milestoned/internal/config"
)

// Phase identifies how far a milestone has progressed through enrichment.
type Phase int

const (
	// PhaseHeuristic means only boundary-detection fields are populated.
	PhaseHeuristic Phase = 1
	// PhaseEnriched means the LLM summarization pass has also populated
	// the milestone's Phase2Content.
	PhaseEnriched Phase = 2
)

// Status is the lifecycle status of a milestone's enrichment.
type Status string

const (
	StatusPending    Status = "pending"
	StatusEnriched   Status = "enriched"
	StatusThin       Status = "thin"
	StatusAbsorbed   Status = "absorbed"
	StatusSuperseded Status = "superseded"
)

// Milestone is a coarse unit of developer work within one session's
// transcript. Its identity is the pair (SessionID, Index); Index is a dense
// 0-based position within the session's milestone slice.
type Milestone struct {
	SessionID string `json:"sessionId"`
	Index     int    `json:"index"`

	StartTurn int `json:"startTurn"`
	EndTurn   int `json:"endTurn"`

	StartTimestamp time.Time `json:"startTimestamp"`
	EndTimestamp   time.Time `json:"endTimestamp"`

	UserPrompts     []string       `json:"userPrompts"`
	FilesModified   []string       `json:"filesModified"`
	FilesRead       []string       `json:"filesRead"`
	ToolUseSummary  map[string]int `json:"toolUseSummary"`
	TaskCompletions int            `json:"taskCompletions"`
	SubagentCount   int            `json:"subagentCount"`

	Phase       Phase      `json:"phase"`
	Status      Status     `json:"status"`
	GeneratedAt *time.Time `json:"generatedAt,omitempty"`
	ModelUsed   string     `json:"modelUsed,omitempty"`
	MergedFrom  []string   `json:"mergedFrom,omitempty"`

	Phase2 *Phase2Content `json:"phase2,omitempty"`
}

// Phase2Content holds the fields an LLM summarization response contributes.
// Every field must be either all-present or all-absent on a given
// Milestone — a half-populated Phase2Content is an invariant violation.
type Phase2Content struct {
	Title                string               `json:"title"`
	Description          string               `json:"description"`
	Type                 config.MilestoneType `json:"type"`
	Outcome              string               `json:"outcome"`
	Facts                []string             `json:"facts"`
	Concepts             []string             `json:"concepts"`
	ArchitectureRelevant bool                 `json:"architectureRelevant"`
}

// ID returns the milestone's composite identity, "sessionId:index".
func (m *Milestone) ID() string {
	return fmt.Sprintf("%s:%d", m.SessionID, m.Index)
}

// TurnSpan returns the number of turns this milestone covers.
func (m *Milestone) TurnSpan() int {
	return m.EndTurn - m.StartTurn + 1
}

// OverlapFraction reports the fraction of this milestone's turn span that
// falls within [start, end], used by re-extraction reconciliation.
func (m *Milestone) OverlapFraction(start, end int) float64 {
	overlapStart := max(m.StartTurn, start)
	overlapEnd := min(m.EndTurn, end)
	if overlapEnd < overlapStart {
		return 0
	}
	overlap := overlapEnd - overlapStart + 1
	return float64(overlap) / float64(m.TurnSpan())
}

// IndexEntry is the per-session summary row kept in index.json.
type IndexEntry struct {
	SessionID string `json:"sessionId"`

	// Phase1Count is the number of milestones still at PhaseHeuristic;
	// Phase2Count is the number enriched to PhaseEnriched. Neither is the
	// session's total milestone count — see MilestoneCount for that.
	Phase1Count int `json:"phase1Count"`
	Phase2Count int `json:"phase2Count"`

	// Phase is the furthest phase the session has reached as a whole:
	// PhaseEnriched once every milestone is enriched, PhaseHeuristic
	// otherwise (including the empty-session case).
	Phase Phase `json:"phase"`

	// MilestoneCount is the number of milestones stored for the session as
	// of this write; milestones absorbed into a merge survivor are no longer
	// counted.
	MilestoneCount int `json:"milestoneCount"`

	// LastTurnCount is the transcript turn count as of the last
	// re-extraction, used by NeedsReExtraction. It is supplied by the
	// caller rather than derived from milestone EndTurn fields, since an
	// empty milestone list has no EndTurn to derive it from.
	LastTurnCount int `json:"lastTurnCount"`

	// SessionTimestamp is the transcript's most recent turn timestamp as of
	// the last re-extraction, used to scope scan-range eligibility.
	SessionTimestamp time.Time `json:"sessionTimestamp"`

	// LastUpdated is when this index entry was last written.
	LastUpdated time.Time `json:"lastUpdated"`
}
