// Package config loads and merges the on-disk settings document that
// governs exclusion matching, Phase 2 enrichment, and summarizer pipeline
// tuning, plus the compiled-in milestone type catalog and concept vocabulary.
package config

import "time"

// Settings is the root on-disk settings document, persisted at
// <settings>/settings.json.
type Settings struct {
	// Enabled is the master switch: when false, the dispatcher does not
	// re-extract milestones or enqueue enrichment for any session at all.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// AutoEnrich gates whether Phase 2 (LLM summarization) runs at all for
	// a project. When false, only Phase 1 heuristic milestones are produced.
	AutoEnrich bool `json:"autoEnrich" yaml:"autoEnrich"`

	// AutoKnowledge gates whether the knowledge-base regeneration hook
	// fires on a project's debounced quiet period.
	AutoKnowledge bool `json:"autoKnowledge" yaml:"autoKnowledge"`

	// ScanRangeDays bounds how far back a session's last milestone
	// timestamp may be for it to still be eligible for processing; 0
	// disables the filter.
	ScanRangeDays int `json:"scanRangeDays" yaml:"scanRangeDays"`

	// Phase2Model names the LLM model used for milestone summarization,
	// overriding DefaultPhase2Model when set. See ResolveModel.
	Phase2Model string `json:"phase2Model" yaml:"phase2Model"`

	// ArchitectureModel names the LLM model used for architecture-update
	// knowledge generation, overriding DefaultArchitectureModel when set.
	ArchitectureModel string `json:"architectureModel" yaml:"architectureModel"`

	// ExcludedPaths holds project path prefixes (slash form, e.g.
	// "/home/ubuntu/scratch") that should never be watched or enriched.
	ExcludedPaths []string `json:"excludedPaths" yaml:"excludedPaths"`

	Summarizer SummarizerSettings `json:"summarizer" yaml:"summarizer"`
}

// ResolveModel implements the model-selection priority: an explicit
// runtime override wins, then the configured Phase2Model, then the
// compiled-in default.
func (s *Settings) ResolveModel(runtimeOverride string) string {
	switch {
	case runtimeOverride != "":
		return runtimeOverride
	case s.Phase2Model != "":
		return s.Phase2Model
	default:
		return DefaultPhase2Model
	}
}

// ResolveArchitectureModel applies the same priority as ResolveModel to the
// architecture-update model selection.
func (s *Settings) ResolveArchitectureModel(runtimeOverride string) string {
	switch {
	case runtimeOverride != "":
		return runtimeOverride
	case s.ArchitectureModel != "":
		return s.ArchitectureModel
	default:
		return DefaultArchitectureModel
	}
}

// SummarizerSettings tunes the Phase 2 batch/dispatch pipeline.
type SummarizerSettings struct {
	// Concurrency bounds how many LLM batches may be in flight at once.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// RateLimitPerMinute caps LLM calls admitted within any rolling minute.
	RateLimitPerMinute int `json:"rateLimitPerMinute" yaml:"rateLimitPerMinute"`

	// BatchSize is the maximum number of milestones bundled into one LLM call.
	BatchSize int `json:"batchSize" yaml:"batchSize"`

	// TokenBudget is the approximate prompt token ceiling per batch.
	TokenBudget int `json:"tokenBudget" yaml:"tokenBudget"`

	// ReservedTokens is held back from TokenBudget for the response and
	// system prompt overhead.
	ReservedTokens int `json:"reservedTokens" yaml:"reservedTokens"`

	// DebounceSeconds is how long the pipeline waits for quiet before
	// enqueuing a project's pending milestones.
	DebounceSeconds int `json:"debounceSeconds" yaml:"debounceSeconds"`

	// CallTimeoutSeconds bounds a single LLM call; there is no retry.
	CallTimeoutSeconds int `json:"callTimeoutSeconds" yaml:"callTimeoutSeconds"`
}

// CallTimeout returns CallTimeoutSeconds as a time.Duration.
func (s SummarizerSettings) CallTimeout() time.Duration {
	return time.Duration(s.CallTimeoutSeconds) * time.Second
}

// DebounceInterval returns DebounceSeconds as a time.Duration.
func (s SummarizerSettings) DebounceInterval() time.Duration {
	return time.Duration(s.DebounceSeconds) * time.Second
}
