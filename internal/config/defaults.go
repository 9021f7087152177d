package config

// DefaultPhase2Model is used for milestone summarization when neither a
// runtime override nor settings.phase2Model is set.
const DefaultPhase2Model = "haiku"

// DefaultArchitectureModel is used for architecture-update knowledge
// generation when neither a runtime override nor settings.architectureModel
// is set.
const DefaultArchitectureModel = "haiku"

// DefaultScanRangeDays bounds how far back a session must have last been
// touched to remain eligible for processing.
const DefaultScanRangeDays = 30

// DefaultSettings returns the built-in settings used when settings.json is
// absent, or to fill in any field a loaded document leaves unset.
func DefaultSettings() *Settings {
	return &Settings{
		Enabled:       true,
		AutoEnrich:    true,
		AutoKnowledge: true,
		ScanRangeDays: DefaultScanRangeDays,
		ExcludedPaths: nil,
		Summarizer:    DefaultSummarizerSettings(),
	}
}

// DefaultSummarizerSettings returns the built-in Phase 2 pipeline tuning.
func DefaultSummarizerSettings() SummarizerSettings {
	return SummarizerSettings{
		Concurrency:        10,
		RateLimitPerMinute: 60,
		BatchSize:          50,
		TokenBudget:        150_000,
		ReservedTokens:     2_500,
		DebounceSeconds:    5,
		CallTimeoutSeconds: 180,
	}
}

// MaxConcurrency is the upper bound enforced on Summarizer.Concurrency.
const MaxConcurrency = 20
