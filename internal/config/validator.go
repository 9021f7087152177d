package config

import "fmt"

// Validate performs comprehensive validation on a merged Settings document,
// fail-fast on the first problem found.
func Validate(s *Settings) error {
	if s.ScanRangeDays < 0 {
		return fmt.Errorf("scanRangeDays must be non-negative, got %d", s.ScanRangeDays)
	}
	if err := validateSummarizer(s.Summarizer); err != nil {
		return fmt.Errorf("summarizer: %w", err)
	}
	return nil
}

func validateSummarizer(s SummarizerSettings) error {
	if s.Concurrency < 1 || s.Concurrency > MaxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d, got %d", MaxConcurrency, s.Concurrency)
	}
	if s.RateLimitPerMinute < 0 {
		return fmt.Errorf("rateLimitPerMinute must be non-negative, got %d", s.RateLimitPerMinute)
	}
	if s.BatchSize < 1 || s.BatchSize > 50 {
		return fmt.Errorf("batchSize must be between 1 and 50, got %d", s.BatchSize)
	}
	if s.TokenBudget <= s.ReservedTokens {
		return fmt.Errorf("tokenBudget (%d) must exceed reservedTokens (%d)", s.TokenBudget, s.ReservedTokens)
	}
	if s.DebounceSeconds < 0 {
		return fmt.Errorf("debounceSeconds must be non-negative, got %d", s.DebounceSeconds)
	}
	if s.CallTimeoutSeconds <= 0 {
		return fmt.Errorf("callTimeoutSeconds must be positive, got %d", s.CallTimeoutSeconds)
	}
	return nil
}
