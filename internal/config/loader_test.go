package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderReturnsDefaultsWhenFileMissing(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "missing-settings.json"))

	settings, err := loader.Load()
	require.NoError(t, err)
	assert.True(t, settings.AutoEnrich)
	assert.Equal(t, DefaultSummarizerSettings(), settings.Summarizer)
}

func TestLoaderMergesUserOverridesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	doc := map[string]any{
		"excludedPaths": []string{"/home/ubuntu/scratch"},
		"summarizer": map[string]any{
			"concurrency": 3,
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	settings, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"/home/ubuntu/scratch"}, settings.ExcludedPaths)
	assert.Equal(t, 3, settings.Summarizer.Concurrency)
	// Unset fields still come from defaults.
	assert.Equal(t, DefaultSummarizerSettings().RateLimitPerMinute, settings.Summarizer.RateLimitPerMinute)
}

func TestLoaderRejectsInvalidSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	doc := map[string]any{
		"summarizer": map[string]any{
			"concurrency": 99,
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = NewLoader(path).Load()
	require.ErrorIs(t, err, ErrInvalidSettings)
}

func TestLoaderCachesUntilMtimeAdvances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"autoEnrich":false}`), 0o644))

	loader := NewLoader(path)
	first, err := loader.Load()
	require.NoError(t, err)
	assert.False(t, first.AutoEnrich)

	// Rewrite without changing content identity; Load should still reflect
	// the new content once the mtime has advanced.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"autoEnrich":true}`), 0o644))
	second, err := loader.Load()
	require.NoError(t, err)
	assert.True(t, second.AutoEnrich)
}

func TestBuiltinCatalogLoadsSixTypes(t *testing.T) {
	catalog := GetBuiltinCatalog()
	assert.Len(t, catalog.TypeDefinitions, 6)
	assert.Contains(t, catalog.TypeDefinitions, MilestoneTypeDiscovery)
	assert.NotEmpty(t, catalog.Concepts)

	set := catalog.ConceptSet()
	assert.Contains(t, set, "caching")
}

func TestMilestoneTypeIsValid(t *testing.T) {
	assert.True(t, MilestoneTypeBugfix.IsValid())
	assert.False(t, MilestoneType("unknown").IsValid())
}
