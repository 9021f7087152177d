package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Loader reads settings.json with an mtime cache so hot paths (exclusion
// checks on every session-change event) only stat the file on each call and
// re-parse it only when its mtime has advanced.
type Loader struct {
	path string

	mu       sync.Mutex
	cached   *Settings
	mtime    time.Time
	loadedAt time.Time
}

// NewLoader creates a Loader for the settings file at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// DefaultSettingsPath returns "<home>/.claude/settings.json", the
// conventional location for the settings document.
func DefaultSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "settings.json"), nil
}

// Load returns the current settings, merged over compiled-in defaults.
// It re-reads the file only when its mtime has advanced since the last
// successful load; a missing file is not an error — defaults are returned.
func (l *Loader) Load() (*Settings, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, statErr := os.Stat(l.path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			if l.cached == nil {
				l.cached = DefaultSettings()
			}
			return l.cached, nil
		}
		return nil, fmt.Errorf("stat settings file: %w", statErr)
	}

	if l.cached != nil && !info.ModTime().After(l.mtime) {
		return l.cached, nil
	}

	loaded, err := l.read()
	if err != nil {
		return nil, err
	}

	l.cached = loaded
	l.mtime = info.ModTime()
	l.loadedAt = time.Now()

	slog.Info("settings reloaded", "path", l.path, "auto_enrich", loaded.AutoEnrich,
		"excluded_paths", len(loaded.ExcludedPaths))

	return l.cached, nil
}

func (l *Loader) read() (*Settings, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSettingsNotFound, l.path)
		}
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	// Decoding onto the defaults lets every field present in the file win,
	// including an explicit false or 0, while absent fields keep their
	// default values.
	merged := DefaultSettings()
	if err := json.Unmarshal(data, merged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettingsJSON, err)
	}

	if err := Validate(merged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	return merged, nil
}
