package config

import "errors"

var (
	// ErrSettingsNotFound indicates no settings.json exists at the resolved path.
	// Callers fall back to compiled-in defaults; this is not fatal.
	ErrSettingsNotFound = errors.New("settings file not found")

	// ErrInvalidSettingsJSON indicates settings.json failed to parse.
	ErrInvalidSettingsJSON = errors.New("invalid settings JSON")

	// ErrInvalidSettings indicates settings parsed but failed validation.
	ErrInvalidSettings = errors.New("settings failed validation")
)
