package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveModelPriorityOrder(t *testing.T) {
	s := &Settings{Phase2Model: "sonnet"}

	assert.Equal(t, "opus", s.ResolveModel("opus"), "an explicit runtime override always wins")
	assert.Equal(t, "sonnet", s.ResolveModel(""), "falls back to the configured phase2Model")

	empty := &Settings{}
	assert.Equal(t, DefaultPhase2Model, empty.ResolveModel(""), "falls back to the compiled-in default last")
}

func TestResolveArchitectureModelPriorityOrder(t *testing.T) {
	s := &Settings{ArchitectureModel: "sonnet"}

	assert.Equal(t, "opus", s.ResolveArchitectureModel("opus"))
	assert.Equal(t, "sonnet", s.ResolveArchitectureModel(""))

	empty := &Settings{}
	assert.Equal(t, DefaultArchitectureModel, empty.ResolveArchitectureModel(""))
}

func TestDefaultSettingsEnablesProcessingByDefault(t *testing.T) {
	s := DefaultSettings()
	assert.True(t, s.Enabled)
	assert.True(t, s.AutoEnrich)
	assert.True(t, s.AutoKnowledge)
	assert.Equal(t, DefaultScanRangeDays, s.ScanRangeDays)
}
