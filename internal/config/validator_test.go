package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRejectsNegativeScanRangeDays(t *testing.T) {
	s := DefaultSettings()
	s.ScanRangeDays = -1
	assert.Error(t, Validate(s))
}

func TestValidateAcceptsZeroScanRangeDays(t *testing.T) {
	s := DefaultSettings()
	s.ScanRangeDays = 0
	assert.NoError(t, Validate(s))
}
