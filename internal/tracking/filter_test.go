package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccuracyFilterBoundary(t *testing.T) {
	f := NewAccuracyFilter(50)

	assert.True(t, f.Accept(Sample{AccuracyMeters: 10}))
	assert.True(t, f.Accept(Sample{AccuracyMeters: 50}), "boundary is inclusive on the accept side")
	assert.False(t, f.Accept(Sample{AccuracyMeters: 50.1}))
	assert.False(t, f.Accept(Sample{AccuracyMeters: 51}))
}

func TestAccuracyFilterDefaultsThreshold(t *testing.T) {
	f := NewAccuracyFilter(0)
	assert.Equal(t, DefaultAccuracyThresholdMeters, f.ThresholdMeters)

	f = NewAccuracyFilter(-5)
	assert.Equal(t, DefaultAccuracyThresholdMeters, f.ThresholdMeters)
}
