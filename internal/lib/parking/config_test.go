package parking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 6.0, cfg.SpotDistance)
	assert.Equal(t, 0.5, cfg.Rectangle.DistanceFromCenter)
	assert.Equal(t, 5.0, cfg.Rectangle.Height)
	assert.Equal(t, 2.5, cfg.Rectangle.Width)
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := Config{}

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	for _, field := range []string{"spot_distance", "max_connect_distance", "scout_points", "workers", "rectangle"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestResolutionFailure(t *testing.T) {
	var err error = &ResolutionFailure{Status: "ZERO_RESULTS"}

	failure, ok := AsResolutionFailure(err)
	require.True(t, ok)
	assert.Equal(t, "ZERO_RESULTS", failure.Status)
	assert.Contains(t, err.Error(), "ZERO_RESULTS")

	_, ok = AsResolutionFailure(assert.AnError)
	assert.False(t, ok)
}
