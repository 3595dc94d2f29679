package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/streetlines/server/internal/lib/geo"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 6.0, cfg.Engine.SpotDistance)
	assert.Equal(t, 4, cfg.Engine.ScoutPoints)
	assert.Equal(t, 5.0, cfg.Engine.Rectangle.Height)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.SpotDistance = -1
	cfg.Cache.TTL = 0
	cfg.NATS.URL = "nats://localhost:4222"
	cfg.NATS.SubjectPrefix = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spot_distance")
	assert.Contains(t, err.Error(), "cache.ttl")
	assert.Contains(t, err.Error(), "nats.subject_prefix")
}

func TestValidate_MonitoredAreas(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Areas.Monitored = []MonitoredArea{
		{ID: "murphys", Name: "Murphys Main St", Bounds: geo.Bounds{TX: 38.1395, TY: -120.4625, BX: 38.1370, BY: -120.4550}},
		{ID: "murphys", Name: "Duplicate", Bounds: geo.Bounds{TX: 38.1395, TY: -120.4625, BX: 38.1370, BY: -120.4550}},
		{ID: "", Name: "Flat", Bounds: geo.Bounds{TX: 38, TY: -120, BX: 38, BY: -120}},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"murphys" is duplicated`)
	assert.Contains(t, err.Error(), "areas.monitored[2].id is required")
	assert.Contains(t, err.Error(), "areas.monitored[2].bounds")
}

func TestArea(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Areas.Monitored = []MonitoredArea{
		{ID: "murphys", Name: "Murphys Main St"},
	}

	area, ok := cfg.Areas.Area("murphys")
	require.True(t, ok)
	assert.Equal(t, "Murphys Main St", area.Name)

	_, ok = cfg.Areas.Area("arnold")
	assert.False(t, ok)
}
