package parking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/streetlines/server/internal/lib/geo"
)

func TestCenterRectangle_NorthFacing(t *testing.T) {
	bounds := geo.Bounds{TX: 38.1395, TY: -120.4625, BX: 38.1370, BY: -120.4550}
	rect := DefaultConfig().Rectangle

	r, err := CenterRectangle(bounds, 0, rect)
	require.NoError(t, err)
	assert.Equal(t, 1, r.ID)

	center := bounds.Center()
	vertices := r.Vertices()
	require.Len(t, vertices, 4)

	// Heading north, the stall sits east of the center
	for _, v := range vertices {
		assert.Greater(t, v.Longitude, center.Longitude)
	}
	assert.InDelta(t, rect.Width, geo.Distance(vertices[1], vertices[2], geo.Meters), 0.05)
	assert.InDelta(t, rect.Height, geo.Distance(vertices[0], vertices[1], geo.Meters), 0.05)
	assert.InDelta(t, rect.DistanceFromCenter,
		geo.Distance(center, geo.Point{Latitude: center.Latitude, Longitude: vertices[0].Longitude}, geo.Meters), 0.05)
}

func TestCenterRectangle_RotationKeepsSides(t *testing.T) {
	bounds := geo.Bounds{TX: 10, TY: 10, BX: 10.01, BY: 10.01}
	rect := DefaultConfig().Rectangle

	for _, orientation := range []float64{0.3, math.Pi / 2, 2, math.Pi, 5.5} {
		r, err := CenterRectangle(bounds, orientation, rect)
		require.NoError(t, err)
		v := r.Vertices()
		assert.InDelta(t, rect.Height, geo.Distance(v[0], v[1], geo.Meters), 0.05, "orientation %v", orientation)
		assert.InDelta(t, rect.Width, geo.Distance(v[1], v[2], geo.Meters), 0.05, "orientation %v", orientation)
		assert.InDelta(t, rect.Height, geo.Distance(v[2], v[3], geo.Meters), 0.05, "orientation %v", orientation)
	}
}

func TestCenterRectangle_PointBoundsAllowed(t *testing.T) {
	_, err := CenterRectangle(geo.Bounds{TX: 10, TY: 10, BX: 10, BY: 10}, 0, DefaultConfig().Rectangle)
	assert.NoError(t, err)
}

func TestCenterRectangle_InvalidInput(t *testing.T) {
	rect := DefaultConfig().Rectangle

	_, err := CenterRectangle(geo.Bounds{TX: 95, TY: 10, BX: 10, BY: 10}, 0, rect)
	assert.ErrorIs(t, err, geo.ErrInvalidBounds)

	_, err = CenterRectangle(geo.Bounds{TX: 10, TY: 10, BX: 10, BY: 10}, math.NaN(), rect)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = CenterRectangle(geo.Bounds{TX: 10, TY: 10, BX: 10, BY: 10}, 0, RectangleConfig{Height: 0, Width: 1})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
