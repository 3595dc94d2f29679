package parking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/streetlines/server/internal/lib/geo"
)

func TestBuildPath_GreedyNearestNeighbour(t *testing.T) {
	start := geo.Point{Latitude: 10, Longitude: 10}
	remaining := []geo.Point{
		{Latitude: 10.003, Longitude: 10},
		{Latitude: 10.001, Longitude: 10},
		{Latitude: 10.002, Longitude: 10},
	}

	path := BuildPath(start, remaining, 500)

	assert.Equal(t, []geo.Point{
		start,
		{Latitude: 10.001, Longitude: 10},
		{Latitude: 10.002, Longitude: 10},
		{Latitude: 10.003, Longitude: 10},
	}, path)
}

func TestBuildPath_StopsBeyondMaxConnect(t *testing.T) {
	start := geo.Point{Latitude: 10, Longitude: 10}
	near := geo.Point{Latitude: 10.0005, Longitude: 10} // ~56m
	far := geo.Point{Latitude: 10.01, Longitude: 10}    // ~1.1km from near

	path := BuildPath(start, []geo.Point{far, near}, 100)

	assert.Equal(t, []geo.Point{start, near}, path, "Far point should be left unconnected")
}

func TestBuildPath_ConnectsAtExactlyMaxConnect(t *testing.T) {
	start := geo.Point{Latitude: 10, Longitude: 10}
	next := geo.Point{Latitude: 10.001, Longitude: 10}
	limit := geo.Distance(start, next, geo.Meters)

	assert.Len(t, BuildPath(start, []geo.Point{next}, limit), 2)
	assert.Len(t, BuildPath(start, []geo.Point{next}, limit*0.999), 1)
}

func TestBuildPath_DuplicateCoordinatesAreDistinctInputs(t *testing.T) {
	start := geo.Point{Latitude: 10, Longitude: 10}
	dup := geo.Point{Latitude: 10.001, Longitude: 10}

	path := BuildPath(start, []geo.Point{dup, dup}, 500)

	require.Len(t, path, 3)
	assert.Equal(t, dup, path[1])
	assert.Equal(t, dup, path[2])
}

func TestBuildPath_DoesNotMutateInput(t *testing.T) {
	start := geo.Point{Latitude: 10, Longitude: 10}
	remaining := []geo.Point{
		{Latitude: 10.002, Longitude: 10},
		{Latitude: 10.001, Longitude: 10},
	}
	original := append([]geo.Point(nil), remaining...)

	BuildPath(start, remaining, 500)

	assert.Equal(t, original, remaining)
}

func TestBuildPath_NoRemainingPoints(t *testing.T) {
	start := geo.Point{Latitude: 10, Longitude: 10}
	assert.Equal(t, []geo.Point{start}, BuildPath(start, nil, 500))
}

func TestFindExtremePoints_PassThrough(t *testing.T) {
	points := []geo.Point{
		{Latitude: 10, Longitude: 10},
		{Latitude: 10.001, Longitude: 10.002},
		{Latitude: 10.0005, Longitude: 10.001},
	}
	assert.Equal(t, points, FindExtremePoints(points))
}
