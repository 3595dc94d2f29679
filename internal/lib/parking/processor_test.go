package parking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dpup/prefab/logging"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dpup/streetlines/server/internal/lib/geo"
)

// MockResolver is a mock implementation of PositionResolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, point geo.Point) (geo.Point, error) {
	args := m.Called(ctx, point)
	return args.Get(0).(geo.Point), args.Error(1)
}

// recordingSink keeps every render call in order
type recordingSink struct {
	mu       sync.Mutex
	calls    []string
	markers  []geo.Point
	polygons [][]geo.Point
}

func (s *recordingSink) PlaceMarker(point geo.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "marker")
	s.markers = append(s.markers, point)
}

func (s *recordingSink) DrawPolygon(vertices []geo.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "polygon")
	s.polygons = append(s.polygons, vertices)
}

func (s *recordingSink) ClearMarkers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "clear")
	s.markers = nil
}

// testContext returns a context carrying a logger, as prefab request contexts do
func testContext() context.Context {
	return logging.EnsureLogger(context.Background())
}

var testBounds = geo.Bounds{TX: 10, TY: 10, BX: 10.01, BY: 10.01}

// 50 meters north of start along a meridian
var (
	testStart = geo.Point{Latitude: 10.003, Longitude: 10.005}
	testEnd   = geo.Point{Latitude: 10.003 + 50/111194.9266, Longitude: 10.005}
)

func TestProcess_TwoPointsFiftyMetersApart(t *testing.T) {
	sink := &recordingSink{}
	processor, err := NewProcessor(DefaultConfig(), WithRenderSink(sink))
	require.NoError(t, err)

	street, err := processor.Process(testContext(), []geo.Point{testStart, testEnd}, testBounds)
	require.NoError(t, err)

	assert.Equal(t, []geo.Point{testStart, testEnd}, street.Path)
	assert.Len(t, street.Spots, 8)
	assert.Len(t, street.Footprints, 16)
	assert.Empty(t, street.Failures)

	scale, err := testBounds.Scale()
	require.NoError(t, err)
	pad := 1.25 * scale.Y
	bound := orb.Bound{
		Min: orb.Point{testBounds.TY, testBounds.TX},
		Max: orb.Point{testBounds.BY, testBounds.BX},
	}.Pad(pad)
	for i, footprint := range street.Footprints {
		require.Len(t, footprint.Vertices(), 4)
		for _, v := range footprint {
			assert.True(t, bound.Contains(orb.Point{v.Longitude, v.Latitude}), "footprint %d vertex %v", i, v)
		}
	}
}

func TestProcess_RendersMarkersThenPolygonsInOrder(t *testing.T) {
	sink := &recordingSink{}
	processor, err := NewProcessor(DefaultConfig(), WithRenderSink(sink))
	require.NoError(t, err)

	street, err := processor.Process(testContext(), []geo.Point{testStart, testEnd}, testBounds)
	require.NoError(t, err)

	require.Len(t, sink.calls, 24)
	for i := 0; i < 8; i++ {
		assert.Equal(t, "marker", sink.calls[i])
		assert.Equal(t, street.Spots[i].Point(), sink.markers[i])
	}
	for i := 8; i < 24; i++ {
		assert.Equal(t, "polygon", sink.calls[i])
	}
	for i, footprint := range street.Footprints {
		assert.Equal(t, footprint.Vertices(), sink.polygons[i])
	}
}

func TestProcess_EmptyAndSinglePoint(t *testing.T) {
	processor, err := NewProcessor(DefaultConfig())
	require.NoError(t, err)

	street, err := processor.Process(testContext(), nil, testBounds)
	require.NoError(t, err)
	assert.Empty(t, street.Path)
	assert.Empty(t, street.Spots)

	street, err = processor.Process(testContext(), []geo.Point{testStart}, testBounds)
	require.NoError(t, err)
	assert.Equal(t, []geo.Point{testStart}, street.Path)
	assert.Empty(t, street.Footprints)
}

func TestProcess_UnconnectedPointsAreIgnored(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConnectDistance = 100
	processor, err := NewProcessor(cfg)
	require.NoError(t, err)

	far := geo.Point{Latitude: 10.009, Longitude: 10.009}
	street, err := processor.Process(testContext(), []geo.Point{testStart, far, testEnd}, testBounds)
	require.NoError(t, err)

	assert.Equal(t, []geo.Point{testStart, testEnd}, street.Path)
	assert.Len(t, street.Spots, 8)
}

func TestProcess_ShortSegmentsYieldNoSpots(t *testing.T) {
	processor, err := NewProcessor(DefaultConfig())
	require.NoError(t, err)

	near := geo.Point{Latitude: testStart.Latitude + 3/111194.9266, Longitude: testStart.Longitude}
	street, err := processor.Process(testContext(), []geo.Point{testStart, near}, testBounds)
	require.NoError(t, err)

	assert.Len(t, street.Path, 2)
	assert.Empty(t, street.Spots)
	assert.Empty(t, street.Footprints)
}

func TestProcess_UsesResolvedPositions(t *testing.T) {
	shift := 0.0001
	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, testStart).Return(
		geo.Point{Latitude: testStart.Latitude, Longitude: testStart.Longitude + shift}, nil).Once()
	resolver.On("Resolve", mock.Anything, testEnd).Return(
		geo.Point{Latitude: testEnd.Latitude, Longitude: testEnd.Longitude + shift}, nil).Once()

	processor, err := NewProcessor(DefaultConfig(), WithResolver(resolver))
	require.NoError(t, err)

	street, err := processor.Process(testContext(), []geo.Point{testStart, testEnd}, testBounds)
	require.NoError(t, err)

	require.Len(t, street.Spots, 8)
	assert.InDelta(t, testStart.Longitude+shift, street.Spots[0].Y, 1e-12)
	assert.Equal(t, []geo.Point{testStart, testEnd}, street.Path, "Path keeps the raw points")
	resolver.AssertExpectations(t)
}

func TestProcess_ResolutionFailureSkipsOnlyThatSegment(t *testing.T) {
	middle := testEnd
	last := geo.Point{Latitude: middle.Latitude + 50/111194.9266, Longitude: middle.Longitude}
	beyond := geo.Point{Latitude: last.Latitude + 50/111194.9266, Longitude: last.Longitude}

	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, testStart).Return(testStart, nil).Once()
	resolver.On("Resolve", mock.Anything, middle).Return(middle, nil).Once()
	resolver.On("Resolve", mock.Anything, last).Return(geo.Point{},
		&ResolutionFailure{Point: last, Status: "ZERO_RESULTS"}).Once()

	processor, err := NewProcessor(DefaultConfig(), WithResolver(resolver))
	require.NoError(t, err)

	street, err := processor.Process(testContext(), []geo.Point{testStart, middle, last, beyond}, testBounds)
	require.NoError(t, err)

	assert.Len(t, street.Path, 4)
	assert.Len(t, street.Spots, 8, "Only the first segment has both endpoints resolved")
	require.Len(t, street.Failures, 2)
	assert.Equal(t, 1, street.Failures[0].Segment)
	assert.Equal(t, 2, street.Failures[1].Segment)
	assert.Equal(t, "ZERO_RESULTS", street.Failures[0].Status)
	resolver.AssertExpectations(t)
	resolver.AssertNotCalled(t, "Resolve", mock.Anything, beyond)
}

func TestProcess_OtherResolverErrorsAbort(t *testing.T) {
	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, mock.Anything).Return(geo.Point{}, errors.New("boom"))

	processor, err := NewProcessor(DefaultConfig(), WithResolver(resolver))
	require.NoError(t, err)

	street, err := processor.Process(testContext(), []geo.Point{testStart, testEnd}, testBounds)
	assert.Error(t, err)
	assert.Nil(t, street)
}

func TestProcess_InvalidBounds(t *testing.T) {
	processor, err := NewProcessor(DefaultConfig())
	require.NoError(t, err)

	_, err = processor.Process(testContext(), []geo.Point{testStart, testEnd}, geo.Bounds{TX: 10, TY: 10, BX: 10, BY: 10})
	assert.ErrorIs(t, err, geo.ErrInvalidBounds)
}

func TestProcess_CancelledContext(t *testing.T) {
	processor, err := NewProcessor(DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(testContext())
	cancel()

	_, err = processor.Process(ctx, []geo.Point{testStart, testEnd}, testBounds)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcess_ContextWithoutLogger(t *testing.T) {
	processor, err := NewProcessor(DefaultConfig())
	require.NoError(t, err)

	var street *Street
	assert.NotPanics(t, func() {
		street, err = processor.Process(context.Background(), []geo.Point{testStart, testEnd}, testBounds)
	})
	require.NoError(t, err)
	assert.Len(t, street.Spots, 8)
	assert.Len(t, street.Footprints, 16)
}

func TestProcess_CancelledDuringResolution(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext())
	defer cancel()

	resolver := &MockResolver{}
	resolver.On("Resolve", mock.Anything, testStart).Run(func(mock.Arguments) {
		cancel()
	}).Return(geo.Point{}, &ResolutionFailure{Point: testStart, Status: "UNAVAILABLE", Err: context.Canceled}).Once()

	processor, err := NewProcessor(DefaultConfig(), WithResolver(resolver))
	require.NoError(t, err)

	street, err := processor.Process(ctx, []geo.Point{testStart, testEnd}, testBounds)
	assert.Nil(t, street)
	assert.Equal(t, context.Canceled, err, "The bare context error is returned")
	resolver.AssertExpectations(t)
}

func TestProcessAll_KeepsRequestOrder(t *testing.T) {
	processor, err := NewProcessor(DefaultConfig())
	require.NoError(t, err)

	requests := []Request{
		{Points: []geo.Point{testStart, testEnd}, Bounds: testBounds},
		{Points: []geo.Point{testStart}, Bounds: testBounds},
		{Points: nil, Bounds: testBounds},
	}

	streets, err := processor.ProcessAll(testContext(), requests)
	require.NoError(t, err)
	require.Len(t, streets, 3)
	assert.Len(t, streets[0].Spots, 8)
	assert.Len(t, streets[1].Path, 1)
	assert.Empty(t, streets[2].Path)
}

func TestProcessAll_FailsOnInvalidStreet(t *testing.T) {
	processor, err := NewProcessor(DefaultConfig())
	require.NoError(t, err)

	_, err = processor.ProcessAll(testContext(), []Request{
		{Points: []geo.Point{testStart, testEnd}, Bounds: testBounds},
		{Points: []geo.Point{testStart}, Bounds: geo.Bounds{}},
	})
	assert.ErrorIs(t, err, geo.ErrInvalidBounds)
	assert.Contains(t, err.Error(), "street 1")
}

func TestNewProcessor_InvalidConfiguration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpotDistance = 0
	cfg.Workers = 0

	_, err := NewProcessor(cfg)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "spot_distance")
	assert.Contains(t, err.Error(), "workers")
}

func TestRenderTo_LeavesOriginalSinkAlone(t *testing.T) {
	original := &recordingSink{}
	processor, err := NewProcessor(DefaultConfig(), WithRenderSink(original))
	require.NoError(t, err)

	other := &recordingSink{}
	_, err = processor.RenderTo(other).Process(testContext(), []geo.Point{testStart, testEnd}, testBounds)
	require.NoError(t, err)

	assert.Len(t, other.calls, 24)
	assert.Empty(t, original.calls)
}
