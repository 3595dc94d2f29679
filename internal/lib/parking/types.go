package parking

import (
	"context"

	"github.com/dpup/streetlines/server/internal/lib/geo"
)

// Spot is a point along a street where a pair of footprints is centered.
// X holds latitude and Y holds longitude; Angle is the heading in radians.
type Spot struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

// Point returns the spot position as a geographic point
func (s Spot) Point() geo.Point {
	return geo.Point{Latitude: s.X, Longitude: s.Y}
}

// Footprint is a closed rectangle of exactly four vertices
type Footprint [4]geo.Point

// Vertices returns the footprint corners as a slice
func (f Footprint) Vertices() []geo.Point {
	return f[:]
}

// Street is the processed form of a scouted path. Spots, Footprints and
// Failures are derived from Path and are rebuilt whenever it is reprocessed.
type Street struct {
	Path       []geo.Point      `json:"path"`
	Spots      []Spot           `json:"spots"`
	Footprints []Footprint      `json:"footprints"`
	Failures   []SegmentFailure `json:"failures,omitempty"`
}

// SegmentFailure records a path segment skipped because one of its endpoints
// could not be resolved
type SegmentFailure struct {
	Segment int       `json:"segment"`
	Start   geo.Point `json:"start"`
	End     geo.Point `json:"end"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

// PositionResolver snaps a raw scouted coordinate to a routable one.
// Implementations return *ResolutionFailure when no position can be resolved.
type PositionResolver interface {
	Resolve(ctx context.Context, point geo.Point) (geo.Point, error)
}

// RenderSink receives fire-and-forget drawing requests
type RenderSink interface {
	PlaceMarker(point geo.Point)
	DrawPolygon(vertices []geo.Point)
	ClearMarkers()
}
