package render

import "github.com/dpup/streetlines/server/internal/lib/geo"

// Sink receives fire-and-forget drawing requests. Implementations in this
// package are safe for concurrent use.
type Sink interface {
	PlaceMarker(point geo.Point)
	DrawPolygon(vertices []geo.Point)
	ClearMarkers()
}

type multiSink []Sink

// Multi fans every call out to sinks in the order given
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) PlaceMarker(point geo.Point) {
	for _, s := range m {
		s.PlaceMarker(point)
	}
}

func (m multiSink) DrawPolygon(vertices []geo.Point) {
	for _, s := range m {
		s.DrawPolygon(vertices)
	}
}

func (m multiSink) ClearMarkers() {
	for _, s := range m {
		s.ClearMarkers()
	}
}

// Nop discards everything
type Nop struct{}

func (Nop) PlaceMarker(geo.Point)   {}
func (Nop) DrawPolygon([]geo.Point) {}
func (Nop) ClearMarkers()           {}

// closeRing returns vertices with the first vertex repeated at the end
func closeRing(vertices []geo.Point) []geo.Point {
	if len(vertices) == 0 || vertices[0] == vertices[len(vertices)-1] {
		return vertices
	}
	ring := make([]geo.Point, 0, len(vertices)+1)
	ring = append(ring, vertices...)
	return append(ring, vertices[0])
}
