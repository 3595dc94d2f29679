package render

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/dpup/streetlines/server/internal/lib/geo"
)

// Feature kinds stored in the "kind" property
const (
	KindSpot      = "spot"
	KindFootprint = "footprint"
)

// GeoJSONSink collects markers and footprints into a GeoJSON FeatureCollection
type GeoJSONSink struct {
	mu       sync.Mutex
	features []*geojson.Feature
}

// NewGeoJSONSink creates an empty GeoJSON sink
func NewGeoJSONSink() *GeoJSONSink {
	return &GeoJSONSink{}
}

func (s *GeoJSONSink) PlaceMarker(point geo.Point) {
	f := geojson.NewFeature(toOrbPoint(point))
	f.Properties["kind"] = KindSpot

	s.mu.Lock()
	defer s.mu.Unlock()
	s.features = append(s.features, f)
}

func (s *GeoJSONSink) DrawPolygon(vertices []geo.Point) {
	ring := closeRing(vertices)
	orbRing := make(orb.Ring, len(ring))
	for i, v := range ring {
		orbRing[i] = toOrbPoint(v)
	}

	f := geojson.NewFeature(orb.Polygon{orbRing})
	f.Properties["kind"] = KindFootprint

	s.mu.Lock()
	defer s.mu.Unlock()
	s.features = append(s.features, f)
}

// ClearMarkers removes spot features; footprints are kept
func (s *GeoJSONSink) ClearMarkers() {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.features[:0]
	for _, f := range s.features {
		if f.Properties["kind"] != KindSpot {
			kept = append(kept, f)
		}
	}
	s.features = kept
}

// FeatureCollection returns the collected features in the order they were drawn
func (s *GeoJSONSink) FeatureCollection() *geojson.FeatureCollection {
	s.mu.Lock()
	defer s.mu.Unlock()

	fc := geojson.NewFeatureCollection()
	for _, f := range s.features {
		fc.Append(f)
	}
	return fc
}

// MarshalJSON encodes the FeatureCollection
func (s *GeoJSONSink) MarshalJSON() ([]byte, error) {
	return s.FeatureCollection().MarshalJSON()
}

// toOrbPoint converts to orb's [lng, lat] ordering
func toOrbPoint(p geo.Point) orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}
