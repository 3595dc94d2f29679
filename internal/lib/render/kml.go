package render

import (
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/twpayne/go-kml"

	"github.com/dpup/streetlines/server/internal/lib/geo"
)

const footprintStyleID = "footprint"

// KMLSink collects markers and footprints into a KML document
type KMLSink struct {
	name     string
	mu       sync.Mutex
	markers  []kml.Element
	polygons []kml.Element
	spotSeq  int
}

// NewKMLSink creates an empty KML sink whose document is titled name
func NewKMLSink(name string) *KMLSink {
	return &KMLSink{name: name}
}

func (s *KMLSink) PlaceMarker(point geo.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.spotSeq++
	s.markers = append(s.markers, kml.Placemark(
		kml.Name(fmt.Sprintf("Spot %d", s.spotSeq)),
		kml.Point(kml.Coordinates(kml.Coordinate{Lon: point.Longitude, Lat: point.Latitude})),
	))
}

func (s *KMLSink) DrawPolygon(vertices []geo.Point) {
	ring := closeRing(vertices)
	coords := make([]kml.Coordinate, len(ring))
	for i, v := range ring {
		coords[i] = kml.Coordinate{Lon: v.Longitude, Lat: v.Latitude}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.polygons = append(s.polygons, kml.Placemark(
		kml.Name(fmt.Sprintf("Footprint %d", len(s.polygons)+1)),
		kml.StyleURL("#"+footprintStyleID),
		kml.Polygon(kml.OuterBoundaryIs(kml.LinearRing(kml.Coordinates(coords...)))),
	))
}

// ClearMarkers removes all markers; footprints are kept
func (s *KMLSink) ClearMarkers() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markers = nil
	s.spotSeq = 0
}

// Document builds the KML document with the current markers and footprints
func (s *KMLSink) Document() *kml.CompoundElement {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := kml.Document(
		kml.Name(s.name),
		kml.SharedStyle(footprintStyleID,
			kml.LineStyle(
				kml.Color(color.RGBA{R: 0xff, A: 0xcc}),
				kml.Width(2),
			),
			kml.PolyStyle(
				kml.Color(color.RGBA{R: 0xff, A: 0x59}),
			),
		),
	)
	doc.Add(s.markers...)
	doc.Add(s.polygons...)
	return kml.KML(doc)
}

// Write encodes the document to w
func (s *KMLSink) Write(w io.Writer) error {
	return s.Document().WriteIndent(w, "", "  ")
}
