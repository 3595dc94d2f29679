package parking

import (
	"math"

	"github.com/dpup/streetlines/server/internal/lib/geo"
)

// FootprintGenerator builds the two stall rectangles flanking a spot
type FootprintGenerator struct {
	rect RectangleConfig
}

// NewFootprintGenerator creates a generator for the given rectangle dimensions
func NewFootprintGenerator(rect RectangleConfig) (*FootprintGenerator, error) {
	if err := rect.Validate(); err != nil {
		return nil, err
	}
	return &FootprintGenerator{rect: rect}, nil
}

// Generate returns the two footprints of a spot, scaled by the degrees-per-meter
// factors of bounds.
func (g *FootprintGenerator) Generate(spot Spot, bounds geo.Bounds) (Footprint, Footprint, error) {
	scale, err := bounds.Scale()
	if err != nil {
		return Footprint{}, Footprint{}, err
	}
	first, second := g.GenerateScaled(spot, scale)
	return first, second, nil
}

// GenerateScaled returns the footprint at the negative lateral offset followed
// by the one at the positive offset.
//
// Each rectangle starts DistanceFromCenter off the centerline, extends Width
// away from it and Height along the heading. Vertices are ordered near-near,
// far-near, far-far, near-far, the first term being the distance along the
// heading and the second the distance from the centerline. The two results
// mirror each other across the centerline.
func (g *FootprintGenerator) GenerateScaled(spot Spot, scale geo.Scale) (Footprint, Footprint) {
	cos := math.Cos(spot.Angle)
	sin := math.Sin(spot.Angle)

	return g.side(spot, -1, cos, sin, scale), g.side(spot, 1, cos, sin, scale)
}

func (g *FootprintGenerator) side(spot Spot, side, cos, sin float64, scale geo.Scale) Footprint {
	near := side * g.rect.DistanceFromCenter
	far := side * (g.rect.DistanceFromCenter + g.rect.Width)
	h := g.rect.Height

	vertex := func(along, lateral float64) geo.Point {
		// heading is (cos, sin); its left normal is (-sin, cos)
		dx := along*cos - lateral*sin
		dy := along*sin + lateral*cos
		return geo.Point{
			Latitude:  spot.X + scale.X*dx,
			Longitude: spot.Y + scale.Y*dy,
		}
	}

	return Footprint{
		vertex(0, near),
		vertex(h, near),
		vertex(h, far),
		vertex(0, far),
	}
}
