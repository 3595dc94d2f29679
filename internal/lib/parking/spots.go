package parking

import (
	"fmt"
	"math"

	"github.com/dpup/streetlines/server/internal/lib/geo"
)

// GenerateSpots places floor(distance/spacing) spots on the segment from start
// toward end. Spots share the segment heading; end itself is never a spot.
// A segment shorter than spacing yields no spots.
func GenerateSpots(start, end geo.Point, spacing float64) ([]Spot, error) {
	if !(spacing > 0) {
		return nil, fmt.Errorf("%w: spot spacing must be positive, got %v", ErrInvalidConfiguration, spacing)
	}

	totalDistance := geo.Distance(start, end, geo.Meters)
	count := int(math.Floor(totalDistance / spacing))
	if count <= 0 {
		return nil, nil
	}

	dx := (end.Latitude - start.Latitude) / float64(count)
	dy := (end.Longitude - start.Longitude) / float64(count)
	angle := math.Atan2(dy, dx)

	spots := make([]Spot, count)
	for i := range spots {
		spots[i] = Spot{
			X:     start.Latitude + float64(i)*dx,
			Y:     start.Longitude + float64(i)*dy,
			Angle: angle,
		}
	}
	return spots, nil
}
