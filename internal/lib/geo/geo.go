package geo

import (
	"errors"
	"math"

	"github.com/twpayne/go-polyline"
)

// Mean Earth radius used by the Haversine formula
const earthRadiusKm = 6371.0

// Distance calculates great-circle distance between two points using the Haversine formula.
// NaN coordinates propagate to the result.
func Distance(p1, p2 Point, unit Unit) float64 {
	const degToRad = math.Pi / 180

	dLat := (p2.Latitude - p1.Latitude) * degToRad
	dLng := (p2.Longitude - p1.Longitude) * degToRad
	lat1 := p1.Latitude * degToRad
	lat2 := p2.Latitude * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	distanceKm := earthRadiusKm * c
	if unit == Kilometers {
		return distanceKm
	}
	return distanceKm * 1000
}

// ClosestIndex returns the index of the candidate nearest to reference, or -1 when
// candidates is empty. Ties resolve to the earliest candidate.
func ClosestIndex(reference Point, candidates []Point) int {
	if len(candidates) == 0 {
		return -1
	}

	closest := 0
	closestDistance := Distance(reference, candidates[0], Meters)
	for i := 1; i < len(candidates); i++ {
		d := Distance(reference, candidates[i], Meters)
		if d < closestDistance {
			closest = i
			closestDistance = d
		}
	}
	return closest
}

// ClosestPoint returns the candidate nearest to reference. The boolean is false
// when there are no candidates.
func ClosestPoint(reference Point, candidates []Point) (Point, bool) {
	i := ClosestIndex(reference, candidates)
	if i < 0 {
		return Point{}, false
	}
	return candidates[i], true
}

// FilterPointsByDistance filters points to those within specified distance of center point
func FilterPointsByDistance(points []Point, center Point, maxDistanceMeters float64) ([]Point, error) {
	if !isValidCoordinate(center) {
		return nil, errors.New("invalid center point coordinates")
	}

	var filteredPoints []Point
	for _, point := range points {
		if !isValidCoordinate(point) {
			continue // Skip invalid points
		}
		if Distance(center, point, Meters) <= maxDistanceMeters {
			filteredPoints = append(filteredPoints, point)
		}
	}

	return filteredPoints, nil
}

// DecodePolyline decodes Google polyline string to point sequence
func DecodePolyline(encoded string) ([]Point, error) {
	if encoded == "" {
		return nil, errors.New("encoded polyline string is empty")
	}

	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, errors.New("failed to decode polyline: " + err.Error())
	}

	points := make([]Point, len(coords))
	for i, coord := range coords {
		points[i] = Point{
			Latitude:  coord[0],
			Longitude: coord[1],
		}

		if !isValidCoordinate(points[i]) {
			return nil, errors.New("decoded polyline contains invalid coordinates")
		}
	}

	return points, nil
}

// EncodePolyline encodes a point sequence with the Google polyline algorithm
func EncodePolyline(points []Point) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Latitude, p.Longitude}
	}
	return string(polyline.EncodeCoords(coords))
}

// NewPoint creates a Point from latitude and longitude values with validation
func NewPoint(latitude, longitude float64) (Point, error) {
	point := Point{Latitude: latitude, Longitude: longitude}
	if !isValidCoordinate(point) {
		return Point{}, errors.New("invalid coordinates: latitude must be [-90, 90], longitude must be [-180, 180]")
	}
	return point, nil
}

// isValidCoordinate validates latitude and longitude values
func isValidCoordinate(point Point) bool {
	return point.Latitude >= -90 && point.Latitude <= 90 &&
		point.Longitude >= -180 && point.Longitude <= 180
}
