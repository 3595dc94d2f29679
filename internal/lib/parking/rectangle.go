package parking

import (
	"fmt"
	"math"

	"github.com/dpup/streetlines/server/internal/lib/geo"
)

// Rectangle is a single stall with corners a through d, in the flat layout
// the rectangles endpoint returns
type Rectangle struct {
	ID         int     `json:"id"`
	ALongitude float64 `json:"a_longitude"`
	ALatitude  float64 `json:"a_latitude"`
	BLongitude float64 `json:"b_longitude"`
	BLatitude  float64 `json:"b_latitude"`
	CLongitude float64 `json:"c_longitude"`
	CLatitude  float64 `json:"c_latitude"`
	DLongitude float64 `json:"d_longitude"`
	DLatitude  float64 `json:"d_latitude"`
}

// Vertices returns corners a, b, c, d
func (r Rectangle) Vertices() []geo.Point {
	return []geo.Point{
		{Latitude: r.ALatitude, Longitude: r.ALongitude},
		{Latitude: r.BLatitude, Longitude: r.BLongitude},
		{Latitude: r.CLatitude, Longitude: r.CLongitude},
		{Latitude: r.DLatitude, Longitude: r.DLongitude},
	}
}

// CenterRectangle places one stall at the center of bounds for a street running
// at orientation radians clockwise from north. The stall sits DistanceFromCenter
// to the right of the street, Width across and Height along it, and is scaled
// with the WGS84 ellipsoid at the center latitude. Unlike Bounds.Scale this
// accepts zero-span bounds.
func CenterRectangle(bounds geo.Bounds, orientation float64, rect RectangleConfig) (Rectangle, error) {
	topLeft := geo.Point{Latitude: bounds.TX, Longitude: bounds.TY}
	bottomRight := geo.Point{Latitude: bounds.BX, Longitude: bounds.BY}
	if !topLeft.Valid() || !bottomRight.Valid() {
		return Rectangle{}, fmt.Errorf("%w: corners must be valid coordinates", geo.ErrInvalidBounds)
	}
	if math.IsNaN(orientation) || math.IsInf(orientation, 0) {
		return Rectangle{}, fmt.Errorf("%w: orientation must be finite", ErrInvalidConfiguration)
	}
	if err := rect.Validate(); err != nil {
		return Rectangle{}, err
	}

	center := bounds.Center()
	scale := geo.WGS84ScaleAt(center.Latitude)

	// Template in meters: x across the street, y along it
	k, h, w := rect.DistanceFromCenter, rect.Height, rect.Width
	template := [4][2]float64{
		{k, -h / 2},
		{k, h / 2},
		{k + w, h / 2},
		{k + w, -h / 2},
	}

	sin, cos := math.Sincos(orientation)
	var corners [4]geo.Point
	for i, v := range template {
		east := v[0]*cos + v[1]*sin
		north := -v[0]*sin + v[1]*cos
		corners[i] = geo.Point{
			Latitude:  center.Latitude + north*scale.X,
			Longitude: center.Longitude + east*scale.Y,
		}
	}

	return Rectangle{
		ID:         1,
		ALongitude: corners[0].Longitude, ALatitude: corners[0].Latitude,
		BLongitude: corners[1].Longitude, BLatitude: corners[1].Latitude,
		CLongitude: corners[2].Longitude, CLatitude: corners[2].Latitude,
		DLongitude: corners[3].Longitude, DLatitude: corners[3].Latitude,
	}, nil
}
