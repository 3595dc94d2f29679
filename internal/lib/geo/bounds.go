package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidBounds is returned when bounds cannot produce a usable scale
var ErrInvalidBounds = errors.New("invalid bounds")

// WGS84 ellipsoid parameters
const (
	wgs84SemiMajor = 6378137.0
	wgs84SemiMinor = 6356752.314245
)

// Validate checks that both corners are valid coordinates and that the bounds
// span a non-zero distance on each axis.
func (b Bounds) Validate() error {
	if !isValidCoordinate(Point{Latitude: b.TX, Longitude: b.TY}) ||
		!isValidCoordinate(Point{Latitude: b.BX, Longitude: b.BY}) {
		return fmt.Errorf("%w: corners must be valid coordinates", ErrInvalidBounds)
	}
	if b.TX == b.BX || b.TY == b.BY {
		return fmt.Errorf("%w: bounds must span both latitude and longitude", ErrInvalidBounds)
	}
	return nil
}

// Scale derives degrees-per-meter factors by dividing the span of each bounds
// edge in degrees by its Haversine length. It assumes the bounds are small enough
// for the factors to be locally constant.
func (b Bounds) Scale() (Scale, error) {
	if err := b.Validate(); err != nil {
		return Scale{}, err
	}

	latEdge := Distance(Point{Latitude: b.BX, Longitude: b.BY}, Point{Latitude: b.TX, Longitude: b.BY}, Meters)
	lngEdge := Distance(Point{Latitude: b.BX, Longitude: b.BY}, Point{Latitude: b.BX, Longitude: b.TY}, Meters)
	if !(latEdge > 0) || !(lngEdge > 0) {
		return Scale{}, fmt.Errorf("%w: bounds edge has no length", ErrInvalidBounds)
	}

	return Scale{
		X: math.Abs(b.BX-b.TX) / latEdge,
		Y: math.Abs(b.BY-b.TY) / lngEdge,
	}, nil
}

// Center returns the midpoint of the bounds in degrees
func (b Bounds) Center() Point {
	return Point{
		Latitude:  (b.TX + b.BX) / 2,
		Longitude: (b.TY + b.BY) / 2,
	}
}

// Contains reports whether p lies inside the bounds, inclusive
func (b Bounds) Contains(p Point) bool {
	minLat, maxLat := math.Min(b.TX, b.BX), math.Max(b.TX, b.BX)
	minLng, maxLng := math.Min(b.TY, b.BY), math.Max(b.TY, b.BY)
	return p.Latitude >= minLat && p.Latitude <= maxLat &&
		p.Longitude >= minLng && p.Longitude <= maxLng
}

// WGS84ScaleAt returns degrees-per-meter factors at the given latitude using the
// meridian and prime vertical radii of curvature of the WGS84 ellipsoid.
func WGS84ScaleAt(latitude float64) Scale {
	sinLat := math.Sin(latitude * math.Pi / 180)
	eSquared := 1 - (wgs84SemiMinor*wgs84SemiMinor)/(wgs84SemiMajor*wgs84SemiMajor)
	w := 1 - eSquared*sinLat*sinLat

	meridian := wgs84SemiMajor * (1 - eSquared) / math.Pow(w, 1.5)
	primeVertical := wgs84SemiMajor / math.Sqrt(w)

	metersPerDegLat := meridian * math.Pi / 180
	metersPerDegLng := primeVertical * math.Cos(latitude*math.Pi/180) * math.Pi / 180

	return Scale{
		X: 1 / metersPerDegLat,
		Y: 1 / metersPerDegLng,
	}
}
