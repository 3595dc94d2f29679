package geo

// Point represents a geographic coordinate
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Valid reports whether the point lies within latitude [-90, 90] and longitude [-180, 180]
func (p Point) Valid() bool {
	return isValidCoordinate(p)
}

// Unit selects the unit returned by Distance
type Unit int

const (
	Meters Unit = iota
	Kilometers
)

// Bounds is the rectangular search region a street is processed in.
// TX and BX are latitudes, TY and BY are longitudes of two opposite corners.
type Bounds struct {
	TX float64 `json:"tx" yaml:"tx" koanf:"tx"`
	TY float64 `json:"ty" yaml:"ty" koanf:"ty"`
	BX float64 `json:"bx" yaml:"bx" koanf:"bx"`
	BY float64 `json:"by" yaml:"by" koanf:"by"`
}

// Scale converts local metric displacement into degrees.
// X is degrees of latitude per meter, Y is degrees of longitude per meter.
type Scale struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
