package parking

import (
	"fmt"
	"math"
	"strings"
)

// RectangleConfig holds the footprint dimensions in meters
type RectangleConfig struct {
	DistanceFromCenter float64 `yaml:"distance_from_center" koanf:"distance_from_center" json:"distance_from_center"`
	Height             float64 `yaml:"height" koanf:"height" json:"height"`
	Width              float64 `yaml:"width" koanf:"width" json:"width"`
}

// Config holds the geometry engine settings
type Config struct {
	SpotDistance       float64         `yaml:"spot_distance" koanf:"spot_distance" json:"spot_distance"`
	MaxConnectDistance float64         `yaml:"max_connect_distance" koanf:"max_connect_distance" json:"max_connect_distance"`
	ScoutPoints        int             `yaml:"scout_points" koanf:"scout_points" json:"scout_points"`
	Workers            int             `yaml:"workers" koanf:"workers" json:"workers"`
	Rectangle          RectangleConfig `yaml:"rectangle" koanf:"rectangle" json:"rectangle"`
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		SpotDistance:       6,
		MaxConnectDistance: 500,
		ScoutPoints:        4,
		Workers:            4,
		Rectangle: RectangleConfig{
			DistanceFromCenter: 0.5,
			Height:             5,
			Width:              2.5,
		},
	}
}

// Validate reports every invalid setting, wrapped in ErrInvalidConfiguration
func (c Config) Validate() error {
	var errs []string

	if !positive(c.SpotDistance) {
		errs = append(errs, fmt.Sprintf("spot_distance must be positive, got %v", c.SpotDistance))
	}
	if !positive(c.MaxConnectDistance) {
		errs = append(errs, fmt.Sprintf("max_connect_distance must be positive, got %v", c.MaxConnectDistance))
	}
	if c.ScoutPoints <= 0 {
		errs = append(errs, fmt.Sprintf("scout_points must be positive, got %d", c.ScoutPoints))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("workers must be positive, got %d", c.Workers))
	}
	if err := c.Rectangle.validate(); err != "" {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfiguration, strings.Join(errs, "\n  - "))
	}
	return nil
}

// Validate checks the footprint dimensions
func (r RectangleConfig) Validate() error {
	if err := r.validate(); err != "" {
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, err)
	}
	return nil
}

func (r RectangleConfig) validate() string {
	if !positive(r.Height) || !positive(r.Width) {
		return fmt.Sprintf("rectangle height and width must be positive, got %vx%v", r.Height, r.Width)
	}
	if r.DistanceFromCenter < 0 || math.IsNaN(r.DistanceFromCenter) || math.IsInf(r.DistanceFromCenter, 0) {
		return fmt.Sprintf("rectangle distance_from_center must not be negative, got %v", r.DistanceFromCenter)
	}
	return ""
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
