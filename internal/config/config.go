package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dpup/streetlines/server/internal/lib/geo"
	"github.com/dpup/streetlines/server/internal/lib/parking"
)

// Config represents the complete server configuration
type Config struct {
	Engine parking.Config `yaml:"engine" koanf:"engine"`
	Google GoogleConfig   `yaml:"google" koanf:"google"`
	Cache  CacheConfig    `yaml:"cache" koanf:"cache"`
	NATS   NATSConfig     `yaml:"nats" koanf:"nats"`
	Areas  AreasConfig    `yaml:"areas" koanf:"areas"`
}

// GoogleConfig holds Google Routes API settings used for position resolution
type GoogleConfig struct {
	APIKey  string        `yaml:"api_key" koanf:"api_key"`
	BaseURL string        `yaml:"base_url" koanf:"base_url"`
	Timeout time.Duration `yaml:"timeout" koanf:"timeout"`
}

// CacheConfig holds resolution cache settings. An empty ValkeyAddr keeps the
// cache in process.
type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl" koanf:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" koanf:"cleanup_interval"`
	ValkeyAddr      string        `yaml:"valkey_addr" koanf:"valkey_addr"`
}

// NATSConfig holds render event publishing settings. An empty URL disables
// publishing.
type NATSConfig struct {
	URL           string `yaml:"url" koanf:"url"`
	SubjectPrefix string `yaml:"subject_prefix" koanf:"subject_prefix"`
}

// AreasConfig lists search regions that are processed in the background and
// served from cache
type AreasConfig struct {
	RefreshInterval time.Duration   `yaml:"refresh_interval" koanf:"refresh_interval"`
	Monitored       []MonitoredArea `yaml:"monitored" koanf:"monitored"`
}

// MonitoredArea is a named search region
type MonitoredArea struct {
	ID     string     `yaml:"id" koanf:"id" json:"id"`
	Name   string     `yaml:"name" koanf:"name" json:"name"`
	Bounds geo.Bounds `yaml:"bounds" koanf:"bounds" json:"bounds"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Engine: parking.DefaultConfig(),
		Google: GoogleConfig{
			BaseURL: "https://routes.googleapis.com",
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			TTL:             24 * time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		NATS: NATSConfig{
			SubjectPrefix: "streetlines.render",
		},
		Areas: AreasConfig{
			RefreshInterval: time.Hour,
		},
	}
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []string

	if err := c.Engine.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Google.Timeout <= 0 {
		errs = append(errs, fmt.Sprintf("google.timeout must be positive, got %v", c.Google.Timeout))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Sprintf("cache.ttl must be positive, got %v", c.Cache.TTL))
	}
	if c.Cache.ValkeyAddr == "" && c.Cache.CleanupInterval <= 0 {
		errs = append(errs, fmt.Sprintf("cache.cleanup_interval must be positive, got %v", c.Cache.CleanupInterval))
	}
	if c.NATS.URL != "" && c.NATS.SubjectPrefix == "" {
		errs = append(errs, "nats.subject_prefix is required when nats.url is set")
	}
	if len(c.Areas.Monitored) > 0 && c.Areas.RefreshInterval <= 0 {
		errs = append(errs, fmt.Sprintf("areas.refresh_interval must be positive, got %v", c.Areas.RefreshInterval))
	}

	seen := make(map[string]bool)
	for i, area := range c.Areas.Monitored {
		if area.ID == "" {
			errs = append(errs, fmt.Sprintf("areas.monitored[%d].id is required", i))
		} else if seen[area.ID] {
			errs = append(errs, fmt.Sprintf("areas.monitored[%d].id %q is duplicated", i, area.ID))
		}
		seen[area.ID] = true
		if err := area.Bounds.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("areas.monitored[%d].bounds: %v", i, err))
		}
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}

// Area returns the monitored area with the given id
func (c *AreasConfig) Area(id string) (MonitoredArea, bool) {
	for _, area := range c.Monitored {
		if area.ID == id {
			return area, true
		}
	}
	return MonitoredArea{}, false
}
