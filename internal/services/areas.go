package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dpup/prefab/logging"

	"github.com/dpup/streetlines/server/internal/cache"
	"github.com/dpup/streetlines/server/internal/config"
	"github.com/dpup/streetlines/server/internal/lib/render"
)

// ErrAreaNotFound is returned for an unknown monitored area id
var ErrAreaNotFound = errors.New("area not found")

// AreasService serves the streets of preconfigured areas from cache,
// processing an area on demand when it is missing
type AreasService struct {
	streets *StreetsService
	store   cache.Store
	config  *config.AreasConfig
}

// AreaStreets is the processed street of a monitored area
type AreaStreets struct {
	Area        config.MonitoredArea `json:"area"`
	Street      *StreetResponse      `json:"street"`
	LastUpdated time.Time            `json:"last_updated"`
}

// NewAreasService creates a new AreasService
func NewAreasService(streets *StreetsService, store cache.Store, config *config.AreasConfig) *AreasService {
	return &AreasService{
		streets: streets,
		store:   store,
		config:  config,
	}
}

// ListAreas returns every monitored area, processing the ones not in cache
func (s *AreasService) ListAreas(ctx context.Context) ([]*AreaStreets, error) {
	ctx = logging.EnsureLogger(ctx)
	areas := make([]*AreaStreets, 0, len(s.config.Monitored))
	for _, area := range s.config.Monitored {
		result, err := s.getArea(ctx, area)
		if err != nil {
			return nil, fmt.Errorf("failed to get area %s: %w", area.ID, err)
		}
		areas = append(areas, result)
	}
	return areas, nil
}

// GetArea returns a single monitored area
func (s *AreasService) GetArea(ctx context.Context, id string) (*AreaStreets, error) {
	area, ok := s.config.Area(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAreaNotFound, id)
	}
	return s.getArea(logging.EnsureLogger(ctx), area)
}

// RefreshAll reprocesses every monitored area and replaces its cache entry.
// Failures are logged and do not stop the remaining areas.
func (s *AreasService) RefreshAll(ctx context.Context) error {
	ctx = logging.EnsureLogger(ctx)
	var errs []error
	for _, area := range s.config.Monitored {
		if _, err := s.refreshArea(ctx, area); err != nil {
			logging.Errorw(ctx, "Failed to refresh area", "area", area.ID, "error", err)
			errs = append(errs, fmt.Errorf("area %s: %w", area.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *AreasService) getArea(ctx context.Context, area config.MonitoredArea) (*AreaStreets, error) {
	var cached AreaStreets
	found, err := s.store.Get(ctx, areaCacheKey(area.ID), &cached)
	if err != nil {
		logging.Warnw(ctx, "Area cache lookup failed", "area", area.ID, "error", err)
	}
	if found {
		return &cached, nil
	}
	return s.refreshArea(ctx, area)
}

func (s *AreasService) refreshArea(ctx context.Context, area config.MonitoredArea) (*AreaStreets, error) {
	street, err := s.streets.Run(ctx, area.Bounds, nil, render.Nop{})
	if err != nil {
		return nil, err
	}

	result := &AreaStreets{
		Area:        area,
		Street:      street,
		LastUpdated: time.Now(),
	}

	// Entries outlive one refresh interval so a failed refresh still serves data
	if err := s.store.Set(ctx, areaCacheKey(area.ID), result, 2*s.config.RefreshInterval); err != nil {
		logging.Warnw(ctx, "Failed to cache area", "area", area.ID, "error", err)
	}

	logging.Infow(ctx, "Refreshed area", "area", area.ID,
		"spots", len(street.Spots), "failures", len(street.Failures))
	return result, nil
}

// Routes lists the HTTP endpoints served by the service
func (s *AreasService) Routes() []Route {
	return []Route{
		{Path: "/api/v1/areas", Handler: s.handleListAreas},
		{Path: "/api/v1/areas/", Handler: s.handleGetArea},
	}
}

// handleListAreas serves GET /api/v1/areas
func (s *AreasService) handleListAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := s.ListAreas(r.Context())
	if err != nil {
		writeRunError(r.Context(), w, err)
		return
	}
	writeData(w, areas)
}

// handleGetArea serves GET /api/v1/areas/{id}
func (s *AreasService) handleGetArea(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/areas/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", ErrAreaNotFound, id))
		return
	}

	area, err := s.GetArea(r.Context(), id)
	if errors.Is(err, ErrAreaNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeRunError(r.Context(), w, err)
		return
	}
	writeData(w, area)
}

func areaCacheKey(id string) string {
	return "area:" + id
}
