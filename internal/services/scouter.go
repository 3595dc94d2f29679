package services

import (
	"context"
	"fmt"
	"math"

	"github.com/dpup/prefab/logging"
	"golang.org/x/sync/errgroup"

	"github.com/dpup/streetlines/server/internal/lib/geo"
	"github.com/dpup/streetlines/server/internal/lib/parking"
	"github.com/dpup/streetlines/server/internal/metrics"
)

// Scouter samples a search region on a regular grid and snaps every sample to
// the road network
type Scouter struct {
	resolver parking.PositionResolver
	points   int
	workers  int
}

// NewScouter creates a scouter laying cfg.ScoutPoints x cfg.ScoutPoints samples.
// A nil resolver returns the raw grid locations.
func NewScouter(resolver parking.PositionResolver, cfg parking.Config) *Scouter {
	return &Scouter{
		resolver: resolver,
		points:   cfg.ScoutPoints,
		workers:  cfg.Workers,
	}
}

// Scout clears the sink's markers, places one marker per grid location and
// returns the resolved positions in grid order, latitude rows first. Cells that
// fail to resolve are dropped.
func (s *Scouter) Scout(ctx context.Context, bounds geo.Bounds, sink parking.RenderSink) ([]geo.Point, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	ctx = logging.EnsureLogger(ctx)

	grid := s.grid(bounds)

	if sink != nil {
		sink.ClearMarkers()
		for _, cell := range grid {
			sink.PlaceMarker(cell)
		}
	}

	if s.resolver == nil {
		return grid, nil
	}

	resolved := make([]geo.Point, len(grid))
	ok := make([]bool, len(grid))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, cell := range grid {
		g.Go(func() error {
			point, err := s.resolver.Resolve(gctx, cell)
			if err != nil {
				if failure, isFailure := parking.AsResolutionFailure(err); isFailure {
					logging.Warnw(gctx, "Scout: dropping unresolved cell",
						"cell", i, "lat", cell.Latitude, "lng", cell.Longitude, "status", failure.Status)
					metrics.ScoutCellsDropped.Inc()
					return nil
				}
				return fmt.Errorf("failed to resolve scout cell %d: %w", i, err)
			}
			resolved[i] = point
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	points := make([]geo.Point, 0, len(grid))
	for i, point := range resolved {
		if ok[i] {
			points = append(points, point)
		}
	}

	logging.Debugw(ctx, "Scout complete", "cells", len(grid), "resolved", len(points))
	return points, nil
}

// grid returns the cell centers of an N x N grid over bounds
func (s *Scouter) grid(bounds geo.Bounds) []geo.Point {
	minLat, maxLat := math.Min(bounds.TX, bounds.BX), math.Max(bounds.TX, bounds.BX)
	minLng, maxLng := math.Min(bounds.TY, bounds.BY), math.Max(bounds.TY, bounds.BY)
	dLat := (maxLat - minLat) / float64(s.points)
	dLng := (maxLng - minLng) / float64(s.points)

	cells := make([]geo.Point, 0, s.points*s.points)
	for i := 0; i < s.points; i++ {
		for j := 0; j < s.points; j++ {
			cells = append(cells, geo.Point{
				Latitude:  minLat + (float64(i)+0.5)*dLat,
				Longitude: minLng + (float64(j)+0.5)*dLng,
			})
		}
	}
	return cells
}
