package parking

import (
	"context"
	"fmt"
	"time"

	"github.com/dpup/prefab/logging"
	"golang.org/x/sync/errgroup"

	"github.com/dpup/streetlines/server/internal/lib/geo"
	"github.com/dpup/streetlines/server/internal/metrics"
)

// Processor turns scouted points into a street of spots and footprints
type Processor struct {
	cfg        Config
	footprints *FootprintGenerator
	resolver   PositionResolver
	sink       RenderSink
}

// Option configures a Processor
type Option func(*Processor)

// WithResolver snaps path points through r before spots are placed
func WithResolver(r PositionResolver) Option {
	return func(p *Processor) {
		p.resolver = r
	}
}

// WithRenderSink sends markers and polygons for every processed street to s
func WithRenderSink(s RenderSink) Option {
	return func(p *Processor) {
		p.sink = s
	}
}

// Request is one street to process
type Request struct {
	Points []geo.Point `json:"points"`
	Bounds geo.Bounds  `json:"bounds"`
}

// NewProcessor validates cfg and creates a Processor
func NewProcessor(cfg Config, opts ...Option) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	footprints, err := NewFootprintGenerator(cfg.Rectangle)
	if err != nil {
		return nil, err
	}

	p := &Processor{
		cfg:        cfg,
		footprints: footprints,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the engine configuration the processor was built with
func (p *Processor) Config() Config {
	return p.cfg
}

// RenderTo returns a copy of the processor that renders to s instead
func (p *Processor) RenderTo(s RenderSink) *Processor {
	clone := *p
	clone.sink = s
	return &clone
}

// Process builds a path from points starting at the first one, places spots on
// every connected segment and generates two footprints per spot. A segment whose
// endpoint fails to resolve is recorded in Street.Failures and skipped; any other
// resolver error aborts processing. A context cancelled mid-resolution is
// returned as is.
func (p *Processor) Process(ctx context.Context, points []geo.Point, bounds geo.Bounds) (*Street, error) {
	ctx = logging.EnsureLogger(ctx)
	started := time.Now()

	scale, err := bounds.Scale()
	if err != nil {
		return nil, err
	}

	street := &Street{}
	extremePoints := FindExtremePoints(points)
	if len(extremePoints) == 0 {
		return street, nil
	}

	street.Path = BuildPath(extremePoints[0], extremePoints[1:], p.cfg.MaxConnectDistance)

	resolve := p.pathResolver(street.Path)
	for i := 0; i < len(street.Path)-1; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start, err := resolve(ctx, i)
		if err == nil {
			var end geo.Point
			end, err = resolve(ctx, i+1)
			if err == nil {
				if err := p.placeSegment(street, start, end, scale); err != nil {
					return nil, err
				}
				continue
			}
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		failure, ok := AsResolutionFailure(err)
		if !ok {
			return nil, fmt.Errorf("failed to resolve segment %d: %w", i, err)
		}
		logging.Warnw(ctx, "Skipping segment with unresolved endpoint",
			"segment", i, "status", failure.Status, "error", err)
		metrics.SegmentsSkipped.WithLabelValues(failure.Status).Inc()
		street.Failures = append(street.Failures, SegmentFailure{
			Segment: i,
			Start:   street.Path[i],
			End:     street.Path[i+1],
			Status:  failure.Status,
			Message: failure.Error(),
		})
	}

	p.render(street)

	metrics.StreetsProcessed.Inc()
	metrics.SpotsGenerated.Add(float64(len(street.Spots)))
	metrics.FootprintsGenerated.Add(float64(len(street.Footprints)))
	metrics.ProcessDuration.Observe(time.Since(started).Seconds())

	logging.Debugw(ctx, "Processed street",
		"path_points", len(street.Path), "spots", len(street.Spots),
		"footprints", len(street.Footprints), "failures", len(street.Failures))

	return street, nil
}

// ProcessAll processes independent streets concurrently, at most Config.Workers at
// a time. Results are returned in request order. Render calls of different
// streets may interleave, but each street's calls keep their order.
func (p *Processor) ProcessAll(ctx context.Context, requests []Request) ([]*Street, error) {
	streets := make([]*Street, len(requests))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)
	for i, req := range requests {
		g.Go(func() error {
			street, err := p.Process(ctx, req.Points, req.Bounds)
			if err != nil {
				return fmt.Errorf("street %d: %w", i, err)
			}
			streets[i] = street
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return streets, nil
}

func (p *Processor) placeSegment(street *Street, start, end geo.Point, scale geo.Scale) error {
	spots, err := GenerateSpots(start, end, p.cfg.SpotDistance)
	if err != nil {
		return err
	}

	for _, spot := range spots {
		first, second := p.footprints.GenerateScaled(spot, scale)
		street.Footprints = append(street.Footprints, first, second)
	}
	street.Spots = append(street.Spots, spots...)
	return nil
}

// pathResolver memoizes resolution per path index so a point shared by two
// segments is resolved once
func (p *Processor) pathResolver(path []geo.Point) func(context.Context, int) (geo.Point, error) {
	type result struct {
		point geo.Point
		err   error
		done  bool
	}
	results := make([]result, len(path))

	return func(ctx context.Context, i int) (geo.Point, error) {
		if p.resolver == nil {
			return path[i], nil
		}
		if results[i].done {
			return results[i].point, results[i].err
		}

		point, err := p.resolver.Resolve(ctx, path[i])
		if _, ok := AsResolutionFailure(err); err == nil || ok {
			results[i] = result{point: point, err: err, done: true}
		}
		return point, err
	}
}

func (p *Processor) render(street *Street) {
	if p.sink == nil {
		return
	}
	for _, spot := range street.Spots {
		p.sink.PlaceMarker(spot.Point())
	}
	for _, footprint := range street.Footprints {
		p.sink.DrawPolygon(footprint.Vertices())
	}
}
