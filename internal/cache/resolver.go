package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dpup/prefab/logging"

	"github.com/dpup/streetlines/server/internal/lib/geo"
	"github.com/dpup/streetlines/server/internal/lib/parking"
	"github.com/dpup/streetlines/server/internal/metrics"
)

// CachingResolver memoizes successful resolutions in a Store. Failures are
// never cached so a transient outage does not stick.
type CachingResolver struct {
	next  parking.PositionResolver
	store Store
	ttl   time.Duration
}

var _ parking.PositionResolver = (*CachingResolver)(nil)

// NewCachingResolver wraps next with a cache of successful lookups
func NewCachingResolver(next parking.PositionResolver, store Store, ttl time.Duration) *CachingResolver {
	return &CachingResolver{next: next, store: store, ttl: ttl}
}

// Resolve returns a cached position for point, asking the wrapped resolver on a miss
func (r *CachingResolver) Resolve(ctx context.Context, point geo.Point) (geo.Point, error) {
	ctx = logging.EnsureLogger(ctx)
	key := resolutionKey(point)

	var cached geo.Point
	found, err := r.store.Get(ctx, key, &cached)
	if err != nil {
		logging.Warnw(ctx, "Resolution cache: lookup failed", "key", key, "error", err)
	}
	if found {
		metrics.ResolutionCache.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.ResolutionCache.WithLabelValues("miss").Inc()

	resolved, err := r.next.Resolve(ctx, point)
	if err != nil {
		return geo.Point{}, err
	}

	if err := r.store.Set(ctx, key, resolved, r.ttl); err != nil {
		logging.Warnw(ctx, "Resolution cache: store failed", "key", key, "error", err)
	}
	return resolved, nil
}

// resolutionKey rounds to 1e-7 degrees, about a centimeter
func resolutionKey(p geo.Point) string {
	return fmt.Sprintf("resolve:%.7f,%.7f", p.Latitude, p.Longitude)
}
