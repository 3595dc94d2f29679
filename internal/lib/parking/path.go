package parking

import "github.com/dpup/streetlines/server/internal/lib/geo"

// BuildPath chains points greedily: starting at start it repeatedly connects the
// nearest remaining point until none remain or the nearest one is farther than
// maxConnect meters. The result is an open path beginning with start. It is a
// nearest-neighbour heuristic, not a shortest tour. remaining is not modified.
func BuildPath(start geo.Point, remaining []geo.Point, maxConnect float64) []geo.Point {
	pending := make([]geo.Point, len(remaining))
	copy(pending, remaining)

	path := make([]geo.Point, 0, len(remaining)+1)
	path = append(path, start)

	current := start
	for len(pending) > 0 {
		i := geo.ClosestIndex(current, pending)
		next := pending[i]
		if geo.Distance(current, next, geo.Meters) > maxConnect {
			break
		}

		path = append(path, next)
		pending = append(pending[:i], pending[i+1:]...)
		current = next
	}

	return path
}

// FindExtremePoints is the boundary reduction step run before path building.
// It currently returns points unchanged.
func FindExtremePoints(points []geo.Point) []geo.Point {
	return points
}
