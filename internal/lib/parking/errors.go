package parking

import (
	"errors"
	"fmt"

	"github.com/dpup/streetlines/server/internal/lib/geo"
)

// ErrInvalidConfiguration is returned for settings the engine cannot run with,
// such as a zero spot spacing.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ResolutionFailure is returned by a PositionResolver when no routable position
// exists for a point. Status is the resolver's opaque status code.
type ResolutionFailure struct {
	Point  geo.Point
	Status string
	Err    error
}

func (e *ResolutionFailure) Error() string {
	msg := fmt.Sprintf("position resolution failed for (%.6f, %.6f): %s",
		e.Point.Latitude, e.Point.Longitude, e.Status)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionFailure) Unwrap() error {
	return e.Err
}

// AsResolutionFailure extracts a ResolutionFailure from err's chain
func AsResolutionFailure(err error) (*ResolutionFailure, bool) {
	var failure *ResolutionFailure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}
