package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dpup/streetlines/server/internal/lib/geo"
	"github.com/dpup/streetlines/server/internal/lib/parking"
	"github.com/dpup/streetlines/server/internal/metrics"
)

const DefaultBaseURL = "https://routes.googleapis.com"

// Status codes reported on a parking.ResolutionFailure
const (
	StatusZeroResults       = "ZERO_RESULTS"
	StatusResourceExhausted = "RESOURCE_EXHAUSTED"
	StatusUnavailable       = "UNAVAILABLE"
)

// HTTPDoer is the subset of *http.Client the client needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client snaps points to the road network through the Google Routes API v2.
// A zero-length driving route from a point to itself starts at the nearest
// routable position, which is what Resolve returns.
type Client struct {
	apiKey     string
	httpClient HTTPDoer
	baseURL    string
}

var _ parking.PositionResolver = (*Client)(nil)

// NewClient creates a new Google Routes API client
func NewClient(apiKey string) *Client {
	return NewClientWithHTTPDoer(apiKey, DefaultBaseURL, &http.Client{
		Timeout: 30 * time.Second,
	})
}

// NewClientWithHTTPDoer creates a client with a custom base URL and transport
func NewClientWithHTTPDoer(apiKey, baseURL string, doer HTTPDoer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: doer,
	}
}

// Resolve returns the routable position closest to point. Failures the caller
// can route around are returned as *parking.ResolutionFailure.
func (c *Client) Resolve(ctx context.Context, point geo.Point) (geo.Point, error) {
	resolved, err := c.resolve(ctx, point)
	switch {
	case err == nil:
		metrics.Resolutions.WithLabelValues("ok").Inc()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.Resolutions.WithLabelValues("cancelled").Inc()
	default:
		if failure, ok := parking.AsResolutionFailure(err); ok {
			metrics.Resolutions.WithLabelValues(failure.Status).Inc()
		} else {
			metrics.Resolutions.WithLabelValues("error").Inc()
		}
	}
	return resolved, err
}

func (c *Client) resolve(ctx context.Context, point geo.Point) (geo.Point, error) {
	waypoint := routesWaypoint{Location: routesLocation{LatLng: routesLatLng{
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
	}}}
	jsonBody, err := json.Marshal(routesRequest{
		Origin:      waypoint,
		Destination: waypoint,
		TravelMode:  "DRIVE",
	})
	if err != nil {
		return geo.Point{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/directions/v2:computeRoutes", bytes.NewBuffer(jsonBody))
	if err != nil {
		return geo.Point{}, fmt.Errorf("failed to create request: %w", err)
	}

	// Field mask is required by the Routes API
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", "routes.legs.startLocation")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return geo.Point{}, ctxErr
		}
		return geo.Point{}, &parking.ResolutionFailure{Point: point, Status: StatusUnavailable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return geo.Point{}, &parking.ResolutionFailure{
			Point:  point,
			Status: StatusResourceExhausted,
			Err:    fmt.Errorf("rate limit exceeded"),
		}
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return geo.Point{}, &parking.ResolutionFailure{
			Point:  point,
			Status: errorStatus(resp.StatusCode, body),
			Err:    fmt.Errorf("API error %d: %s", resp.StatusCode, string(body)),
		}
	}

	var response routesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return geo.Point{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(response.Routes) == 0 || len(response.Routes[0].Legs) == 0 ||
		response.Routes[0].Legs[0].StartLocation == nil {
		return geo.Point{}, &parking.ResolutionFailure{Point: point, Status: StatusZeroResults}
	}

	latLng := response.Routes[0].Legs[0].StartLocation.LatLng
	return geo.Point{Latitude: latLng.Latitude, Longitude: latLng.Longitude}, nil
}

// errorStatus extracts the canonical status from a Google error body
func errorStatus(code int, body []byte) string {
	var apiErr routesError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Status != "" {
		return apiErr.Error.Status
	}
	return fmt.Sprintf("HTTP_%d", code)
}

type routesRequest struct {
	Origin      routesWaypoint `json:"origin"`
	Destination routesWaypoint `json:"destination"`
	TravelMode  string         `json:"travelMode"`
}

type routesWaypoint struct {
	Location routesLocation `json:"location"`
}

type routesLocation struct {
	LatLng routesLatLng `json:"latLng"`
}

type routesLatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type routesResponse struct {
	Routes []struct {
		Legs []struct {
			StartLocation *routesLocation `json:"startLocation"`
		} `json:"legs"`
	} `json:"routes"`
}

type routesError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
