package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/dpup/prefab/logging"

	"github.com/dpup/streetlines/server/internal/lib/geo"
	"github.com/dpup/streetlines/server/internal/lib/parking"
	"github.com/dpup/streetlines/server/internal/lib/render"
)

// StreetsService runs the scout and process pipeline and serves it over HTTP
type StreetsService struct {
	processor *parking.Processor
	scouter   *Scouter
	sink      parking.RenderSink
}

// NewStreetsService creates a StreetsService. Every street is also rendered to
// sink when it is not nil.
func NewStreetsService(processor *parking.Processor, scouter *Scouter, sink parking.RenderSink) *StreetsService {
	return &StreetsService{
		processor: processor,
		scouter:   scouter,
		sink:      sink,
	}
}

// StreetResponse is a processed street plus its path as an encoded polyline
type StreetResponse struct {
	*parking.Street
	EncodedPath string `json:"encoded_path"`
}

// Route is an HTTP path and the handler serving it
type Route struct {
	Path    string
	Handler http.HandlerFunc
}

// Run processes points within bounds, scouting for points first when none are
// given. Markers and polygons go to sink and the service-wide sink.
func (s *StreetsService) Run(ctx context.Context, bounds geo.Bounds, points []geo.Point, sink parking.RenderSink) (*StreetResponse, error) {
	if s.sink != nil {
		sink = render.Multi(sink, s.sink)
	}

	if len(points) == 0 {
		scouted, err := s.scouter.Scout(ctx, bounds, sink)
		if err != nil {
			return nil, fmt.Errorf("failed to scout: %w", err)
		}
		points = scouted
	}

	street, err := s.processor.RenderTo(sink).Process(ctx, points, bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to process street: %w", err)
	}

	return &StreetResponse{
		Street:      street,
		EncodedPath: geo.EncodePolyline(street.Path),
	}, nil
}

// Routes lists the HTTP endpoints served by the service
func (s *StreetsService) Routes() []Route {
	return []Route{
		{Path: "/api/v1/streets", Handler: s.handleStreets},
		{Path: "/api/v1/streets.kml", Handler: s.handleStreetsKML},
		{Path: "/api/v1/streets.geojson", Handler: s.handleStreetsGeoJSON},
		{Path: "/api/v1/rectangles", Handler: s.handleRectangles},
	}
}

type streetsRequest struct {
	Bounds geo.Bounds  `json:"bounds"`
	Points []geo.Point `json:"points"`
}

// handleStreets serves POST /api/v1/streets
func (s *StreetsService) handleStreets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}

	var req streetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	for i, p := range req.Points {
		if !p.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Errorf("point %d is not a valid coordinate", i))
			return
		}
	}

	street, err := s.Run(r.Context(), req.Bounds, req.Points, render.Nop{})
	if err != nil {
		writeRunError(r.Context(), w, err)
		return
	}
	writeData(w, street)
}

// handleStreetsKML serves GET /api/v1/streets.kml?tx&ty&bx&by
func (s *StreetsService) handleStreetsKML(w http.ResponseWriter, r *http.Request) {
	bounds, err := boundsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sink := render.NewKMLSink("Parking spots")
	if _, err := s.Run(r.Context(), bounds, nil, sink); err != nil {
		writeRunError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	if err := sink.Write(w); err != nil {
		logging.Errorw(r.Context(), "Failed to write KML", "error", err)
	}
}

// handleStreetsGeoJSON serves GET /api/v1/streets.geojson?tx&ty&bx&by
func (s *StreetsService) handleStreetsGeoJSON(w http.ResponseWriter, r *http.Request) {
	bounds, err := boundsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sink := render.NewGeoJSONSink()
	if _, err := s.Run(r.Context(), bounds, nil, sink); err != nil {
		writeRunError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	if err := json.NewEncoder(w).Encode(sink.FeatureCollection()); err != nil {
		logging.Errorw(r.Context(), "Failed to write GeoJSON", "error", err)
	}
}

// handleRectangles serves GET /api/v1/rectangles, a single stall at the center
// of a bounding box. Without an orientation the street heading is random.
func (s *StreetsService) handleRectangles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var bounds geo.Bounds
	fields := []struct {
		name string
		dest *float64
	}{
		{"latitude_top_left", &bounds.TX},
		{"longitude_top_left", &bounds.TY},
		{"latitude_bottom_right", &bounds.BX},
		{"longitude_bottom_right", &bounds.BY},
	}
	for _, f := range fields {
		v, err := requiredFloat(q.Get(f.name), f.name)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid input parameters: %w", err))
			return
		}
		*f.dest = v
	}

	orientation := rand.Float64() * 2 * math.Pi
	if raw := q.Get("orientation"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid input parameters: orientation: %w", err))
			return
		}
		orientation = v
	}

	rect, err := parking.CenterRectangle(bounds, orientation, s.processor.Config().Rectangle)
	if err != nil {
		writeRunError(r.Context(), w, err)
		return
	}
	writeData(w, []parking.Rectangle{rect})
}

func boundsFromQuery(r *http.Request) (geo.Bounds, error) {
	if r.Method != http.MethodGet {
		return geo.Bounds{}, errors.New("only GET is supported")
	}
	q := r.URL.Query()

	var bounds geo.Bounds
	var err error
	if bounds.TX, err = requiredFloat(q.Get("tx"), "tx"); err != nil {
		return geo.Bounds{}, err
	}
	if bounds.TY, err = requiredFloat(q.Get("ty"), "ty"); err != nil {
		return geo.Bounds{}, err
	}
	if bounds.BX, err = requiredFloat(q.Get("bx"), "bx"); err != nil {
		return geo.Bounds{}, err
	}
	if bounds.BY, err = requiredFloat(q.Get("by"), "by"); err != nil {
		return geo.Bounds{}, err
	}
	return bounds, nil
}

func requiredFloat(raw, name string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be finite", name)
	}
	return v, nil
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, envelope{Success: false, Error: err.Error()})
}

// writeRunError maps caller mistakes to 400 and everything else to 500
func writeRunError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, geo.ErrInvalidBounds) || errors.Is(err, parking.ErrInvalidConfiguration) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid input parameters: %w", err))
		return
	}
	logging.Errorw(ctx, "Street request failed", "error", err)
	writeError(w, http.StatusInternalServerError, fmt.Errorf("server error: %w", err))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
