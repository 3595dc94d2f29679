package placemarks

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dpup/streetlines/server/internal/lib/geo"
)

// HTTPDoer is the subset of *http.Client the parser needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FeedParser reads street points from KML documents, such as a path traced in
// Google Earth or a previously exported streets.kml
type FeedParser struct {
	HTTPClient HTTPDoer
}

// Placemark is a named KML feature and the points of its geometry
type Placemark struct {
	Name        string
	Description string
	Points      []geo.Point
}

// NewFeedParser creates a new KML feed parser
func NewFeedParser() *FeedParser {
	return &FeedParser{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads placemarks from a URL or, when source is not http(s), a local file
func (p *FeedParser) Load(ctx context.Context, source string) ([]Placemark, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.ParseURL(ctx, source)
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open KML: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// ParseURL downloads and parses a KML document
func (p *FeedParser) ParseURL(ctx context.Context, url string) ([]Placemark, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download KML: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error %d downloading KML from %s", resp.StatusCode, url)
	}

	return Parse(resp.Body)
}

// Parse decodes every Point and LineString placemark in a KML document,
// including those nested in folders. Other geometries are skipped.
func Parse(r io.Reader) ([]Placemark, error) {
	var doc kmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse KML: %w", err)
	}

	var placemarks []Placemark
	var walk func(c *kmlContainer) error
	walk = func(c *kmlContainer) error {
		for _, pm := range c.Placemarks {
			placemark, err := processPlacemark(pm)
			if err != nil {
				return err
			}
			if placemark != nil {
				placemarks = append(placemarks, *placemark)
			}
		}
		for i := range c.Folders {
			if err := walk(&c.Folders[i]); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(&doc.kmlContainer); err != nil {
		return nil, err
	}
	if doc.Document != nil {
		if err := walk(doc.Document); err != nil {
			return nil, err
		}
	}
	return placemarks, nil
}

// Points flattens placemarks into one list in document order
func Points(placemarks []Placemark) []geo.Point {
	var points []geo.Point
	for _, pm := range placemarks {
		points = append(points, pm.Points...)
	}
	return points
}

func processPlacemark(pm kmlPlacemark) (*Placemark, error) {
	var raw string
	switch {
	case pm.Point != nil:
		raw = pm.Point.Coordinates
	case pm.LineString != nil:
		raw = pm.LineString.Coordinates
	default:
		return nil, nil
	}

	points, err := parseCoordinates(raw)
	if err != nil {
		return nil, fmt.Errorf("placemark %q: %w", pm.Name, err)
	}
	if len(points) == 0 {
		return nil, nil
	}

	return &Placemark{
		Name:        strings.TrimSpace(pm.Name),
		Description: extractTextFromHTML(pm.Description),
		Points:      points,
	}, nil
}

// parseCoordinates reads whitespace separated "longitude,latitude[,altitude]" tuples
func parseCoordinates(raw string) ([]geo.Point, error) {
	var points []geo.Point
	for _, tuple := range strings.Fields(raw) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid coordinate %q", tuple)
		}
		lng, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", tuple, err)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", tuple, err)
		}
		point, err := geo.NewPoint(lat, lng)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", tuple, err)
		}
		points = append(points, point)
	}
	return points, nil
}

var (
	htmlTag    = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// extractTextFromHTML removes HTML tags and decodes HTML entities
func extractTextFromHTML(htmlContent string) string {
	text := htmlTag.ReplaceAllString(htmlContent, " ")
	text = html.UnescapeString(text)
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

type kmlDocument struct {
	XMLName  xml.Name      `xml:"kml"`
	Document *kmlContainer `xml:"Document"`
	kmlContainer
}

type kmlContainer struct {
	Folders    []kmlContainer `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name        string       `xml:"name"`
	Description string       `xml:"description"`
	Point       *kmlGeometry `xml:"Point"`
	LineString  *kmlGeometry `xml:"LineString"`
}

type kmlGeometry struct {
	Coordinates string `xml:"coordinates"`
}
