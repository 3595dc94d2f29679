package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dpup/prefab/logging"

	"github.com/dpup/streetlines/server/internal/cache"
	"github.com/dpup/streetlines/server/internal/clients/google"
	"github.com/dpup/streetlines/server/internal/clients/placemarks"
	"github.com/dpup/streetlines/server/internal/lib/geo"
	"github.com/dpup/streetlines/server/internal/lib/parking"
	"github.com/dpup/streetlines/server/internal/lib/render"
	"github.com/dpup/streetlines/server/internal/services"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "rectangles":
		handleRectangles()
	case "distance":
		handleDistance()
	case "process":
		handleProcess()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleRectangles() {
	fs := flag.NewFlagSet("rectangles", flag.ExitOnError)
	latTopLeft := fs.Float64("latitude_top_left", math.NaN(), "Latitude of the top-left corner")
	lngTopLeft := fs.Float64("longitude_top_left", math.NaN(), "Longitude of the top-left corner")
	latBottomRight := fs.Float64("latitude_bottom_right", math.NaN(), "Latitude of the bottom-right corner")
	lngBottomRight := fs.Float64("longitude_bottom_right", math.NaN(), "Longitude of the bottom-right corner")
	orientation := fs.Float64("orientation", math.NaN(), "Street heading in radians clockwise from north (random when omitted)")

	fs.Parse(os.Args[2:])

	if math.IsNaN(*latTopLeft) || math.IsNaN(*lngTopLeft) || math.IsNaN(*latBottomRight) || math.IsNaN(*lngBottomRight) {
		fmt.Println("Example usage:")
		fmt.Println("  streetlines rectangles --latitude_top_left 38.1395 --longitude_top_left -120.4625 \\")
		fmt.Println("    --latitude_bottom_right 38.1370 --longitude_bottom_right -120.4550")
		os.Exit(1)
	}

	heading := *orientation
	if math.IsNaN(heading) {
		heading = rand.Float64() * 2 * math.Pi
	}

	bounds := geo.Bounds{TX: *latTopLeft, TY: *lngTopLeft, BX: *latBottomRight, BY: *lngBottomRight}
	rect, err := parking.CenterRectangle(bounds, heading, parking.DefaultConfig().Rectangle)
	if err != nil {
		log.Fatalf("Error calculating rectangles: %v", err)
	}

	printJSON([]parking.Rectangle{rect})
}

func handleDistance() {
	fs := flag.NewFlagSet("distance", flag.ExitOnError)
	lat1 := fs.Float64("lat1", 0, "Latitude of first point")
	lng1 := fs.Float64("lng1", 0, "Longitude of first point")
	lat2 := fs.Float64("lat2", 0, "Latitude of second point")
	lng2 := fs.Float64("lng2", 0, "Longitude of second point")

	fs.Parse(os.Args[2:])

	p1, err := geo.NewPoint(*lat1, *lng1)
	if err != nil {
		log.Fatalf("Invalid first point: %v", err)
	}
	p2, err := geo.NewPoint(*lat2, *lng2)
	if err != nil {
		log.Fatalf("Invalid second point: %v", err)
	}

	distance := geo.Distance(p1, p2, geo.Meters)
	fmt.Printf("Distance between points:\n")
	fmt.Printf("  Point 1: (%.6f, %.6f)\n", p1.Latitude, p1.Longitude)
	fmt.Printf("  Point 2: (%.6f, %.6f)\n", p2.Latitude, p2.Longitude)
	fmt.Printf("  Distance: %.2f meters (%.3f km)\n", distance, geo.Distance(p1, p2, geo.Kilometers))
}

func handleProcess() {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	boundsStr := fs.String("bounds", "", "Search region as tx,ty,bx,by")
	pointsStr := fs.String("points", "", "Points as lat,lng;lat,lng;...")
	polylineStr := fs.String("polyline", "", "Points as an encoded polyline")
	kmlSource := fs.String("kml", "", "Read points from the Point and LineString placemarks of a KML file or URL")
	radius := fs.Float64("radius", 0, "Drop points farther than this many meters from the bounds center (0 keeps all)")
	format := fs.String("format", "json", "Output format: json, kml or geojson")
	spacing := fs.Float64("spacing", parking.DefaultConfig().SpotDistance, "Spot spacing in meters")
	apiKey := fs.String("google-api-key", os.Getenv("GOOGLE_API_KEY"), "Google Routes API key used to snap points to roads")
	timeout := fs.Duration("timeout", 2*time.Minute, "Overall timeout")

	fs.Parse(os.Args[2:])

	if *boundsStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  streetlines process --bounds 10,10,10.01,10.01 --points \"10.003,10.005;10.00345,10.005\"")
		fmt.Println("  streetlines process --bounds 38.1395,-120.4625,38.1370,-120.4550 --kml main-street.kml --format geojson")
		fmt.Println("  streetlines process --bounds 38.1395,-120.4625,38.1370,-120.4550 --format kml")
		fmt.Println("  (Without points the bounds are scouted, which needs --google-api-key)")
		os.Exit(1)
	}

	bounds, err := parseBounds(*boundsStr)
	if err != nil {
		log.Fatalf("Invalid bounds: %v", err)
	}

	ctx, cancel := context.WithTimeout(logging.EnsureLogger(context.Background()), *timeout)
	defer cancel()

	var points []geo.Point
	switch {
	case *kmlSource != "":
		var found []placemarks.Placemark
		found, err = placemarks.NewFeedParser().Load(ctx, *kmlSource)
		points = placemarks.Points(found)
	case *polylineStr != "":
		points, err = geo.DecodePolyline(*polylineStr)
	case *pointsStr != "":
		points, err = parsePoints(*pointsStr)
	}
	if err != nil {
		log.Fatalf("Invalid points: %v", err)
	}
	if *radius > 0 && len(points) > 0 {
		points, err = geo.FilterPointsByDistance(points, bounds.Center(), *radius)
		if err != nil {
			log.Fatalf("Invalid bounds: %v", err)
		}
	}

	cfg := parking.DefaultConfig()
	cfg.SpotDistance = *spacing

	var resolver parking.PositionResolver
	if *apiKey != "" {
		resolver = cache.NewCachingResolver(google.NewClient(*apiKey), cache.NewCache(), time.Hour)
	} else if len(points) == 0 {
		log.Fatal("Either points or a Google API key for scouting is required")
	}

	processor, err := parking.NewProcessor(cfg, parking.WithResolver(resolver))
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	streets := services.NewStreetsService(processor, services.NewScouter(resolver, cfg), nil)

	switch *format {
	case "json":
		street, err := streets.Run(ctx, bounds, points, render.Nop{})
		if err != nil {
			log.Fatalf("Error processing street: %v", err)
		}
		printJSON(street)
	case "kml":
		sink := render.NewKMLSink("Parking spots")
		if _, err := streets.Run(ctx, bounds, points, sink); err != nil {
			log.Fatalf("Error processing street: %v", err)
		}
		if err := sink.Write(os.Stdout); err != nil {
			log.Fatalf("Error writing KML: %v", err)
		}
	case "geojson":
		sink := render.NewGeoJSONSink()
		if _, err := streets.Run(ctx, bounds, points, sink); err != nil {
			log.Fatalf("Error processing street: %v", err)
		}
		printJSON(sink.FeatureCollection())
	default:
		log.Fatalf("Unknown format: %s", *format)
	}
}

func parseBounds(s string) (geo.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.Bounds{}, fmt.Errorf("expected 4 values, got %d", len(parts))
	}
	var values [4]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return geo.Bounds{}, err
		}
		values[i] = v
	}
	return geo.Bounds{TX: values[0], TY: values[1], BX: values[2], BY: values[3]}, nil
}

func parsePoints(s string) ([]geo.Point, error) {
	var points []geo.Point
	for i, pair := range strings.Split(s, ";") {
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("point %d: expected lat,lng", i)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		p, err := geo.NewPoint(lat, lng)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		points = append(points, p)
	}
	return points, nil
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		log.Fatalf("Error encoding output: %v", err)
	}
	fmt.Println(string(out))
}

func printUsage() {
	fmt.Println("streetlines - parking spot geometry tools")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  streetlines <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  rectangles    Calculate a parking rectangle at the center of a bounding box")
	fmt.Println("  distance      Calculate the Haversine distance between two points")
	fmt.Println("  process       Place spots and footprints along a street")
	fmt.Println("  help          Show this help message")
	fmt.Println()
	fmt.Println("Run 'streetlines <command>' without options to see examples.")
}
