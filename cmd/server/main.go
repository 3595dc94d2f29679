package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/dpup/prefab"
	"github.com/dpup/prefab/logging"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dpup/streetlines/server/internal/cache"
	"github.com/dpup/streetlines/server/internal/clients/google"
	"github.com/dpup/streetlines/server/internal/config"
	"github.com/dpup/streetlines/server/internal/lib/parking"
	"github.com/dpup/streetlines/server/internal/lib/render"
	"github.com/dpup/streetlines/server/internal/metrics"
	"github.com/dpup/streetlines/server/internal/services"
)

func main() {
	ctx := logging.EnsureLogger(context.Background())

	// Load configuration using Prefab's config system
	appConfig := loadConfig()

	store := newStore(ctx, appConfig.Cache)

	// Position resolution is optional; without a key scouting uses raw grid points
	var resolver parking.PositionResolver
	if appConfig.Google.APIKey != "" {
		googleClient := google.NewClientWithHTTPDoer(appConfig.Google.APIKey, appConfig.Google.BaseURL,
			&http.Client{Timeout: appConfig.Google.Timeout})
		resolver = cache.NewCachingResolver(googleClient, store, appConfig.Cache.TTL)
	} else {
		log.Printf("No Google API key configured - scouting will use raw grid locations")
	}

	var sink parking.RenderSink
	if appConfig.NATS.URL != "" {
		conn, err := render.ConnectNATS(appConfig.NATS.URL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer conn.Close()
		sink = render.NewNATSSink(ctx, conn, appConfig.NATS.SubjectPrefix)
		log.Printf("Publishing render events to %s.*", appConfig.NATS.SubjectPrefix)
	}

	processor, err := parking.NewProcessor(appConfig.Engine, parking.WithResolver(resolver))
	if err != nil {
		log.Fatalf("Invalid engine configuration: %v", err)
	}

	streetsService := services.NewStreetsService(processor, services.NewScouter(resolver, appConfig.Engine), sink)
	areasService := services.NewAreasService(streetsService, store, &appConfig.Areas)

	log.Printf("Streetlines API Server starting")
	log.Printf("Areas monitored: %d", len(appConfig.Areas.Monitored))

	if len(appConfig.Areas.Monitored) > 0 {
		periodicRefresh := services.NewPeriodicRefreshService(areasService, appConfig.Areas.RefreshInterval)
		if err := periodicRefresh.StartPeriodicRefresh(ctx); err != nil {
			log.Printf("Failed to start periodic refresh: %v", err)
		}
		defer periodicRefresh.Stop()
	}

	// Server configuration (port, etc.) will be loaded from prefab.yaml/env vars
	opts := []prefab.ServerOption{
		prefab.WithGRPCReflection(),
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
		prefab.WithHTTPHandlerFunc("/metrics", metrics.Handler().ServeHTTP),
	}
	for _, route := range append(streetsService.Routes(), areasService.Routes()...) {
		opts = append(opts, prefab.WithHTTPHandlerFunc(route.Path, route.Handler))
	}
	server := prefab.New(opts...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server.ServiceRegistrar(), healthServer)
	healthServer.SetServingStatus("streetlines", healthpb.HealthCheckResponse_SERVING)

	// Start the server (blocks until shutdown)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig loads configuration from prefab.yaml and PF__ environment variables
// on top of the defaults
func loadConfig() *config.Config {
	appConfig := config.DefaultConfig()

	sections := []struct {
		key    string
		target interface{}
	}{
		{"streets.engine", &appConfig.Engine},
		{"streets.google", &appConfig.Google},
		{"streets.cache", &appConfig.Cache},
		{"streets.nats", &appConfig.NATS},
		{"streets.areas", &appConfig.Areas},
	}
	for _, s := range sections {
		if err := prefab.Config.Unmarshal(s.key, s.target); err != nil {
			log.Fatalf("Failed to unmarshal %s section: %v", s.key, err)
		}
	}

	if err := appConfig.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return appConfig
}

// newStore picks Valkey when configured, otherwise an in-process cache
func newStore(ctx context.Context, cfg config.CacheConfig) cache.Store {
	if cfg.ValkeyAddr != "" {
		store, err := cache.NewValkeyStore(cfg.ValkeyAddr, "streetlines:")
		if err != nil {
			log.Fatalf("Failed to connect to Valkey: %v", err)
		}
		log.Printf("Using Valkey cache at %s", cfg.ValkeyAddr)
		return store
	}

	memory := cache.NewCache()
	memory.StartPeriodicCleanup(ctx, cfg.CleanupInterval)
	return memory
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	// Only handle the root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>streetlines</title>
    <style>
        body { font-family: 'Courier New', Consolas, monospace; background: #000; color: #0f0; padding: 20px; line-height: 1.4; }
        a { color: #0ff; text-decoration: none; }
        .header { color: #ff0; }
    </style>
</head>
<body>
<pre>
<span class="header">streetlines</span>

Places parking spots and stall footprints along streets inside a search region.

<span class="header">API Endpoints:</span>

  POST /api/v1/streets                               - Process points, or scout the bounds when none are given
  GET  /api/v1/streets.kml?tx=&amp;ty=&amp;bx=&amp;by=           - Scout and process, as KML
  GET  /api/v1/streets.geojson?tx=&amp;ty=&amp;bx=&amp;by=       - Scout and process, as GeoJSON
  GET  /api/v1/rectangles?latitude_top_left=...      - One stall at the center of a bounding box
  <a href="/api/v1/areas">GET  /api/v1/areas</a>                                  - Monitored areas
  GET  /api/v1/areas/{area_id}                        - A single monitored area
  <a href="/metrics">GET  /metrics</a>                                      - Prometheus metrics

<span class="header">Example Usage:</span>
  curl 'http://localhost:8000/api/v1/rectangles?latitude_top_left=38.1395&amp;longitude_top_left=-120.4625&amp;latitude_bottom_right=38.1370&amp;longitude_bottom_right=-120.4550'
</pre>
</body>
</html>`

	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Error("Failed to write homepage HTML", "error", err)
	}
}
