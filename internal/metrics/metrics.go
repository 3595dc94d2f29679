package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Engine metrics
	StreetsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "streetlines",
		Subsystem: "engine",
		Name:      "streets_processed_total",
		Help:      "Total streets processed",
	})

	SpotsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "streetlines",
		Subsystem: "engine",
		Name:      "spots_generated_total",
		Help:      "Total parking spots placed",
	})

	FootprintsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "streetlines",
		Subsystem: "engine",
		Name:      "footprints_generated_total",
		Help:      "Total footprints generated",
	})

	SegmentsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streetlines",
		Subsystem: "engine",
		Name:      "segments_skipped_total",
		Help:      "Path segments skipped because an endpoint could not be resolved",
	}, []string{"status"})

	ProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "streetlines",
		Subsystem: "engine",
		Name:      "process_duration_seconds",
		Help:      "Duration of processing a single street",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})

	// Resolver metrics
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streetlines",
		Subsystem: "resolver",
		Name:      "resolutions_total",
		Help:      "Position resolutions by outcome",
	}, []string{"result"})

	ResolutionCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "streetlines",
		Subsystem: "resolver",
		Name:      "cache_lookups_total",
		Help:      "Resolution cache lookups by outcome",
	}, []string{"result"})

	ScoutCellsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "streetlines",
		Subsystem: "scout",
		Name:      "cells_dropped_total",
		Help:      "Scout grid cells dropped because they could not be resolved",
	})
)

// Handler returns the Prometheus scrape handler
func Handler() http.Handler {
	return promhttp.Handler()
}
