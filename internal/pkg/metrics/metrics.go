// Package metrics exposes Prometheus collectors for video generation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationsTotal counts finished generation jobs by outcome (succeeded, failed).
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgen_generations_total",
		Help: "Total generation jobs by outcome",
	}, []string{"outcome"})

	// StageDuration tracks how long each job stage takes.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reelgen_stage_duration_seconds",
		Help:    "Duration of generation job stages",
		Buckets: prometheus.ExponentialBuckets(0.01, 2.5, 12), // 10ms to ~10min
	}, []string{"stage"})

	// FetchBytes counts bytes downloaded for remote assets.
	FetchBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelgen_fetch_bytes_total",
		Help: "Total bytes downloaded for remote assets",
	})

	// RenderFailures counts failed renders by reason (exit, timeout, canceled,
	// invalid, output).
	RenderFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reelgen_render_failures_total",
		Help: "Total render failures by reason",
	}, []string{"reason"})

	// CleanupErrors counts temporary files that could not be released.
	CleanupErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reelgen_cleanup_errors_total",
		Help: "Total temporary file cleanup failures",
	})
)
