package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "modessa"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Try-on metrics
var (
	TryOnSubmissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tryon_submissions_total",
			Help:      "Total number of try-on generations submitted",
		},
	)

	TryOnOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tryon_outcomes_total",
			Help:      "Try-on submission outcomes",
		},
		[]string{"outcome"}, // succeeded, failed, timeout, exhausted_guest, exhausted_authenticated
	)

	TryOnPollCycles = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tryon_poll_cycles",
			Help:      "Number of status polls per completed generation",
			Buckets:   []float64{1, 2, 3, 5, 8, 12, 20, 30, 40},
		},
	)

	TryOnGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tryon_generation_duration_seconds",
			Help:      "Wall-clock time from submission to delivered result",
			Buckets:   []float64{5, 10, 20, 30, 45, 60, 90, 120},
		},
	)

	PhotosProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "photos_processed_total",
			Help:      "Person photos accepted through the crop pipeline",
		},
		[]string{"brightness"}, // ok, too_dark, too_bright
	)
)

// Store metrics
var (
	OrdersPlaced = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Total number of orders placed",
		},
	)

	ReviewsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_submitted_total",
			Help:      "Total number of product reviews submitted",
		},
	)
)
