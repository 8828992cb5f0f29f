// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Simulation outcomes.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Source fetch outcomes.
const (
	FetchOK      = "ok"
	FetchError   = "error"
	FetchTimeout = "timeout"
)

var (
	// Simulation Metrics
	SimulationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_simulations_total",
			Help: "Total number of quiz simulation runs",
		},
		[]string{"outcome"},
	)

	SimulationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_simulation_duration_seconds",
			Help:    "Duration of quiz simulation runs in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
	)

	UnmetBaskets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_unmet_baskets_total",
			Help: "Total number of baskets that ended below their minimum",
		},
		[]string{"filter"},
	)

	PoolSongs = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quiz_pool_songs",
			Help:    "Number of songs in the candidate pool per run",
			Buckets: prometheus.ExponentialBuckets(10, 4, 7), // 10 .. 40960
		},
		[]string{"stage"}, // "source", "eligible"
	)

	// Pool Metrics
	SourceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pool_source_fetches_total",
			Help: "Total number of song list loads",
		},
		[]string{"mode", "outcome"},
	)

	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pool_source_fetch_duration_seconds",
			Help:    "Song list load duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "result", "list"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Storage Metrics
	StorageGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_gc_runs_total",
			Help: "Total number of value log garbage collection passes",
		},
		[]string{"result"}, // rewritten, clean, error
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordSimulation records one simulation run.
func RecordSimulation(outcome string, duration time.Duration) {
	SimulationsTotal.WithLabelValues(outcome).Inc()
	SimulationDuration.Observe(duration.Seconds())
}

// RecordPoolSizes records the source and eligible pool sizes of a run.
func RecordPoolSizes(source, eligible int) {
	PoolSongs.WithLabelValues("source").Observe(float64(source))
	PoolSongs.WithLabelValues("eligible").Observe(float64(eligible))
}

// RecordUnmetBasket counts a basket that missed its minimum.
func RecordUnmetBasket(filter string) {
	UnmetBaskets.WithLabelValues(filter).Inc()
}

// RecordSourceFetch records a song list load.
func RecordSourceFetch(mode, outcome string, duration time.Duration) {
	SourceFetches.WithLabelValues(mode, outcome).Inc()
	SourceFetchDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// RecordCircuitBreakerResult records a request outcome through a breaker.
func RecordCircuitBreakerResult(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordCircuitBreakerTransition records a state change and updates the state gauge.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// SetAppInfo publishes the build information gauge.
func SetAppInfo(version, goVersion string) {
	AppInfo.WithLabelValues(version, goVersion).Set(1)
}

// RecordStorageGC records one value log GC pass.
func RecordStorageGC(result string) {
	StorageGCRuns.WithLabelValues(result).Inc()
}

// UpdateUptime sets the uptime gauge from the process start time.
func UpdateUptime(started time.Time) {
	AppUptime.Set(time.Since(started).Seconds())
}
