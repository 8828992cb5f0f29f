// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto and
exposed at /metrics by the API router:

	curl http://localhost:8080/metrics

# Available Metrics

Simulation Metrics:
  - quiz_simulations_total: Simulation runs (counter)
    Labels: outcome ("success", "partial", "invalid", "error")
  - quiz_simulation_duration_seconds: End-to-end run time (histogram)
  - quiz_unmet_baskets_total: Baskets that ended below their minimum (counter)
    Labels: filter
  - quiz_pool_songs: Candidate pool and eligible sizes of the last run (histogram)
    Labels: stage ("source", "eligible")

Pool Metrics:
  - pool_source_fetches_total: Song list loads (counter)
    Labels: mode, outcome ("ok", "error", "timeout")
  - pool_source_fetch_duration_seconds: Song list load time (histogram)
    Labels: mode

Cache Metrics:
  - cache_hits_total / cache_misses_total (counter)
    Labels: cache_type ("result", "list")

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
  - circuit_breaker_requests_total: Requests by result (counter)
  - circuit_breaker_state_transitions_total (counter)

API Metrics:
  - api_requests_total, api_request_duration_seconds, api_active_requests
  - api_rate_limit_hits_total

System Metrics:
  - app_info: Version and Go runtime (gauge)
  - app_uptime_seconds (gauge)

# Usage

	start := time.Now()
	result, err := engine.Simulate(ctx, cfg)
	metrics.RecordSimulation(outcome, time.Since(start))
*/
package metrics
