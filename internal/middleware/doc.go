// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

/*
Package middleware provides HTTP middleware shared by the API router.

Key Components:

  - Request ID: UUID-based request tracking. The id is echoed in the X-Request-ID
    response header and stored in the logging context, so every engine and pool
    log line of a simulate call carries it.
  - Prometheus Metrics: request count, latency and in-flight gauge per route.

Both are chi-compatible (func(http.Handler) http.Handler):

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

Metrics are labelled with the matched chi route pattern ("/api/v1/lists/{id}")
rather than the raw path, which keeps label cardinality bounded.
*/
package middleware
