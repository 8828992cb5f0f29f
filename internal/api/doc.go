// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

/*
Package api exposes the song-resolution engine over HTTP using the Chi router.

Endpoints:

	POST   /api/v1/quiz/simulate   resolve a quiz configuration into songs
	GET    /api/v1/lists           saved list ids
	PUT    /api/v1/lists/{id}      create or replace a saved list
	GET    /api/v1/lists/{id}      fetch a saved list
	DELETE /api/v1/lists/{id}      remove a saved list
	GET    /api/v1/health/live     liveness check
	GET    /api/v1/health/ready    readiness check (saved list store reachable)
	GET    /metrics                Prometheus metrics

Every JSON response uses the models.APIResponse envelope. Errors carry a machine
readable code:

	INVALID_REQUEST        body is not valid JSON or exceeds the size limit
	INVALID_CONFIGURATION  the quiz configuration cannot be resolved
	LIST_NOT_FOUND         unknown saved list id
	TIMEOUT                the simulation exceeded server.simulate_timeout
	INTERNAL_ERROR         anything else

Middleware stack (outermost first): request id, real IP, panic recovery, CORS,
security headers, per-IP rate limiting, Prometheus instrumentation.

A simulation that cannot fill every basket is still a 200: the metadata reports
success=false together with the basket status.
*/
package api
