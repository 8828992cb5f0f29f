// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

/*
Package services provides suture.Service wrappers for long-running quizforge
components.

Each wrapper implements suture's context-aware Serve method and fmt.Stringer
so the supervisor can name it in log events:

  - HTTPServerService: the quiz API http.Server, with graceful shutdown
  - BadgerGCService: periodic value log GC for the saved-list store
  - UptimeService: refreshes the app_uptime_seconds gauge

Returning an error from Serve asks the supervisor to restart the service
with backoff; returning ctx.Err() after cancellation is a clean stop.
*/
package services
