// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/quizforge/internal/models"
)

// HealthLive handles liveness check requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, r, http.StatusOK, models.HealthStatus{
		Status:  "alive",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
	}, start)
}

// HealthReady handles readiness check requests (Kubernetes-style)
// Returns 200 OK only if the engine is wired and the saved list store answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := map[string]string{"engine": "ok", "list_store": "ok"}
	ready := true

	if h.engine == nil {
		checks["engine"] = "missing"
		ready = false
	}
	switch {
	case h.lists == nil:
		checks["list_store"] = "missing"
		ready = false
	case h.lists.Ping(r.Context()) != nil:
		checks["list_store"] = "unreachable"
		ready = false
	}

	status := models.HealthStatus{
		Status:  "ready",
		Checks:  checks,
		Version: h.version,
		Uptime:  time.Since(h.startTime).Seconds(),
	}
	if !ready {
		status.Status = "not_ready"
		respondJSON(w, http.StatusServiceUnavailable, &models.APIResponse{
			Status: "error",
			Data:   status,
			Metadata: models.Metadata{
				Timestamp: time.Now(),
			},
			Error: &models.APIError{Code: CodeNotReady, Message: "service is not ready"},
		})
		return
	}
	respondSuccess(w, r, http.StatusOK, status, start)
}
