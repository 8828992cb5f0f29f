// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package api

import (
	"context"
	"time"

	"github.com/tomtom215/quizforge/internal/config"
	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/pool"
)

// Simulator runs one quiz simulation. Implemented by *engine.Engine.
type Simulator interface {
	Simulate(ctx context.Context, quiz *models.QuizConfiguration) (*models.SimulationResult, error)
}

// ListStore persists saved song lists. Implemented by *pool.BadgerListStore.
type ListStore interface {
	Put(ctx context.Context, rec *pool.SavedListRecord) error
	Get(ctx context.Context, id string) (*pool.SavedListRecord, error)
	Delete(ctx context.Context, id string) error
	IDs(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: response and request helpers
//   - handlers_health.go: liveness and readiness checks
//   - handlers_quiz.go: simulate endpoint
//   - handlers_lists.go: saved list endpoints
type Handler struct {
	engine    Simulator
	lists     ListStore
	config    *config.Config
	version   string
	startTime time.Time
}

// NewHandler creates a new API handler. lists may be nil, in which case the saved
// list endpoints answer 503 and readiness reports the store as missing.
//
// Example:
//
//	handler := api.NewHandler(eng, store, cfg, version)
//	router := api.NewRouter(handler, api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)))
//	srv := &http.Server{Handler: router.SetupChi()}
func NewHandler(engine Simulator, lists ListStore, cfg *config.Config, version string) *Handler {
	return &Handler{
		engine:    engine,
		lists:     lists,
		config:    cfg,
		version:   version,
		startTime: time.Now(),
	}
}

// simulateTimeout bounds one simulate request.
func (h *Handler) simulateTimeout() time.Duration {
	if h.config != nil && h.config.Server.SimulateTimeout > 0 {
		return h.config.Server.SimulateTimeout
	}
	return 20 * time.Second
}
