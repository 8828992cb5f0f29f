// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/quiz/engine"
)

// Simulate resolves a quiz configuration into a song list.
//
// A run that could not fill every basket still answers 200 with
// metadata.success=false; only unusable configurations are 400.
func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var quiz models.QuizConfiguration
	if err := decodeJSONBody(w, r, &quiz); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, err.Error(), err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.simulateTimeout())
	defer cancel()

	result, err := h.engine.Simulate(ctx, &quiz)
	switch {
	case err == nil:
		respondSuccess(w, r, http.StatusOK, result, start)
	case errors.Is(err, engine.ErrInvalidConfiguration):
		respondErrorDetails(w, r, http.StatusBadRequest, CodeInvalidConfiguration, err.Error(), validationDetails(err), err)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, CodeTimeout, "simulation timed out", err)
	default:
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "simulation failed", err)
	}
}
