// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/quizforge/internal/logging"
	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/pool"
	"github.com/tomtom215/quizforge/internal/validation"
)

// saveListRequest is the body of PUT /lists/{id}.
type saveListRequest struct {
	Name  string        `json:"name" validate:"max=200"`
	Songs []models.Song `json:"songs" validate:"required"`
}

// listSummary is the body of GET /lists.
type listSummary struct {
	IDs []string `json:"ids"`
}

func (h *Handler) requireLists(w http.ResponseWriter, r *http.Request) bool {
	if h.lists == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeNotReady, "saved list storage is disabled", nil)
		return false
	}
	return true
}

// ListSavedLists returns the ids of every saved list.
func (h *Handler) ListSavedLists(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.requireLists(w, r) {
		return
	}
	ids, err := h.lists.IDs(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "failed to list saved lists", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, listSummary{IDs: ids}, start)
}

// PutSavedList creates or replaces a saved list.
func (h *Handler) PutSavedList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.requireLists(w, r) {
		return
	}

	var req saveListRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, err.Error(), err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondErrorDetails(w, r, http.StatusBadRequest, CodeInvalidRequest, verr.Error(), validationDetails(verr), nil)
		return
	}

	rec := &pool.SavedListRecord{ID: chi.URLParam(r, "id"), Name: req.Name, Songs: req.Songs}
	if err := h.lists.Put(r.Context(), rec); err != nil {
		if errors.Is(err, pool.ErrInvalidList) {
			respondError(w, r, http.StatusBadRequest, CodeInvalidRequest, err.Error(), nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "failed to save list", err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("list_id", sanitizeLogValue(rec.ID)).
		Int("songs", len(rec.Songs)).
		Msg("saved list stored")
	respondSuccess(w, r, http.StatusOK, rec, start)
}

// GetSavedList returns one saved list.
func (h *Handler) GetSavedList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.requireLists(w, r) {
		return
	}

	rec, err := h.lists.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, pool.ErrListNotFound):
		respondError(w, r, http.StatusNotFound, CodeListNotFound, "saved list not found", nil)
	case err != nil:
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "failed to load list", err)
	default:
		respondSuccess(w, r, http.StatusOK, rec, start)
	}
}

// DeleteSavedList removes a saved list. Deleting a missing list is a 404.
func (h *Handler) DeleteSavedList(w http.ResponseWriter, r *http.Request) {
	if !h.requireLists(w, r) {
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := h.lists.Get(r.Context(), id); err != nil {
		if errors.Is(err, pool.ErrListNotFound) {
			respondError(w, r, http.StatusNotFound, CodeListNotFound, "saved list not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "failed to load list", err)
		return
	}
	if err := h.lists.Delete(r.Context(), id); err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeInternal, "failed to delete list", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
