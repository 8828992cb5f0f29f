// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package api

import "errors"

// Error codes returned in models.APIError.Code.
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeInvalidConfiguration = "INVALID_CONFIGURATION"
	CodeListNotFound         = "LIST_NOT_FOUND"
	CodeTimeout              = "TIMEOUT"
	CodeInternal             = "INTERNAL_ERROR"
	CodeNotReady             = "NOT_READY"
)

// ErrEmptyBody indicates a request without a JSON body
var ErrEmptyBody = errors.New("request body is empty")
