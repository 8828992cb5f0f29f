// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package models

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// QuizConfiguration is the declarative quiz built in the editor.
//
// Router and Nodes hold the raw node graph; the graph package decodes them into
// typed variants so this package stays free of engine logic.
type QuizConfiguration struct {
	// Seed makes a run reproducible. Empty means the engine picks one and reports it.
	Seed string `json:"seed" validate:"max=256"`

	// RequiredCategories adds fallback categories on top of the built-in ones.
	RequiredCategories []string `json:"requiredCategories,omitempty"`

	Router json.RawMessage   `json:"router,omitempty"`
	Nodes  []json.RawMessage `json:"nodes,omitempty"`

	BasicSettings BasicSettings `json:"basicSettings,omitempty"`

	// NumberOfSongs is the song count target, fixed or a range sampled once per run.
	NumberOfSongs *Span `json:"numberOfSongs"`

	Filters   []FilterInstance `json:"filters,omitempty" validate:"dive"`
	SongLists []SongListSpec   `json:"songLists,omitempty" validate:"dive"`
}

// BasicSettings are the lobby settings passed through to the game:
// guessTime, extraGuessTime, samplePoint, playbackSpeed and friends.
// The engine only chooses which settings object wins; it does not interpret them.
type BasicSettings map[string]any

// FilterInstance is one configured filter.
type FilterInstance struct {
	DefinitionID string          `json:"definitionId" validate:"required"`
	InstanceID   string          `json:"instanceId"`
	Settings     json.RawMessage `json:"settings,omitempty"`

	// ExecutionChance is a percentage (0-100), fixed or ranged. Nil means always active.
	ExecutionChance *Span `json:"executionChance,omitempty"`

	// Category groups nodes for execution-chance fallback. Defaults to the node kind.
	Category string `json:"category,omitempty"`
}

// ListMode selects where a song list comes from.
type ListMode string

// List modes.
const (
	ListModeMasterlist ListMode = "masterlist"
	ListModeSavedLists ListMode = "saved-lists"
	ListModeUserLists  ListMode = "user-lists"
)

// SongListSpec describes one song source.
type SongListSpec struct {
	NodeID   string   `json:"nodeId"`
	NodeType string   `json:"nodeType,omitempty"`
	Mode     ListMode `json:"mode" validate:"oneof=masterlist saved-lists user-lists"`

	// UseEntirePool loads the master list for this node whatever its mode.
	UseEntirePool bool `json:"useEntirePool,omitempty"`

	SavedList      *SavedListRef   `json:"savedList,omitempty"`
	UserListImport *UserListImport `json:"userListImport,omitempty"`

	ExecutionChance *Span  `json:"executionChance,omitempty"`
	Category        string `json:"category,omitempty"`
}

// SourceID is the identifier songs from this list are tagged with.
func (s *SongListSpec) SourceID() string {
	if s.NodeID != "" {
		return s.NodeID
	}
	return string(s.Mode)
}

// SavedListRef points at a stored song list, either by id or by a direct URL.
type SavedListRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// UserListImport requests a user's anime list from an external tracker.
type UserListImport struct {
	Platform string   `json:"platform" validate:"oneof=anilist myanimelist"`
	Username string   `json:"username" validate:"required"`
	Statuses []string `json:"statuses,omitempty"`
}

// Span is a number or an inclusive {min, max} range.
type Span struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Fixed returns a span holding a single value.
func Fixed(v float64) *Span {
	return &Span{Min: v, Max: v}
}

// IsFixed reports whether the span holds a single value.
func (s Span) IsFixed() bool {
	return s.Min == s.Max
}

// MarshalJSON writes a bare number for fixed spans.
func (s Span) MarshalJSON() ([]byte, error) {
	if s.IsFixed() {
		return []byte(strconv.FormatFloat(s.Min, 'f', -1, 64)), nil
	}
	type plain Span
	return json.Marshal(plain(s))
}

// UnmarshalJSON accepts a number, a numeric string, {"min","max"} or {"value"}.
// Inverted bounds are swapped.
func (s *Span) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("span: empty value")
	}

	switch data[0] {
	case '{':
		var obj struct {
			Min   *float64 `json:"min"`
			Max   *float64 `json:"max"`
			Value *float64 `json:"value"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("span: %w", err)
		}
		switch {
		case obj.Min != nil && obj.Max != nil:
			s.Min, s.Max = *obj.Min, *obj.Max
		case obj.Value != nil:
			s.Min, s.Max = *obj.Value, *obj.Value
		case obj.Min != nil:
			s.Min, s.Max = *obj.Min, *obj.Min
		case obj.Max != nil:
			s.Min, s.Max = *obj.Max, *obj.Max
		default:
			return fmt.Errorf("span: object needs min/max or value")
		}
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return fmt.Errorf("span: %w", err)
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("span: %q is not a number", str)
		}
		s.Min, s.Max = v, v
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("span: %w", err)
		}
		s.Min, s.Max = v, v
	}

	if s.Min > s.Max {
		s.Min, s.Max = s.Max, s.Min
	}
	return nil
}
