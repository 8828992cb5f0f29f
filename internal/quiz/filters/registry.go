// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

// Package filters compiles filter settings into song predicates and quota categories.
//
// Each filter definition is registered under its definitionId with a decoder that
// turns the raw settings object into a typed Settings value. Decoding happens once,
// when the quiz graph is parsed; the resulting Settings are immutable and safe to
// share between concurrent runs.
//
//	reg := filters.DefaultRegistry()
//	s, err := reg.Decode("vintage", raw)
//	ok := s.Matches(&song)
package filters

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/quiz/basket"
)

// ErrUnknownDefinition is returned for a definitionId with no registered decoder.
var ErrUnknownDefinition = errors.New("unknown filter definition")

// Settings is a decoded filter configuration.
type Settings interface {
	// DefinitionID names the filter definition that produced these settings.
	DefinitionID() string

	// Advanced reports whether the filter is quota driven and contributes baskets.
	Advanced() bool

	// Matches is the eligibility predicate applied to every candidate.
	Matches(song *models.Song) bool

	// Categories lists the quota categories planned into baskets in advanced mode.
	Categories() []basket.Category
}

// Decoder turns raw settings JSON into Settings.
type Decoder func(raw json.RawMessage) (Settings, error)

// Definition binds a definitionId to its decoder.
type Definition struct {
	ID     string
	Decode Decoder
}

// Registry maps definition ids to decoders. It is read-only after construction.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry builds a registry from defs. Later definitions replace earlier ones with the same id.
func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		r.defs[d.ID] = d
	}
	return r
}

// DefaultRegistry returns a registry holding every built-in filter.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Definition{ID: SongsAndTypesID, Decode: decodeSongTypes},
		Definition{ID: VintageID, Decode: decodeVintage},
		Definition{ID: DifficultyID, Decode: decodeDifficulty},
		Definition{ID: AnimeScoreID, Decode: decodeAnimeScore},
		Definition{ID: PlayerScoreID, Decode: decodePlayerScore},
		Definition{ID: AnimeTypeID, Decode: decodeAnimeType},
		Definition{ID: SongCategoriesID, Decode: decodeSongCategories},
		Definition{ID: GenresID, Decode: decodeGenres},
		Definition{ID: TagsID, Decode: decodeTags},
	)
}

// Decode parses raw settings for definitionID.
func (r *Registry) Decode(definitionID string, raw json.RawMessage) (Settings, error) {
	def, ok := r.defs[definitionID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDefinition, definitionID)
	}
	s, err := def.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("filter %s: %w", definitionID, err)
	}
	return s, nil
}

// IDs returns the registered definition ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Restrict limits s to songs from source. Songs from other sources pass the
// predicate untouched and never count toward the filter's baskets.
func Restrict(s Settings, source string) Settings {
	if source == "" {
		return s
	}
	return restricted{Settings: s, source: source}
}

type restricted struct {
	Settings
	source string
}

func (r restricted) Matches(song *models.Song) bool {
	if song.SourceID != r.source {
		return true
	}
	return r.Settings.Matches(song)
}

func (r restricted) Categories() []basket.Category {
	cats := r.Settings.Categories()
	out := make([]basket.Category, len(cats))
	for i, c := range cats {
		inner := c.Matches
		c.Matches = func(song *models.Song) bool {
			return song.SourceID == r.source && inner(song)
		}
		out[i] = c
	}
	return out
}

// unmarshalSettings decodes raw into v. Empty settings leave v at its zero value.
func unmarshalSettings(raw json.RawMessage, v any) error {
	if len(strings.TrimSpace(string(raw))) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// advancedMode resolves the "mode" field. Without an explicit mode a filter is
// advanced as soon as one of its categories carries a quota.
func advancedMode(mode string, hasQuota bool) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "advanced", "count", "percentage":
		return true
	case "basic":
		return false
	default:
		return hasQuota
	}
}
