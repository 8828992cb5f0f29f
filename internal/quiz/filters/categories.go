// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package filters

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/quiz/basket"
)

// Allow-list filter ids.
const (
	AnimeTypeID      = "anime-type"
	SongCategoriesID = "song-categories"
)

// AnimeType restricts the anime format (tv, movie, ova, ona, special).
//
//	{"enabled": ["tv", "movie"]}
//	{"enabled": {"tv": 70, "movie": 30}}
type AnimeType struct {
	advanced bool
	types    keyedList
	allowed  map[string]bool
}

func decodeAnimeType(raw json.RawMessage) (Settings, error) {
	var in struct {
		Mode    string    `json:"mode"`
		Enabled keyedList `json:"enabled"`
	}
	if err := unmarshalSettings(raw, &in); err != nil {
		return nil, err
	}
	return &AnimeType{
		advanced: advancedMode(in.Mode, in.Enabled.hasQuota()),
		types:    in.Enabled,
		allowed:  in.Enabled.active(),
	}, nil
}

func (f *AnimeType) DefinitionID() string { return AnimeTypeID }
func (f *AnimeType) Advanced() bool       { return f.advanced }

// Matches accepts songs whose lower-cased anime type is enabled. No list means no constraint.
func (f *AnimeType) Matches(song *models.Song) bool {
	if len(f.types) == 0 {
		return true
	}
	return f.allowed[normalizeKey(song.AnimeType)]
}

func (f *AnimeType) Categories() []basket.Category {
	cats := make([]basket.Category, 0, len(f.types))
	for _, kq := range f.types {
		key := kq.Key
		cats = append(cats, basket.Category{
			Key:     "animeType-" + key,
			Quota:   kq.Quota,
			Matches: func(s *models.Song) bool { return normalizeKey(s.AnimeType) == key },
		})
	}
	return cats
}

// SongCategories restricts the song category (standard, character, chanting, instrumental).
// A category may nest per-song-type quotas, planned as one basket per leaf.
//
//	{"enabled": ["standard", "character"]}
//	{"enabled": {"standard": {"openings": 40, "endings": 20}, "character": 10}}
type SongCategories struct {
	advanced   bool
	categories []songCategory
	listed     bool
}

type songCategory struct {
	key   string
	quota basket.Quota
	kinds []keyedQuota
}

func (c songCategory) active() bool {
	if len(c.kinds) == 0 {
		return c.quota.Active()
	}
	for _, k := range c.kinds {
		if k.Quota.Active() {
			return true
		}
	}
	return false
}

func (c songCategory) allowsKind(kind models.SongKind) bool {
	if len(c.kinds) == 0 {
		return true
	}
	for _, k := range c.kinds {
		if k.Key == string(kind) && k.Quota.Active() {
			return true
		}
	}
	return false
}

func decodeSongCategories(raw json.RawMessage) (Settings, error) {
	var in struct {
		Mode    string          `json:"mode"`
		Enabled json.RawMessage `json:"enabled"`
	}
	if err := unmarshalSettings(raw, &in); err != nil {
		return nil, err
	}

	f := &SongCategories{}
	enabled := bytes.TrimSpace(in.Enabled)
	switch {
	case len(enabled) == 0 || bytes.Equal(enabled, []byte("null")):
	case enabled[0] == '[':
		var list keyedList
		if err := json.Unmarshal(enabled, &list); err != nil {
			return nil, err
		}
		f.listed = true
		for _, kq := range list {
			f.categories = append(f.categories, songCategory{key: kq.Key})
		}
	default:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(enabled, &obj); err != nil {
			return nil, fmt.Errorf("enabled: %w", err)
		}
		f.listed = true
		for key, value := range obj {
			cat, err := decodeSongCategory(normalizeKey(key), value)
			if err != nil {
				return nil, err
			}
			f.categories = append(f.categories, cat)
		}
		sort.Slice(f.categories, func(i, j int) bool { return f.categories[i].key < f.categories[j].key })
	}

	hasQuota := false
	for _, c := range f.categories {
		hasQuota = hasQuota || c.quota.HasTarget() || keyedList(c.kinds).hasQuota()
	}
	f.advanced = advancedMode(in.Mode, hasQuota)
	return f, nil
}

// decodeSongCategory reads either a quota or an object keyed by song type.
func decodeSongCategory(key string, raw json.RawMessage) (songCategory, error) {
	cat := songCategory{key: key}

	var fields map[string]json.RawMessage
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return cat, fmt.Errorf("category %s: %w", key, err)
		}
	}

	nested := false
	for k := range fields {
		if models.NormalizeSongType(k) != models.KindUnknown {
			nested = true
			break
		}
	}

	if !nested {
		q, err := basket.DecodeQuota(raw)
		if err != nil {
			return cat, fmt.Errorf("category %s: %w", key, err)
		}
		cat.quota = q
		return cat, nil
	}

	for k, v := range fields {
		kind := models.NormalizeSongType(k)
		if kind == models.KindUnknown {
			return cat, fmt.Errorf("category %s: unknown song type %q", key, k)
		}
		q, err := basket.DecodeQuota(v)
		if err != nil {
			return cat, fmt.Errorf("category %s/%s: %w", key, k, err)
		}
		cat.kinds = append(cat.kinds, keyedQuota{Key: string(kind), Quota: q})
	}
	cat.kinds = orderByKind(cat.kinds)
	return cat, nil
}

func (f *SongCategories) DefinitionID() string { return SongCategoriesID }
func (f *SongCategories) Advanced() bool       { return f.advanced }

func (f *SongCategories) Matches(song *models.Song) bool {
	if !f.listed || len(f.categories) == 0 {
		return true
	}
	key := normalizeKey(song.SongCategory)
	for _, c := range f.categories {
		if c.key == key {
			return c.active() && c.allowsKind(song.Kind())
		}
	}
	return false
}

func (f *SongCategories) Categories() []basket.Category {
	var cats []basket.Category
	for _, c := range f.categories {
		key := c.key
		if len(c.kinds) == 0 {
			cats = append(cats, basket.Category{
				Key:     "songCategory-" + key,
				Quota:   c.quota,
				Matches: func(s *models.Song) bool { return normalizeKey(s.SongCategory) == key },
			})
			continue
		}
		for _, k := range c.kinds {
			kind := models.SongKind(k.Key)
			cats = append(cats, basket.Category{
				Key:   "songCategory-" + key + "-" + k.Key,
				Quota: k.Quota,
				Matches: func(s *models.Song) bool {
					return normalizeKey(s.SongCategory) == key && s.Kind() == kind
				},
			})
		}
	}
	return cats
}
