// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package filters

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/quiz/basket"
)

// Label filter ids.
const (
	GenresID = "genres"
	TagsID   = "tags"
)

// MinTagRank is the exclusive rank threshold for a tag to count.
const MinTagRank = 60

// Item statuses of the "items" encoding.
const (
	StatusInclude  = "include"
	StatusExclude  = "exclude"
	StatusOptional = "optional"
)

// Labels applies include/exclude/optional rules to genres or tags.
//
// Included labels must all be present, excluded labels must all be absent, and when
// optional labels are given at least one must be present. Comparison ignores case.
// The same lists may be supplied as items when show-rates mode is on. An included
// item that carries a quota only plans its basket; the rest of the run is free:
//
//	{"included": ["Action"], "excluded": ["Horror"], "optional": ["Comedy", "Drama"]}
//	{"showRates": true, "items": [{"label": "Action", "status": "include", "percentage": 40}]}
type Labels struct {
	id       string
	prefix   string
	included []string
	excluded []string
	optional []string
	items    []labelItem
	advanced bool
	labelsOf func(*models.Song) map[string]bool

	// emptyFails rejects songs with no labels at all whenever any rule is set.
	emptyFails bool
}

type labelItem struct {
	label  string
	status string
	quota  basket.Quota
}

func decodeGenres(raw json.RawMessage) (Settings, error) {
	return decodeLabels(raw, GenresID, "genre-", genreSet, false)
}

func decodeTags(raw json.RawMessage) (Settings, error) {
	return decodeLabels(raw, TagsID, "tag-", tagSet, true)
}

func genreSet(s *models.Song) map[string]bool {
	set := make(map[string]bool, len(s.SourceAnime.Genres))
	for _, g := range s.SourceAnime.Genres {
		set[normalizeKey(g)] = true
	}
	return set
}

func tagSet(s *models.Song) map[string]bool {
	set := make(map[string]bool, len(s.SourceAnime.Tags))
	for _, t := range s.SourceAnime.Tags {
		if t.Rank > MinTagRank {
			set[normalizeKey(t.Name)] = true
		}
	}
	return set
}

func decodeLabels(raw json.RawMessage, id, prefix string, labelsOf func(*models.Song) map[string]bool, emptyFails bool) (Settings, error) {
	var in struct {
		Mode      string            `json:"mode"`
		Included  []string          `json:"included"`
		Excluded  []string          `json:"excluded"`
		Optional  []string          `json:"optional"`
		ShowRates bool              `json:"showRates"`
		Items     []json.RawMessage `json:"items"`
	}
	if err := unmarshalSettings(raw, &in); err != nil {
		return nil, err
	}

	f := &Labels{id: id, prefix: prefix, labelsOf: labelsOf, emptyFails: emptyFails}
	useItems := len(in.Items) > 0 && (in.ShowRates || len(in.Included)+len(in.Excluded)+len(in.Optional) == 0)

	hasQuota := false
	if useItems {
		for i, raw := range in.Items {
			var it struct {
				Label  string `json:"label"`
				Status string `json:"status"`
			}
			if err := json.Unmarshal(raw, &it); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			q, err := basket.DecodeQuota(raw)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			status, err := normalizeStatus(it.Status)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			label := strings.TrimSpace(it.Label)
			if label == "" {
				return nil, fmt.Errorf("item %d: label is required", i)
			}

			f.items = append(f.items, labelItem{label: label, status: status, quota: q})
			// An included label with a quota is a share of the run, not a requirement
			// on every song; its basket enforces it.
			if status != StatusInclude || !q.HasTarget() {
				f.addRole(status, label)
			}
			hasQuota = hasQuota || (q.HasTarget() && status != StatusExclude)
		}
	} else {
		for _, l := range in.Included {
			f.addRole(StatusInclude, l)
		}
		for _, l := range in.Excluded {
			f.addRole(StatusExclude, l)
		}
		for _, l := range in.Optional {
			f.addRole(StatusOptional, l)
		}
	}

	f.advanced = advancedMode(in.Mode, hasQuota)
	return f, nil
}

func normalizeStatus(s string) (string, error) {
	switch normalizeKey(s) {
	case "include", "included", "required":
		return StatusInclude, nil
	case "exclude", "excluded":
		return StatusExclude, nil
	case "optional", "":
		return StatusOptional, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

func (f *Labels) addRole(status, label string) {
	key := normalizeKey(label)
	if key == "" {
		return
	}
	switch status {
	case StatusInclude:
		f.included = append(f.included, key)
	case StatusExclude:
		f.excluded = append(f.excluded, key)
	default:
		f.optional = append(f.optional, key)
	}
}

func (f *Labels) DefinitionID() string { return f.id }
func (f *Labels) Advanced() bool       { return f.advanced }

func (f *Labels) hasRules() bool {
	return len(f.included)+len(f.excluded)+len(f.optional) > 0
}

func (f *Labels) Matches(song *models.Song) bool {
	if !f.hasRules() {
		return true
	}
	set := f.labelsOf(song)
	if f.emptyFails && len(set) == 0 {
		return false
	}
	for _, l := range f.included {
		if !set[l] {
			return false
		}
	}
	for _, l := range f.excluded {
		if set[l] {
			return false
		}
	}
	if len(f.optional) == 0 {
		return true
	}
	for _, l := range f.optional {
		if set[l] {
			return true
		}
	}
	return false
}

// Categories plans one basket per included or optional item carrying a quota.
func (f *Labels) Categories() []basket.Category {
	cats := make([]basket.Category, 0, len(f.items))
	for _, it := range f.items {
		if it.status == StatusExclude {
			continue
		}
		key := normalizeKey(it.label)
		cats = append(cats, basket.Category{
			Key:     f.prefix + it.label,
			Quota:   it.quota,
			Matches: func(s *models.Song) bool { return f.labelsOf(s)[key] },
		})
	}
	return cats
}
