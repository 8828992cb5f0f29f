// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package filters

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/quiz/basket"
)

// Score filter ids.
const (
	AnimeScoreID  = "anime-score"
	PlayerScoreID = "player-score"
)

// NormalizeScore maps a 1-10 score onto an integer bucket: exactly 0 becomes 1,
// anything else rounds half away from zero (7.5 becomes 8).
func NormalizeScore(score float64) int {
	if score == 0 {
		return 1
	}
	return int(math.Round(score))
}

// NormalizeAnimeScore scales a 0-100 average score down to 1-10 before NormalizeScore.
func NormalizeAnimeScore(average float64) int {
	return NormalizeScore(average / 10)
}

// Score matches songs whose normalized score lies in [Min, Max] and is not disabled.
// Songs without a score never match.
//
//	{"min": 6, "max": 10, "disabled": [7]}
//	{"mode": "advanced", "scores": {"8": {"count": 3}, "9": 20}}
type Score struct {
	id       string
	prefix   string
	min, max int
	disabled map[int]bool
	advanced bool
	buckets  []scoreBucket
	extract  func(*models.Song) (int, bool)
}

type scoreBucket struct {
	score int
	quota basket.Quota
}

func decodeAnimeScore(raw json.RawMessage) (Settings, error) {
	return decodeScore(raw, AnimeScoreID, "animeScore-", func(s *models.Song) (int, bool) {
		if s.SourceAnime.AverageScore == nil {
			return 0, false
		}
		return NormalizeAnimeScore(*s.SourceAnime.AverageScore), true
	})
}

func decodePlayerScore(raw json.RawMessage) (Settings, error) {
	return decodeScore(raw, PlayerScoreID, "playerScore-", func(s *models.Song) (int, bool) {
		if s.SourceAnime.Score == nil {
			return 0, false
		}
		return NormalizeScore(*s.SourceAnime.Score), true
	})
}

func decodeScore(raw json.RawMessage, id, prefix string, extract func(*models.Song) (int, bool)) (Settings, error) {
	var in struct {
		Mode     string                  `json:"mode"`
		Min      *float64                `json:"min"`
		Max      *float64                `json:"max"`
		Disabled []float64               `json:"disabled"`
		Scores   map[string]basket.Quota `json:"scores"`
	}
	if err := unmarshalSettings(raw, &in); err != nil {
		return nil, err
	}

	f := &Score{id: id, prefix: prefix, min: 1, max: 10, disabled: make(map[int]bool), extract: extract}
	if in.Min != nil {
		f.min = NormalizeScore(*in.Min)
	}
	if in.Max != nil {
		f.max = NormalizeScore(*in.Max)
	}
	if f.min > f.max {
		f.min, f.max = f.max, f.min
	}
	for _, d := range in.Disabled {
		f.disabled[NormalizeScore(d)] = true
	}

	hasQuota := false
	for key, q := range in.Scores {
		v, err := strconv.ParseFloat(key, 64)
		if err != nil {
			return nil, fmt.Errorf("score bucket %q is not a number", key)
		}
		f.buckets = append(f.buckets, scoreBucket{score: NormalizeScore(v), quota: q})
		hasQuota = hasQuota || q.HasTarget()
	}
	sort.Slice(f.buckets, func(i, j int) bool { return f.buckets[i].score < f.buckets[j].score })
	f.advanced = advancedMode(in.Mode, hasQuota)
	return f, nil
}

func (f *Score) DefinitionID() string { return f.id }
func (f *Score) Advanced() bool       { return f.advanced }

func (f *Score) Matches(song *models.Song) bool {
	v, ok := f.extract(song)
	if !ok {
		return false
	}
	return v >= f.min && v <= f.max && !f.disabled[v]
}

func (f *Score) Categories() []basket.Category {
	cats := make([]basket.Category, 0, len(f.buckets))
	for _, b := range f.buckets {
		want := b.score
		cats = append(cats, basket.Category{
			Key:   f.prefix + strconv.Itoa(want),
			Quota: b.quota,
			Matches: func(s *models.Song) bool {
				v, ok := f.extract(s)
				return ok && v == want
			},
		})
	}
	return cats
}
