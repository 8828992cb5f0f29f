// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package filters

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/quiz/basket"
)

// DifficultyID selects songs by guess rate.
const DifficultyID = "difficulty"

// Band is a fixed difficulty band used in basic mode.
type Band struct {
	Name string
	Low  float64
	High float64

	// Closed makes High inclusive.
	Closed bool
}

// Contains reports whether d lies in the band.
func (b Band) Contains(d float64) bool {
	if d < b.Low {
		return false
	}
	if b.Closed {
		return d <= b.High
	}
	return d < b.High
}

// Fixed bands: easy [60,100], medium [25,60), hard [0,25).
var (
	BandEasy   = Band{Name: "easy", Low: 60, High: 100, Closed: true}
	BandMedium = Band{Name: "medium", Low: 25, High: 60}
	BandHard   = Band{Name: "hard", Low: 0, High: 25}
)

type difficultyRange struct {
	From  float64
	To    float64
	Quota basket.Quota
}

// Difficulty matches songs by difficulty band (basic) or by arbitrary ranges (advanced).
// Songs without a difficulty never match.
//
//	{"mode": "basic", "easy": true, "medium": true, "hard": false}
//	{"easy": 50, "medium": 30, "hard": 20}
//	{"mode": "advanced", "ranges": [{"from": 0, "to": 20, "count": 5}, {"from": 80, "to": 100, "count": 5}]}
type Difficulty struct {
	advanced bool
	bands    []bandQuota
	ranges   []difficultyRange
}

type bandQuota struct {
	band  Band
	quota basket.Quota
}

func decodeDifficulty(raw json.RawMessage) (Settings, error) {
	var in struct {
		Mode   string            `json:"mode"`
		Easy   *basket.Quota     `json:"easy"`
		Medium *basket.Quota     `json:"medium"`
		Hard   *basket.Quota     `json:"hard"`
		Ranges []json.RawMessage `json:"ranges"`
	}
	if err := unmarshalSettings(raw, &in); err != nil {
		return nil, err
	}

	f := &Difficulty{}
	hasQuota := false
	for _, bq := range []struct {
		band Band
		q    *basket.Quota
	}{{BandEasy, in.Easy}, {BandMedium, in.Medium}, {BandHard, in.Hard}} {
		if bq.q == nil {
			continue
		}
		f.bands = append(f.bands, bandQuota{band: bq.band, quota: *bq.q})
		hasQuota = hasQuota || bq.q.HasTarget()
	}

	for i, r := range in.Ranges {
		var bounds struct {
			From *float64 `json:"from"`
			To   *float64 `json:"to"`
		}
		if err := json.Unmarshal(r, &bounds); err != nil {
			return nil, fmt.Errorf("range %d: %w", i, err)
		}
		q, err := basket.DecodeQuota(r)
		if err != nil {
			return nil, fmt.Errorf("range %d: %w", i, err)
		}
		dr := difficultyRange{From: 0, To: 100, Quota: q}
		if bounds.From != nil {
			dr.From = *bounds.From
		}
		if bounds.To != nil {
			dr.To = *bounds.To
		}
		if dr.From > dr.To {
			dr.From, dr.To = dr.To, dr.From
		}
		f.ranges = append(f.ranges, dr)
		hasQuota = true
	}

	f.advanced = advancedMode(in.Mode, hasQuota)
	if !f.advanced {
		f.ranges = nil
	}
	return f, nil
}

func (f *Difficulty) DefinitionID() string { return DifficultyID }
func (f *Difficulty) Advanced() bool       { return f.advanced }

// usesRanges reports whether advanced ranges replace the fixed bands.
func (f *Difficulty) usesRanges() bool {
	return f.advanced && len(f.ranges) > 0
}

func (f *Difficulty) Matches(song *models.Song) bool {
	if f.usesRanges() {
		if song.SongDifficulty == nil {
			return false
		}
		d := *song.SongDifficulty
		for _, r := range f.ranges {
			if r.Quota.Active() && d >= r.From && d <= r.To {
				return true
			}
		}
		return false
	}

	if len(f.bands) == 0 {
		return true
	}
	if song.SongDifficulty == nil {
		return false
	}
	d := *song.SongDifficulty
	for _, bq := range f.bands {
		if bq.quota.Active() && bq.band.Contains(d) {
			return true
		}
	}
	return false
}

func (f *Difficulty) Categories() []basket.Category {
	if f.usesRanges() {
		cats := make([]basket.Category, 0, len(f.ranges))
		for _, r := range f.ranges {
			lo, hi := r.From, r.To
			cats = append(cats, basket.Category{
				Key:   fmt.Sprintf("difficulty-%g-%g", lo, hi),
				Quota: r.Quota,
				Matches: func(s *models.Song) bool {
					return s.SongDifficulty != nil && *s.SongDifficulty >= lo && *s.SongDifficulty <= hi
				},
			})
		}
		return cats
	}

	cats := make([]basket.Category, 0, len(f.bands))
	for _, bq := range f.bands {
		band := bq.band
		cats = append(cats, basket.Category{
			Key:   "difficulty-" + band.Name,
			Quota: bq.quota,
			Matches: func(s *models.Song) bool {
				return s.SongDifficulty != nil && band.Contains(*s.SongDifficulty)
			},
		})
	}
	return cats
}
