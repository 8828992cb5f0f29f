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
	"github.com/tomtom215/quizforge/internal/quiz/vintage"
)

// VintageID selects songs by anime broadcast season.
const VintageID = "vintage"

// latest bounds open-ended ranges.
var latest = vintage.Vintage{Season: vintage.Fall, Year: 9999}

type vintageRange struct {
	From  vintage.Vintage
	To    vintage.Vintage
	Quota basket.Quota
}

// Vintage matches songs whose vintage falls in any configured range.
//
//	{"ranges": [{"from": "Spring 2000", "to": {"season": "Fall", "year": 2005}, "percentage": 40}]}
type Vintage struct {
	advanced bool
	ranges   []vintageRange
}

func decodeVintage(raw json.RawMessage) (Settings, error) {
	var in struct {
		Mode   string            `json:"mode"`
		Ranges []json.RawMessage `json:"ranges"`
	}
	if err := unmarshalSettings(raw, &in); err != nil {
		return nil, err
	}

	f := &Vintage{}
	hasQuota := false
	for i, r := range in.Ranges {
		var bounds struct {
			From *vintage.Vintage `json:"from"`
			To   *vintage.Vintage `json:"to"`
		}
		if err := json.Unmarshal(r, &bounds); err != nil {
			return nil, fmt.Errorf("range %d: %w", i, err)
		}
		q, err := basket.DecodeQuota(r)
		if err != nil {
			return nil, fmt.Errorf("range %d: %w", i, err)
		}

		vr := vintageRange{From: vintage.Sentinel, To: latest, Quota: q}
		if bounds.From != nil {
			vr.From = *bounds.From
		}
		if bounds.To != nil {
			vr.To = *bounds.To
		}
		if vr.From.Compare(vr.To) > 0 {
			vr.From, vr.To = vr.To, vr.From
		}
		hasQuota = hasQuota || q.HasTarget()
		f.ranges = append(f.ranges, vr)
	}
	f.advanced = advancedMode(in.Mode, hasQuota)
	return f, nil
}

func (f *Vintage) DefinitionID() string { return VintageID }
func (f *Vintage) Advanced() bool       { return f.advanced }

// Matches ORs the enabled ranges. No ranges means no constraint.
func (f *Vintage) Matches(song *models.Song) bool {
	if len(f.ranges) == 0 {
		return true
	}
	v := vintage.Parse(song.AnimeVintage)
	for _, r := range f.ranges {
		if r.Quota.Active() && vintage.InRange(v, r.From, r.To) {
			return true
		}
	}
	return false
}

func (f *Vintage) Categories() []basket.Category {
	cats := make([]basket.Category, 0, len(f.ranges))
	for _, r := range f.ranges {
		from, to := r.From, r.To
		cats = append(cats, basket.Category{
			Key:   fmt.Sprintf("vintage-%s-%s", from, to),
			Quota: r.Quota,
			Matches: func(s *models.Song) bool {
				return vintage.IsInVintageRange(s.AnimeVintage, from, to)
			},
		})
	}
	return cats
}
