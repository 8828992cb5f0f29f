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

// SongsAndTypesID selects openings, endings and inserts.
const SongsAndTypesID = "songs-and-types"

// SongTypes restricts the song kind and, in advanced mode, distributes kinds.
//
//	{"songTypes": {"openings": 50, "endings": 30, "inserts": 20}}
//	{"openings": 50, "endings": 30, "inserts": 20}
//	{"mode": "basic", "songTypes": ["openings", "endings"]}
type SongTypes struct {
	advanced bool
	kinds    []keyedQuota
	allowed  map[models.SongKind]bool
}

func decodeSongTypes(raw json.RawMessage) (Settings, error) {
	var in struct {
		Mode      string        `json:"mode"`
		SongTypes keyedList     `json:"songTypes"`
		Openings  *basket.Quota `json:"openings"`
		Endings   *basket.Quota `json:"endings"`
		Inserts   *basket.Quota `json:"inserts"`
	}
	if err := unmarshalSettings(raw, &in); err != nil {
		return nil, err
	}

	list := in.SongTypes
	if len(list) == 0 {
		for _, kv := range []struct {
			kind models.SongKind
			q    *basket.Quota
		}{{models.KindOpening, in.Openings}, {models.KindEnding, in.Endings}, {models.KindInsert, in.Inserts}} {
			if kv.q != nil {
				list = append(list, keyedQuota{Key: string(kv.kind), Quota: *kv.q})
			}
		}
	}

	f := &SongTypes{allowed: make(map[models.SongKind]bool)}
	for _, kq := range list {
		kind := models.NormalizeSongType(kq.Key)
		if kind == models.KindUnknown {
			return nil, fmt.Errorf("unknown song type %q", kq.Key)
		}
		kq.Key = string(kind)
		f.kinds = append(f.kinds, kq)
		if kq.Quota.Active() {
			f.allowed[kind] = true
		}
	}
	f.kinds = orderByKind(f.kinds)
	f.advanced = advancedMode(in.Mode, keyedList(f.kinds).hasQuota())
	return f, nil
}

// orderByKind sorts entries into opening, ending, insert order.
func orderByKind(in []keyedQuota) []keyedQuota {
	out := make([]keyedQuota, 0, len(in))
	for _, kind := range models.SongKinds {
		for _, kq := range in {
			if kq.Key == string(kind) {
				out = append(out, kq)
			}
		}
	}
	return out
}

func (f *SongTypes) DefinitionID() string { return SongsAndTypesID }
func (f *SongTypes) Advanced() bool       { return f.advanced }

// Matches accepts songs whose kind is enabled. An empty configuration accepts everything.
func (f *SongTypes) Matches(song *models.Song) bool {
	if len(f.kinds) == 0 {
		return true
	}
	return f.allowed[song.Kind()]
}

func (f *SongTypes) Categories() []basket.Category {
	cats := make([]basket.Category, 0, len(f.kinds))
	for _, kq := range f.kinds {
		kind := models.SongKind(kq.Key)
		cats = append(cats, basket.Category{
			Key:     "songType-" + kq.Key,
			Quota:   kq.Quota,
			Matches: func(s *models.Song) bool { return s.Kind() == kind },
		})
	}
	return cats
}
