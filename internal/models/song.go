// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

// Package models defines the data exchanged between the engine, the pool loaders and the API.
package models

import "strings"

// Song is one entry of a song list. Songs are read-only once loaded into a pool.
type Song struct {
	// AnnSongID identifies the song across every list.
	AnnSongID int `json:"annSongId"`

	SongName   string `json:"songName"`
	SongArtist string `json:"songArtist"`
	AnimeName  string `json:"animeName,omitempty"`

	// SongType is free text such as "Opening 2", "Ending 1" or "Insert Song".
	SongType string `json:"songType"`

	// AnimeType is TV, Movie, OVA, ONA or Special.
	AnimeType string `json:"animeType,omitempty"`

	// SongCategory is Standard, Character, Chanting or Instrumental.
	SongCategory string `json:"songCategory,omitempty"`

	// SongDifficulty is the community guess rate in [0,100], nil when unknown.
	SongDifficulty *float64 `json:"songDifficulty"`

	// AnimeVintage is "Season Year", e.g. "Spring 2004".
	AnimeVintage string `json:"animeVintage,omitempty"`

	SourceAnime SourceAnime `json:"sourceAnime"`

	// SourceID is the song-list node the song was loaded from. Set by the pool builder.
	SourceID string `json:"sourceId,omitempty"`
}

// SourceAnime aggregates anime-level attributes of a song.
type SourceAnime struct {
	// AverageScore is the community score on a 0-100 scale.
	AverageScore *float64 `json:"averageScore,omitempty"`

	// Score is the importing user's rating on a 1-10 scale. Only user lists carry it.
	Score *float64 `json:"score,omitempty"`

	Genres []string `json:"genres,omitempty"`
	Tags   []Tag    `json:"tags,omitempty"`
}

// Tag is an anime tag with its relevance rank (0-100).
type Tag struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// SongKind is the normalized song type.
type SongKind string

// Song kinds.
const (
	KindOpening SongKind = "openings"
	KindEnding  SongKind = "endings"
	KindInsert  SongKind = "inserts"
	KindUnknown SongKind = ""
)

// SongKinds lists the known kinds in display order.
var SongKinds = []SongKind{KindOpening, KindEnding, KindInsert}

// NormalizeSongType maps free-text song types onto a SongKind.
func NormalizeSongType(raw string) SongKind {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(s, "op"):
		return KindOpening
	case strings.HasPrefix(s, "ed"), strings.HasPrefix(s, "end"):
		return KindEnding
	case strings.HasPrefix(s, "in"):
		return KindInsert
	default:
		return KindUnknown
	}
}

// Kind returns the normalized song type.
func (s *Song) Kind() SongKind {
	return NormalizeSongType(s.SongType)
}
