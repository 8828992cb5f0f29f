// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/quizforge/internal/config"
	"github.com/tomtom215/quizforge/internal/logging"
	"github.com/tomtom215/quizforge/internal/metrics"
	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/pool"
	"github.com/tomtom215/quizforge/internal/quiz/filters"
)

func f64(v float64) *float64 { return &v }

// testPool returns 90 songs: 30 of each kind, with alternating genres and a spread
// of difficulties.
func testPool() pool.StaticMasterList {
	var songs []models.Song
	id := 0
	for _, typ := range []string{"Opening 1", "Ending 2", "Insert Song"} {
		for i := 0; i < 30; i++ {
			id++
			genres := []string{"Action"}
			if i%3 == 1 {
				genres = []string{"Action", "Horror"}
			} else if i%3 == 2 {
				genres = []string{"Romance"}
			}
			songs = append(songs, models.Song{
				AnnSongID:      id,
				SongType:       typ,
				SongDifficulty: f64(float64((i * 7) % 100)),
				AnimeVintage:   "Spring 2010",
				SourceAnime:    models.SourceAnime{Genres: genres},
			})
		}
	}
	return songs
}

func newTestEngine(t *testing.T, master pool.MasterList, cfg *config.EngineConfig) *Engine {
	t.Helper()
	if cfg == nil {
		cfg = &config.EngineConfig{MaxSongs: 200}
	}
	logger := logging.NewTestLogger(io.Discard)
	builder := pool.NewBuilder(master, nil, nil, pool.Options{FetchTimeout: time.Second}, logger)
	return NewEngine(cfg, filters.DefaultRegistry(), builder, logger)
}

func quiz(t *testing.T, raw string) *models.QuizConfiguration {
	t.Helper()
	var q models.QuizConfiguration
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		t.Fatalf("decode quiz: %v", err)
	}
	return &q
}

func simulate(t *testing.T, e *Engine, raw string) *models.SimulationResult {
	t.Helper()
	res, err := e.Simulate(context.Background(), quiz(t, raw))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	return res
}

func TestSimulateSingleSong(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testPool(), nil)
	res := simulate(t, e, `{"seed": "a", "numberOfSongs": 1, "songLists": [{"nodeId": "master", "mode": "masterlist"}]}`)

	md := res.Metadata
	if len(res.Songs) != 1 || !md.Success {
		t.Fatalf("songs = %d success = %v, want 1 true", len(res.Songs), md.Success)
	}
	if md.TargetCount != 1 || md.FinalCount != 1 {
		t.Errorf("target/final = %d/%d", md.TargetCount, md.FinalCount)
	}
	if md.SourceSongCount != 90 || md.EligibleSongCount != 90 {
		t.Errorf("source/eligible = %d/%d, want 90/90", md.SourceSongCount, md.EligibleSongCount)
	}
	if md.Seed != "a" {
		t.Errorf("Seed = %q", md.Seed)
	}
	if res.Songs[0].SourceID != "master" {
		t.Errorf("SourceID = %q, want master", res.Songs[0].SourceID)
	}
	if md.BasketStatus == nil || md.LoadingErrors == nil {
		t.Error("BasketStatus and LoadingErrors must be non-nil")
	}
}

func TestSimulateSongTypeDistribution(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testPool(), nil)
	res := simulate(t, e, `{
		"seed": "types",
		"numberOfSongs": 20,
		"songLists": [{"nodeId": "master", "mode": "masterlist"}],
		"filters": [{"definitionId": "songs-and-types", "instanceId": "types",
			"settings": {"openings": 50, "endings": 30, "inserts": 20}}]
	}`)

	if !res.Metadata.Success || len(res.Songs) != 20 {
		t.Fatalf("success = %v songs = %d", res.Metadata.Success, len(res.Songs))
	}

	want := map[string]int{"songType-openings": 10, "songType-endings": 6, "songType-inserts": 4}
	if len(res.Metadata.BasketStatus) != len(want) {
		t.Fatalf("baskets = %+v", res.Metadata.BasketStatus)
	}
	for _, st := range res.Metadata.BasketStatus {
		w, ok := want[st.ID]
		if !ok {
			t.Errorf("unexpected basket %s", st.ID)
			continue
		}
		if st.Current < w-1 || st.Current > w+1 || !st.MeetsMin {
			t.Errorf("%s = %+v, want about %d and meetsMin", st.ID, st, w)
		}
		if st.FilterID != "types" {
			t.Errorf("%s FilterID = %q", st.ID, st.FilterID)
		}
	}

	kinds := map[models.SongKind]int{}
	for i := range res.Songs {
		kinds[res.Songs[i].Kind()]++
	}
	if kinds[models.KindOpening] != 10 || kinds[models.KindEnding] != 6 || kinds[models.KindInsert] != 4 {
		t.Errorf("kind counts = %v", kinds)
	}
}

func TestSimulateUnfillableBasket(t *testing.T) {
	t.Parallel()

	var songs pool.StaticMasterList
	for i := 1; i <= 22; i++ {
		d := 90.0
		if i <= 2 {
			d = 10
		}
		songs = append(songs, models.Song{AnnSongID: i, SongType: "Opening 1", SongDifficulty: f64(d)})
	}

	e := newTestEngine(t, songs, nil)
	res := simulate(t, e, `{
		"seed": "scarce",
		"numberOfSongs": 10,
		"songLists": [{"nodeId": "master", "mode": "masterlist"}],
		"filters": [{"definitionId": "difficulty", "instanceId": "diff",
			"settings": {"ranges": [{"from": 0, "to": 20, "count": 5}, {"from": 80, "to": 100, "count": 5}]}}]
	}`)

	if res.Metadata.Success {
		t.Error("Success = true, want false")
	}
	status := map[string]models.BasketStatus{}
	for _, st := range res.Metadata.BasketStatus {
		status[st.ID] = st
	}
	hard := status["difficulty-0-20"]
	if hard.MeetsMin || hard.Current != 2 || hard.Available != 2 {
		t.Errorf("scarce basket = %+v, want current 2 and meetsMin false", hard)
	}
	easy := status["difficulty-80-100"]
	if !easy.MeetsMin || easy.Current != 5 {
		t.Errorf("other basket = %+v, want filled", easy)
	}
	if res.Metadata.FinalCount != 7 {
		t.Errorf("FinalCount = %d, want 7", res.Metadata.FinalCount)
	}
}

func TestSimulateQuotaFillsTarget(t *testing.T) {
	t.Parallel()

	var actionOnly, tagged pool.StaticMasterList
	for _, s := range testPool() {
		if strings.Contains(strings.Join(s.SourceAnime.Genres, ","), "Action") {
			actionOnly = append(actionOnly, s)
		}
		tag := "Space"
		if s.AnnSongID%2 == 0 {
			tag = "Mecha"
		}
		s.SourceAnime.Tags = []models.Tag{{Name: tag, Rank: 80}}
		tagged = append(tagged, s)
	}

	tests := []struct {
		name        string
		master      pool.StaticMasterList
		filter      string
		basketID    string
		wantMin     int
		wantCurrent int
	}{
		{
			name:        "included genre share",
			master:      testPool(),
			filter:      `{"definitionId": "genres", "instanceId": "g", "settings": {"showRates": true, "items": [{"label": "Action", "status": "include", "percentage": 40}]}}`,
			basketID:    "genre-Action",
			wantMin:     4,
			wantCurrent: 4,
		},
		{
			name:        "included genre share over a single genre pool",
			master:      actionOnly,
			filter:      `{"definitionId": "genres", "instanceId": "g", "settings": {"showRates": true, "items": [{"label": "Action", "status": "include", "percentage": 40}]}}`,
			basketID:    "genre-Action",
			wantMin:     4,
			wantCurrent: 10,
		},
		{
			name:        "included tag share",
			master:      tagged,
			filter:      `{"definitionId": "tags", "instanceId": "t", "settings": {"showRates": true, "items": [{"label": "Mecha", "status": "include", "percentage": 30}]}}`,
			basketID:    "tag-Mecha",
			wantMin:     3,
			wantCurrent: 3,
		},
		{
			name:        "song type percentages below one hundred",
			master:      testPool(),
			filter:      `{"definitionId": "songs-and-types", "instanceId": "types", "settings": {"openings": 50}}`,
			basketID:    "songType-openings",
			wantMin:     5,
			wantCurrent: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEngine(t, tt.master, nil)
			res := simulate(t, e, `{
				"seed": "share",
				"numberOfSongs": 10,
				"songLists": [{"nodeId": "master", "mode": "masterlist"}],
				"filters": [`+tt.filter+`]
			}`)

			md := res.Metadata
			if md.FinalCount != md.TargetCount || md.TargetCount != 10 || !md.Success {
				t.Fatalf("final/target = %d/%d success = %v, want 10/10 true", md.FinalCount, md.TargetCount, md.Success)
			}
			if len(md.BasketStatus) != 1 {
				t.Fatalf("baskets = %+v", md.BasketStatus)
			}
			st := md.BasketStatus[0]
			if st.ID != tt.basketID || st.Min != tt.wantMin || st.Current != tt.wantCurrent || !st.MeetsMin {
				t.Errorf("basket = %+v, want %s min %d current %d", st, tt.basketID, tt.wantMin, tt.wantCurrent)
			}
		})
	}
}

func TestSimulateGenreIncludeExclude(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testPool(), nil)
	res := simulate(t, e, `{
		"seed": "genres",
		"numberOfSongs": 15,
		"songLists": [{"nodeId": "master", "mode": "masterlist"}],
		"filters": [{"definitionId": "genres", "instanceId": "g",
			"settings": {"included": ["Action"], "excluded": ["Horror"]}}]
	}`)

	if len(res.Songs) != 15 {
		t.Fatalf("songs = %d, want 15", len(res.Songs))
	}
	if res.Metadata.EligibleSongCount != 30 {
		t.Errorf("EligibleSongCount = %d, want 30", res.Metadata.EligibleSongCount)
	}
	for _, s := range res.Songs {
		joined := strings.Join(s.SourceAnime.Genres, ",")
		if !strings.Contains(joined, "Action") || strings.Contains(joined, "Horror") {
			t.Errorf("song %d has genres %v", s.AnnSongID, s.SourceAnime.Genres)
		}
	}
}

func TestSimulateDeterministic(t *testing.T) {
	t.Parallel()

	raw := `{
		"seed": "replay",
		"numberOfSongs": {"min": 8, "max": 12},
		"songLists": [{"nodeId": "master", "mode": "masterlist"}],
		"filters": [
			{"definitionId": "songs-and-types", "instanceId": "types", "settings": {"openings": 50, "endings": 50}, "executionChance": 50},
			{"definitionId": "difficulty", "instanceId": "diff", "settings": {"easy": true, "medium": true}}
		]
	}`

	e1 := newTestEngine(t, testPool(), nil)
	e2 := newTestEngine(t, testPool(), nil)
	a := simulate(t, e1, raw)
	b := simulate(t, e2, raw)

	if len(a.Songs) != len(b.Songs) {
		t.Fatalf("lengths differ: %d vs %d", len(a.Songs), len(b.Songs))
	}
	for i := range a.Songs {
		if a.Songs[i].AnnSongID != b.Songs[i].AnnSongID {
			t.Fatalf("song %d differs: %d vs %d", i, a.Songs[i].AnnSongID, b.Songs[i].AnnSongID)
		}
	}
	if strings.Join(a.Metadata.ResolvedFilters, ",") != strings.Join(b.Metadata.ResolvedFilters, ",") {
		t.Errorf("resolved filters differ: %v vs %v", a.Metadata.ResolvedFilters, b.Metadata.ResolvedFilters)
	}
}

func TestSimulateGeneratesSeed(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testPool(), nil)
	res := simulate(t, e, `{"numberOfSongs": 3, "songLists": [{"mode": "masterlist"}]}`)
	if res.Metadata.Seed == "" {
		t.Fatal("generated seed missing from metadata")
	}

	replay := simulate(t, e, `{"seed": "`+res.Metadata.Seed+`", "numberOfSongs": 3, "songLists": [{"mode": "masterlist"}]}`)
	for i := range res.Songs {
		if res.Songs[i].AnnSongID != replay.Songs[i].AnnSongID {
			t.Fatalf("replay with reported seed differs at %d", i)
		}
	}
}

func TestSimulateInvalidConfiguration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"missing count", `{"seed": "x", "songLists": [{"mode": "masterlist"}]}`},
		{"no song lists", `{"seed": "x", "numberOfSongs": 5}`},
		{"zero count", `{"seed": "x", "numberOfSongs": 0, "songLists": [{"mode": "masterlist"}]}`},
		{"unknown filter", `{"seed": "x", "numberOfSongs": 5, "songLists": [{"mode": "masterlist"}], "filters": [{"definitionId": "nope"}]}`},
		{"bad list mode", `{"seed": "x", "numberOfSongs": 5, "songLists": [{"mode": "carrier-pigeon"}]}`},
		{"too many songs", `{"seed": "x", "numberOfSongs": 500, "songLists": [{"mode": "masterlist"}]}`},
		{"bad node list", `{"seed": "x", "numberOfSongs": 5, "nodes": [{"kind": "songList", "mode": "user-lists", "userListImport": {"platform": "kitsu", "username": "x"}}]}`},
	}

	e := newTestEngine(t, testPool(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := e.Simulate(context.Background(), quiz(t, tt.raw))
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("err = %v, want ErrInvalidConfiguration", err)
			}
		})
	}

	if _, err := e.Simulate(context.Background(), nil); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("nil config err = %v", err)
	}
}

func TestSimulateLoadingErrors(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testPool(), nil)
	res := simulate(t, e, `{
		"seed": "partial",
		"numberOfSongs": 5,
		"songLists": [
			{"nodeId": "master", "mode": "masterlist"},
			{"nodeId": "mine", "mode": "saved-lists", "savedList": {"id": "favs"}}
		]
	}`)

	if len(res.Metadata.LoadingErrors) != 1 || res.Metadata.LoadingErrors[0].Source != "mine" {
		t.Errorf("LoadingErrors = %+v, want one for mine", res.Metadata.LoadingErrors)
	}
	if len(res.Songs) != 5 || !res.Metadata.Success {
		t.Errorf("partial pool should still fill: songs = %d success = %v", len(res.Songs), res.Metadata.Success)
	}
}

func TestSimulateResultCache(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, testPool(), &config.EngineConfig{MaxSongs: 200, CacheEnabled: true, CacheSize: 4, CacheTTL: time.Minute})
	raw := `{"seed": "cached", "numberOfSongs": 4, "songLists": [{"mode": "masterlist"}]}`

	hits := testutil.ToFloat64(metrics.CacheHits.WithLabelValues("result"))
	first := simulate(t, e, raw)
	second := simulate(t, e, raw)
	if first != second {
		t.Error("second run was not served from cache")
	}
	if got := testutil.ToFloat64(metrics.CacheHits.WithLabelValues("result")) - hits; got < 1 {
		t.Errorf("cache hits increased by %v, want at least 1", got)
	}

	unseeded := `{"numberOfSongs": 4, "songLists": [{"mode": "masterlist"}]}`
	if simulate(t, e, unseeded) == simulate(t, e, unseeded) {
		t.Error("runs without a seed must not be cached")
	}
}

func TestSimulateRequiredCategoryFromConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.EngineConfig{MaxSongs: 200, RequiredCategories: []string{"style"}}
	e := newTestEngine(t, testPool(), cfg)
	res := simulate(t, e, `{
		"seed": "forced",
		"numberOfSongs": 5,
		"songLists": [{"mode": "masterlist"}],
		"filters": [{"definitionId": "songs-and-types", "instanceId": "only-openings", "category": "style",
			"executionChance": 0, "settings": {"mode": "basic", "songTypes": ["openings"]}}]
	}`)

	if len(res.Metadata.ForcedNodes) != 1 || res.Metadata.ForcedNodes[0] != "only-openings" {
		t.Fatalf("ForcedNodes = %v", res.Metadata.ForcedNodes)
	}
	for i := range res.Songs {
		if res.Songs[i].Kind() != models.KindOpening {
			t.Errorf("song %d is %s, forced filter not applied", res.Songs[i].AnnSongID, res.Songs[i].SongType)
		}
	}
}
