// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package graph

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/quiz/filters"
	"github.com/tomtom215/quizforge/internal/quiz/rng"
)

const masterList = `{"nodeId": "master", "mode": "masterlist"}`

func config(t *testing.T, raw string) *models.QuizConfiguration {
	t.Helper()
	var cfg models.QuizConfiguration
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	return &cfg
}

func parse(t *testing.T, raw string) *Graph {
	t.Helper()
	g, err := Parse(config(t, raw), filters.DefaultRegistry())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return g
}

func resolve(t *testing.T, g *Graph, seed string) *Resolution {
	t.Helper()
	res, err := Resolve(g, rng.New(seed))
	if err != nil {
		t.Fatalf("Resolve(%q): %v", seed, err)
	}
	return res
}

func filterIDs(res *Resolution) []string {
	ids := make([]string, len(res.Filters))
	for i, f := range res.Filters {
		ids[i] = f.InstanceID
	}
	return ids
}

func TestParseOrderAndKinds(t *testing.T) {
	t.Parallel()

	g := parse(t, `{
		"numberOfSongs": 10,
		"songLists": [`+masterList+`],
		"filters": [{"definitionId": "vintage", "instanceId": "v1"}],
		"nodes": [{"kind": "basic-settings", "id": "bs", "settings": {"guessTime": 20}}],
		"router": {"branches": [{"nodes": [{"kind": "filter", "definitionId": "genres"}]}]}
	}`)

	want := []Kind{KindSongList, KindFilter, KindBasicSettings, KindRouter}
	if len(g.Roots) != len(want) {
		t.Fatalf("roots = %d, want %d", len(g.Roots), len(want))
	}
	for i, k := range want {
		if got := g.Roots[i].Kind(); got != k {
			t.Errorf("root %d kind = %s, want %s", i, got, k)
		}
	}

	router := g.Roots[3].(*RouterNode)
	inner := router.Branches[0].Nodes[0].(*FilterNode)
	if inner.ID() == "" || inner.Instance.InstanceID != inner.ID() {
		t.Errorf("generated filter id = %q / %q", inner.ID(), inner.Instance.InstanceID)
	}

	if got := strings.Join(g.Required, ","); got != "basicSettings,numberOfSongs,songList" {
		t.Errorf("Required = %s", got)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{
			name: "unknown definition",
			raw:  `{"numberOfSongs": 5, "songLists": [` + masterList + `], "filters": [{"definitionId": "nope"}]}`,
			want: filters.ErrUnknownDefinition,
		},
		{
			name: "unknown kind",
			raw:  `{"numberOfSongs": 5, "songLists": [` + masterList + `], "nodes": [{"kind": "teleporter"}]}`,
			want: ErrUnknownKind,
		},
		{
			name: "missing count",
			raw:  `{"songLists": [` + masterList + `]}`,
			want: ErrNoSongCount,
		},
		{
			name: "no song lists",
			raw:  `{"numberOfSongs": 5}`,
			want: ErrNoSongLists,
		},
		{
			name: "empty router",
			raw:  `{"numberOfSongs": 5, "songLists": [` + masterList + `], "router": {"branches": []}}`,
			want: ErrInvalidNode,
		},
		{
			name: "source selector without source",
			raw:  `{"numberOfSongs": 5, "songLists": [` + masterList + `], "nodes": [{"kind": "sourceSelector", "children": []}]}`,
			want: ErrInvalidNode,
		},
		{
			name: "nested bad filter",
			raw: `{"numberOfSongs": 5, "songLists": [` + masterList + `], "nodes": [
				{"kind": "selectionModifier", "select": 1, "children": [{"kind": "filter", "definitionId": "vintage", "settings": {"ranges": 3}}]}]}`,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(config(t, tt.raw), filters.DefaultRegistry())
			if err == nil {
				t.Fatal("Parse should fail")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Parse error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSongCountNodeFromNodesOnly(t *testing.T) {
	t.Parallel()

	g := parse(t, `{"songLists": [`+masterList+`], "nodes": [{"kind": "numberOfSongs", "count": {"min": 5, "max": 10}}]}`)
	for i := 0; i < 20; i++ {
		res := resolve(t, g, fmt.Sprintf("seed-%d", i))
		if res.SongCount < 5 || res.SongCount > 10 {
			t.Fatalf("SongCount = %d, want within [5, 10]", res.SongCount)
		}
	}
}

func TestInvalidSongCount(t *testing.T) {
	t.Parallel()

	g := parse(t, `{"numberOfSongs": 0, "songLists": [`+masterList+`]}`)
	if _, err := Resolve(g, rng.New("x")); !errors.Is(err, ErrInvalidSongCount) {
		t.Errorf("Resolve error = %v, want ErrInvalidSongCount", err)
	}
}

func TestLastActiveNodeWins(t *testing.T) {
	t.Parallel()

	g := parse(t, `{
		"numberOfSongs": 10,
		"basicSettings": {"guessTime": 20},
		"songLists": [`+masterList+`],
		"nodes": [
			{"kind": "basicSettings", "id": "a", "settings": {"guessTime": 5}},
			{"kind": "basicSettings", "id": "b", "settings": {"guessTime": 7}},
			{"kind": "numberOfSongs", "count": 25}
		]
	}`)
	res := resolve(t, g, "s")
	if res.SongCount != 25 {
		t.Errorf("SongCount = %d, want 25", res.SongCount)
	}
	if got := res.BasicSettings["guessTime"]; got != float64(7) {
		t.Errorf("guessTime = %v, want 7", got)
	}

	defaults := parse(t, `{"numberOfSongs": 10, "basicSettings": {"guessTime": 20}, "songLists": [`+masterList+`]}`)
	res = resolve(t, defaults, "s")
	if res.SongCount != 10 || res.BasicSettings["guessTime"] != float64(20) {
		t.Errorf("defaults not applied: %d %v", res.SongCount, res.BasicSettings)
	}
}

func TestRouterWeights(t *testing.T) {
	t.Parallel()

	weighted := parse(t, `{"numberOfSongs": 5, "songLists": [`+masterList+`], "router": {"branches": [
		{"weight": 0, "nodes": [{"kind": "filter", "definitionId": "vintage", "id": "never"}]},
		{"weight": 3, "nodes": [{"kind": "filter", "definitionId": "vintage", "id": "always"}]}
	]}}`)
	uniform := parse(t, `{"numberOfSongs": 5, "songLists": [`+masterList+`], "router": {"branches": [
		{"nodes": [{"kind": "filter", "definitionId": "vintage", "id": "left"}]},
		{"nodes": [{"kind": "filter", "definitionId": "vintage", "id": "right"}]}
	]}}`)

	seen := make(map[string]int)
	for i := 0; i < 200; i++ {
		seed := fmt.Sprintf("router-%d", i)

		ids := filterIDs(resolve(t, weighted, seed))
		if len(ids) != 1 || ids[0] != "always" {
			t.Fatalf("weighted router picked %v", ids)
		}

		ids = filterIDs(resolve(t, uniform, seed))
		if len(ids) != 1 {
			t.Fatalf("router must keep exactly one branch, got %v", ids)
		}
		seen[ids[0]]++
	}
	if seen["left"] == 0 || seen["right"] == 0 {
		t.Errorf("uniform router never picked one side: %v", seen)
	}
}

func TestExecutionChance(t *testing.T) {
	t.Parallel()

	g := parse(t, `{"numberOfSongs": 5, "songLists": [`+masterList+`], "filters": [
		{"definitionId": "vintage", "instanceId": "off", "executionChance": 0},
		{"definitionId": "vintage", "instanceId": "on", "executionChance": 100},
		{"definitionId": "vintage", "instanceId": "ranged", "executionChance": {"min": -50, "max": -10}}
	]}`)

	if _, gated := g.Roots[2].(*GateNode); gated {
		t.Error("a certain chance should not be gated")
	}

	for i := 0; i < 50; i++ {
		res := resolve(t, g, fmt.Sprintf("gate-%d", i))
		if got := strings.Join(filterIDs(res), ","); got != "on" {
			t.Fatalf("resolved filters = %s, want on", got)
		}
		if len(res.Forced) != 0 {
			t.Fatalf("filters are not required, nothing should be forced: %v", res.Forced)
		}
	}
}

func TestFallbackForcesRequiredCategory(t *testing.T) {
	t.Parallel()

	g := parse(t, `{
		"numberOfSongs": 5,
		"requiredCategories": ["theme"],
		"songLists": [{"nodeId": "only", "mode": "masterlist", "executionChance": 0}],
		"filters": [
			{"definitionId": "genres", "instanceId": "t1", "category": "theme", "executionChance": 0},
			{"definitionId": "genres", "instanceId": "t2", "category": "theme", "executionChance": 0},
			{"definitionId": "vintage", "instanceId": "free", "executionChance": 0}
		]
	}`)

	picked := make(map[string]int)
	for i := 0; i < 100; i++ {
		res := resolve(t, g, fmt.Sprintf("fallback-%d", i))

		if len(res.SongLists) != 1 || res.SongLists[0].NodeID != "only" {
			t.Fatalf("song list should be forced, got %+v", res.SongLists)
		}
		if len(res.Filters) != 1 {
			t.Fatalf("exactly one theme filter should be forced, got %v", filterIDs(res))
		}
		f := res.Filters[0]
		if !f.Forced || f.InstanceID == "free" {
			t.Fatalf("forced filter = %+v", f)
		}
		picked[f.InstanceID]++

		if len(res.Forced) != 2 {
			t.Fatalf("Forced = %v, want two nodes", res.Forced)
		}
	}
	if picked["t1"] == 0 || picked["t2"] == 0 {
		t.Errorf("fallback should choose uniformly, got %v", picked)
	}
}

func TestFallbackSkipsSatisfiedCategory(t *testing.T) {
	t.Parallel()

	g := parse(t, `{
		"numberOfSongs": 5,
		"requiredCategories": ["theme"],
		"songLists": [`+masterList+`],
		"filters": [
			{"definitionId": "genres", "instanceId": "t1", "category": "theme"},
			{"definitionId": "genres", "instanceId": "t2", "category": "theme", "executionChance": 0}
		]
	}`)
	res := resolve(t, g, "x")
	if got := strings.Join(filterIDs(res), ","); got != "t1" {
		t.Errorf("filters = %s, want t1", got)
	}
	if len(res.Forced) != 0 {
		t.Errorf("Forced = %v, want none", res.Forced)
	}
}

func TestSelectionModifier(t *testing.T) {
	t.Parallel()

	g := parse(t, `{"numberOfSongs": 5, "songLists": [`+masterList+`], "nodes": [
		{"kind": "selectionModifier", "select": 2, "children": [
			{"kind": "filter", "definitionId": "vintage", "id": "a"},
			{"kind": "filter", "definitionId": "vintage", "id": "b"},
			{"kind": "filter", "definitionId": "vintage", "id": "c"},
			{"kind": "filter", "definitionId": "vintage", "id": "d"}
		]},
		{"kind": "selectionModifier", "select": {"min": 0, "max": 1}, "children": [
			{"kind": "filter", "definitionId": "genres", "id": "x"}
		]}
	]}`)

	order := map[string]int{"a": 0, "b": 1, "c": 2, "d": 3}
	for i := 0; i < 50; i++ {
		res := resolve(t, g, fmt.Sprintf("select-%d", i))

		var fromFirst []string
		for _, id := range filterIDs(res) {
			if id != "x" {
				fromFirst = append(fromFirst, id)
			}
		}
		if len(fromFirst) != 2 {
			t.Fatalf("selected %v, want two", fromFirst)
		}
		if order[fromFirst[0]] >= order[fromFirst[1]] {
			t.Fatalf("selection should keep document order: %v", fromFirst)
		}
		if len(res.Filters) > 3 {
			t.Fatalf("ranged modifier selected too many: %v", filterIDs(res))
		}
	}
}

func TestSourceSelector(t *testing.T) {
	t.Parallel()

	g := parse(t, `{"numberOfSongs": 5, "songLists": [`+masterList+`, {"nodeId": "mine", "mode": "user-lists"}], "nodes": [
		{"kind": "sourceSelector", "source": "mine", "children": [
			{"kind": "filter", "definitionId": "genres", "id": "g", "settings": {"included": ["Action"]}}
		]}
	]}`)
	res := resolve(t, g, "s")
	if len(res.Filters) != 1 || res.Filters[0].Source != "mine" {
		t.Fatalf("filters = %+v", res.Filters)
	}

	f := res.Filters[0].Effective()
	if !f.Matches(&models.Song{SourceID: "master"}) {
		t.Error("songs from other sources bypass the filter")
	}
	if f.Matches(&models.Song{SourceID: "mine"}) {
		t.Error("songs from the selected source are filtered")
	}
}

func TestResolveDeterministic(t *testing.T) {
	t.Parallel()

	g := parse(t, `{"numberOfSongs": {"min": 10, "max": 40}, "songLists": [`+masterList+`], "nodes": [
		{"kind": "selectionModifier", "select": {"min": 1, "max": 3}, "children": [
			{"kind": "filter", "definitionId": "vintage", "id": "a", "executionChance": 50},
			{"kind": "filter", "definitionId": "vintage", "id": "b", "executionChance": {"min": 20, "max": 80}},
			{"kind": "filter", "definitionId": "vintage", "id": "c"},
			{"kind": "filter", "definitionId": "vintage", "id": "d"}
		]}
	]}`)

	for i := 0; i < 20; i++ {
		seed := fmt.Sprintf("det-%d", i)
		a, b := resolve(t, g, seed), resolve(t, g, seed)
		if a.SongCount != b.SongCount || strings.Join(filterIDs(a), ",") != strings.Join(filterIDs(b), ",") {
			t.Fatalf("seed %s resolved differently: %d %v vs %d %v", seed, a.SongCount, filterIDs(a), b.SongCount, filterIDs(b))
		}
	}
}

func TestWalkVisitsEverything(t *testing.T) {
	t.Parallel()

	g := parse(t, `{"numberOfSongs": 5, "songLists": [`+masterList+`], "router": {"branches": [
		{"nodes": [{"kind": "sourceSelector", "source": "master", "children": [{"kind": "filter", "definitionId": "tags", "executionChance": 10}]}]},
		{"nodes": [{"kind": "numberOfSongs", "count": 3}]}
	]}}`)

	var kinds []string
	Walk(g.Roots, func(n Node) bool {
		kinds = append(kinds, string(n.Kind()))
		return true
	})
	want := "songList,router,sourceSelector,gate,filter,numberOfSongs"
	if got := strings.Join(kinds, ","); got != want {
		t.Errorf("Walk order = %s, want %s", got, want)
	}
}
