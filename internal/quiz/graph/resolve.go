// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package graph

import (
	"math"
	"sort"

	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/quiz/filters"
	"github.com/tomtom215/quizforge/internal/quiz/rng"
)

// ResolvedFilter is a filter instance active in this run.
type ResolvedFilter struct {
	InstanceID   string
	DefinitionID string
	Settings     filters.Settings

	// Source restricts the filter to songs from one song list; empty means all.
	Source string

	// Forced marks filters activated by execution-chance fallback.
	Forced bool
}

// Effective returns the settings with the source restriction applied.
func (f ResolvedFilter) Effective() filters.Settings {
	return filters.Restrict(f.Settings, f.Source)
}

// Resolution is the flattened outcome of one graph walk.
type Resolution struct {
	Filters       []ResolvedFilter
	SongCount     int
	BasicSettings models.BasicSettings
	SongLists     []models.SongListSpec

	// Forced lists node ids activated by fallback, in activation order.
	Forced []string
}

type pendingGate struct {
	gate   *GateNode
	source string
}

type resolver struct {
	rng      *rng.Source
	res      *Resolution
	active   map[string]int
	failed   map[string][]pendingGate
	settings models.BasicSettings
	count    *models.Span
	forced   bool
}

// Resolve walks g once with r. Draw order: the walk itself, then fallback
// selection per required category in sorted order, then a ranged song count.
func Resolve(g *Graph, r *rng.Source) (*Resolution, error) {
	rv := &resolver{
		rng:    r,
		res:    &Resolution{},
		active: make(map[string]int),
		failed: make(map[string][]pendingGate),
	}

	rv.walk(g.Roots, "")
	rv.fallback(g.Required)

	rv.res.BasicSettings = g.DefaultSettings
	if rv.settings != nil {
		rv.res.BasicSettings = rv.settings
	}

	count := g.DefaultCount
	if rv.count != nil {
		count = rv.count
	}
	if count == nil {
		return nil, ErrNoSongCount
	}
	rv.res.SongCount = rv.sampleCount(*count)
	if rv.res.SongCount < 1 {
		return nil, ErrInvalidSongCount
	}

	if len(rv.res.SongLists) == 0 {
		return nil, ErrNoSongLists
	}
	return rv.res, nil
}

func (rv *resolver) walk(nodes []Node, source string) {
	for _, n := range nodes {
		rv.visit(n, source)
	}
}

func (rv *resolver) visit(n Node, source string) {
	if g, ok := n.(*GateNode); ok {
		if rv.roll(g.Chance) {
			rv.visit(g.Inner, source)
		} else {
			cat := g.Category()
			rv.failed[cat] = append(rv.failed[cat], pendingGate{gate: g, source: source})
		}
		return
	}

	rv.active[n.Category()]++

	switch v := n.(type) {
	case *FilterNode:
		rv.res.Filters = append(rv.res.Filters, ResolvedFilter{
			InstanceID:   v.Instance.InstanceID,
			DefinitionID: v.Instance.DefinitionID,
			Settings:     v.Settings,
			Source:       source,
			Forced:       rv.forced,
		})
	case *BasicSettingsNode:
		rv.settings = v.Settings
	case *SongCountNode:
		count := v.Count
		rv.count = &count
	case *SongListNode:
		rv.res.SongLists = append(rv.res.SongLists, v.List)
	case *RouterNode:
		weights := make([]float64, len(v.Branches))
		for i, b := range v.Branches {
			weights[i] = b.Weight
		}
		if i := rv.rng.WeightedIndex(weights); i >= 0 {
			rv.walk(v.Branches[i].Nodes, source)
		}
	case *SelectionModifierNode:
		rv.walk(rv.choose(v), source)
	case *SourceSelectorNode:
		rv.walk(v.Children, v.Source)
	}
}

// roll reports whether a gate passes. Chance is a percentage.
func (rv *resolver) roll(chance models.Span) bool {
	c := chance.Min
	if !chance.IsFixed() {
		c = rv.rng.FloatBetween(chance.Min, chance.Max)
	}
	return rv.rng.Float64()*100 < c
}

// choose picks the selected children of a modifier, kept in document order.
func (rv *resolver) choose(m *SelectionModifierNode) []Node {
	k := roundHalfUp(m.Select.Min)
	if !m.Select.IsFixed() {
		k = rv.rng.IntBetween(roundHalfUp(m.Select.Min), roundHalfUp(m.Select.Max))
	}
	if k >= len(m.Children) {
		return m.Children
	}
	if k <= 0 {
		return nil
	}

	idx := make([]int, len(m.Children))
	for i := range idx {
		idx[i] = i
	}
	rv.rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	picked := idx[:k]
	sort.Ints(picked)

	out := make([]Node, k)
	for i, p := range picked {
		out[i] = m.Children[p]
	}
	return out
}

// fallback force-activates one failed member of every required category that
// ended the walk with no active member.
func (rv *resolver) fallback(required []string) {
	cats := append([]string(nil), required...)
	sort.Strings(cats)

	for _, cat := range cats {
		if rv.active[cat] > 0 || len(rv.failed[cat]) == 0 {
			continue
		}
		candidates := rv.failed[cat]
		pick := candidates[rv.rng.Intn(len(candidates))]

		rv.res.Forced = append(rv.res.Forced, pick.gate.ID())
		prev := rv.forced
		rv.forced = true
		rv.visit(pick.gate.Inner, pick.source)
		rv.forced = prev
	}
}

func (rv *resolver) sampleCount(s models.Span) int {
	if s.IsFixed() {
		return roundHalfUp(s.Min)
	}
	return rv.rng.IntBetween(roundHalfUp(s.Min), roundHalfUp(s.Max))
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
