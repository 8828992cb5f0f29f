// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

// Package graph parses the quiz node graph and resolves it for one run.
//
// The graph is a closed set of node variants. Parse turns the loosely shaped
// configuration JSON into typed nodes once; Resolve walks them top-down with the
// run's RNG and flattens the survivors into a Resolution:
//
//	g, err := graph.Parse(cfg, filters.DefaultRegistry())
//	res, err := graph.Resolve(g, rng.New(seed))
//
// Router branches, execution-chance gates and selection modifiers consume RNG draws
// in walk order, so the same configuration and seed always resolve identically.
package graph

import (
	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/quiz/filters"
)

// Kind discriminates node variants.
type Kind string

// Node kinds.
const (
	KindFilter            Kind = "filter"
	KindBasicSettings     Kind = "basicSettings"
	KindSongCount         Kind = "numberOfSongs"
	KindSongList          Kind = "songList"
	KindRouter            Kind = "router"
	KindGate              Kind = "gate"
	KindSelectionModifier Kind = "selectionModifier"
	KindSourceSelector    Kind = "sourceSelector"
)

// Node is one vertex of the quiz graph. The set of implementations is closed.
type Node interface {
	ID() string
	Kind() Kind

	// Category groups nodes for execution-chance fallback.
	Category() string

	node()
}

type base struct {
	id       string
	category string
}

func (b base) ID() string { return b.id }
func (base) node()        {}

func (b base) categoryOr(k Kind) string {
	if b.category != "" {
		return b.category
	}
	return string(k)
}

// FilterNode carries one decoded filter instance.
type FilterNode struct {
	base
	Instance models.FilterInstance
	Settings filters.Settings
}

func (n *FilterNode) Kind() Kind       { return KindFilter }
func (n *FilterNode) Category() string { return n.categoryOr(KindFilter) }

// BasicSettingsNode proposes the lobby settings for the run.
type BasicSettingsNode struct {
	base
	Settings models.BasicSettings
}

func (n *BasicSettingsNode) Kind() Kind       { return KindBasicSettings }
func (n *BasicSettingsNode) Category() string { return n.categoryOr(KindBasicSettings) }

// SongCountNode proposes the song count target.
type SongCountNode struct {
	base
	Count models.Span
}

func (n *SongCountNode) Kind() Kind       { return KindSongCount }
func (n *SongCountNode) Category() string { return n.categoryOr(KindSongCount) }

// SongListNode contributes a song source to the candidate pool.
type SongListNode struct {
	base
	List models.SongListSpec
}

func (n *SongListNode) Kind() Kind       { return KindSongList }
func (n *SongListNode) Category() string { return n.categoryOr(KindSongList) }

// Branch is one weighted alternative of a router.
type Branch struct {
	Weight float64
	Nodes  []Node
}

// RouterNode keeps exactly one branch per run.
// Weights are normalized; when none is positive the choice is uniform.
type RouterNode struct {
	base
	Branches []Branch
}

func (n *RouterNode) Kind() Kind       { return KindRouter }
func (n *RouterNode) Category() string { return n.categoryOr(KindRouter) }

// GateNode activates Inner when a roll against Chance (percent) succeeds.
// A ranged chance is sampled once per run.
type GateNode struct {
	Chance models.Span
	Inner  Node
}

func (n *GateNode) ID() string       { return n.Inner.ID() }
func (n *GateNode) Kind() Kind       { return KindGate }
func (n *GateNode) Category() string { return n.Inner.Category() }
func (*GateNode) node()              {}

// SelectionModifierNode activates Select of its children, chosen without replacement.
type SelectionModifierNode struct {
	base
	Select   models.Span
	Children []Node
}

func (n *SelectionModifierNode) Kind() Kind       { return KindSelectionModifier }
func (n *SelectionModifierNode) Category() string { return n.categoryOr(KindSelectionModifier) }

// SourceSelectorNode restricts every filter beneath it to songs from Source.
type SourceSelectorNode struct {
	base
	Source   string
	Children []Node
}

func (n *SourceSelectorNode) Kind() Kind       { return KindSourceSelector }
func (n *SourceSelectorNode) Category() string { return n.categoryOr(KindSourceSelector) }

// Graph is a parsed configuration.
type Graph struct {
	Roots []Node

	// DefaultSettings and DefaultCount apply when no node of that kind is active.
	DefaultSettings models.BasicSettings
	DefaultCount    *models.Span

	// Required lists the categories guaranteed at least one active member.
	Required []string
}

// Walk visits every node depth-first in document order, including gated and
// unselected ones. It stops early when fn returns false.
func Walk(nodes []Node, fn func(Node) bool) bool {
	for _, n := range nodes {
		if !fn(n) {
			return false
		}
		var children []Node
		switch v := n.(type) {
		case *GateNode:
			children = []Node{v.Inner}
		case *RouterNode:
			for _, b := range v.Branches {
				children = append(children, b.Nodes...)
			}
		case *SelectionModifierNode:
			children = v.Children
		case *SourceSelectorNode:
			children = v.Children
		}
		if !Walk(children, fn) {
			return false
		}
	}
	return true
}
