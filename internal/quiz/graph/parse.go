// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

package graph

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/quiz/filters"
)

// Parse errors.
var (
	ErrInvalidNode      = errors.New("invalid node")
	ErrUnknownKind      = errors.New("unknown node kind")
	ErrNoSongCount      = errors.New("numberOfSongs is required")
	ErrNoSongLists      = errors.New("at least one song list is required")
	ErrInvalidSongCount = errors.New("numberOfSongs must be at least 1")
)

// BuiltinRequired are the categories that always need an active member.
var BuiltinRequired = []string{string(KindBasicSettings), string(KindSongCount), string(KindSongList)}

// kindAliases maps normalized spellings onto kinds.
var kindAliases = map[string]Kind{
	"filter":            KindFilter,
	"basicsettings":     KindBasicSettings,
	"numberofsongs":     KindSongCount,
	"songcount":         KindSongCount,
	"songlist":          KindSongList,
	"router":            KindRouter,
	"selectionmodifier": KindSelectionModifier,
	"sourceselector":    KindSourceSelector,
}

func parseKind(s string) (Kind, bool) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	k, ok := kindAliases[key]
	return k, ok
}

type rawNode struct {
	Kind            string            `json:"kind"`
	ID              string            `json:"id"`
	ExecutionChance *models.Span      `json:"executionChance"`
	Category        string            `json:"category"`
	DefinitionID    string            `json:"definitionId"`
	InstanceID      string            `json:"instanceId"`
	Settings        json.RawMessage   `json:"settings"`
	Count           *models.Span      `json:"count"`
	Branches        []rawBranch       `json:"branches"`
	Select          *models.Span      `json:"select"`
	Children        []json.RawMessage `json:"children"`
	Source          string            `json:"source"`
}

type rawBranch struct {
	Weight *float64          `json:"weight"`
	Nodes  []json.RawMessage `json:"nodes"`
}

type parser struct {
	reg *filters.Registry
	seq map[Kind]int
}

// Parse decodes cfg into a typed graph. Top-level song lists come first, then
// top-level filters, then cfg.Nodes, then cfg.Router.
func Parse(cfg *models.QuizConfiguration, reg *filters.Registry) (*Graph, error) {
	p := &parser{reg: reg, seq: make(map[Kind]int)}
	g := &Graph{
		DefaultSettings: cfg.BasicSettings,
		DefaultCount:    cfg.NumberOfSongs,
		Required:        requiredCategories(cfg.RequiredCategories),
	}

	for i := range cfg.SongLists {
		spec := cfg.SongLists[i]
		n := &SongListNode{base: base{id: p.idOr(spec.NodeID, KindSongList), category: spec.Category}, List: spec}
		if n.List.NodeID == "" {
			n.List.NodeID = n.id
		}
		g.Roots = append(g.Roots, gate(n, spec.ExecutionChance))
	}

	for i, fi := range cfg.Filters {
		n, err := p.filterNode(fi)
		if err != nil {
			return nil, fmt.Errorf("filters[%d]: %w", i, err)
		}
		g.Roots = append(g.Roots, gate(n, fi.ExecutionChance))
	}

	for i, raw := range cfg.Nodes {
		n, err := p.parseNode(raw, "", fmt.Sprintf("nodes[%d]", i))
		if err != nil {
			return nil, err
		}
		g.Roots = append(g.Roots, n)
	}

	if r := bytes.TrimSpace(cfg.Router); len(r) > 0 && !bytes.Equal(r, []byte("null")) {
		n, err := p.parseNode(r, KindRouter, "router")
		if err != nil {
			return nil, err
		}
		g.Roots = append(g.Roots, n)
	}

	if err := g.check(); err != nil {
		return nil, err
	}
	return g, nil
}

func requiredCategories(extra []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range append(append([]string{}, BuiltinRequired...), extra...) {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// check rejects graphs that can never produce a run.
func (g *Graph) check() error {
	hasCount := g.DefaultCount != nil
	hasList := false
	Walk(g.Roots, func(n Node) bool {
		switch n.(type) {
		case *SongCountNode:
			hasCount = true
		case *SongListNode:
			hasList = true
		}
		return true
	})
	if !hasCount {
		return ErrNoSongCount
	}
	if !hasList {
		return ErrNoSongLists
	}
	return nil
}

func (p *parser) idOr(id string, k Kind) string {
	p.seq[k]++
	if id != "" {
		return id
	}
	return fmt.Sprintf("%s-%d", k, p.seq[k])
}

func (p *parser) filterNode(fi models.FilterInstance) (*FilterNode, error) {
	settings, err := p.reg.Decode(fi.DefinitionID, fi.Settings)
	if err != nil {
		return nil, err
	}
	id := p.idOr(fi.InstanceID, KindFilter)
	if fi.InstanceID == "" {
		fi.InstanceID = id
	}
	return &FilterNode{base: base{id: id, category: fi.Category}, Instance: fi, Settings: settings}, nil
}

// gate wraps n when its execution chance can fail.
func gate(n Node, chance *models.Span) Node {
	if chance == nil || chance.Min >= 100 {
		return n
	}
	return &GateNode{Chance: *chance, Inner: n}
}

func (p *parser) parseNodes(raws []json.RawMessage, path string) ([]Node, error) {
	nodes := make([]Node, 0, len(raws))
	for i, raw := range raws {
		n, err := p.parseNode(raw, "", fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (p *parser) parseNode(data json.RawMessage, defaultKind Kind, path string) (Node, error) {
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrInvalidNode, err)
	}

	kind := defaultKind
	if raw.Kind != "" {
		k, ok := parseKind(raw.Kind)
		if !ok {
			return nil, fmt.Errorf("%s: %w %q", path, ErrUnknownKind, raw.Kind)
		}
		kind = k
	}

	var (
		n   Node
		err error
	)
	switch kind {
	case KindFilter:
		n, err = p.filterNode(models.FilterInstance{
			DefinitionID: raw.DefinitionID,
			InstanceID:   firstNonEmpty(raw.InstanceID, raw.ID),
			Settings:     raw.Settings,
			Category:     raw.Category,
		})

	case KindBasicSettings:
		var settings models.BasicSettings
		if len(raw.Settings) > 0 {
			if err = json.Unmarshal(raw.Settings, &settings); err != nil {
				err = fmt.Errorf("%w: settings: %w", ErrInvalidNode, err)
			}
		}
		n = &BasicSettingsNode{base: base{id: p.idOr(raw.ID, kind), category: raw.Category}, Settings: settings}

	case KindSongCount:
		if raw.Count == nil {
			err = fmt.Errorf("%w: count is required", ErrInvalidNode)
			break
		}
		n = &SongCountNode{base: base{id: p.idOr(raw.ID, kind), category: raw.Category}, Count: *raw.Count}

	case KindSongList:
		var spec models.SongListSpec
		if err = json.Unmarshal(data, &spec); err != nil {
			err = fmt.Errorf("%w: %w", ErrInvalidNode, err)
			break
		}
		id := p.idOr(firstNonEmpty(spec.NodeID, raw.ID), kind)
		spec.NodeID = id
		n = &SongListNode{base: base{id: id, category: raw.Category}, List: spec}

	case KindRouter:
		if len(raw.Branches) == 0 {
			err = fmt.Errorf("%w: router needs at least one branch", ErrInvalidNode)
			break
		}
		if n, err = p.routerNode(raw, path); err != nil {
			return nil, err
		}

	case KindSelectionModifier:
		if raw.Select == nil || raw.Select.Min < 0 {
			err = fmt.Errorf("%w: select must be a non-negative count or range", ErrInvalidNode)
			break
		}
		var children []Node
		if children, err = p.parseNodes(raw.Children, path+".children"); err != nil {
			return nil, err
		}
		n = &SelectionModifierNode{base: base{id: p.idOr(raw.ID, kind), category: raw.Category}, Select: *raw.Select, Children: children}

	case KindSourceSelector:
		if raw.Source == "" {
			err = fmt.Errorf("%w: source is required", ErrInvalidNode)
			break
		}
		var children []Node
		if children, err = p.parseNodes(raw.Children, path+".children"); err != nil {
			return nil, err
		}
		n = &SourceSelectorNode{base: base{id: p.idOr(raw.ID, kind), category: raw.Category}, Source: raw.Source, Children: children}

	default:
		err = fmt.Errorf("%w: kind is required", ErrInvalidNode)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return gate(n, raw.ExecutionChance), nil
}

func (p *parser) routerNode(raw rawNode, path string) (Node, error) {
	r := &RouterNode{base: base{id: p.idOr(raw.ID, KindRouter), category: raw.Category}}
	for i, b := range raw.Branches {
		nodes, err := p.parseNodes(b.Nodes, fmt.Sprintf("%s.branches[%d].nodes", path, i))
		if err != nil {
			return nil, err
		}
		br := Branch{Nodes: nodes}
		if b.Weight != nil {
			br.Weight = *b.Weight
		}
		r.Branches = append(r.Branches, br)
	}
	return r, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
