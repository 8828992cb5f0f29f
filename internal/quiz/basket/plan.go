// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

// Package basket turns percentage, count and range quotas into integer baskets.
//
// A basket is a named bucket with inclusive [Min, Max] bounds relative to the run's
// song count target. Baskets only come from filters in advanced mode; basic-mode
// filters act purely as predicates.
package basket

import (
	"math"
	"sort"

	"github.com/tomtom215/quizforge/internal/models"
)

// Matcher reports whether a song counts toward a basket.
type Matcher func(*models.Song) bool

// Category is one quota-bearing slice of a filter, e.g. "songType-openings".
type Category struct {
	Key     string
	Quota   Quota
	Matches Matcher
}

// Basket is a planned quota. Current is only mutated by the sampler.
type Basket struct {
	ID       string
	FilterID string
	Min      int
	Max      int
	Current  int
	Matches  Matcher

	// Exact marks a basket planned from a single value rather than a range.
	Exact bool
}

// MeetsMin reports whether the basket reached its minimum.
func (b *Basket) MeetsMin() bool {
	return b.Current >= b.Min
}

// Full reports whether one more song would exceed Max.
func (b *Basket) Full() bool {
	return b.Current >= b.Max
}

// Plan converts the categories of one filter into baskets for target songs.
//
// Exact quotas become Min == Max. When the exact quotas of a filter are not
// oversubscribed they are apportioned by largest remainder, so together they add up
// to the rounded sum of their nominal values and each stays within one of its own
// rounded value. Ranged quotas resolve each bound independently, default to [0, target]
// and are swapped when inverted. All bounds are clamped to [0, target].
func Plan(filterID string, categories []Category, target int) []*Basket {
	if target < 0 {
		target = 0
	}

	var (
		baskets []*Basket
		exact   []*Basket
		nominal []float64
	)

	for _, cat := range categories {
		if !cat.Quota.Active() || !cat.Quota.HasTarget() {
			continue
		}
		b := &Basket{ID: cat.Key, FilterID: filterID, Matches: cat.Matches}

		if cat.Quota.IsExact() {
			n := cat.Quota.nominal(target)
			v := clamp(roundHalfUp(n), 0, target)
			b.Min, b.Max = v, v
			b.Exact = true
			exact = append(exact, b)
			nominal = append(nominal, math.Max(n, 0))
		} else {
			b.Min, b.Max = 0, target
			if v, ok := boundOf(cat.Quota.Min, target); ok {
				b.Min = clamp(v, 0, target)
			}
			if v, ok := boundOf(cat.Quota.Max, target); ok {
				b.Max = clamp(v, 0, target)
			}
			if b.Min > b.Max {
				b.Min, b.Max = b.Max, b.Min
			}
		}
		baskets = append(baskets, b)
	}

	apportion(exact, nominal, target)
	return baskets
}

// ReleaseShortfall raises the Max of exact baskets when their filter cannot fill the
// run otherwise. It applies per filter, only when every eligible song counts toward at
// least one of the filter's baskets and their maximums add up to less than target.
// Each exact basket may then take the missing songs on top of its quota. Minimums
// are unchanged, so quotas remain guaranteed shares.
func ReleaseShortfall(baskets []*Basket, eligible []models.Song, target int) {
	var order []string
	groups := make(map[string][]*Basket)
	for _, b := range baskets {
		if _, ok := groups[b.FilterID]; !ok {
			order = append(order, b.FilterID)
		}
		groups[b.FilterID] = append(groups[b.FilterID], b)
	}
	for _, id := range order {
		release(groups[id], eligible, target)
	}
}

func release(group []*Basket, eligible []models.Song, target int) {
	capacity := 0
	hasExact := false
	for _, b := range group {
		capacity += b.Max
		hasExact = hasExact || b.Exact
	}
	shortfall := target - capacity
	if shortfall <= 0 || !hasExact {
		return
	}
	for i := range eligible {
		if !covered(group, &eligible[i]) {
			return
		}
	}
	for _, b := range group {
		if b.Exact {
			b.Max = clamp(b.Max+shortfall, b.Min, target)
		}
	}
}

func covered(group []*Basket, song *models.Song) bool {
	for _, b := range group {
		if b.Matches != nil && b.Matches(song) {
			return true
		}
	}
	return false
}

func boundOf(b *Bound, target int) (int, bool) {
	if b == nil {
		return 0, false
	}
	return b.resolve(target)
}

// apportion applies the largest-remainder method to exact baskets whose nominal
// values fit within target. Oversubscribed filters keep independent rounding and
// surface as unmet baskets.
func apportion(baskets []*Basket, nominal []float64, target int) {
	if len(baskets) < 2 {
		return
	}

	var sum float64
	for _, n := range nominal {
		sum += n
	}
	if sum > float64(target)+1e-9 {
		return
	}

	total := clamp(roundHalfUp(sum), 0, target)
	floors := make([]int, len(baskets))
	assigned := 0
	for i, n := range nominal {
		floors[i] = int(math.Floor(n + 1e-9))
		assigned += floors[i]
	}

	order := make([]int, len(baskets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra := nominal[order[a]] - float64(floors[order[a]])
		rb := nominal[order[b]] - float64(floors[order[b]])
		return ra > rb
	})

	for k := 0; assigned < total && k < len(order); k++ {
		floors[order[k]]++
		assigned++
	}

	for i, b := range baskets {
		v := clamp(floors[i], 0, target)
		b.Min, b.Max = v, v
	}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
