// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

// Package sampler draws the final song list from eligible candidates under basket quotas.
//
// Minimums are served before anything else: baskets are visited from the scarcest
// (fewest eligible songs) to the most plentiful and each is topped up to its Min in
// RNG order. The remaining slots are then filled in the same RNG order. No pick may
// push any basket past its Max. A pick is credited to every basket it matches.
package sampler

import (
	"sort"

	"github.com/tomtom215/quizforge/internal/models"
	"github.com/tomtom215/quizforge/internal/quiz/basket"
	"github.com/tomtom215/quizforge/internal/quiz/rng"
)

// Input is everything one sampling pass needs. Baskets are mutated in place.
type Input struct {
	// Eligible holds the candidates that passed every filter predicate.
	Eligible []models.Song
	Baskets  []*basket.Basket
	Target   int
	RNG      *rng.Source
}

// Output is the sampled list and the final basket state.
type Output struct {
	Songs   []models.Song
	Status  []models.BasketStatus
	Success bool
}

type state struct {
	in      Input
	order   []int
	matches [][]int
	taken   []bool
	picked  []int
}

// Sample runs the minimum phase, the fill phase and a final shuffle.
func Sample(in Input) Output {
	s := &state{
		in:      in,
		order:   make([]int, len(in.Eligible)),
		matches: make([][]int, len(in.Eligible)),
		taken:   make([]bool, len(in.Eligible)),
	}
	for i := range s.order {
		s.order[i] = i
	}
	in.RNG.Shuffle(len(s.order), func(i, j int) { s.order[i], s.order[j] = s.order[j], s.order[i] })

	available := make([]int, len(in.Baskets))
	for i := range in.Eligible {
		song := &in.Eligible[i]
		for b, bk := range in.Baskets {
			if bk.Matches != nil && bk.Matches(song) {
				s.matches[i] = append(s.matches[i], b)
				available[b]++
			}
		}
	}

	s.fillMinimums(available)
	s.fill()

	in.RNG.Shuffle(len(s.picked), func(i, j int) { s.picked[i], s.picked[j] = s.picked[j], s.picked[i] })

	out := Output{
		Songs:   make([]models.Song, len(s.picked)),
		Status:  make([]models.BasketStatus, 0, len(in.Baskets)),
		Success: len(s.picked) == in.Target,
	}
	for i, idx := range s.picked {
		out.Songs[i] = in.Eligible[idx]
	}
	for b, bk := range in.Baskets {
		st := models.BasketStatus{
			ID:        bk.ID,
			FilterID:  bk.FilterID,
			Current:   bk.Current,
			Min:       bk.Min,
			Max:       bk.Max,
			MeetsMin:  bk.MeetsMin(),
			Available: available[b],
		}
		out.Success = out.Success && st.MeetsMin
		out.Status = append(out.Status, st)
	}
	return out
}

// fillMinimums visits baskets scarcest first, ties in plan order.
func (s *state) fillMinimums(available []int) {
	byScarcity := make([]int, len(s.in.Baskets))
	for i := range byScarcity {
		byScarcity[i] = i
	}
	sort.SliceStable(byScarcity, func(a, b int) bool {
		return available[byScarcity[a]] < available[byScarcity[b]]
	})

	for _, b := range byScarcity {
		bk := s.in.Baskets[b]
		for _, i := range s.order {
			if bk.MeetsMin() || s.full() {
				break
			}
			if s.taken[i] || !s.matchesBasket(i, b) || s.overflows(i) {
				continue
			}
			s.take(i)
		}
	}
}

// fill tops up to the target in RNG order.
func (s *state) fill() {
	for _, i := range s.order {
		if s.full() {
			return
		}
		if s.taken[i] || s.overflows(i) {
			continue
		}
		s.take(i)
	}
}

func (s *state) full() bool {
	return len(s.picked) >= s.in.Target
}

func (s *state) matchesBasket(i, b int) bool {
	for _, m := range s.matches[i] {
		if m == b {
			return true
		}
	}
	return false
}

// overflows reports whether taking candidate i would exceed any matched basket's Max.
func (s *state) overflows(i int) bool {
	for _, b := range s.matches[i] {
		if s.in.Baskets[b].Full() {
			return true
		}
	}
	return false
}

func (s *state) take(i int) {
	s.taken[i] = true
	s.picked = append(s.picked, i)
	for _, b := range s.matches[i] {
		s.in.Baskets[b].Current++
	}
}
