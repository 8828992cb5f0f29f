// Quizforge - Anime Music Quiz Builder and Song Resolution Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/quizforge

// Package rng provides the seeded generator every simulation run draws from.
//
// The algorithm is fixed so a seed reproduces the same quiz in any process and in
// the browser preview: the seed string (as UTF-16 code units) is hashed with xmur3,
// and the first hash output seeds mulberry32. Float64 returns the next mulberry32
// output divided by 2^32.
//
// A Source is not safe for concurrent use. Each run creates its own with New and
// passes it explicitly from the resolver to the sampler.
package rng

import "unicode/utf16"

// Source is a deterministic mulberry32 generator.
type Source struct {
	state uint32
}

// New returns an independent generator seeded from seed.
func New(seed string) *Source {
	return &Source{state: xmur3(seed)}
}

// xmur3 hashes s and returns the first output of the derived stream.
func xmur3(s string) uint32 {
	units := utf16.Encode([]rune(s))
	h := uint32(1779033703) ^ uint32(len(units))
	for _, c := range units {
		h = (h ^ uint32(c)) * 3432918353
		h = h<<13 | h>>19
	}
	h = (h ^ h>>16) * 2246822507
	h = (h ^ h>>13) * 3266489909
	return h ^ h>>16
}

// Uint32 returns the next raw 32-bit output.
func (s *Source) Uint32() uint32 {
	s.state += 0x6D2B79F5
	t := s.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return t ^ t>>14
}

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 {
	return float64(s.Uint32()) / 4294967296.0
}

// Intn returns a value in [0, n). It returns 0 when n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(s.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// IntBetween returns an integer in [lo, hi]. Bounds are swapped if inverted.
func (s *Source) IntBetween(lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo + s.Intn(hi-lo+1)
}

// FloatBetween returns a value in [lo, hi).
func (s *Source) FloatBetween(lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo + s.Float64()*(hi-lo)
}

// Shuffle performs a Fisher-Yates shuffle over n elements.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, s.Intn(i+1))
	}
}

// WeightedIndex picks an index with probability proportional to its weight.
// Negative weights count as zero. When every weight is zero the pick is uniform.
func (s *Source) WeightedIndex(weights []float64) int {
	if len(weights) == 0 {
		return -1
	}
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return s.Intn(len(weights))
	}

	target := s.Float64() * total
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if target < w {
			return i
		}
		target -= w
	}
	return last
}
