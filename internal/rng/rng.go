// Package rng provides the single seedable randomness source shared by all
// simulation engines, plus locally-scoped generators for per-entity checks.
package rng

import (
	"hash/fnv"
	"math/rand"
)

// Source wraps a seeded PRNG. One Source is created per simulation and
// threaded through every engine constructor so runs are reproducible.
type Source struct {
	seed int64
	r    *rand.Rand
}

// New creates a Source from a seed.
func New(seed int64) *Source {
	return &Source{seed: seed, r: rand.New(rand.NewSource(seed))}
}

// Seed returns the seed this source was created with.
func (s *Source) Seed() int64 { return s.seed }

// Float returns a uniform float64 in [0, 1).
func (s *Source) Float() float64 { return s.r.Float64() }

// Range returns a uniform float64 in [lo, hi).
func (s *Source) Range(lo, hi float64) float64 {
	return lo + s.r.Float64()*(hi-lo)
}

// Intn returns a uniform int in [0, n). n must be > 0.
func (s *Source) Intn(n int) int { return s.r.Intn(n) }

// Chance returns true with probability p.
func (s *Source) Chance(p float64) bool { return s.r.Float64() < p }

// Walk returns v perturbed by a uniform step in [-step, step], clamped to [lo, hi].
func (s *Source) Walk(v, step, lo, hi float64) float64 {
	v += s.Range(-step, step)
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}

// WeightedIndex picks an index with probability proportional to weights[i].
// Returns -1 if no weight is positive.
func (s *Source) WeightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}
	roll := s.r.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		roll -= w
		if roll < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// Scoped returns an independent generator derived from an entity id. Used for
// deterministic per-entity checks without touching the shared Source state.
func Scoped(id string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(id))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}
