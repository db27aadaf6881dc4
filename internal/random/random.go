// Package random provides the seeded pseudo-random stream shared by the
// loads of a running step. The stream is an explicit handle injected by the
// runner rather than process-global state, so two runs with the same seed
// and step structure draw identical sequences.
package random

import (
	"math/rand"
	"sync"
)

// Stream is a seedable PRNG safe for concurrent use by the loads of one
// step. All draws happen after the step's reseed; no ordering is guaranteed
// between the draws of concurrent loads.
type Stream struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Stream seeded with seed.
func New(seed int64) *Stream {
	return &Stream{rng: rand.New(rand.NewSource(seed))}
}

// Seed reseeds the stream. The runner calls this at step entry.
func (s *Stream) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rand.New(rand.NewSource(seed))
}

// Int63 returns a non-negative 63-bit draw.
func (s *Stream) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Int63()
}

// Intn returns a draw in [0, n).
func (s *Stream) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Float64 returns a draw in [0.0, 1.0).
func (s *Stream) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Shuffle pseudo-randomizes the order of n elements via swap.
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(n, swap)
}
