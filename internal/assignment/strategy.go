// Package assignment provides explicit, injectable selection strategies for
// distributing work (e.g. picking an employee for a bot-created booking).
// Strategies are safe for concurrent use.
package assignment

import (
	"math/rand"
	"sync"
	"sync/atomic"
)

// Strategy picks an index in [0, n). n must be positive; a non-positive n
// returns -1 so callers can guard empty pools explicitly.
type Strategy interface {
	Next(n int) int
}

// RoundRobin cycles deterministically through indices.
type RoundRobin struct {
	counter atomic.Uint64
}

// NewRoundRobin creates a round-robin strategy starting at index 0.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// Next returns the next index in rotation.
func (r *RoundRobin) Next(n int) int {
	if n <= 0 {
		return -1
	}
	return int((r.counter.Add(1) - 1) % uint64(n))
}

// Random picks uniformly using an injected, seedable source instead of a
// shared global generator.
type Random struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandom creates a random strategy from the given seed.
func NewRandom(seed int64) *Random {
	return &Random{rnd: rand.New(rand.NewSource(seed))}
}

// Next returns a uniformly random index.
func (r *Random) Next(n int) int {
	if n <= 0 {
		return -1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}
