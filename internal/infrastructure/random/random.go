package random

import (
	"math/rand/v2"
	"sync"
)

// Source draws uniformly distributed integers in [0, n).
type Source interface {
	Intn(n int) int
}

// Config for the random source.
type Config struct {
	// Optional seed for reproducible draws. Zero means nondeterministic.
	Seed uint64
}

// Rand implements Source.
type Rand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a random source. Without a seed it draws from the runtime's
// concurrency-safe generator.
func New(cfg *Config) *Rand {
	if cfg == nil || cfg.Seed == 0 {
		return &Rand{}
	}
	return &Rand{rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))}
}

// Intn returns a uniform value in [0, n). It panics if n <= 0.
func (r *Rand) Intn(n int) int {
	if r.rng == nil {
		return rand.IntN(n)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}
