package pipeline

import (
	"math/rand"
	"sync"
	"time"
)

// Sampler decides per unit whether an evaluator runs on a trace. One
// draw per decision; rand.Rand is not safe for concurrent use, so
// draws are serialized.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler creates a sampler seeded from the current time
func NewSampler() *Sampler {
	return NewSeededSampler(time.Now().UnixNano())
}

// NewSeededSampler creates a sampler with a fixed seed
func NewSeededSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// ShouldRun draws once against the effective sampling rate. A rate of
// 0.0 never runs, 1.0 always runs.
func (s *Sampler) ShouldRun(rate float64) bool {
	if rate >= 1.0 {
		return true
	}
	if rate <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < rate
}
