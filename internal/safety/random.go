package safety

import (
	"math"
	"math/rand/v2"
	"sync"
)

// Random is a seedable PRNG safe for concurrent use. The generator is shared
// by HTTP handlers and every listener's push loop.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a PCG-backed source. A zero seed picks a random seed.
func NewRandom(seed uint64) *Random {
	if seed == 0 {
		return &Random{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
	}
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntN returns an int in [0, n).
func (r *Random) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

// Float64 returns a float in [0, 1).
func (r *Random) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Float64()
}

// Between returns an int in [lo, hi].
func (r *Random) Between(lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}

// Uniform returns a float in [lo, hi] rounded to two decimals.
func (r *Random) Uniform(lo, hi float64) float64 {
	return round2(lo + r.Float64()*(hi-lo))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
