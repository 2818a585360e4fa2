package application

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Random is a goroutine-safe source for demo data. Handlers share one
// instance; tests construct it with a fixed seed.
type Random struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandom returns a Random seeded deterministically from seed.
func NewRandom(seed uint64) *Random {
	return &Random{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewTimeSeededRandom returns a Random seeded from the wall clock.
func NewTimeSeededRandom() *Random {
	return NewRandom(uint64(time.Now().UnixNano()))
}

// IntBetween returns a value in [lo, hi].
func (r *Random) IntBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo + r.r.IntN(hi-lo+1)
}

// FloatBetween returns a value in [lo, hi).
func (r *Random) FloatBetween(lo, hi float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo + r.r.Float64()*(hi-lo)
}

// Duration returns a value in [0, max).
func (r *Random) Duration(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Duration(r.r.Int64N(int64(max)))
}

// Pick returns a random element of items. items must not be empty.
func Pick[T any](r *Random, items []T) T {
	return items[r.IntBetween(0, len(items)-1)]
}
