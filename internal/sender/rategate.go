package sender

import (
	"sync"
	"time"
)

// RateGate limits how fast a single sender may submit messages. Allow
// reports whether one more send is permitted right now and, if so, counts
// it.
type RateGate interface {
	Allow(sender string) bool
}

// slidingWindowGate counts sends per sender over a sliding window.
type slidingWindowGate struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	sends  map[string][]time.Time
	now    func() time.Time
}

// NewSlidingWindowGate creates a RateGate allowing limit sends per sender
// per window.
func NewSlidingWindowGate(limit int, window time.Duration) RateGate {
	return &slidingWindowGate{
		limit:  limit,
		window: window,
		sends:  make(map[string][]time.Time),
		now:    time.Now,
	}
}

func (g *slidingWindowGate) Allow(sender string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	cutoff := now.Add(-g.window)

	recent := g.sends[sender][:0]
	for _, t := range g.sends[sender] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= g.limit {
		g.sends[sender] = recent
		return false
	}

	g.sends[sender] = append(recent, now)
	return true
}

// UnlimitedGate is a RateGate that never refuses. Used in tests and when
// rate limiting is disabled.
type UnlimitedGate struct{}

func (UnlimitedGate) Allow(string) bool { return true }
