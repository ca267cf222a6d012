// Package throttle provides a per-key minimum-interval gate for rate-limiting
// repeated log warnings from chronically failing lookups.
package throttle

import (
	"sync"
	"time"
)

// Gate allows an action per key at most once per interval. Safe for
// concurrent use from message callbacks and timer ticks.
type Gate struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// New creates a Gate with the given minimum interval between allowed
// actions for the same key. A non-positive interval allows everything.
func New(interval time.Duration) *Gate {
	return &Gate{
		interval: interval,
		now:      time.Now,
		last:     make(map[string]time.Time),
	}
}

// Allow reports whether the action identified by key may run now, and if so
// records the occurrence.
func (g *Gate) Allow(key string) bool {
	if g.interval <= 0 {
		return true
	}

	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.last[key]; ok && now.Sub(last) < g.interval {
		return false
	}
	g.last[key] = now
	return true
}
