// Package timeline converts absolute source timestamps into a session-relative
// timeline anchored at the first timestamp observed across all sources.
//
// The anchor is an approximation of session start: if two sources begin
// publishing with a large clock skew before either produces its first message,
// one source's timeline will appear offset relative to the other. That is the
// accepted trade-off for a single comparable timeline.
package timeline

import (
	"sync"
	"time"
)

// Normalizer maps absolute timestamps to seconds since the session origin.
// The origin is captured exactly once, under a mutex, so concurrent first
// calls from different callback goroutines see a single consistent value.
type Normalizer struct {
	mu          sync.Mutex
	initialized bool
	origin      time.Time
}

// New returns a Normalizer whose origin will be captured lazily on the first
// Normalize call.
func New() *Normalizer {
	return &Normalizer{}
}

// InitAt fixes the origin explicitly, for callers that know the session start
// up front. The bridge itself never calls it: the origin must be the stamp of
// the first message observed, which is unknowable at startup, so the lazy
// capture in Normalize is the production path. Calls after the origin is set
// are no-ops.
func (n *Normalizer) InitAt(t time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.initialized {
		return
	}
	n.origin = t
	n.initialized = true
}

// Normalize returns t relative to the session origin, in seconds. The first
// call (if InitAt was never used) records t as the origin and returns 0.
func (n *Normalizer) Normalize(t time.Time) float64 {
	n.mu.Lock()
	if !n.initialized {
		n.origin = t
		n.initialized = true
	}
	origin := n.origin
	n.mu.Unlock()

	return t.Sub(origin).Seconds()
}

// Origin returns the captured origin and whether it has been set.
func (n *Normalizer) Origin() (time.Time, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.origin, n.initialized
}
