package t212

import (
	"sync"
	"time"
)

// rateGate enforces a minimum interval between calls to the remote API.
// It is process-wide shared state: the timer-driven refresh and a manual
// "refresh now" go through the same gate. A call arriving early fails
// immediately with RateLimitedError; nothing ever blocks or queues here.
type rateGate struct {
	mu   sync.Mutex
	min  time.Duration
	now  func() time.Time // injectable for tests
	last time.Time
}

func newRateGate(min time.Duration) *rateGate {
	return &rateGate{min: min, now: time.Now}
}

// take claims the gate for one call. On success the interval restarts from
// now, whether or not the call itself ends up succeeding: a failed request
// still hit the upstream.
func (g *rateGate) take() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if !g.last.IsZero() {
		if elapsed := now.Sub(g.last); elapsed < g.min {
			return &RateLimitedError{Remaining: g.min - elapsed}
		}
	}
	g.last = now
	return nil
}

// backoff pushes the next allowed call out to now+d, used when the upstream
// itself answers 429 with a Retry-After longer than our own interval.
func (g *rateGate) backoff(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	until := g.now().Add(d)
	if next := g.last.Add(g.min); until.After(next) {
		g.last = until.Add(-g.min)
	}
}
