package t212

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Fetcher produces a fresh positions snapshot from the upstream API.
type Fetcher interface {
	FetchPositions(ctx context.Context) (*Snapshot, error)
}

// PositionCache serves position snapshots with a time-to-live. Within the
// TTL every read is answered from memory without touching the upstream; past
// it the cache fetches, and on fetch failure it degrades to the stale
// snapshot rather than answering with nothing.
type PositionCache struct {
	mu      sync.Mutex
	fetcher Fetcher
	ttl     time.Duration
	now     func() time.Time
	log     zerolog.Logger

	current *Snapshot
	onFresh func(*Snapshot)
}

// NewPositionCache builds a cache around the fetcher. onFresh, if non-nil,
// is called with every fresh snapshot before it is published to readers;
// this is where price observation and durable caching hook in. It may be
// nil.
func NewPositionCache(fetcher Fetcher, ttl time.Duration, log zerolog.Logger, onFresh func(*Snapshot)) *PositionCache {
	return &PositionCache{
		fetcher: fetcher,
		ttl:     ttl,
		now:     time.Now,
		log:     log.With().Str("component", "cache").Logger(),
		onFresh: onFresh,
	}
}

// Seed installs a previously persisted snapshot as the starting state, so a
// restart does not force an immediate upstream call. A nil snapshot is a
// no-op.
func (c *PositionCache) Seed(snap *Snapshot) {
	if snap == nil {
		return
	}
	c.mu.Lock()
	c.current = snap
	c.mu.Unlock()
}

// Current returns the cached snapshot without fetching, or nil if the cache
// has never been filled.
func (c *PositionCache) Current() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Get returns the cached snapshot when it is younger than the TTL, fetching
// a fresh one otherwise. When the fetch fails and a stale snapshot exists,
// the stale snapshot is returned with a nil error: position data ages
// gracefully, it does not disappear.
func (c *PositionCache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.Age(c.now()) < c.ttl {
		return c.current, nil
	}
	return c.refreshLocked(ctx)
}

// Refresh bypasses the TTL and fetches now. The upstream rate gate still
// applies; the same degrade-to-stale rule as Get governs failures.
func (c *PositionCache) Refresh(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

func (c *PositionCache) refreshLocked(ctx context.Context) (*Snapshot, error) {
	snap, err := c.fetcher.FetchPositions(ctx)
	if err != nil {
		if c.current != nil && degradable(err) {
			c.log.Warn().Err(err).
				Dur("age", c.current.Age(c.now())).
				Msg("fetch failed, serving stale snapshot")
			return c.current, nil
		}
		return nil, err
	}
	if c.onFresh != nil {
		c.onFresh(snap)
	}
	c.current = snap
	c.log.Debug().Int("positions", len(snap.Positions)).Msg("snapshot refreshed")
	return snap, nil
}

// degradable reports whether a fetch failure is safe to paper over with
// stale data. Auth failures are not: serving cached positions against bad
// credentials would hide a problem the user must fix.
func degradable(err error) bool {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return true
	}
	var up *UpstreamError
	if errors.As(err, &up) {
		return up.Kind != UpstreamAuth
	}
	return false
}
