// Package cache keeps time-boxed snapshots of store tables. A failed refresh
// falls back to the last snapshot, or to nothing, and is never an error.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTTL is how long a snapshot is served without refetching
const DefaultTTL = 300 * time.Second

// FetchFunc loads a fresh copy of a table
type FetchFunc func(ctx context.Context) ([][]string, error)

// Options configures a Cache
type Options struct {
	TTL time.Duration

	// Offline disables caching; every Get calls fetch.
	Offline bool

	Now func() time.Time
}

// Cache holds one snapshot per table key. Each key has its own lock, so a slow
// refresh of one table does not block reads of another, and concurrent readers
// of the same stale key share a single fetch.
type Cache struct {
	ttl     time.Duration
	offline bool
	now     func() time.Time
	logger  *logrus.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu        sync.Mutex
	values    [][]string
	fetchedAt time.Time
	loaded    bool
	fresh     bool
}

// New creates a cache
func New(opts Options, logger *logrus.Logger) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		ttl:     opts.TTL,
		offline: opts.Offline,
		now:     opts.Now,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

func (c *Cache) entry(key string) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

// Get returns the snapshot for key, refreshing it through fetch when it is
// missing, invalidated or older than the TTL.
func (c *Cache) Get(ctx context.Context, key string, fetch FetchFunc) [][]string {
	if c.offline {
		values, err := fetch(ctx)
		if err != nil {
			c.logger.WithField("table", key).WithError(err).Warn("Fetch failed in offline mode, returning empty result")
			return nil
		}
		return values
	}

	e := c.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := c.now()
	if e.loaded && e.fresh && now.Sub(e.fetchedAt) < c.ttl {
		return e.values
	}

	values, err := fetch(ctx)
	if err != nil {
		log := c.logger.WithField("table", key).WithError(err)
		if e.loaded {
			log.Warnf("Fetch failed, serving snapshot from %s", e.fetchedAt.Format(time.RFC3339))
			return e.values
		}
		log.Warn("Fetch failed and no snapshot exists, returning empty result")
		return nil
	}

	e.values = values
	e.fetchedAt = now
	e.loaded = true
	e.fresh = true
	return values
}

// Invalidate forces the next Get of key to refetch. The old snapshot is kept
// as the fallback for a failed refetch.
func (c *Cache) Invalidate(key string) {
	e := c.entry(key)
	e.mu.Lock()
	e.fresh = false
	e.mu.Unlock()
}

// Age returns how old the snapshot for key is, and false when none exists.
func (c *Cache) Age(key string) (time.Duration, bool) {
	e := c.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		return 0, false
	}
	return c.now().Sub(e.fetchedAt), true
}
