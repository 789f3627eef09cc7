package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pizza-nz/lunch-bot/internal/logging"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type source struct {
	calls  atomic.Int32
	fail   atomic.Bool
	values [][]string
}

func (s *source) fetch(ctx context.Context) ([][]string, error) {
	s.calls.Add(1)
	if s.fail.Load() {
		return nil, errors.New("quota exceeded")
	}
	return s.values, nil
}

func newCache(clk *clock, offline bool) *Cache {
	return New(Options{TTL: 300 * time.Second, Offline: offline, Now: clk.Now}, logging.Discard())
}

func TestGetServesFreshSnapshot(t *testing.T) {
	clk := &clock{now: time.Date(2024, 12, 7, 9, 0, 0, 0, time.UTC)}
	c := newCache(clk, false)
	src := &source{values: [][]string{{"ID"}, {"1"}}}

	c.Get(context.Background(), "menu", src.fetch)
	clk.Advance(299 * time.Second)
	got := c.Get(context.Background(), "menu", src.fetch)

	if src.calls.Load() != 1 {
		t.Fatalf("expected 1 fetch, got %d", src.calls.Load())
	}
	if len(got) != 2 {
		t.Fatalf("unexpected values %v", got)
	}

	clk.Advance(time.Second)
	c.Get(context.Background(), "menu", src.fetch)
	if src.calls.Load() != 2 {
		t.Fatalf("expected refetch at ttl, got %d fetches", src.calls.Load())
	}
}

func TestGetFallsBackToStaleSnapshot(t *testing.T) {
	clk := &clock{now: time.Date(2024, 12, 7, 9, 0, 0, 0, time.UTC)}
	c := newCache(clk, false)
	src := &source{values: [][]string{{"ID"}, {"1"}}}

	c.Get(context.Background(), "orders", src.fetch)
	clk.Advance(time.Hour)
	src.fail.Store(true)

	got := c.Get(context.Background(), "orders", src.fetch)
	if len(got) != 2 || got[1][0] != "1" {
		t.Fatalf("expected stale snapshot, got %v", got)
	}
	if age, ok := c.Age("orders"); !ok || age != time.Hour {
		t.Fatalf("expected 1h old snapshot, got %v %v", age, ok)
	}
}

func TestGetWithoutSnapshotReturnsEmpty(t *testing.T) {
	c := newCache(&clock{}, false)
	src := &source{}
	src.fail.Store(true)

	if got := c.Get(context.Background(), "employees", src.fetch); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	c := newCache(&clock{}, false)
	src := &source{values: [][]string{{"ID"}}}

	c.Get(context.Background(), "menu", src.fetch)
	c.Invalidate("menu")
	src.values = [][]string{{"ID"}, {"2"}}

	got := c.Get(context.Background(), "menu", src.fetch)
	if len(got) != 2 {
		t.Fatalf("expected the write to be visible, got %v", got)
	}

	// A failed refetch after invalidation still has the old snapshot.
	c.Invalidate("menu")
	src.fail.Store(true)
	if got := c.Get(context.Background(), "menu", src.fetch); len(got) != 2 {
		t.Fatalf("expected fallback snapshot, got %v", got)
	}
}

func TestOfflineAlwaysFetches(t *testing.T) {
	c := newCache(&clock{}, true)
	src := &source{values: [][]string{{"ID"}}}

	for i := 0; i < 3; i++ {
		c.Get(context.Background(), "settings", src.fetch)
	}
	if src.calls.Load() != 3 {
		t.Fatalf("expected 3 fetches, got %d", src.calls.Load())
	}
}

func TestConcurrentGetSharesFetch(t *testing.T) {
	c := newCache(&clock{}, false)
	src := &source{values: [][]string{{"ID"}}}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Get(context.Background(), "menu", src.fetch)
			c.Invalidate("orders")
		}()
	}
	wg.Wait()

	if src.calls.Load() != 1 {
		t.Fatalf("expected a single fetch, got %d", src.calls.Load())
	}
}
