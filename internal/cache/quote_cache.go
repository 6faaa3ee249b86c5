package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"coinpricebot/internal/domain"

	"golang.org/x/sync/singleflight"
)

// QuoteCache memoizes aggregated quotes per symbol for a fixed TTL.
//
// Refreshes are deduplicated with a per-symbol singleflight group: when a
// missing or expired entry is requested concurrently, one caller performs
// the upstream refresh and the rest share its result. Each refresh
// attempt is stamped with a monotonic sequence so that a slow attempt
// finishing late can never replace an entry installed by a newer one.
//
// Entries are never evicted; the key space is bounded by the registry.
type QuoteCache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group
	seq   atomic.Uint64

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	quote *domain.Quote
	seq   uint64
}

func NewQuoteCache(ttl time.Duration) *QuoteCache {
	return &QuoteCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// GetOrRefresh returns the live cached quote for symbol, or runs refresh
// to produce one. At most one refresh per symbol is in flight at any time.
func (c *QuoteCache) GetOrRefresh(ctx context.Context, symbol string, refresh func(context.Context) (*domain.Quote, error)) (*domain.Quote, error) {
	if q, ok := c.lookup(symbol); ok {
		return q, nil
	}

	v, err, _ := c.group.Do(symbol, func() (any, error) {
		// A concurrent flight may have refreshed while we queued.
		if q, ok := c.lookup(symbol); ok {
			return q, nil
		}

		attempt := c.seq.Add(1)
		q, err := refresh(ctx)
		if err != nil {
			return nil, err
		}
		q.CachedAt = c.now()
		return c.install(symbol, q, attempt), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Quote), nil
}

func (c *QuoteCache) lookup(symbol string) (*domain.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[symbol]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.quote.CachedAt.Add(c.ttl)) {
		return nil, false
	}
	return e.quote, true
}

// install stores q unless an entry from a newer refresh attempt is
// already present; it returns whichever quote ends up installed.
func (c *QuoteCache) install(symbol string, q *domain.Quote, attempt uint64) *domain.Quote {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[symbol]; ok && e.seq >= attempt {
		return e.quote
	}
	c.entries[symbol] = cacheEntry{quote: q, seq: attempt}
	return q
}
