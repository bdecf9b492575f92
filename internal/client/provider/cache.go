package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/GregMSThompson/finboard/internal/binding"
	"github.com/GregMSThompson/finboard/internal/dto"
)

// DefaultDedupeTTL is how long a fetched document answers identical requests.
const DefaultDedupeTTL = 5 * time.Second

// sharedFetchTimeout bounds a coalesced fetch once its callers are gone.
const sharedFetchTimeout = time.Minute

// Fetcher performs one provider call.
type Fetcher interface {
	Fetch(ctx context.Context, req dto.FetchRequest) (binding.Value, error)
}

// entry stores one fetched document with its expiry.
type entry struct {
	expiresAt time.Time
	doc       binding.Value
}

// Cache coalesces identical requests: concurrent callers share one upstream
// call and its result answers repeats for TTL. Errors are never cached.
type Cache struct {
	F        Fetcher
	TTL      time.Duration
	MaxItems int

	now   func() time.Time
	group singleflight.Group

	mu    sync.RWMutex
	items map[string]entry // key: provider, endpoint and params
}

func NewCache(f Fetcher, ttl time.Duration, maxItems int) *Cache {
	return &Cache{F: f, TTL: ttl, MaxItems: maxItems, now: time.Now, items: make(map[string]entry)}
}

func (c *Cache) Fetch(ctx context.Context, req dto.FetchRequest) (binding.Value, error) {
	if c.TTL <= 0 {
		return c.F.Fetch(ctx, req)
	}
	key := cacheKey(req)

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expiresAt) {
		return e.doc, nil
	}

	// The shared call outlives any single caller; each caller only stops
	// waiting when its own context ends.
	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		doc, err := c.F.Fetch(fetchCtx, req)
		if err != nil {
			return nil, err
		}
		c.store(key, doc)
		return doc, nil
	})
	select {
	case <-ctx.Done():
		return binding.Value{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return binding.Value{}, res.Err
		}
		return res.Val.(binding.Value), nil
	}
}

func (c *Cache) store(key string, doc binding.Value) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{expiresAt: now.Add(c.TTL), doc: doc}

	if c.MaxItems > 0 && len(c.items) > c.MaxItems {
		// expired first, then arbitrary
		for k, v := range c.items {
			if now.After(v.expiresAt) {
				delete(c.items, k)
			}
		}
		for k := range c.items {
			if len(c.items) <= c.MaxItems {
				break
			}
			if k != key {
				delete(c.items, k)
			}
		}
	}
}

// cacheKey is stable for equal params regardless of map order.
func cacheKey(req dto.FetchRequest) string {
	return req.Provider + "|" + req.Endpoint + "|" + binding.FromAny(req.Params).JSON()
}
