package registry

import (
	"context"
	"sync"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

// Cached memoizes another provider for a short TTL so per-request engine
// lookups do not fan out to the registry service. Negative answers are
// cached with the same TTL, which bounds the lag before a newly created
// resource becomes bookable here.
type Cached struct {
	inner Provider
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	exists    bool
	tpl       model.WeeklyTemplate
	expiresAt time.Time
}

func NewCached(inner Provider, ttl time.Duration) *Cached {
	return &Cached{
		inner:   inner,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cached) Exists(ctx context.Context, resourceID string) (bool, error) {
	e, err := c.lookup(ctx, resourceID)
	if err != nil {
		return false, err
	}
	return e.exists, nil
}

func (c *Cached) WeeklyTemplate(ctx context.Context, resourceID string) (model.WeeklyTemplate, error) {
	e, err := c.lookup(ctx, resourceID)
	if err != nil {
		return model.WeeklyTemplate{}, err
	}
	if !e.exists {
		return model.WeeklyTemplate{}, ErrUnknownResource
	}
	return e.tpl, nil
}

func (c *Cached) lookup(ctx context.Context, resourceID string) (cacheEntry, error) {
	c.mu.Lock()
	e, ok := c.entries[resourceID]
	c.mu.Unlock()
	if ok && time.Now().Before(e.expiresAt) {
		return e, nil
	}

	fresh, err := c.fetch(ctx, resourceID)
	if err != nil {
		// Serve a stale entry over failing the request outright.
		if ok {
			return e, nil
		}
		return cacheEntry{}, err
	}

	c.mu.Lock()
	c.entries[resourceID] = fresh
	c.mu.Unlock()
	return fresh, nil
}

func (c *Cached) fetch(ctx context.Context, resourceID string) (cacheEntry, error) {
	entry := cacheEntry{expiresAt: time.Now().Add(c.ttl)}

	exists, err := c.inner.Exists(ctx, resourceID)
	if err != nil {
		return cacheEntry{}, err
	}
	entry.exists = exists
	if !exists {
		return entry, nil
	}

	tpl, err := c.inner.WeeklyTemplate(ctx, resourceID)
	if err != nil {
		return cacheEntry{}, err
	}
	entry.tpl = tpl
	return entry, nil
}
