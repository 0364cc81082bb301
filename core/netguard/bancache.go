package netguard

import (
	"context"
	"sync"
	"time"

	"falcon-hq/core/store"
	"falcon-hq/core/utils"
)

const banCacheTTL = 60 * time.Second

// BanCache mirrors the set of currently active bans so the per-request
// check stays off the database. Refresh replaces the whole set atomically.
// A failed refresh keeps serving the previous snapshot; only a cold start
// with no snapshot at all fails open.
type BanCache struct {
	mu       sync.RWMutex
	ips      map[string]struct{}
	loadedAt time.Time
	loaded   bool

	bans   store.BansStore
	logger *utils.Logger
	ttl    time.Duration
	now    func() time.Time
}

func NewBanCache(bans store.BansStore, logger *utils.Logger) *BanCache {
	return &BanCache{
		bans:   bans,
		logger: logger,
		ttl:    banCacheTTL,
		now:    time.Now,
	}
}

func (c *BanCache) IsBanned(ctx context.Context, ip string) bool {
	c.mu.RLock()
	fresh := c.loaded && c.now().Sub(c.loadedAt) < c.ttl
	if fresh {
		_, banned := c.ips[ip]
		c.mu.RUnlock()
		return banned
	}
	c.mu.RUnlock()

	c.refresh(ctx)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		// Never loaded successfully; blocking everyone on a cold start
		// is worse than a brief detection gap.
		return false
	}
	_, banned := c.ips[ip]
	return banned
}

// Invalidate forces the next check to refresh regardless of TTL. Called by
// every ban/unban mutation.
func (c *BanCache) Invalidate() {
	c.mu.Lock()
	c.loadedAt = time.Time{}
	c.mu.Unlock()
}

func (c *BanCache) refresh(ctx context.Context) {
	now := c.now()
	active, err := c.bans.ListActive(ctx, now)
	if err != nil {
		if c.logger != nil {
			c.logger.Errorf("ban cache refresh failed, serving stale snapshot: %v", err)
		}
		c.mu.Lock()
		if c.loaded {
			// Push the retry out a full TTL so a down store is not
			// hammered on every request.
			c.loadedAt = now
		}
		c.mu.Unlock()
		return
	}
	next := make(map[string]struct{}, len(active))
	for _, b := range active {
		next[b.IP] = struct{}{}
	}
	c.mu.Lock()
	c.ips = next
	c.loadedAt = now
	c.loaded = true
	c.mu.Unlock()
}
