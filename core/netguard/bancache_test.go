package netguard

import (
	"context"
	"testing"
	"time"

	"falcon-hq/core/store"
)

func TestBanCacheServesSnapshotWithinTTL(t *testing.T) {
	bans := newFakeBansStore()
	bans.bans["1.2.3.4"] = store.BannedIP{IP: "1.2.3.4"}
	c := NewBanCache(bans, nil)
	ctx := context.Background()

	if !c.IsBanned(ctx, "1.2.3.4") {
		t.Fatalf("active ban not visible")
	}
	if c.IsBanned(ctx, "5.6.7.8") {
		t.Fatalf("unlisted IP reported banned")
	}

	// A ban added behind the cache's back stays invisible until the
	// snapshot expires or Invalidate is called.
	bans.bans["5.6.7.8"] = store.BannedIP{IP: "5.6.7.8"}
	if c.IsBanned(ctx, "5.6.7.8") {
		t.Fatalf("snapshot should not refresh within its TTL")
	}
	if got := bans.lists; got != 1 {
		t.Fatalf("expected a single refresh, store was listed %d times", got)
	}
}

func TestBanCacheInvalidateForcesRefresh(t *testing.T) {
	bans := newFakeBansStore()
	c := NewBanCache(bans, nil)
	ctx := context.Background()

	if c.IsBanned(ctx, "1.2.3.4") {
		t.Fatalf("empty store, nothing should be banned")
	}
	bans.bans["1.2.3.4"] = store.BannedIP{IP: "1.2.3.4"}
	c.Invalidate()
	if !c.IsBanned(ctx, "1.2.3.4") {
		t.Fatalf("invalidate should force the next check to refresh")
	}
}

func TestBanCacheRefreshesAfterTTL(t *testing.T) {
	bans := newFakeBansStore()
	c := NewBanCache(bans, nil)
	ctx := context.Background()

	base := time.Now()
	c.now = func() time.Time { return base }
	c.IsBanned(ctx, "1.2.3.4")

	bans.bans["1.2.3.4"] = store.BannedIP{IP: "1.2.3.4"}
	c.now = func() time.Time { return base.Add(61 * time.Second) }
	if !c.IsBanned(ctx, "1.2.3.4") {
		t.Fatalf("expired snapshot should refresh and pick up the ban")
	}
}

func TestBanCacheServesStaleOnRefreshFailure(t *testing.T) {
	bans := newFakeBansStore()
	bans.bans["1.2.3.4"] = store.BannedIP{IP: "1.2.3.4"}
	c := NewBanCache(bans, nil)
	ctx := context.Background()

	base := time.Now()
	c.now = func() time.Time { return base }
	if !c.IsBanned(ctx, "1.2.3.4") {
		t.Fatalf("initial load failed")
	}

	bans.fail = true
	c.now = func() time.Time { return base.Add(61 * time.Second) }
	if !c.IsBanned(ctx, "1.2.3.4") {
		t.Fatalf("stale snapshot should keep serving when refresh fails")
	}

	// The failed refresh pushed the retry out; the store is not hit
	// again on the very next request.
	listsAfterFailure := bans.lists
	c.IsBanned(ctx, "1.2.3.4")
	if bans.lists != listsAfterFailure {
		t.Fatalf("store should not be rehit immediately after a failed refresh")
	}
}

func TestBanCacheColdStartFailsOpen(t *testing.T) {
	bans := newFakeBansStore()
	bans.fail = true
	c := NewBanCache(bans, nil)

	if c.IsBanned(context.Background(), "1.2.3.4") {
		t.Fatalf("cold start with no snapshot must fail open")
	}
}
