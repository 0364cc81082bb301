package netguard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"falcon-hq/core/store"
	"falcon-hq/core/utils"
)

const (
	trackingWindow      = 60 * time.Second
	threatBanCount      = 5
	threatBanKinds      = 2
	failedLoginBanCount = 10
	floodBanCount       = 100
	autoBanTTL          = 24 * time.Hour
	floodBanTTL         = time.Hour
)

type trackEntry struct {
	count        int
	kinds        map[ThreatKind]struct{}
	failedLogins int
	requests     int
	lastSeen     time.Time
}

// Tracker accumulates suspicious signals per source IP and escalates to a
// persisted ban once thresholds are crossed. Entries reset after 60 seconds
// of inactivity; expiry is checked lazily on every access, the periodic
// Sweep only reclaims memory.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*trackEntry

	bans   store.BansStore
	cache  *BanCache
	logger *utils.Logger
	now    func() time.Time
}

func NewTracker(bans store.BansStore, cache *BanCache, logger *utils.Logger) *Tracker {
	return &Tracker{
		entries: map[string]*trackEntry{},
		bans:    bans,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}
}

func (t *Tracker) entryFor(ip string, now time.Time) *trackEntry {
	e, ok := t.entries[ip]
	if !ok || now.Sub(e.lastSeen) > trackingWindow {
		e = &trackEntry{kinds: map[ThreatKind]struct{}{}}
		t.entries[ip] = e
	}
	e.lastSeen = now
	return e
}

// RecordThreats feeds detected threat kinds for one request. Returns true
// when the IP got banned as a consequence.
func (t *Tracker) RecordThreats(ctx context.Context, ip string, kinds []ThreatKind) bool {
	if len(kinds) == 0 || ip == "" {
		return false
	}
	t.mu.Lock()
	now := t.now()
	e := t.entryFor(ip, now)
	e.count++
	for _, k := range kinds {
		e.kinds[k] = struct{}{}
	}
	shouldBan := e.count >= threatBanCount || len(e.kinds) >= threatBanKinds
	var reason string
	if shouldBan {
		reason = fmt.Sprintf("[auto] suspicious activity: %s (%d hits)", joinKinds(e.kinds), e.count)
		delete(t.entries, ip)
	}
	t.mu.Unlock()

	if !shouldBan {
		return false
	}
	t.ban(ctx, ip, reason, autoBanTTL)
	return true
}

// RecordFailedLogin counts authentication failures under the same per-IP
// window. Ten failures trigger a ban.
func (t *Tracker) RecordFailedLogin(ctx context.Context, ip string) bool {
	if ip == "" {
		return false
	}
	t.mu.Lock()
	now := t.now()
	e := t.entryFor(ip, now)
	e.failedLogins++
	shouldBan := e.failedLogins >= failedLoginBanCount
	var reason string
	if shouldBan {
		reason = fmt.Sprintf("[auto] %d failed login attempts", e.failedLogins)
		delete(t.entries, ip)
	}
	t.mu.Unlock()

	if !shouldBan {
		return false
	}
	t.ban(ctx, ip, reason, autoBanTTL)
	return true
}

// RecordRequest counts raw request volume. A flood earns a shorter ban than
// pattern-based detections: it throttles rather than blocks.
func (t *Tracker) RecordRequest(ctx context.Context, ip string) bool {
	if ip == "" {
		return false
	}
	t.mu.Lock()
	now := t.now()
	e := t.entryFor(ip, now)
	e.requests++
	shouldBan := e.requests >= floodBanCount
	var reason string
	if shouldBan {
		reason = fmt.Sprintf("[auto] request flood: %d requests in under a minute", e.requests)
		delete(t.entries, ip)
	}
	t.mu.Unlock()

	if !shouldBan {
		return false
	}
	t.ban(ctx, ip, reason, floodBanTTL)
	return true
}

// ban persists the ban and makes it visible to the next request. Failures
// are logged only: security bookkeeping never fails the original request.
func (t *Tracker) ban(ctx context.Context, ip, reason string, ttl time.Duration) {
	expires := t.now().Add(ttl).UTC()
	err := t.bans.Upsert(ctx, &store.BannedIP{
		IP:        ip,
		Reason:    reason,
		BannedBy:  store.SystemActor,
		ExpiresAt: &expires,
	})
	if err != nil {
		if t.logger != nil {
			t.logger.Errorf("auto-ban persist failed for %s: %v", ip, err)
		}
		return
	}
	if t.cache != nil {
		t.cache.Invalidate()
	}
	if t.logger != nil {
		t.logger.Printf("auto-ban issued for %s: %s", ip, reason)
	}
}

// Sweep drops entries idle for more than twice the tracking window. Pure
// memory hygiene; correctness relies on the lazy reset in entryFor.
func (t *Tracker) Sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-2 * trackingWindow)
	for ip, e := range t.entries {
		if e.lastSeen.Before(cutoff) {
			delete(t.entries, ip)
		}
	}
}

func joinKinds(kinds map[ThreatKind]struct{}) string {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
