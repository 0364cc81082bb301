package netguard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"falcon-hq/core/store"
)

// fakeBansStore records upserts in memory and can be told to fail.
type fakeBansStore struct {
	mu    sync.Mutex
	bans  map[string]store.BannedIP
	fail  bool
	lists int
}

func newFakeBansStore() *fakeBansStore {
	return &fakeBansStore{bans: map[string]store.BannedIP{}}
}

func (f *fakeBansStore) Upsert(_ context.Context, b *store.BannedIP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("store down")
	}
	f.bans[b.IP] = *b
	return nil
}

func (f *fakeBansStore) FindByIP(_ context.Context, ip string) (*store.BannedIP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bans[ip]; ok {
		out := b
		return &out, nil
	}
	return nil, nil
}

func (f *fakeBansStore) ListActive(_ context.Context, now time.Time) ([]store.BannedIP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.fail {
		return nil, errors.New("store down")
	}
	var out []store.BannedIP
	for _, b := range f.bans {
		if b.ExpiresAt == nil || b.ExpiresAt.After(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBansStore) Delete(_ context.Context, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.bans, ip)
	return nil
}

func (f *fakeBansStore) has(ip string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.bans[ip]
	return ok
}

func TestThreatCountThreshold(t *testing.T) {
	bans := newFakeBansStore()
	tr := NewTracker(bans, nil, nil)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if banned := tr.RecordThreats(ctx, "9.9.9.9", []ThreatKind{ThreatSQLInjection}); banned {
			t.Fatalf("banned after only %d hits", i+1)
		}
	}
	if bans.has("9.9.9.9") {
		t.Fatalf("no ban should exist before the 5th hit")
	}
	if banned := tr.RecordThreats(ctx, "9.9.9.9", []ThreatKind{ThreatSQLInjection}); !banned {
		t.Fatalf("5th hit should ban")
	}
	if !bans.has("9.9.9.9") {
		t.Fatalf("ban not persisted")
	}
}

func TestDistinctKindsThreshold(t *testing.T) {
	bans := newFakeBansStore()
	tr := NewTracker(bans, nil, nil)
	ctx := context.Background()

	if tr.RecordThreats(ctx, "8.8.8.8", []ThreatKind{ThreatXSS}) {
		t.Fatalf("single kind, single hit must not ban")
	}
	if !tr.RecordThreats(ctx, "8.8.8.8", []ThreatKind{ThreatSQLInjection}) {
		t.Fatalf("second distinct kind should ban before 5 hits")
	}
}

func TestWindowResetsAfterInactivity(t *testing.T) {
	bans := newFakeBansStore()
	tr := NewTracker(bans, nil, nil)
	ctx := context.Background()

	base := time.Now()
	tr.now = func() time.Time { return base }
	for i := 0; i < 4; i++ {
		tr.RecordThreats(ctx, "7.7.7.7", []ThreatKind{ThreatXSS})
	}
	// 61 seconds of silence resets the tracking entry.
	tr.now = func() time.Time { return base.Add(61 * time.Second) }
	if tr.RecordThreats(ctx, "7.7.7.7", []ThreatKind{ThreatXSS}) {
		t.Fatalf("stale entry should have been reset, not banned")
	}
}

func TestFailedLoginThreshold(t *testing.T) {
	bans := newFakeBansStore()
	tr := NewTracker(bans, nil, nil)
	ctx := context.Background()

	for i := 1; i <= 9; i++ {
		if tr.RecordFailedLogin(ctx, "6.6.6.6") {
			t.Fatalf("banned after only %d failures", i)
		}
	}
	if !tr.RecordFailedLogin(ctx, "6.6.6.6") {
		t.Fatalf("10th failure should ban")
	}
	b, _ := bans.FindByIP(ctx, "6.6.6.6")
	if b == nil || b.BannedBy != store.SystemActor {
		t.Fatalf("expected system ban record, got %+v", b)
	}
}

func TestFloodBanHasShorterExpiry(t *testing.T) {
	bans := newFakeBansStore()
	tr := NewTracker(bans, nil, nil)
	ctx := context.Background()

	var banned bool
	for i := 0; i < 100; i++ {
		banned = tr.RecordRequest(ctx, "5.5.5.5")
	}
	if !banned {
		t.Fatalf("100 requests in a minute should ban")
	}
	b, _ := bans.FindByIP(ctx, "5.5.5.5")
	if b == nil || b.ExpiresAt == nil {
		t.Fatalf("flood ban must carry an expiry")
	}
	if until := time.Until(*b.ExpiresAt); until > 2*time.Hour {
		t.Fatalf("flood ban should last about an hour, got %v", until)
	}
}

func TestRequestVolumeDoesNotFeedThreatCounter(t *testing.T) {
	bans := newFakeBansStore()
	tr := NewTracker(bans, nil, nil)
	ctx := context.Background()

	// A normally browsing client racks up plain requests; its first
	// suspicious one must not count as the 5th threat hit.
	for i := 0; i < 4; i++ {
		tr.RecordRequest(ctx, "9.9.9.9")
	}
	if tr.RecordThreats(ctx, "9.9.9.9", []ThreatKind{ThreatXSS}) {
		t.Fatalf("one threat hit after plain traffic must not ban")
	}
	if bans.has("9.9.9.9") {
		t.Fatalf("no ban record should exist")
	}

	// And the other way round: threat hits do not count as flood volume.
	for i := 0; i < 3; i++ {
		tr.RecordThreats(ctx, "9.9.9.8", []ThreatKind{ThreatXSS})
	}
	for i := 0; i < 97; i++ {
		if tr.RecordRequest(ctx, "9.9.9.8") {
			t.Fatalf("flood ban after only %d plain requests", i+1)
		}
	}
}

func TestBanClearsTrackingEntry(t *testing.T) {
	bans := newFakeBansStore()
	tr := NewTracker(bans, nil, nil)
	ctx := context.Background()

	tr.RecordThreats(ctx, "4.4.4.4", []ThreatKind{ThreatXSS, ThreatSQLInjection})
	tr.mu.Lock()
	_, ok := tr.entries["4.4.4.4"]
	tr.mu.Unlock()
	if ok {
		t.Fatalf("tracking entry should be cleared after a ban")
	}
}

func TestBanPersistFailureDoesNotPanic(t *testing.T) {
	bans := newFakeBansStore()
	bans.fail = true
	tr := NewTracker(bans, nil, nil)
	ctx := context.Background()

	// The ban attempt fails but the caller still gets the banned verdict
	// and the request proceeds normally.
	if !tr.RecordThreats(ctx, "3.3.3.3", []ThreatKind{ThreatXSS, ThreatSQLInjection}) {
		t.Fatalf("threshold crossing should still report a ban")
	}
}

func TestSweepDropsStaleEntries(t *testing.T) {
	bans := newFakeBansStore()
	tr := NewTracker(bans, nil, nil)
	ctx := context.Background()

	base := time.Now()
	tr.now = func() time.Time { return base }
	tr.RecordThreats(ctx, "2.2.2.2", []ThreatKind{ThreatXSS})
	tr.now = func() time.Time { return base.Add(3 * time.Minute) }
	tr.Sweep()

	tr.mu.Lock()
	_, ok := tr.entries["2.2.2.2"]
	tr.mu.Unlock()
	if ok {
		t.Fatalf("sweep should drop entries older than twice the window")
	}
}
