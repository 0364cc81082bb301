package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFixedWindowDenial(t *testing.T) {
	l := NewLocalLimiter(nil)
	cfg := Config{Name: "test", MaxRequests: 3, Window: time.Minute}
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d := l.Check(ctx, "1.2.3.4", cfg)
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i)
		}
		if d.Remaining != 3-i {
			t.Fatalf("request %d: remaining = %d, want %d", i, d.Remaining, 3-i)
		}
	}
	d := l.Check(ctx, "1.2.3.4", cfg)
	if d.Allowed || d.Remaining != 0 {
		t.Fatalf("4th request should be denied: %+v", d)
	}
	if d.ResetAt.Before(time.Now()) {
		t.Fatalf("reset time should be in the future")
	}

	// Other identifiers are unaffected.
	if d := l.Check(ctx, "5.6.7.8", cfg); !d.Allowed {
		t.Fatalf("unrelated identifier should be allowed")
	}
}

func TestWindowExpiryStartsFresh(t *testing.T) {
	l := NewLocalLimiter(nil)
	cfg := Config{Name: "short", MaxRequests: 1, Window: 30 * time.Millisecond}
	ctx := context.Background()

	if d := l.Check(ctx, "ip", cfg); !d.Allowed {
		t.Fatalf("first request should pass")
	}
	if d := l.Check(ctx, "ip", cfg); d.Allowed {
		t.Fatalf("second request should be denied")
	}
	time.Sleep(50 * time.Millisecond)
	if d := l.Check(ctx, "ip", cfg); !d.Allowed {
		t.Fatalf("request after window expiry should pass")
	}
}

func TestResetForgives(t *testing.T) {
	l := NewLocalLimiter(nil)
	cfg := Config{Name: "reset", MaxRequests: 1, Window: time.Minute}
	ctx := context.Background()

	l.Check(ctx, "ip", cfg)
	if d := l.Check(ctx, "ip", cfg); d.Allowed {
		t.Fatalf("should be denied before reset")
	}
	l.Reset(ctx, "ip", cfg)
	if d := l.Check(ctx, "ip", cfg); !d.Allowed {
		t.Fatalf("should be allowed after reset")
	}
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, time.Time, error) {
	return 0, time.Time{}, errors.New("backend down")
}

func (failingStore) Reset(context.Context, string) error {
	return errors.New("backend down")
}

func TestDistributedFallbackToLocal(t *testing.T) {
	l := NewLocalLimiter(nil)
	l.distributed = failingStore{}
	cfg := Config{Name: "fb", MaxRequests: 2, Window: time.Minute}
	ctx := context.Background()

	// The local fallback still enforces the window.
	l.Check(ctx, "ip", cfg)
	l.Check(ctx, "ip", cfg)
	if d := l.Check(ctx, "ip", cfg); d.Allowed {
		t.Fatalf("fallback store should deny the 3rd request")
	}
}

func TestPenaltyProgression(t *testing.T) {
	tr := NewPenaltyTracker()
	base := 60 * time.Second

	p1 := tr.RecordViolation("ip", base, 2)
	if p1 != base {
		t.Fatalf("violation 1 penalty = %v, want %v", p1, base)
	}
	p2 := tr.RecordViolation("ip", base, 2)
	if p2 != 2*base {
		t.Fatalf("violation 2 penalty = %v, want %v", p2, 2*base)
	}
	p3 := tr.RecordViolation("ip", base, 2)
	if p3 != 4*base || p3 < p2 {
		t.Fatalf("violation 3 penalty = %v, want %v", p3, 4*base)
	}

	penalized, remaining := tr.IsPenalized("ip")
	if !penalized || remaining <= 0 {
		t.Fatalf("should be penalized: %v %v", penalized, remaining)
	}
	if ok, _ := tr.IsPenalized("other"); ok {
		t.Fatalf("unrelated identifier penalized")
	}
}

func TestPenaltyCap(t *testing.T) {
	tr := NewPenaltyTracker()
	p := tr.RecordViolation("ip", 23*time.Hour, 10)
	if p != penaltyCap {
		t.Fatalf("first big penalty should hit cap: %v", p)
	}
	if p := tr.RecordViolation("ip", 23*time.Hour, 10); p != penaltyCap {
		t.Fatalf("penalty must stay capped at 24h, got %v", p)
	}
}

func TestPenaltyForgiveness(t *testing.T) {
	tr := NewPenaltyTracker()
	base := time.Minute
	tr.RecordViolation("ip", base, 2)
	tr.RecordViolation("ip", base, 2)

	// Simulate 24h elapsing since the last violation.
	tr.entries.Delete("ip")
	if p := tr.RecordViolation("ip", base, 2); p != base {
		t.Fatalf("forgiveness should reset to base, got %v", p)
	}
}

func TestPenaltyExpiresByClock(t *testing.T) {
	tr := NewPenaltyTracker()
	tr.RecordViolation("ip", 40*time.Millisecond, 2)
	if ok, _ := tr.IsPenalized("ip"); !ok {
		t.Fatalf("should be penalized immediately after violation")
	}
	tr.now = func() time.Time { return time.Now().Add(time.Second) }
	if ok, _ := tr.IsPenalized("ip"); ok {
		t.Fatalf("penalty should have lapsed")
	}
}
