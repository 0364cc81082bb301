package ratelimit

import (
	"math"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	penaltyCap       = 24 * time.Hour
	forgivenessAfter = 24 * time.Hour
)

type penaltyEntry struct {
	violations int
	until      time.Time
}

// PenaltyTracker escalates lockouts for repeat offenders: the first
// violation costs the base timeout, each following one within 24 hours
// multiplies it, capped at a day. Going 24 hours without a violation wipes
// the slate clean. State is in-process only; a restart clears penalties.
type PenaltyTracker struct {
	entries *gocache.Cache
	now     func() time.Time
}

func NewPenaltyTracker() *PenaltyTracker {
	return &PenaltyTracker{
		entries: gocache.New(forgivenessAfter, time.Hour),
		now:     time.Now,
	}
}

func (t *PenaltyTracker) RecordViolation(identifier string, base time.Duration, factor float64) time.Duration {
	if factor < 1 {
		factor = 1
	}
	violations := 1
	if v, ok := t.entries.Get(identifier); ok {
		violations = v.(*penaltyEntry).violations + 1
	}
	penalty := time.Duration(float64(base) * math.Pow(factor, float64(violations-1)))
	if penalty > penaltyCap || penalty <= 0 {
		penalty = penaltyCap
	}
	entry := &penaltyEntry{violations: violations, until: t.now().Add(penalty)}
	// TTL from the last violation implements the rolling forgiveness window.
	t.entries.Set(identifier, entry, forgivenessAfter)
	return penalty
}

func (t *PenaltyTracker) IsPenalized(identifier string) (bool, time.Duration) {
	v, ok := t.entries.Get(identifier)
	if !ok {
		return false, 0
	}
	entry := v.(*penaltyEntry)
	remaining := entry.until.Sub(t.now())
	if remaining <= 0 {
		return false, 0
	}
	return true, remaining
}
