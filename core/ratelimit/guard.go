package ratelimit

import (
	"context"
	"time"
)

// Verdict is a Decision plus how long the caller should wait before
// retrying. RetryAfter is zero when the request is allowed.
type Verdict struct {
	Decision
	RetryAfter time.Duration
}

// Guard layers progressive penalties on top of the window counters. Hard
// classes deny until the window resets; progressive classes additionally
// lock the identifier out for an escalating timeout once the window is
// exhausted.
type Guard struct {
	limiter   *Limiter
	penalties *PenaltyTracker
}

func NewGuard(limiter *Limiter) *Guard {
	return &Guard{limiter: limiter, penalties: NewPenaltyTracker()}
}

func (g *Guard) Allow(ctx context.Context, identifier string, cfg Config) Verdict {
	key := cfg.Name + ":" + identifier
	if cfg.Progressive {
		if locked, remaining := g.penalties.IsPenalized(key); locked {
			return Verdict{
				Decision:   Decision{Limit: cfg.MaxRequests, ResetAt: time.Now().Add(remaining)},
				RetryAfter: remaining,
			}
		}
	}

	d := g.limiter.Check(ctx, identifier, cfg)
	if d.Allowed {
		return Verdict{Decision: d}
	}
	retry := time.Until(d.ResetAt)
	if cfg.Progressive {
		retry = g.penalties.RecordViolation(key, cfg.PenaltyBase, cfg.PenaltyFactor)
		d.ResetAt = time.Now().Add(retry)
	}
	if retry < 0 {
		retry = 0
	}
	return Verdict{Decision: d, RetryAfter: retry}
}

// Forgive clears the window counter for an identifier after a successful
// authentication. Accrued penalty history is kept: only 24 quiet hours
// erase that.
func (g *Guard) Forgive(ctx context.Context, identifier string, cfg Config) {
	g.limiter.Reset(ctx, identifier, cfg)
}
