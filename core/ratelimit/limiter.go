package ratelimit

import (
	"context"
	"time"

	"falcon-hq/config"
	"falcon-hq/core/utils"
)

type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// CounterStore is one fixed-window counter backend. Incr bumps the counter
// for key, creating a window-long entry on first touch, and reports the
// count plus when the window resets.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error)
	Reset(ctx context.Context, key string) error
}

// Limiter tries the distributed store first and degrades to the in-process
// store per check. It never returns an error: when no decision can be
// computed at all it allows the request, since failing closed on the login
// path would lock everyone out during an infra outage.
type Limiter struct {
	distributed CounterStore
	local       CounterStore
	logger      *utils.Logger
}

func NewLimiter(cfg *config.AppConfig, logger *utils.Logger) *Limiter {
	l := &Limiter{local: newLocalStore(), logger: logger}
	if cfg != nil && cfg.RedisEnabled() {
		l.distributed = newRedisStore(cfg.Redis)
		if logger != nil {
			logger.Printf("rate limiter: redis counters at %s", cfg.Redis.Addr)
		}
	}
	return l
}

// NewLocalLimiter is for tests and for deployments without redis.
func NewLocalLimiter(logger *utils.Logger) *Limiter {
	return &Limiter{local: newLocalStore(), logger: logger}
}

func (l *Limiter) Check(ctx context.Context, identifier string, cfg Config) Decision {
	key := "rl:" + cfg.Name + ":" + identifier

	count, resetAt, err := l.incr(ctx, key, cfg.Window)
	if err != nil {
		// Fail open: a limiter outage must not deny logins.
		if l.logger != nil {
			l.logger.Errorf("rate limiter unavailable for %s: %v", cfg.Name, err)
		}
		return Decision{Allowed: true, Limit: cfg.MaxRequests, Remaining: cfg.MaxRequests - 1, ResetAt: time.Now().Add(cfg.Window)}
	}

	remaining := cfg.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= int64(cfg.MaxRequests),
		Limit:     cfg.MaxRequests,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// Reset forgives prior attempts for an identifier, called after a
// successful authentication.
func (l *Limiter) Reset(ctx context.Context, identifier string, cfg Config) {
	key := "rl:" + cfg.Name + ":" + identifier
	if l.distributed != nil {
		if err := l.distributed.Reset(ctx, key); err != nil && l.logger != nil {
			l.logger.Errorf("rate limiter reset (redis): %v", err)
		}
	}
	_ = l.local.Reset(ctx, key)
}

func (l *Limiter) incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	if l.distributed != nil {
		count, resetAt, err := l.distributed.Incr(ctx, key, window)
		if err == nil {
			return count, resetAt, nil
		}
		if l.logger != nil {
			l.logger.Warnf("rate limiter degraded to local counters: %v", err)
		}
	}
	return l.local.Incr(ctx, key, window)
}
