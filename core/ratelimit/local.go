package ratelimit

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// localStore is the in-process fixed-window fallback. Entries expire with
// their window, so a vanished key means a fresh window. The read-increment
// race at a window boundary can let one extra request through; accepted.
type localStore struct {
	cache *gocache.Cache
}

func newLocalStore() *localStore {
	return &localStore{cache: gocache.New(gocache.NoExpiration, 5*time.Minute)}
}

func (s *localStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Time, error) {
	if err := s.cache.Add(key, int64(1), window); err == nil {
		return 1, time.Now().Add(window), nil
	}
	// Increment preserves the entry's original expiration.
	n, err := s.cache.IncrementInt64(key, 1)
	if err != nil {
		// Entry expired between Add and Increment; start a new window.
		s.cache.Set(key, int64(1), window)
		return 1, time.Now().Add(window), nil
	}
	_, resetAt, ok := s.cache.GetWithExpiration(key)
	if !ok {
		return n, time.Now().Add(window), nil
	}
	return n, resetAt, nil
}

func (s *localStore) Reset(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
