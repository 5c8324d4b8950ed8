// Package core holds the storage ports and the small amount of policy that
// sits on top of them, independent of any particular backend.
package core

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// CacheRepository defines the interface for caching operations.
// The data layer provides the Redis implementation.
type CacheRepository interface {
	// Set stores a value in the cache with the given key and TTL.
	// If TTL is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value from the cache by key.
	// Returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key from the cache.
	// Returns true if the key was deleted, false if it didn't exist.
	Delete(ctx context.Context, key string) (bool, error)

	// DeletePrefix removes every key starting with prefix and returns how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int64, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}

const defaultSharedCooldown = 30 * time.Second

// SharedStoreOptions configures a SharedStore.
type SharedStoreOptions struct {
	Repo   CacheRepository
	Prefix string // namespace for every key, e.g. "qc:"
	// Cooldown is how long the store stays bypassed after a backend error.
	Cooldown time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

// SharedStore is a namespaced, fail-soft view of a CacheRepository shared by
// several processes. Backend errors are logged and the store is bypassed for
// Cooldown so a Redis outage degrades to local-only caching instead of failing
// requests.
type SharedStore struct {
	repo     CacheRepository
	prefix   string
	cooldown time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	downUntil time.Time
}

// NewSharedStore creates a SharedStore. A nil Repo yields a store that is never available.
func NewSharedStore(opts SharedStoreOptions) *SharedStore {
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = defaultSharedCooldown
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SharedStore{
		repo:     opts.Repo,
		prefix:   opts.Prefix,
		cooldown: cooldown,
		logger:   logger.With("component", "shared_cache"),
		now:      now,
	}
}

// Available reports whether the backend is configured and not cooling down.
func (s *SharedStore) Available() bool {
	if s == nil || s.repo == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.now().Before(s.downUntil)
}

// Get returns the stored value and whether it was found. Errors count as misses.
func (s *SharedStore) Get(ctx context.Context, key string) ([]byte, bool) {
	if !s.Available() {
		return nil, false
	}
	val, err := s.repo.Get(ctx, s.prefix+key)
	if err != nil {
		s.fail(ctx, "get", key, err)
		return nil, false
	}
	return val, val != nil
}

// Set stores value under key. Errors are logged and swallowed.
func (s *SharedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !s.Available() {
		return
	}
	if err := s.repo.Set(ctx, s.prefix+key, value, ttl); err != nil {
		s.fail(ctx, "set", key, err)
	}
}

// Delete removes a single key.
func (s *SharedStore) Delete(ctx context.Context, key string) {
	if !s.Available() {
		return
	}
	if _, err := s.repo.Delete(ctx, s.prefix+key); err != nil {
		s.fail(ctx, "delete", key, err)
	}
}

// DeletePrefix removes every namespaced key starting with prefix.
func (s *SharedStore) DeletePrefix(ctx context.Context, prefix string) {
	if !s.Available() {
		return
	}
	if _, err := s.repo.DeletePrefix(ctx, s.prefix+prefix); err != nil {
		s.fail(ctx, "delete_prefix", prefix, err)
	}
}

func (s *SharedStore) fail(ctx context.Context, op, key string, err error) {
	if ctx.Err() != nil {
		// caller gave up; not a backend failure
		return
	}
	s.mu.Lock()
	s.downUntil = s.now().Add(s.cooldown)
	s.mu.Unlock()
	s.logger.WarnContext(ctx, "shared cache unavailable, using local cache only",
		"op", op, "key", key, "cooldown", s.cooldown, "error", err)
}
