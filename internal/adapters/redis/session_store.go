package redis

// Package redis provides Redis-backed adapters for the cinema frontend.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	domainauth "github.com/target/cinema-ui/internal/domain/auth"
	"github.com/target/cinema-ui/internal/ports"
)

const (
	defaultSessionPrefix = "session:"
	scanBatch            = 100
)

// SessionStore keeps browser sessions in Redis. Each key expires together
// with the session's ExpiresAt.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithPrefix(client, defaultSessionPrefix)
}

// NewSessionStoreWithPrefix creates a Redis session store with a custom key prefix.
func NewSessionStoreWithPrefix(client redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = defaultSessionPrefix
	}
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, s.prefix+sess.ID, data, ttl).Err()
}

func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ErrNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal(data, &sess); unmarshalErr != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	if sess.Expired(s.now()) {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+id).Err()
}

// Scan walks every session key with SCAN and calls fn with the bare session id.
// On a cluster every master is scanned.
func (s *SessionStore) Scan(ctx context.Context, fn func(id string) error) error {
	if cc, ok := s.client.(*redis.ClusterClient); ok {
		var mu sync.Mutex
		return cc.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			return scanKeys(ctx, node, s.prefix, func(id string) error {
				mu.Lock()
				defer mu.Unlock()
				return fn(id)
			})
		})
	}
	return scanKeys(ctx, s.client, s.prefix, fn)
}

func scanKeys(ctx context.Context, c redis.Cmdable, prefix string, fn func(id string) error) error {
	var cursor uint64
	for {
		keys, next, err := c.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		for _, key := range keys {
			if err := fn(strings.TrimPrefix(key, prefix)); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// ErrNotFound is returned when a session is not found.
var ErrNotFound = ports.ErrSessionNotFound
