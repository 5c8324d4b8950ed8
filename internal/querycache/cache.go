// Package querycache is a process-wide cache for data fetched from the
// booking API. Entries are fresh for a staleness window and retained for a GC
// window; concurrent requests for the same key share one fetch; failed
// fetches are retried with exponential backoff. An optional shared Redis tier
// lets several frontend replicas reuse each other's fetches.
package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/target/cinema-ui/internal/core"
	apperrors "github.com/target/cinema-ui/internal/errors"
	"github.com/target/cinema-ui/internal/observability/metrics"
)

const (
	defaultStaleTime    = 5 * time.Minute
	defaultGCTime       = 10 * time.Minute
	defaultFetchTimeout = 10 * time.Second

	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second
)

// Lookup outcomes reported to metrics.
const (
	OutcomeHit    = "hit"
	OutcomeStale  = "stale"
	OutcomeMiss   = "miss"
	OutcomeShared = "shared_hit"
)

// Options configures a Client.
type Options struct {
	StaleTime time.Duration
	GCTime    time.Duration // raised to StaleTime when smaller
	Retry     int           // extra attempts after a failed fetch
	Capacity  int

	// FetchTimeout bounds a shared fetch, including its retries.
	FetchTimeout time.Duration

	// Shared is the optional second tier. Nil means local only.
	Shared *core.SharedStore

	Logger *slog.Logger
	Now    func() time.Time
	// Sleep waits between retries; it must return early when ctx ends.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Client is a two-tier query cache.
type Client struct {
	staleTime    time.Duration
	gcTime       time.Duration
	retry        int
	fetchTimeout time.Duration

	local  *LRU
	shared *core.SharedStore
	group  singleflight.Group

	// invalidations records, while fetches are in flight, the generation at
	// which each key prefix was last invalidated. A fetch whose key falls
	// under a prefix invalidated after it started does not store its result.
	mu            sync.Mutex
	generation    uint64
	inflight      int
	invalidations map[string]uint64

	fetches     atomic.Uint64
	fetchErrors atomic.Uint64

	logger *slog.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a Client.
func New(opts Options) *Client {
	stale := opts.StaleTime
	if stale <= 0 {
		stale = defaultStaleTime
	}
	gc := opts.GCTime
	if gc <= 0 {
		gc = defaultGCTime
	}
	if gc < stale {
		gc = stale
	}
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	retry := max(opts.Retry, 0)
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Client{
		staleTime:     stale,
		gcTime:        gc,
		retry:         retry,
		fetchTimeout:  timeout,
		local:         NewLRU(opts.Capacity, now),
		shared:        opts.Shared,
		invalidations: make(map[string]uint64),
		logger:        logger.With("component", "querycache"),
		now:           now,
		sleep:         sleep,
	}
}

// QueryOption overrides client defaults for one Fetch.
type QueryOption func(*queryOptions)

type queryOptions struct {
	staleTime time.Duration
	retry     int
}

// WithStaleTime overrides the staleness window.
func WithStaleTime(d time.Duration) QueryOption {
	return func(o *queryOptions) {
		if d >= 0 {
			o.staleTime = d
		}
	}
}

// WithRetry overrides the number of extra attempts.
func WithRetry(n int) QueryOption {
	return func(o *queryOptions) {
		if n >= 0 {
			o.retry = n
		}
	}
}

// storedEntry is the serialized form kept in both tiers.
type storedEntry struct {
	Data      json.RawMessage `json:"data"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Fetch returns the cached value for key when it is fresh, and otherwise
// calls fetch, sharing the call with concurrent requesters of the same key.
// fetch runs on a context detached from ctx (values kept, cancellation
// dropped) and bounded by the fetch timeout; when ctx ends first, Fetch
// returns ctx.Err() and the fetch continues for the others.
//
// Values are shared between callers and must be treated as read-only.
func Fetch[T any](
	ctx context.Context,
	c *Client,
	key Key,
	fetch func(ctx context.Context) (T, error),
	opts ...QueryOption,
) (T, error) {
	var zero T
	qo := queryOptions{staleTime: c.staleTime, retry: c.retry}
	for _, opt := range opts {
		opt(&qo)
	}

	k, resource := key.String(), key.Resource()
	if entry, ok := c.lookup(ctx, k, resource); ok {
		if c.now().Sub(entry.FetchedAt) < qo.staleTime {
			var v T
			if err := json.Unmarshal(entry.Data, &v); err == nil {
				metrics.RecordCacheLookup(resource, OutcomeHit)
				return v, nil
			}
			c.logger.WarnContext(ctx, "discarding undecodable cache entry", "key", k)
		}
		metrics.RecordCacheLookup(resource, OutcomeStale)
	} else {
		metrics.RecordCacheLookup(resource, OutcomeMiss)
	}

	ch := c.group.DoChan(k, func() (any, error) {
		started := c.beginFetch()
		defer c.endFetch()

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		v, err := withRetry(fctx, c, resource, qo.retry, fetch)
		if err != nil {
			return nil, err
		}
		c.store(fctx, k, v, started)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, ok := res.Val.(T)
		if !ok {
			return zero, fmt.Errorf("querycache: key %q fetched as %T, requested as %T", k, res.Val, zero)
		}
		return v, nil
	}
}

// Set stores value under key as freshly fetched.
func Set[T any](ctx context.Context, c *Client, key Key, value T) error {
	data, err := encode(value, c.now())
	if err != nil {
		return err
	}
	k := key.String()
	c.local.Set(k, data, c.gcTime)
	c.shared.Set(ctx, k, data, c.gcTime)
	return nil
}

// Invalidate drops key and every key nested under it from both tiers.
// Fetches already in flight for those keys will not store their results;
// fetches for other keys are unaffected.
func (c *Client) Invalidate(ctx context.Context, key Key) {
	k := key.String()
	c.markInvalidated(k)
	n := c.local.DeletePrefix(k)
	if k == "" {
		c.shared.DeletePrefix(ctx, "")
	} else {
		c.shared.Delete(ctx, k)
		c.shared.DeletePrefix(ctx, k+KeySeparator)
	}
	c.logger.DebugContext(ctx, "invalidated queries", "key", k, "local_removed", n)
}

// Clear drops every entry from both tiers.
func (c *Client) Clear(ctx context.Context) {
	c.markInvalidated("")
	c.local.Clear()
	c.shared.DeletePrefix(ctx, "")
}

// Stats is a snapshot of cache counters.
type Stats struct {
	LRUStats
	Fetches     uint64
	FetchErrors uint64
	Shared      bool
}

// Stats returns a snapshot of cache counters.
func (c *Client) Stats() Stats {
	return Stats{
		LRUStats:    c.local.Stats(),
		Fetches:     c.fetches.Load(),
		FetchErrors: c.fetchErrors.Load(),
		Shared:      c.shared.Available(),
	}
}

func (c *Client) lookup(ctx context.Context, key, resource string) (storedEntry, bool) {
	raw, ok := c.local.Get(key)
	fromShared := false
	if !ok {
		if raw, ok = c.shared.Get(ctx, key); !ok {
			return storedEntry{}, false
		}
		fromShared = true
		metrics.RecordCacheLookup(resource, OutcomeShared)
	}

	var entry storedEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.local.Delete(key)
		return storedEntry{}, false
	}
	if fromShared {
		// promote, keeping the original fetch time
		if remaining := c.gcTime - c.now().Sub(entry.FetchedAt); remaining > 0 {
			c.local.Set(key, raw, remaining)
		}
	}
	return entry, true
}

func (c *Client) beginFetch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight++
	return c.generation
}

func (c *Client) endFetch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if c.inflight == 0 {
		clear(c.invalidations)
	}
}

func (c *Client) markInvalidated(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	if c.inflight > 0 {
		c.invalidations[prefix] = c.generation
	}
}

// invalidatedSince reports whether key was invalidated after generation started.
func (c *Client) invalidatedSince(key string, started uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for prefix, gen := range c.invalidations {
		if gen > started && coveredBy(key, prefix) {
			return true
		}
	}
	return false
}

func coveredBy(key, prefix string) bool {
	return prefix == "" || key == prefix || strings.HasPrefix(key, prefix+KeySeparator)
}

func (c *Client) store(ctx context.Context, key string, value any, started uint64) {
	if c.invalidatedSince(key, started) {
		return
	}
	data, err := encode(value, c.now())
	if err != nil {
		c.logger.WarnContext(ctx, "value not cacheable", "key", key, "error", err)
		return
	}
	c.local.Set(key, data, c.gcTime)
	c.shared.Set(ctx, key, data, c.gcTime)
}

func encode(value any, fetchedAt time.Time) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode cache value: %w", err)
	}
	return json.Marshal(storedEntry{Data: data, FetchedAt: fetchedAt})
}

func withRetry[T any](
	ctx context.Context,
	c *Client,
	resource string,
	retries int,
	fetch func(ctx context.Context) (T, error),
) (T, error) {
	for attempt := 0; ; attempt++ {
		start := c.now()
		v, err := fetch(ctx)
		c.fetches.Add(1)
		metrics.RecordCacheFetch(resource, c.now().Sub(start), err)
		if err == nil {
			return v, nil
		}
		c.fetchErrors.Add(1)

		if attempt >= retries || !apperrors.IsRetryable(err) || ctx.Err() != nil {
			return v, err
		}
		delay := Backoff(attempt)
		c.logger.DebugContext(ctx, "fetch failed, retrying",
			"resource", resource, "attempt", attempt+1, "delay", delay, "error", err)
		if c.sleep(ctx, delay) != nil {
			return v, err
		}
	}
}

// Backoff returns the delay before retry attempt n (0-based): min(1s·2^n, 30s).
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxBackoff
	}
	return min(baseBackoff<<attempt, maxBackoff)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
