package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/target/cinema-ui/internal/ports"
)

const (
	defaultRefreshInterval    = 60 * time.Second
	defaultRefreshConcurrency = 4
)

// SessionRefresherOptions groups dependencies for SessionRefresher.
type SessionRefresherOptions struct {
	Auth     *AuthService       // Required
	Sessions ports.SessionStore // Required: the store Auth writes to

	Interval    time.Duration
	Threshold   time.Duration // refresh when the access token expires within this
	Concurrency int

	Logger *slog.Logger
}

// SessionRefresher keeps stored sessions usable by refreshing access tokens
// shortly before they expire. Sessions whose refresh fails are deleted.
type SessionRefresher struct {
	auth        *AuthService
	sessions    ports.SessionStore
	interval    time.Duration
	threshold   time.Duration
	concurrency int
	logger      *slog.Logger
}

// RefreshSweep summarizes one pass over the session store.
type RefreshSweep struct {
	Scanned   int
	Refreshed int
	Removed   int
	Errors    int
}

// NewSessionRefresher constructs a new SessionRefresher.
func NewSessionRefresher(opts SessionRefresherOptions) (*SessionRefresher, error) {
	if opts.Auth == nil {
		return nil, errors.New("AuthService is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("SessionStore is required")
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = opts.Auth.refreshThreshold
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = defaultRefreshConcurrency
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionRefresher{
		auth:        opts.Auth,
		sessions:    opts.Sessions,
		interval:    interval,
		threshold:   threshold,
		concurrency: concurrency,
		logger:      logger.With("component", "session_refresher"),
	}, nil
}

// Run sweeps the session store every interval until ctx is canceled.
// Returns nil on graceful shutdown.
func (r *SessionRefresher) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting session refresher",
		"interval", r.interval, "threshold", r.threshold, "concurrency", r.concurrency)

	// replicas started together should not sweep in lockstep
	r.waitWithJitter(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() == nil {
			sweep, err := r.Sweep(ctx)
			r.logSweep(ctx, sweep, err)
		}

		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "session refresher stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep refreshes every session whose access token is near expiry.
func (r *SessionRefresher) Sweep(ctx context.Context) (RefreshSweep, error) {
	var scanned, refreshed, removed, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	scanErr := r.sessions.Scan(gctx, func(id string) error {
		scanned.Add(1)
		g.Go(func() error {
			outcome, err := r.refreshOne(gctx, id)
			switch outcome {
			case outcomeRefreshed:
				refreshed.Add(1)
			case outcomeRemoved:
				removed.Add(1)
			}
			if err != nil {
				failed.Add(1)
				if gctx.Err() != nil {
					return gctx.Err()
				}
			}
			return nil
		})
		return gctx.Err()
	})
	waitErr := g.Wait()

	sweep := RefreshSweep{
		Scanned:   int(scanned.Load()),
		Refreshed: int(refreshed.Load()),
		Removed:   int(removed.Load()),
		Errors:    int(failed.Load()),
	}
	if scanErr != nil {
		return sweep, fmt.Errorf("scan sessions: %w", scanErr)
	}
	return sweep, waitErr
}

type refreshOutcome int

const (
	outcomeSkipped refreshOutcome = iota
	outcomeRefreshed
	outcomeRemoved
)

func (r *SessionRefresher) refreshOne(ctx context.Context, id string) (refreshOutcome, error) {
	sess, err := r.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			// expired between scan and get
			return outcomeSkipped, nil
		}
		return outcomeSkipped, fmt.Errorf("get session: %w", err)
	}
	if !sess.NeedsRefresh(r.auth.now(), r.threshold) {
		return outcomeSkipped, nil
	}

	if _, err := r.auth.refreshSession(ctx, sess, RefreshOriginBackground); err != nil {
		if ctx.Err() != nil {
			return outcomeSkipped, err
		}
		r.logger.WarnContext(ctx, "background refresh failed, removing session",
			"session_id", shortID(id), "user_id", sess.User.ID, "error", err)
		if delErr := r.sessions.Delete(ctx, id); delErr != nil {
			return outcomeSkipped, errors.Join(err, fmt.Errorf("delete session: %w", delErr))
		}
		return outcomeRemoved, err
	}
	return outcomeRefreshed, nil
}

func (r *SessionRefresher) logSweep(ctx context.Context, sweep RefreshSweep, err error) {
	attrs := []any{
		"scanned", sweep.Scanned,
		"refreshed", sweep.Refreshed,
		"removed", sweep.Removed,
		"errors", sweep.Errors,
	}
	switch {
	case err != nil && ctx.Err() == nil:
		r.logger.WarnContext(ctx, "session sweep failed", append(attrs, "error", err)...)
	case sweep.Refreshed > 0 || sweep.Removed > 0:
		r.logger.InfoContext(ctx, "session sweep complete", attrs...)
	default:
		r.logger.DebugContext(ctx, "session sweep complete", attrs...)
	}
}

// waitWithJitter delays up to 10% of the interval.
func (r *SessionRefresher) waitWithJitter(ctx context.Context) {
	maxJitter := int64(r.interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		r.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}
	jitter := time.Duration(int64(binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter))) // #nosec G115 - bounded by maxJitter

	t := time.NewTimer(jitter)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
