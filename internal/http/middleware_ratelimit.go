package httpx

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultLoginRate  = 0.2 // one attempt per 5s sustained
	defaultLoginBurst = 5
	limiterIdleTTL    = 15 * time.Minute
	limiterSweepEvery = 1024 // lookups between idle sweeps
)

// LoginLimiter throttles credential submissions per client address.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	lookups  int
	// trustedHops is the number of reverse proxies in front of the server.
	// Zero ignores X-Forwarded-For entirely.
	trustedHops int
	now         func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter allows perSecond attempts per client with the given burst.
// Non-positive rates use the defaults. trustedHops is the number of proxies
// whose X-Forwarded-For entries identify the client.
func NewLoginLimiter(perSecond float64, burst, trustedHops int) *LoginLimiter {
	if perSecond <= 0 {
		perSecond = defaultLoginRate
	}
	if burst <= 0 {
		burst = defaultLoginBurst
	}
	return &LoginLimiter{
		limiters:    make(map[string]*clientLimiter),
		limit:       rate.Limit(perSecond),
		burst:       burst,
		trustedHops: max(trustedHops, 0),
		now:         time.Now,
	}
}

// Allow reports whether the client behind r may attempt a login now.
// A nil limiter allows everything.
func (l *LoginLimiter) Allow(r *http.Request) bool {
	if l == nil {
		return true
	}
	key := clientKey(r, l.trustedHops)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.lookups++
	if l.lookups%limiterSweepEvery == 0 {
		l.sweepLocked(now)
	}

	cl, ok := l.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// caller must hold l.mu
func (l *LoginLimiter) sweepLocked(now time.Time) {
	for k, cl := range l.limiters {
		if now.Sub(cl.lastSeen) > limiterIdleTTL {
			delete(l.limiters, k)
		}
	}
}

// Len returns the number of tracked clients.
func (l *LoginLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// clientKey is the socket address, or, behind trustedHops proxies, the
// X-Forwarded-For entry appended by the outermost trusted proxy. Entries to
// its left are client-supplied and never used.
func clientKey(r *http.Request, trustedHops int) string {
	if trustedHops > 0 {
		hops := forwardedFor(r)
		if len(hops) >= trustedHops {
			return hops[len(hops)-trustedHops]
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func forwardedFor(r *http.Request) []string {
	var hops []string
	for _, v := range r.Header.Values("X-Forwarded-For") {
		for hop := range strings.SplitSeq(v, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	return hops
}
