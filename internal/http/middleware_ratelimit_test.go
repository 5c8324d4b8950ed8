package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/target/cinema-ui/internal/testutil"
)

func requestFrom(addr, forwarded string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/login", nil)
	r.RemoteAddr = addr
	if forwarded != "" {
		r.Header.Set("X-Forwarded-For", forwarded)
	}
	return r
}

func TestLoginLimiter_BurstThenRefill(t *testing.T) {
	clock := testutil.NewClock(testutil.TestTime())
	l := NewLoginLimiter(1, 2, 0)
	l.now = clock.Now

	r := requestFrom("10.0.0.1:5000", "")
	assert.True(t, l.Allow(r))
	assert.True(t, l.Allow(r))
	assert.False(t, l.Allow(r), "burst exhausted")

	// other clients are independent
	assert.True(t, l.Allow(requestFrom("10.0.0.2:5000", "")))

	clock.Advance(time.Second)
	assert.True(t, l.Allow(r))
}

func TestLoginLimiter_NilAllows(t *testing.T) {
	var l *LoginLimiter
	assert.True(t, l.Allow(requestFrom("10.0.0.1:1", "")))
}

func TestLoginLimiter_SweepsIdleClients(t *testing.T) {
	clock := testutil.NewClock(testutil.TestTime())
	l := NewLoginLimiter(0, 0, 0)
	l.now = clock.Now

	l.Allow(requestFrom("10.0.0.9:1", ""))
	clock.Advance(limiterIdleTTL + time.Minute)
	for i := 0; i < limiterSweepEvery-1; i++ {
		l.Allow(requestFrom("10.0.0.1:1", ""))
	}
	assert.Equal(t, 1, l.Len())
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name      string
		addr      string
		forwarded string
		hops      int
		want      string
	}{
		{"socket address", "10.0.0.1:5000", "", 0, "10.0.0.1"},
		{"forwarded ignored without proxies", "198.51.100.4:5000", "203.0.113.7", 0, "198.51.100.4"},
		{"one proxy uses its entry", "10.0.0.1:5000", "203.0.113.7", 1, "203.0.113.7"},
		{"spoofed entries left of the proxy", "10.0.0.1:5000", "1.2.3.4, 203.0.113.7", 1, "203.0.113.7"},
		{"two proxies", "10.0.0.1:5000", "1.2.3.4, 203.0.113.7, 10.0.0.2", 2, "203.0.113.7"},
		{"fewer entries than proxies", "10.0.0.1:5000", "", 1, "10.0.0.1"},
		{"unparseable address", "pipe", "", 0, "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clientKey(requestFrom(tt.addr, tt.forwarded), tt.hops))
		})
	}
}

func TestLoginLimiter_ForgedForwardedForSharesBucket(t *testing.T) {
	clock := testutil.NewClock(testutil.TestTime())
	l := NewLoginLimiter(1, 2, 0)
	l.now = clock.Now

	assert.True(t, l.Allow(requestFrom("198.51.100.4:5000", "203.0.113.1")))
	assert.True(t, l.Allow(requestFrom("198.51.100.4:5001", "203.0.113.2")))
	assert.False(t, l.Allow(requestFrom("198.51.100.4:5002", "203.0.113.3")),
		"a fresh X-Forwarded-For must not buy a fresh bucket")
	assert.Equal(t, 1, l.Len())
}

func TestLoginLimiter_BehindProxy(t *testing.T) {
	clock := testutil.NewClock(testutil.TestTime())
	l := NewLoginLimiter(1, 1, 1)
	l.now = clock.Now

	assert.True(t, l.Allow(requestFrom("10.0.0.1:5000", "203.0.113.1")))
	assert.True(t, l.Allow(requestFrom("10.0.0.1:5000", "203.0.113.2")), "clients behind the proxy are distinct")
	assert.False(t, l.Allow(requestFrom("10.0.0.1:5000", "9.9.9.9, 203.0.113.1")),
		"client-supplied entries do not change the key")
}
