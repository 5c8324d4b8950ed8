package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessToken_CarriesExpiry(t *testing.T) {
	exp := TestTime().Add(30 * time.Minute)
	tok := AccessToken(t, "42", exp)

	claims := &jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.True(t, claims.ExpiresAt.Time.Equal(exp))
}

func TestClock(t *testing.T) {
	c := NewClock(TestTime())
	c.Advance(time.Minute)
	assert.Equal(t, TestTime().Add(time.Minute), c.Now())
	assert.Equal(t, TestTime(), FixedTimeFunc(TestTime())())
}

func TestTestRedisDB(t *testing.T) {
	t.Setenv("TEST_REDIS_DB", "3")
	assert.Equal(t, 3, testRedisDB(t))
	t.Setenv("TEST_REDIS_DB", "x")
	assert.Equal(t, 1, testRedisDB(t))
}
