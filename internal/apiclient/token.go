package apiclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var tokenParser = jwt.NewParser()

// TokenExpiry reads the exp claim of an access token without verifying its
// signature; verification is the API's job. ok is false when the token is
// malformed or carries no expiry.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := tokenParser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// AccessExpiry returns when an access token stops being usable. It prefers
// the token's exp claim, then expiresIn seconds from now, and returns the
// zero time (treated as already expired) when neither is known.
func AccessExpiry(token string, expiresIn int64, now time.Time) time.Time {
	if exp, ok := TokenExpiry(token); ok {
		return exp
	}
	if expiresIn > 0 {
		return now.Add(time.Duration(expiresIn) * time.Second)
	}
	return time.Time{}
}
