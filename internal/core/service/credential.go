package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/inventory-system/inventory-web/internal/core/domain"
)

const (
	defaultCredentialTTL = 24 * time.Hour
	minCredentialTTL     = time.Minute
)

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// The client holds no verification key; the backend stays the authority and
// the value is only used to skip requests that are certain to fail.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// tokenExpired reports whether token carries an exp claim in the past.
// Opaque tokens are never considered expired.
func tokenExpired(token string, now time.Time) bool {
	exp, ok := tokenExpiry(token)
	return ok && !now.Before(exp)
}

// credentialTTL is how long the store should keep cred: until the refresh
// token expires when there is one, otherwise until the access token does.
func credentialTTL(cred domain.Credential, now time.Time) time.Duration {
	token := cred.Refresh
	if token == "" {
		token = cred.Access
	}
	exp, ok := tokenExpiry(token)
	if !ok {
		return defaultCredentialTTL
	}
	ttl := exp.Sub(now)
	if ttl < minCredentialTTL {
		return minCredentialTTL
	}
	return ttl
}
