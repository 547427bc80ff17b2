// Package auth inspects the access tokens issued by the platform.
//
// Clients never hold the signing secret, so by default tokens are decoded
// without verification and only used for display and early expiry checks.
// A Verifier checks signatures when the secret is configured.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken means the value is not a decodable JWT
	ErrMalformedToken = errors.New("malformed access token")
	// ErrRefreshToken means a refresh token was presented as an access token
	ErrRefreshToken = errors.New("refresh token used as access token")
)

// Claims are the claims the platform puts in its access tokens
type Claims struct {
	TenantID  string `json:"tenant_id,omitempty"`
	Role      string `json:"role,omitempty"`
	IsRefresh bool   `json:"is_refresh,omitempty"`
	jwt.RegisteredClaims
}

// UserID is the subject claim
func (c *Claims) UserID() string { return c.Subject }

// ExpiresIn returns the time left before expiry. ok is false for tokens
// without an exp claim.
func (c *Claims) ExpiresIn(now time.Time) (d time.Duration, ok bool) {
	if c.ExpiresAt == nil {
		return 0, false
	}
	return c.ExpiresAt.Sub(now), true
}

// Expired reports whether the token is past its exp claim
func (c *Claims) Expired(now time.Time) bool {
	d, ok := c.ExpiresIn(now)
	return ok && d <= 0
}

// Inspect decodes a token without checking its signature
func Inspect(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// Usable reports whether a stored token is worth sending. Expired and refresh
// JWTs are not. Opaque tokens are left for the server to judge.
func Usable(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	claims, err := Inspect(token)
	if err != nil {
		return true
	}
	return !claims.IsRefresh && !claims.Expired(now)
}

// Verifier validates HMAC-signed tokens
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for tokens signed with secret
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the signature and time claims and rejects refresh tokens
func (v *Verifier) Verify(token string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, errors.New("token secret not configured")
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.IsRefresh {
		return nil, ErrRefreshToken
	}
	return claims, nil
}

