package portal

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the subset of the bearer token payload the client consumes.
// The token is decoded without verifying its signature: signature checks are
// the server's job and happen on every protected API call regardless.
type TokenClaims struct {
	jwt.RegisteredClaims
	UID  int64  `json:"uid,omitempty"`
	Role string `json:"role,omitempty"`
}

// TokenValidator performs the structural + expiry check that gates the local
// session. It is a UX optimization only, never a security boundary.
type TokenValidator struct {
	now func() time.Time
}

// TokenValidatorOption customizes a TokenValidator.
type TokenValidatorOption func(*TokenValidator)

// WithValidatorClock injects a custom clock (useful for tests).
func WithValidatorClock(clock func() time.Time) TokenValidatorOption {
	return func(v *TokenValidator) {
		if clock != nil {
			v.now = clock
		}
	}
}

// NewTokenValidator returns a validator using wall-clock time by default.
func NewTokenValidator(opts ...TokenValidatorOption) *TokenValidator {
	v := &TokenValidator{now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks structural validity and expiry. It returns ErrTokenMalformed
// for anything that is not a three-segment token with a decodable claim set,
// and ErrTokenExpired when the expiry claim is at or before the current time.
func (v *TokenValidator) Validate(raw string) (*TokenClaims, error) {
	if raw == "" {
		return nil, ErrTokenMalformed
	}

	if len(strings.Split(raw, ".")) != 3 {
		return nil, ErrTokenMalformed
	}

	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, ErrTokenMalformed
	}

	if claims.ExpiresAt == nil {
		return nil, ErrTokenMalformed
	}

	if !claims.ExpiresAt.Time.After(v.now()) {
		return nil, ErrTokenExpired
	}

	return claims, nil
}
