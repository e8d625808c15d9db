package portal_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	portal "github.com/istokvel/go-portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := portal.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UID:  42,
		Role: "member",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func mintTokenNoExpiry(t *testing.T) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "42"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestTokenValidator_ValidToken(t *testing.T) {
	validator := portal.NewTokenValidator()

	claims, err := validator.Validate(mintToken(t, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UID)
	assert.Equal(t, "member", claims.Role)
}

func TestTokenValidator_EmptyToken(t *testing.T) {
	validator := portal.NewTokenValidator()

	claims, err := validator.Validate("")
	assert.Nil(t, claims)
	assert.True(t, portal.IsMalformedError(err))
}

func TestTokenValidator_WrongSegmentCount(t *testing.T) {
	validator := portal.NewTokenValidator()

	for _, raw := range []string{"garbage", "a.b", "a.b.c.d"} {
		claims, err := validator.Validate(raw)
		assert.Nil(t, claims, raw)
		assert.True(t, portal.IsMalformedError(err), raw)
	}
}

func TestTokenValidator_UndecodablePayload(t *testing.T) {
	validator := portal.NewTokenValidator()

	claims, err := validator.Validate("aaaa.!!!!.cccc")
	assert.Nil(t, claims)
	assert.True(t, portal.IsMalformedError(err))
}

func TestTokenValidator_MissingExpiry(t *testing.T) {
	validator := portal.NewTokenValidator()

	claims, err := validator.Validate(mintTokenNoExpiry(t))
	assert.Nil(t, claims)
	assert.True(t, portal.IsMalformedError(err))
}

func TestTokenValidator_ExpiredToken(t *testing.T) {
	validator := portal.NewTokenValidator()

	claims, err := validator.Validate(mintToken(t, time.Now().Add(-time.Minute)))
	assert.Nil(t, claims)
	assert.True(t, portal.IsTokenExpiredError(err))
}

func TestTokenValidator_ExpiryBoundaryUsesInjectedClock(t *testing.T) {
	expiry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := mintToken(t, expiry)

	before := portal.NewTokenValidator(portal.WithValidatorClock(func() time.Time {
		return expiry.Add(-time.Second)
	}))
	_, err := before.Validate(token)
	assert.NoError(t, err)

	// a token expiring exactly now is already expired
	atBoundary := portal.NewTokenValidator(portal.WithValidatorClock(func() time.Time {
		return expiry
	}))
	_, err = atBoundary.Validate(token)
	assert.True(t, portal.IsTokenExpiredError(err))
}
