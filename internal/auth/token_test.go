package auth

import (
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	ti := NewTokenIssuer(testSecret, time.Hour)
	token, err := ti.Issue(42)
	require.NoError(t, err)

	id, err := ti.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenRejected(t *testing.T) {
	ti := NewTokenIssuer(testSecret, time.Hour)
	good, err := ti.Issue(7)
	require.NoError(t, err)

	expired := NewTokenIssuer(testSecret, time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(7)
	require.NoError(t, err)

	otherKey, err := NewTokenIssuer("another-secret-another-secret-xx", time.Hour).Issue(7)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:  Issuer,
		Subject: "7",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":     "not-a-token",
		"tampered":    good[:len(good)-2] + "xx",
		"expired":     old,
		"wrong key":   otherKey,
		"alg none":    none,
		"wrong iss":   foreign,
		"no expiry":   noExpiry,
		"empty token": "",
	}
	for name, token := range cases {
		_, err := ti.Verify(token)
		assert.Truef(t, errors.Is(err, core.ErrUnauthenticated), "%s: got %v", name, err)
	}
}

func TestDefaultTTL(t *testing.T) {
	ti := NewTokenIssuer(testSecret, 0)
	assert.Equal(t, DefaultTokenTTL, ti.ttl)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret!"))
}
