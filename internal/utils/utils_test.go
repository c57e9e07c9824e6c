package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "s3cret"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cret"))
}

func TestSessionToken_RoundTrip(t *testing.T) {
	tok, err := NewSessionToken("secret", 42, true, time.Hour)
	require.NoError(t, err)
	assert.Len(t, tok.SessionID, 64)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.Exp, 5*time.Second)

	claims, err := ParseSessionToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, tok.SessionID, claims.SessionID)
	assert.True(t, claims.IsAdmin)
}

func TestParseSessionToken_Rejects(t *testing.T) {
	good, err := NewSessionToken("secret", 7, false, time.Hour)
	require.NoError(t, err)
	expired, err := NewSessionToken("secret", 7, false, -time.Minute)
	require.NoError(t, err)

	noneSigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "7", "sid": "abc", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]struct {
		secret string
		raw    string
	}{
		"wrong secret": {secret: "other", raw: good.Token},
		"expired":      {secret: "secret", raw: expired.Token},
		"garbage":      {secret: "secret", raw: "not.a.jwt"},
		"alg none":     {secret: "secret", raw: noneSigned},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSessionToken(tc.secret, tc.raw)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
}

func TestHashSessionID_Stable(t *testing.T) {
	assert.Equal(t, HashSessionID("abc"), HashSessionID("abc"))
	assert.NotEqual(t, HashSessionID("abc"), HashSessionID("abd"))
	assert.Len(t, HashSessionID("abc"), 64)
}
