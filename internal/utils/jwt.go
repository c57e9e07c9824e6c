package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA‑256 hashing for session ids
	"encoding/hex"  // hex encoding and decoding functions
	"errors"
	"strconv"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidSession is returned by ParseSessionToken for any token that is
// malformed, expired, or signed with another key.
var ErrInvalidSession = errors.New("invalid session token")

// SessionToken is a signed JWT naming a server-side session.  Token is the
// cookie value; SessionID is the raw random id whose hash is stored in the
// sessions table.
type SessionToken struct {
	Token     string    // the serialized JWT string
	SessionID string    // raw session id (never stored)
	Exp       time.Time // the UTC expiration time
}

// SessionClaims is what the session middleware recovers from a cookie.
type SessionClaims struct {
	UserID    uint64
	SessionID string
	IsAdmin   bool
}

// NewSessionToken builds and signs an HS256 JWT for a user.  The claims
// are sub (user ID), sid (raw session id), adm (administrator flag), exp
// and iat.
func NewSessionToken(secret string, userID uint64, isAdmin bool, ttl time.Duration) (SessionToken, error) {
	sid, err := randomHex(32)
	if err != nil {
		return SessionToken{}, err
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(userID, 10),
		"sid": sid,
		"adm": isAdmin,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, SessionID: sid, Exp: exp}, nil
}

// ParseSessionToken verifies the signature and expiry of a session token
// and returns its claims.
func ParseSessionToken(secret, raw string) (SessionClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject anything that is not HMAC signed.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return SessionClaims{}, ErrInvalidSession
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return SessionClaims{}, ErrInvalidSession
	}
	sub, _ := claims["sub"].(string)
	uid, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || uid == 0 {
		return SessionClaims{}, ErrInvalidSession
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return SessionClaims{}, ErrInvalidSession
	}
	adm, _ := claims["adm"].(bool)
	return SessionClaims{UserID: uid, SessionID: sid, IsAdmin: adm}, nil
}

// HashSessionID returns the SHA‑256 hash of the raw session id as a hex
// string.  Only this hash is written to the database.
func HashSessionID(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
