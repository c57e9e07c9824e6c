package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/turf-booking/internal/utils"
)

const testSecret = "test-secret"

func newAuth() (*memDB, *AuthService) {
	db := newMemDB()
	return db, NewAuthService(fakeUsers{db}, fakeSessions{db}, testSecret, time.Hour, 4, zerolog.Nop())
}

func TestRegister(t *testing.T) {
	_, auth := newAuth()
	ctx := context.Background()

	u, err := auth.Register(ctx, RegisterInput{Username: " alice ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Zero(t, u.LoyaltyPoints)
	assert.False(t, u.IsAdmin)

	_, err = auth.Register(ctx, RegisterInput{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = auth.Register(ctx, RegisterInput{Password: "pw"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Username is required.", err.Error())

	_, err = auth.Register(ctx, RegisterInput{Username: "bob"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Password is required.", err.Error())

	_, err = auth.Register(ctx, RegisterInput{Username: "bob", Password: "pw", Email: "nope"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLoginAuthenticateLogout(t *testing.T) {
	_, auth := newAuth()
	ctx := context.Background()
	_, err := auth.Register(ctx, RegisterInput{Username: "alice", Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)

	_, err = auth.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := auth.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.True(t, sess.ExpiresAt.After(time.Now()))

	u, err := auth.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	require.NoError(t, auth.Logout(ctx, sess.Token))
	_, err = auth.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// logging out twice or with junk is harmless
	assert.NoError(t, auth.Logout(ctx, sess.Token))
	assert.NoError(t, auth.Logout(ctx, "junk"))
}

func TestAuthenticate_RejectsForeignTokens(t *testing.T) {
	db, auth := newAuth()
	ctx := context.Background()
	u := db.addUser("alice", 0)

	// validly signed but never stored
	tok, err := utils.NewSessionToken(testSecret, u.ID, false, time.Hour)
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, tok.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// signed with another secret
	other, err := utils.NewSessionToken("other", u.ID, false, time.Hour)
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, other.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestEnsureAdmin(t *testing.T) {
	db, auth := newAuth()
	ctx := context.Background()

	require.NoError(t, auth.EnsureAdmin(ctx, "", ""))
	assert.Empty(t, db.users)

	require.NoError(t, auth.EnsureAdmin(ctx, "root", "pw"))
	sess, err := auth.Login(ctx, "root", "pw")
	require.NoError(t, err)
	assert.True(t, sess.User.IsAdmin)

	plain := db.addUser("bob", 0)
	require.NoError(t, auth.EnsureAdmin(ctx, "bob", "ignored"))
	assert.True(t, db.user(plain.ID).IsAdmin)
}
