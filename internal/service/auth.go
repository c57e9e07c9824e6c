package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/rs/zerolog"

	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/repository"
	"github.com/iliyamo/turf-booking/internal/utils"
)

// RegisterInput is the sign-up form.  Email is optional.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the sign-up form.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required.Error("Username is required."), validation.Length(1, 50)),
		validation.Field(&in.Email, validation.Length(0, 120), is.Email),
		validation.Field(&in.Password, validation.Required.Error("Password is required.")),
	)
}

// Session is an issued login: the signed cookie value and its expiry.
type Session struct {
	User      model.User
	Token     string
	SessionID string
	ExpiresAt time.Time
}

// AuthService registers users and manages login sessions.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	secret   string
	ttl      time.Duration
	cost     int
	log      zerolog.Logger
}

// NewAuthService wires an AuthService.  secret signs session tokens; ttl
// bounds their lifetime; cost is the bcrypt cost for new passwords.
func NewAuthService(users UserStore, sessions SessionStore, secret string, ttl time.Duration, cost int, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		secret:   secret,
		ttl:      ttl,
		cost:     cost,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

// Register creates a regular user with zero loyalty points.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := in.Validate(); err != nil {
		return model.User{}, invalid(firstValidationMessage(err))
	}
	id, err := s.users.Create(ctx, in.Username, in.Email, in.Password, false, s.cost)
	if errors.Is(err, repository.ErrDuplicate) {
		return model.User{}, ErrUsernameTaken
	}
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	s.log.Info().Uint64("user_id", id).Str("username", in.Username).Msg("user registered")
	return model.User{ID: id, Username: in.Username, Email: in.Email}, nil
}

// Login verifies the credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, username, password string) (Session, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	tok, err := utils.NewSessionToken(s.secret, u.ID, u.IsAdmin, s.ttl)
	if err != nil {
		return Session{}, fmt.Errorf("issue session: %w", err)
	}
	if err := s.sessions.Store(ctx, u.ID, utils.HashSessionID(tok.SessionID), tok.Exp); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	s.log.Info().Uint64("user_id", u.ID).Msg("user logged in")
	return Session{User: u, Token: tok.Token, SessionID: tok.SessionID, ExpiresAt: tok.Exp}, nil
}

// Authenticate resolves a session cookie to the current user record.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (model.User, error) {
	claims, err := utils.ParseSessionToken(s.secret, raw)
	if err != nil {
		return model.User{}, ErrUnauthenticated
	}
	uid, err := s.sessions.Validate(ctx, utils.HashSessionID(claims.SessionID))
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUnauthenticated
	}
	if err != nil {
		return model.User{}, fmt.Errorf("validate session: %w", err)
	}
	if uid != claims.UserID {
		return model.User{}, ErrUnauthenticated
	}
	u, err := s.users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUnauthenticated
	}
	if err != nil {
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// Logout revokes the session behind raw.  An invalid token is not an
// error; there is nothing to revoke.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	claims, err := utils.ParseSessionToken(s.secret, raw)
	if err != nil {
		return nil
	}
	if err := s.sessions.Revoke(ctx, utils.HashSessionID(claims.SessionID)); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// EnsureAdmin makes sure an administrator account named username exists.
// An existing user is promoted; otherwise one is created.  Empty
// credentials disable the bootstrap.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil
	}
	u, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		if u.IsAdmin {
			return nil
		}
		if err := s.users.PromoteToAdmin(ctx, u.ID); err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
		s.log.Info().Str("username", username).Msg("existing user promoted to admin")
		return nil
	case errors.Is(err, repository.ErrNotFound):
		if _, err := s.users.Create(ctx, username, "", password, true, s.cost); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		s.log.Info().Str("username", username).Msg("admin account created")
		return nil
	default:
		return fmt.Errorf("load admin: %w", err)
	}
}

// firstValidationMessage picks a single readable message out of an ozzo
// error map, preferring the username then the password field.
func firstValidationMessage(err error) string {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err.Error()
	}
	for _, field := range []string{"username", "password", "email"} {
		if e, ok := errs[field]; ok && e != nil {
			if field == "email" {
				return "Email " + e.Error() + "."
			}
			return e.Error()
		}
	}
	return err.Error()
}
