package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/turf-booking/internal/flash"
	"github.com/iliyamo/turf-booking/internal/middleware"
	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/service"
)

// AuthService is what the auth endpoints need from the service layer.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (model.User, error)
	Login(ctx context.Context, username, password string) (service.Session, error)
	Logout(ctx context.Context, raw string) error
}

// AuthHandler serves registration, login and logout.
type AuthHandler struct {
	auth          AuthService
	secureCookies bool
	log           zerolog.Logger
}

// NewAuthHandler returns an AuthHandler.  secureCookies marks the session
// cookie Secure, which production deployments behind TLS should enable.
func NewAuthHandler(auth AuthService, secureCookies bool, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookies: secureCookies, log: log}
}

// ----- DTOs -----

type registerReq struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

type loginReq struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// RegisterPage renders the sign-up form.
func (h *AuthHandler) RegisterPage(c echo.Context) error { return page(c, "register", nil) }

// LoginPage renders the login form.
func (h *AuthHandler) LoginPage(c echo.Context) error { return page(c, "login", nil) }

// Register creates an account and sends the user to the login page.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return flash.Redirect(c, "/register", flash.Error, "Invalid registration form.")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	_, err := h.auth.Register(ctx, service.RegisterInput{Username: req.Username, Email: req.Email, Password: req.Password})
	switch {
	case err == nil:
		return flash.Redirect(c, "/login", flash.Success, "Registration successful! Please log in.")
	case errors.Is(err, service.ErrValidation):
		return flash.Redirect(c, "/register", flash.Error, err.Error())
	case errors.Is(err, service.ErrUsernameTaken):
		return flash.Redirect(c, "/register", flash.Error, fmt.Sprintf("User %s is already registered.", strings.TrimSpace(req.Username)))
	default:
		h.log.Error().Err(err).Msg("register failed")
		return flash.Redirect(c, "/register", flash.Error, genericError)
	}
}

// Login opens a session and redirects admins to /admin, others to /.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return flash.Redirect(c, "/login", flash.Error, "Invalid login form.")
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	sess, err := h.auth.Login(ctx, req.Username, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		return flash.Redirect(c, "/login", flash.Error, "Incorrect username or password.")
	}
	if err != nil {
		h.log.Error().Err(err).Msg("login failed")
		return flash.Redirect(c, "/login", flash.Error, genericError)
	}

	middleware.SetSessionCookie(c, sess.Token, sess.ExpiresAt, h.secureCookies)
	if sess.User.IsAdmin {
		return c.Redirect(http.StatusSeeOther, "/admin")
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// Logout revokes the session and clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	if raw := middleware.SessionToken(c); raw != "" {
		ctx, cancel := requestContext(c)
		defer cancel()
		if err := h.auth.Logout(ctx, raw); err != nil {
			h.log.Warn().Err(err).Msg("logout failed")
		}
	}
	middleware.ClearSessionCookie(c)
	return flash.Redirect(c, "/login", flash.Info, "You have been logged out.")
}
