package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/turf-booking/internal/flash"
	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/service"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "turf_session"

// LoginPath is where unauthenticated page requests are sent.
const LoginPath = "/login"

// Authenticator resolves a raw session token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (model.User, error)
}

// SetSessionCookie stores the session token in an HttpOnly, SameSite=Lax
// cookie that expires with the session.
func SetSessionCookie(c echo.Context, token string, exp time.Time, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie deletes the session cookie.
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionToken returns the raw session token from the request, or "".
func SessionToken(c echo.Context) string {
	ck, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

// RequireSession resolves the session cookie to a user and stores it on
// the context.  Requests without a valid session are redirected to the
// login page with a flash message.
func RequireSession(auth Authenticator, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := SessionToken(c)
			if raw == "" {
				return flash.Redirect(c, LoginPath, flash.Warning, "Please log in to access this page.")
			}
			u, err := auth.Authenticate(c.Request().Context(), raw)
			if err != nil {
				if !errors.Is(err, service.ErrUnauthenticated) {
					log.Error().Err(err).Msg("session lookup failed")
				}
				ClearSessionCookie(c)
				return flash.Redirect(c, LoginPath, flash.Warning, "Please log in to access this page.")
			}
			SetUser(c, u)
			return next(c)
		}
	}
}
