package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/turf-booking/internal/handler"
	"github.com/iliyamo/turf-booking/internal/middleware"
	"github.com/iliyamo/turf-booking/internal/model"
	"github.com/iliyamo/turf-booking/internal/service"
)

type tokenAuth map[string]model.User

func (a tokenAuth) Authenticate(_ context.Context, raw string) (model.User, error) {
	if u, ok := a[raw]; ok {
		return u, nil
	}
	return model.User{}, service.ErrUnauthenticated
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// newServer wires every route with nil services; only requests that the
// middleware rejects may be served.
func newServer() *echo.Echo {
	log := zerolog.Nop()
	e := echo.New()
	session := middleware.RequireSession(tokenAuth{
		"user":  {ID: 1, Username: "alice"},
		"admin": {ID: 2, Username: "root", IsAdmin: true},
	}, log)
	RegisterRoutes(e, okPinger{})
	RegisterAuth(e, handler.NewAuthHandler(nil, false, log), passThrough)
	RegisterUser(e, handler.NewBookingHandler(nil, log), session, passThrough, passThrough)
	RegisterAdmin(e, handler.NewAdminHandler(nil, log), session, passThrough)
	return e
}

func do(e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGuestIsSentToLogin(t *testing.T) {
	e := newServer()
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodGet, "/turf/1"},
		{http.MethodGet, "/check_availability"},
		{http.MethodPost, "/book/confirm"},
		{http.MethodPost, "/book/execute"},
		{http.MethodGet, "/dashboard"},
		{http.MethodPost, "/cancel_booking/1"},
		{http.MethodGet, "/admin"},
		{http.MethodPost, "/admin/turf/add"},
		{http.MethodPost, "/admin/turf/remove/1"},
		{http.MethodGet, "/admin/report/pdf"},
		{http.MethodGet, "/admin/report/excel"},
	} {
		rec := do(e, r.method, r.path, "")
		assert.Equal(t, http.StatusSeeOther, rec.Code, r.path)
		assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation), r.path)

		rec = do(e, r.method, r.path, "forged")
		assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation), r.path)
	}
}

func TestAdminPagesRejectUsers(t *testing.T) {
	e := newServer()
	for _, path := range []string{"/admin", "/admin/report/pdf", "/admin/report/excel"} {
		rec := do(e, http.MethodGet, path, "user")
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation), path)
	}
	rec := do(e, http.MethodPost, "/admin/turf/remove/1", "user")
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
}

func TestPublicRoutes(t *testing.T) {
	e := newServer()

	rec := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, path := range []string{"/login", "/register"} {
		rec = do(e, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
