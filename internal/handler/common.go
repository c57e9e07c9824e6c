package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turf-booking/internal/flash"
	"github.com/iliyamo/turf-booking/internal/middleware"
	"github.com/iliyamo/turf-booking/internal/model"
)

// storeTimeout bounds the store I/O of a single request.
const storeTimeout = 5 * time.Second

// genericError is shown for failures the user cannot act on.
const genericError = "Something went wrong. Please try again."

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), storeTimeout)
}

type userPart struct {
	ID            uint64 `json:"id"`
	Username      string `json:"username"`
	IsAdmin       bool   `json:"is_admin"`
	LoyaltyPoints *int   `json:"loyalty_points,omitempty"`
}

// currentUser returns the user stored by the session middleware.  Routes
// using it are always mounted behind RequireSession.
func currentUser(c echo.Context) model.User {
	u, _ := middleware.CurrentUser(c)
	return u
}

func toUserPart(u model.User, withPoints bool) *userPart {
	if u.ID == 0 {
		return nil
	}
	p := &userPart{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
	if withPoints {
		pts := u.LoyaltyPoints
		p.LoyaltyPoints = &pts
	}
	return p
}

// page renders a page document.  Every page carries its name, the pending
// flash message and the acting user.
func page(c echo.Context, name string, data echo.Map) error {
	if data == nil {
		data = echo.Map{}
	}
	data["page"] = name
	if _, ok := data["flash"]; !ok {
		if m := flash.Pop(c); m != nil {
			data["flash"] = m
		}
	}
	if _, ok := data["user"]; !ok {
		if u := toUserPart(currentUser(c), false); u != nil {
			data["user"] = u
		}
	}
	return c.JSON(http.StatusOK, data)
}

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// backTo returns the path of the Referer when it points at this host,
// else fallback.
func backTo(c echo.Context, fallback string) string {
	ref, err := url.Parse(c.Request().Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") {
		return fallback
	}
	if ref.Host != "" && ref.Host != c.Request().Host {
		return fallback
	}
	return ref.RequestURI()
}
