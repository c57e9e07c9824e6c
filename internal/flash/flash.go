// Package flash carries one-shot user messages across a redirect in a
// short-lived cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

// CookieName is the cookie holding the pending message.
const CookieName = "flash"

// Message categories.
const (
	Success = "success"
	Error   = "error"
	Info    = "info"
	Warning = "warning"
)

// Message is a single flash message.
type Message struct {
	Category string `json:"category"`
	Text     string `json:"message"`
}

// Set stores a message for the next request.
func Set(c echo.Context, category, text string) {
	raw, _ := json.Marshal(Message{Category: category, Text: text})
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pending reports whether the request carries a flash cookie.
func Pending(c echo.Context) bool {
	ck, err := c.Cookie(CookieName)
	return err == nil && ck.Value != ""
}

// Pop returns the pending message, if any, and clears the cookie.
func Pop(c echo.Context) *Message {
	ck, err := c.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return nil
	}
	c.SetCookie(&http.Cookie{Name: CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})

	raw, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return nil
	}
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil || m.Text == "" {
		return nil
	}
	return &m
}

// Redirect sets a message and answers with 303 See Other to location.
func Redirect(c echo.Context, location, category, text string) error {
	Set(c, category, text)
	return c.Redirect(http.StatusSeeOther, location)
}
