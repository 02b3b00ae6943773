package auth

import (
	"net/http"
	"time"
)

// DefaultSessionCookieName is used when CookieConfig.Name is empty.
const DefaultSessionCookieName = "lavandaria_session"

// CookieConfig controls how the session cookie is written.
type CookieConfig struct {
	Name   string
	Secure bool
}

func (c CookieConfig) name() string {
	if c.Name == "" {
		return DefaultSessionCookieName
	}
	return c.Name
}

// SetSessionCookie writes the opaque token. The cookie carries nothing else.
func SetSessionCookie(w http.ResponseWriter, cfg CookieConfig, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.name(),
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie in the browser.
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.name(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionTokenFromRequest returns the session cookie value, if present.
func SessionTokenFromRequest(r *http.Request, cfg CookieConfig) (string, bool) {
	c, err := r.Cookie(cfg.name())
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
