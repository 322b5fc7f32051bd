package session

import (
	"net/http"
	"time"
)

const (
	// SecureCookieName is used over HTTPS; the __Host- prefix pins the
	// cookie to the exact origin.
	SecureCookieName = "__Host-session"
	// DevCookieName is used when cookies are issued over plain HTTP.
	DevCookieName = "opensesame_session"
)

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
}

// Name returns the cookie name matching the Secure setting. Browsers drop
// __Host- cookies that are not Secure.
func (o CookieOptions) Name() string {
	if o.Secure {
		return SecureCookieName
	}
	return DevCookieName
}

func (o CookieOptions) sameSite() http.SameSite {
	if o.SameSite == 0 {
		return http.SameSiteLaxMode
	}
	return o.SameSite
}

// SetCookie issues the session cookie to the client.
func SetCookie(w http.ResponseWriter, sessionID string, expiresAt time.Time, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name(),
		Value:    sessionID,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.sameSite(),
	})
}

// ClearCookie removes the session cookie from the client.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     opts.Name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: opts.sameSite(),
	})
}

// ReadCookie returns the session id carried by r, if any.
func ReadCookie(r *http.Request, opts CookieOptions) (string, bool) {
	cookie, err := r.Cookie(opts.Name())
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
