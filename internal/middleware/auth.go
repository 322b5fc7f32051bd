package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"opensesame/internal/apperror"
	"opensesame/internal/logger"
	"opensesame/internal/session"
)

// SignupPath is where unauthenticated browsers are sent.
const SignupPath = "/signup.html"

// unexported, collision-proof context key
type sessionContextKeyType struct{}

var sessionKey = sessionContextKeyType{}

// SessionFromContext returns the live session attached by LoadSession or
// RequireUser.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*session.Session)
	return sess, ok && sess != nil
}

// UserIDFromContext extracts the signed-up user ID from context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	sess, ok := SessionFromContext(ctx)
	if !ok || sess.UserID == "" {
		return "", false
	}
	return sess.UserID, true
}

type AuthMiddleware struct {
	Store   session.Store
	Cookies session.CookieOptions
}

func NewAuthMiddleware(store session.Store, cookies session.CookieOptions) *AuthMiddleware {
	return &AuthMiddleware{Store: store, Cookies: cookies}
}

// load returns the caller's session, or nil when there is none.
func (a *AuthMiddleware) load(r *http.Request) *session.Session {
	sessionID, ok := session.ReadCookie(r, a.Cookies)
	if !ok {
		return nil
	}

	sess, err := a.Store.Get(r.Context(), sessionID)
	if err != nil {
		logger.Error("session lookup failed", map[string]any{
			"error": err.Error(),
		})
		return nil
	}
	if sess == nil {
		return nil
	}

	if time.Now().After(sess.ExpiresAt) {
		_ = a.Store.Delete(r.Context(), sessionID)
		return nil
	}

	return sess
}

// LoadSession attaches the session, if any, and always continues.
func (a *AuthMiddleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess := a.load(r); sess != nil {
			r = r.WithContext(context.WithValue(r.Context(), sessionKey, sess))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser only lets through sessions that completed sign-up. Browsers
// are sent back to the sign-up page, API clients get a 401.
func (a *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := a.load(r)
		if sess == nil || sess.UserID == "" {
			if strings.Contains(r.Header.Get("Accept"), "text/html") {
				http.Redirect(w, r, SignupPath, http.StatusSeeOther)
				return
			}

			appErr := apperror.NewAuthError("unauthorized", "Please sign up first.", nil)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(appErr.StatusCode())
			_ = json.NewEncoder(w).Encode(appErr.ToResponse())
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
