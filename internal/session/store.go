package session

import (
	"context"
	"time"
)

// Session binds a browser to a linked provider identity and, once the
// sign-up has been submitted, to the internal user.
type Session struct {
	SessionID      string    `json:"session_id"`
	UserID         string    `json:"user_id,omitempty"` // empty until signed up
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"provider_user_id"`
	Login          string    `json:"login,omitempty"`
	Email          string    `json:"email,omitempty"`
	AccessToken    string    `json:"access_token"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"` // absolute expiry time
}

// Linked reports whether the session carries a provider identity.
func (s *Session) Linked() bool {
	return s != nil && s.ProviderUserID != "" && s.AccessToken != ""
}

// Store defines how sessions are stored and retrieved.
// Get returns (nil, nil) when the session does not exist.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Update(ctx context.Context, s Session) error
	Delete(ctx context.Context, sessionID string) error
}
