package provider

import (
	"context"

	"opensesame/internal/auth"
)

// Linker runs the browser side of an OAuth authorization-code flow.
type Linker interface {
	// AuthCodeURL returns the consent page URL for state and the S256 PKCE
	// challenge.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode trades the callback code for an identity whose Token is
	// the credential the sign-up form later posts.
	ExchangeCode(ctx context.Context, code string, codeVerifier string) (*auth.Identity, error)
}

// TokenVerifier turns a posted identity token back into an identity.
// Rejected tokens yield auth.ErrInvalidToken; other errors mean the
// provider could not be asked.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*auth.Identity, error)
}

// OAuthProvider is a named provider that can both link and verify.
// Implementations report identity facts only; users and sessions are
// handled elsewhere.
type OAuthProvider interface {
	Linker
	TokenVerifier

	// Name is the path segment under /oauth/login/ and /oauth/callback/.
	Name() string
}
