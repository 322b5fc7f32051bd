package auth

import "errors"

// ErrInvalidToken is returned by providers when a bearer token is rejected.
var ErrInvalidToken = errors.New("auth: invalid identity token")

// Identity represents a normalized external authentication identity
// returned by an OAuth provider. It contains facts only, no decisions.
type Identity struct {
	Provider       string // e.g. "github", "keycloak"
	ProviderUserID string // provider-scoped unique user identifier
	Login          string // display handle, may be empty
	Email          string // may be empty when the provider keeps it private
	EmailVerified  bool
	// Token is the credential the sign-up form posts as identityToken:
	// an access token for GitHub, a raw id_token for OIDC providers.
	Token string
}
