// Package deviceauth links a GitHub account from a terminal using the OAuth
// device authorization grant, and exposes it as a signup.IdentityProvider.
package deviceauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"opensesame/internal/auth"
	"opensesame/internal/logger"
	"opensesame/internal/signup"

	"golang.org/x/oauth2"
)

// TokenVerifier resolves an access token to the account it belongs to.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*auth.Identity, error)
}

// PromptFunc shows the user where to enter the device code.
type PromptFunc func(resp *oauth2.DeviceAuthResponse)

type Config struct {
	OAuth    *oauth2.Config
	Verifier TokenVerifier
	Prompt   PromptFunc
	// HTTPClient is used for the device and token endpoints. Nil means
	// http.DefaultClient.
	HTTPClient *http.Client
}

// Provider signs in with the device flow. Signing out only forgets the
// token locally.
type Provider struct {
	signup.Broadcaster

	oauth      *oauth2.Config
	verifier   TokenVerifier
	prompt     PromptFunc
	httpClient *http.Client
}

func New(cfg Config) (*Provider, error) {
	if cfg.OAuth == nil || cfg.OAuth.Endpoint.DeviceAuthURL == "" {
		return nil, errors.New("deviceauth: oauth config without device endpoint")
	}
	if cfg.Verifier == nil || cfg.Prompt == nil {
		return nil, errors.New("deviceauth: verifier and prompt are required")
	}

	return &Provider{
		oauth:      cfg.OAuth,
		verifier:   cfg.Verifier,
		prompt:     cfg.Prompt,
		httpClient: cfg.HTTPClient,
	}, nil
}

// ToggleSignIn runs the device flow when nothing is linked and signs out
// otherwise. It blocks until the user approves, the code expires or ctx is
// done.
func (p *Provider) ToggleSignIn(ctx context.Context) error {
	if p.User() != nil {
		p.Set(nil, "")
		logger.Info("github account unlinked", nil)
		return nil
	}

	ctx = p.withClient(ctx)

	resp, err := p.oauth.DeviceAuth(ctx)
	if err != nil {
		return fmt.Errorf("deviceauth: request device code: %w", err)
	}

	p.prompt(resp)

	token, err := p.oauth.DeviceAccessToken(ctx, resp)
	if err != nil {
		return fmt.Errorf("deviceauth: wait for approval: %w", err)
	}

	identity, err := p.verifier.VerifyToken(ctx, token.AccessToken)
	if err != nil {
		return fmt.Errorf("deviceauth: look up account: %w", err)
	}

	p.Set(&signup.User{
		ID:    identity.ProviderUserID,
		Login: identity.Login,
		Email: identity.Email,
	}, token.AccessToken)

	logger.Info("github account linked", map[string]any{
		"login": identity.Login,
	})

	return nil
}

func (p *Provider) withClient(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}
