package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"opensesame/internal/auth"
	"opensesame/internal/logger"

	"golang.org/x/oauth2"
	githubendpoint "golang.org/x/oauth2/github"
)

const (
	providerName      = "github"
	defaultAPIBaseURL = "https://api.github.com"
)

// errNoContent is GitHub's answer for lists of an empty repository.
var errNoContent = errors.New("github: no content")

// Scopes requested for both the web and the device flow.
var Scopes = []string{"read:user", "user:email"}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	APIBaseURL   string
	// HTTPClient is used for token exchange and API calls. Nil means
	// http.DefaultClient.
	HTTPClient *http.Client
}

// Provider links GitHub accounts through OAuth. The GitHub access token is
// the identity token posted at sign-up.
type Provider struct {
	oauthConfig *oauth2.Config
	apiBaseURL  string
	httpClient  *http.Client
}

func New(cfg Config) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("github oauth config missing client id")
	}

	apiBaseURL := strings.TrimRight(cfg.APIBaseURL, "/")
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}

	return &Provider{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     githubendpoint.Endpoint,
			Scopes:       Scopes,
		},
		apiBaseURL: apiBaseURL,
		httpClient: cfg.HTTPClient,
	}, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

// OAuthConfig exposes the client configuration, e.g. for the device flow.
func (p *Provider) OAuthConfig() *oauth2.Config {
	return p.oauthConfig
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *Provider) AuthCodeURL(state string, codeChallenge string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

func (p *Provider) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (*auth.Identity, error) {

	token, err := p.oauthConfig.Exchange(
		p.withClient(ctx),
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("github token exchange failed: %w", err)
	}

	return p.VerifyToken(ctx, token.AccessToken)
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// VerifyToken looks the token's owner up through the GitHub API. When the
// profile email is private the primary verified address is used instead.
//
// With a client secret configured the token must also have been issued to
// this OAuth app; a token minted for any other app is ErrInvalidToken.
func (p *Provider) VerifyToken(ctx context.Context, token string) (*auth.Identity, error) {
	if token == "" {
		return nil, auth.ErrInvalidToken
	}

	if p.oauthConfig.ClientSecret != "" {
		if err := p.checkTokenApp(ctx, token); err != nil {
			return nil, err
		}
	}

	client := oauth2.NewClient(p.withClient(ctx), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))

	var user githubUser
	if err := p.getJSON(ctx, client, "/user", &user); err != nil {
		return nil, err
	}
	if user.ID == 0 || user.Login == "" {
		return nil, errors.New("github user response missing id or login")
	}

	identity := &auth.Identity{
		Provider:       providerName,
		ProviderUserID: strconv.FormatInt(user.ID, 10),
		Login:          user.Login,
		Email:          user.Email,
		Token:          token,
	}

	var emails []githubEmail
	if err := p.getJSON(ctx, client, "/user/emails", &emails); err != nil {
		// the user:email scope may not have been granted
		logger.Warn("github emails lookup failed", map[string]any{
			"login": user.Login,
			"error": err.Error(),
		})
		return identity, nil
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			identity.Email = e.Email
			identity.EmailVerified = true
			break
		}
	}

	return identity, nil
}

const contributorsPerPage = 100

// CountContributors counts a repository's contributors, anonymous ones
// included, paging through the list. The request is unauthenticated.
func (p *Provider) CountContributors(ctx context.Context, repositoryID string) (int, error) {
	client := p.httpClient
	if client == nil {
		client = http.DefaultClient
	}

	total := 0
	for page := 1; ; page++ {
		path := fmt.Sprintf("/repositories/%s/contributors?anon=1&per_page=%d&page=%d",
			url.PathEscape(repositoryID), contributorsPerPage, page)

		var contributors []json.RawMessage
		if err := p.getJSON(ctx, client, path, &contributors); err != nil {
			if errors.Is(err, errNoContent) {
				return total, nil
			}
			return 0, err
		}

		total += len(contributors)
		if len(contributors) < contributorsPerPage {
			return total, nil
		}
	}
}

// checkTokenApp asks GitHub whether token belongs to this app. It needs the
// client secret, so clients running the device flow skip it.
func (p *Provider) checkTokenApp(ctx context.Context, token string) error {
	path := "/applications/" + p.oauthConfig.ClientID + "/token"

	payload, err := json.Marshal(map[string]string{"access_token": token})
	if err != nil {
		return fmt.Errorf("github request %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("github request %s: %w", path, err)
	}
	req.SetBasicAuth(p.oauthConfig.ClientID, p.oauthConfig.ClientSecret)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	client := p.httpClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github request %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		logger.Warn("github token issued to another app", map[string]any{
			"status_code": resp.StatusCode,
		})
		return auth.ErrInvalidToken
	default:
		return fmt.Errorf("github request %s: unexpected status %d", path, resp.StatusCode)
	}
}

func (p *Provider) getJSON(ctx context.Context, client *http.Client, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("github request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return auth.ErrInvalidToken
	case resp.StatusCode == http.StatusNoContent:
		return errNoContent
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("github request %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("github response %s: %w", path, err)
	}
	return nil
}

func (p *Provider) withClient(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}
