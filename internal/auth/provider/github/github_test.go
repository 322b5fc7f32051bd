package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"opensesame/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPI(t *testing.T, emailsStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":583231,"login":"octocat","email":null}`))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		if emailsStatus != http.StatusOK {
			w.WriteHeader(emailsStatus)
			return
		}
		_, _ = w.Write([]byte(`[
			{"email":"old@example.com","primary":false,"verified":true},
			{"email":"octocat@github.com","primary":true,"verified":true}
		]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifyToken(t *testing.T) {
	srv := newAPI(t, http.StatusOK)
	p, err := New(Config{ClientID: "id", APIBaseURL: srv.URL + "/", HTTPClient: srv.Client()})
	require.NoError(t, err)

	identity, err := p.VerifyToken(context.Background(), "tok123")
	require.NoError(t, err)

	assert.Equal(t, &auth.Identity{
		Provider:       "github",
		ProviderUserID: "583231",
		Login:          "octocat",
		Email:          "octocat@github.com",
		EmailVerified:  true,
		Token:          "tok123",
	}, identity)
}

func TestVerifyTokenWithoutEmailScope(t *testing.T) {
	srv := newAPI(t, http.StatusNotFound)
	p, err := New(Config{ClientID: "id", APIBaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	identity, err := p.VerifyToken(context.Background(), "tok123")
	require.NoError(t, err)

	assert.Equal(t, "octocat", identity.Login)
	assert.Empty(t, identity.Email)
	assert.False(t, identity.EmailVerified)
}

func TestVerifyTokenRejected(t *testing.T) {
	srv := newAPI(t, http.StatusOK)
	p, err := New(Config{ClientID: "id", APIBaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = p.VerifyToken(context.Background(), "stale")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = p.VerifyToken(context.Background(), "")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyTokenChecksIssuingApp(t *testing.T) {
	srv := newAPI(t, http.StatusOK)
	var checked []string
	srv.Config.Handler.(*http.ServeMux).HandleFunc("/applications/id/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if r.Method != http.MethodPost || !ok || user != "id" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		checked = append(checked, body.AccessToken)
		if body.AccessToken != "tok123" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok123","app":{"client_id":"id"}}`))
	})

	p, err := New(Config{ClientID: "id", ClientSecret: "secret", APIBaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	identity, err := p.VerifyToken(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Equal(t, "octocat", identity.Login)

	// a working token that was issued to a different app
	_, err = p.VerifyToken(context.Background(), "gho_other_app")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	assert.Equal(t, []string{"tok123", "gho_other_app"}, checked)
}

func TestVerifyTokenAppCheckUnavailable(t *testing.T) {
	srv := newAPI(t, http.StatusOK)
	srv.Config.Handler.(*http.ServeMux).HandleFunc("/applications/id/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	p, err := New(Config{ClientID: "id", ClientSecret: "secret", APIBaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = p.VerifyToken(context.Background(), "tok123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrInvalidToken)
}

func TestCountContributors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repositories/42/contributors", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("anon"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		n := 100
		if r.URL.Query().Get("page") == "2" {
			n = 3
		}
		items := make([]string, n)
		for i := range items {
			items[i] = fmt.Sprintf(`{"login":"user%d"}`, i)
		}
		_, _ = w.Write([]byte("[" + strings.Join(items, ",") + "]"))
	})
	mux.HandleFunc("/repositories/7/contributors", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p, err := New(Config{ClientID: "id", APIBaseURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	n, err := p.CountContributors(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 103, n)

	n, err = p.CountContributors(context.Background(), "7")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = p.CountContributors(context.Background(), "404")
	assert.Error(t, err)
}

func TestAuthCodeURL(t *testing.T) {
	p, err := New(Config{ClientID: "id", RedirectURL: "http://localhost:8080/oauth/callback/github"})
	require.NoError(t, err)

	raw := p.AuthCodeURL("state-1", "challenge-1")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "github.com", u.Host)
	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "challenge-1", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, "read:user user:email", q.Get("scope"))
}

func TestNewRequiresClientID(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
