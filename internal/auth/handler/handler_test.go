package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"opensesame/internal/auth"
	"opensesame/internal/auth/provider"
	"opensesame/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	gotVerifier string
	exchangeErr error
}

func (p *fakeProvider) Name() string { return "github" }

func (p *fakeProvider) AuthCodeURL(state, challenge string) string {
	return fmt.Sprintf("https://github.example/login?state=%s&code_challenge=%s", state, challenge)
}

func (p *fakeProvider) ExchangeCode(_ context.Context, code, verifier string) (*auth.Identity, error) {
	p.gotVerifier = verifier
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &auth.Identity{
		Provider:       "github",
		ProviderUserID: "583231",
		Login:          "octocat",
		Token:          "tok-" + code,
	}, nil
}

func (p *fakeProvider) VerifyToken(context.Context, string) (*auth.Identity, error) {
	return nil, auth.ErrInvalidToken
}

type testEnv struct {
	router   *gin.Engine
	store    *session.RedisStore
	provider *fakeProvider
	cookies  session.CookieOptions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := &testEnv{
		router:   gin.New(),
		store:    session.NewRedisStore(client),
		provider: &fakeProvider{},
		cookies:  session.CookieOptions{Secure: true},
	}

	registry, err := provider.NewRegistry(env.provider)
	require.NoError(t, err)

	h := NewHandler(registry, "github", env.store, env.cookies, time.Hour)
	h.RegisterRoutes(env.router)
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// startLogin runs GET /oauth/login and returns the state and flow cookies.
func (e *testEnv) startLogin(t *testing.T) (string, []*http.Cookie) {
	t.Helper()
	rec := e.do(httptest.NewRequest(http.MethodGet, "/oauth/login/github", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)

	stateCookie := cookieNamed(rec, stateCookieName)
	pkceCookie := cookieNamed(rec, pkceCookieName)
	require.NotNil(t, stateCookie)
	require.NotNil(t, pkceCookie)

	assert.Equal(t, stateCookie.Value, loc.Query().Get("state"))
	assert.Equal(t, pkceChallenge(pkceCookie.Value), loc.Query().Get("code_challenge"))

	return stateCookie.Value, []*http.Cookie{stateCookie, pkceCookie}
}

func TestLoginUnknownProvider(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/oauth/login/myspace", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"unknown_oauth_provider"`)
}

func TestCallbackLinksIdentity(t *testing.T) {
	env := newTestEnv(t)
	state, cookies := env.startLogin(t)

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback/github?code=abc&state="+state, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := env.do(req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LinkedRedirect, rec.Header().Get("Location"))
	assert.Equal(t, cookies[1].Value, env.provider.gotVerifier)

	sessCookie := cookieNamed(rec, session.SecureCookieName)
	require.NotNil(t, sessCookie)

	sess, err := env.store.Get(context.Background(), sessCookie.Value)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.True(t, sess.Linked())
	assert.Equal(t, "tok-abc", sess.AccessToken)
	assert.Equal(t, "octocat", sess.Login)
	assert.Empty(t, sess.UserID)
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	env := newTestEnv(t)
	_, cookies := env.startLogin(t)

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback/github?code=abc&state=forged", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := env.do(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"invalid_state"`)
	assert.Nil(t, cookieNamed(rec, session.SecureCookieName))
}

func TestCallbackProviderErrorRedirects(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/oauth/callback/github?error=access_denied", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LinkedRedirect, rec.Header().Get("Location"))
}

func TestCallbackExchangeFailure(t *testing.T) {
	env := newTestEnv(t)
	env.provider.exchangeErr = errors.New("bad code")
	state, cookies := env.startLogin(t)

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback/github?code=abc&state="+state, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := env.do(req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"userMessage":"We could not link your account. Please try again."`)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.Create(ctx, session.Session{
		SessionID:      "sid-1",
		Provider:       "github",
		ProviderUserID: "583231",
		AccessToken:    "tok",
		ExpiresAt:      time.Now().Add(time.Hour),
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: session.SecureCookieName, Value: "sid-1"})
	rec := env.do(req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cleared := cookieNamed(rec, session.SecureCookieName)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)

	sess, err := env.store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestLogoutFromBrowserRedirects(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(""))
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := env.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, LinkedRedirect, rec.Header().Get("Location"))
}

func TestStatusAnonymous(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/auth", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"loginUrl":"/oauth/login/github","logoutUrl":"/auth/logout","authorized":false,"signedUp":false}`, rec.Body.String())
}

func TestStatusLinked(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.store.Create(context.Background(), session.Session{
		SessionID:      "sid-1",
		Provider:       "github",
		ProviderUserID: "583231",
		Login:          "octocat",
		Email:          "octocat@github.com",
		AccessToken:    "tok",
		ExpiresAt:      time.Now().Add(time.Hour),
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth", nil)
	req.AddCookie(&http.Cookie{Name: session.SecureCookieName, Value: "sid-1"})
	rec := env.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"loginUrl":"/oauth/login/github",
		"logoutUrl":"/auth/logout",
		"authorized":true,
		"signedUp":false,
		"user":{"id":"583231","login":"octocat","email":"octocat@github.com"}
	}`, rec.Body.String())
}
