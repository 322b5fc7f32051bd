package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"opensesame/internal/auth"
	"opensesame/internal/auth/provider"
	"opensesame/internal/config"
	"opensesame/internal/projects"
	"opensesame/internal/session"
	"opensesame/internal/signup"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{}

func (stubProvider) Name() string { return "github" }
func (stubProvider) AuthCodeURL(state, _ string) string {
	return "https://github.example/?state=" + state
}
func (stubProvider) ExchangeCode(context.Context, string, string) (*auth.Identity, error) {
	return nil, auth.ErrInvalidToken
}

func (stubProvider) VerifyToken(_ context.Context, token string) (*auth.Identity, error) {
	if token != "tok123" {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Identity{Provider: "github", ProviderUserID: "583231", Login: "octocat", Token: token}, nil
}

type memoryUsers struct {
	tags map[string][]string
}

func (m *memoryUsers) Resolve(_ context.Context, identity *auth.Identity) (string, bool, error) {
	id := "user-" + identity.ProviderUserID
	_, known := m.tags[id]
	return id, !known, nil
}

func (m *memoryUsers) ReplaceInterestTags(_ context.Context, userID string, tags []string) error {
	m.tags[userID] = tags
	return nil
}

func (m *memoryUsers) InterestTags(_ context.Context, userID string) ([]string, error) {
	return m.tags[userID], nil
}

func testConfig() config.Config {
	return config.Config{
		App: config.App{SecureCookies: false},
		Signup: config.Signup{
			Provider:     "github",
			InterestTags: []string{"go", "rust"},
			SessionTTL:   time.Hour,
		},
	}
}

func newTestApp(t *testing.T) (*gin.Engine, session.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := session.NewRedisStore(client)

	registry, err := provider.NewRegistry(stubProvider{})
	require.NoError(t, err)

	mem := &memoryUsers{tags: map[string][]string{}}
	router, err := NewRouter(testConfig(), Deps{
		Providers: registry,
		Sessions:  store,
		Resolver:  mem,
		Tags:      mem,
	})
	require.NoError(t, err)
	return router, store
}

func TestHealth(t *testing.T) {
	router, _ := newTestApp(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestNewRouterRequiresSignupProvider(t *testing.T) {
	cfg := testConfig()
	cfg.Signup.Provider = "gitlab"

	registry, err := provider.NewRegistry(stubProvider{})
	require.NoError(t, err)

	_, err = NewRouter(cfg, Deps{Providers: registry})
	assert.ErrorIs(t, err, provider.ErrUnknownProvider)
}

func TestSignupFlow(t *testing.T) {
	router, store := newTestApp(t)
	cookie := &http.Cookie{Name: session.DevCookieName, Value: "sid-1"}

	require.NoError(t, store.Create(context.Background(), session.Session{
		SessionID:      "sid-1",
		Provider:       "github",
		ProviderUserID: "583231",
		Login:          "octocat",
		AccessToken:    "tok123",
		ExpiresAt:      time.Now().Add(time.Hour),
	}))

	// the dashboard is closed until the form is submitted
	req := httptest.NewRequest(http.MethodGet, signup.AfterSignupRedirect, nil)
	req.Header.Set("Accept", "text/html")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	values, err := signup.Encode(signup.RequestBody{IdentityToken: "tok123", InterestTags: []string{"rust", "go"}})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, signup.UserPath, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, signup.AfterSignupRedirect, rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, signup.AfterSignupRedirect, nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<li>rust</li><li>go</li>")
}

func TestClientPostsAgainstRouter(t *testing.T) {
	router, _ := newTestApp(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	client, err := signup.NewClient(srv.URL, srv.Client())
	require.NoError(t, err)

	require.NoError(t, client.PostUser(context.Background(), signup.RequestBody{IdentityToken: "tok123", InterestTags: []string{"go"}}))

	err = client.PostUser(context.Background(), signup.RequestBody{IdentityToken: "tok123", InterestTags: []string{"cobol"}})
	var te *signup.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadRequest, te.StatusCode)
	assert.Equal(t, "unknown_interest_tag", te.Err)
}

type emptyProjects struct{}

func (emptyProjects) Get(context.Context, string) (*projects.Project, error) {
	return nil, projects.ErrNotFound
}

func (emptyProjects) List(context.Context, []projects.Filter) ([]*projects.Project, error) {
	return []*projects.Project{}, nil
}

func (emptyProjects) ListStale(context.Context, time.Time) ([]*projects.Project, error) {
	return nil, nil
}

func (emptyProjects) Save(context.Context, ...*projects.Project) error { return nil }

func TestProjectsRoutesNeedService(t *testing.T) {
	router, _ := newTestApp(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	registry, err := provider.NewRegistry(stubProvider{})
	require.NoError(t, err)
	router, err = NewRouter(testConfig(), Deps{
		Providers: registry,
		Projects:  projects.NewService(emptyProjects{}, nil, 0),
	})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects?filter=numMentors+%3E%3D+1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects/42", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"repositoryId":"42"`)
}
