package web

import (
	"context"
	"errors"
	"net/http"

	"opensesame/internal/apperror"
	"opensesame/internal/logger"
	"opensesame/internal/middleware"
	"opensesame/internal/session"
	"opensesame/internal/signup"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

const (
	SignupPath    = "/signup.html"
	DashboardPath = "/dashboard.html"
	logoutPath    = "/auth/logout"
)

// TagReader loads a signed-up user's interest tags.
type TagReader interface {
	InterestTags(ctx context.Context, userID string) ([]string, error)
}

// Handler serves the server-rendered pages.
type Handler struct {
	provider string
	catalog  []string
	tags     TagReader
}

// NewHandler renders sign-up pages that link through provider and offer the
// catalog as interest tags.
func NewHandler(provider string, catalog []string, tags TagReader) *Handler {
	return &Handler{provider: provider, catalog: catalog, tags: tags}
}

// RegisterRoutes mounts the pages. auth guards the dashboard; the sign-up
// page only reads the session when there is one.
func (h *Handler) RegisterRoutes(r gin.IRouter, auth *middleware.AuthMiddleware) {
	r.GET("/", middleware.GinLoadSession(auth), h.signupPage)
	r.GET(SignupPath, middleware.GinLoadSession(auth), h.signupPage)
	r.GET(DashboardPath, middleware.GinRequireUser(auth), h.dashboardPage)
}

// sessionIdentity presents a stored session as the sign-up page's identity
// provider. Linking and unlinking happen through browser round trips, so it
// never toggles by itself.
type sessionIdentity struct {
	signup.Broadcaster
}

var errBrowserToggle = errors.New("web: linking is driven by the browser")

func newSessionIdentity(sess *session.Session) *sessionIdentity {
	p := &sessionIdentity{}
	if sess.Linked() {
		p.Set(&signup.User{ID: sess.ProviderUserID, Login: sess.Login, Email: sess.Email}, sess.AccessToken)
	}
	return p
}

func (p *sessionIdentity) ToggleSignIn(context.Context) error {
	return errBrowserToggle
}

func (h *Handler) signupPage(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c.Request.Context())
	identity := newSessionIdentity(sess)

	form := signup.NewForm(signup.NewTagCheckboxes(h.catalog...))
	ctrl := signup.NewAuthLinkController(form, identity, signup.NotifierFunc(func(message string) {
		logger.Warn("sign-up page alert", map[string]any{"message": message})
	}))
	ctrl.Initialize()
	defer ctrl.Close()

	// a returning user sees their current choices
	if sess != nil && sess.UserID != "" {
		tags, err := h.tags.InterestTags(c.Request.Context(), sess.UserID)
		if err != nil {
			logger.Error("interest tags lookup failed", map[string]any{
				"user_id": sess.UserID,
				"error":   err.Error(),
			})
		}
		for _, tag := range tags {
			form.CheckValue(tag, true)
		}
	}

	view := SignupView{
		Form:          form.Snapshot(),
		IdentityToken: identity.Token(),
		LinkURL:       "/oauth/login/" + h.provider,
		UnlinkURL:     logoutPath,
	}
	if u := identity.User(); u != nil {
		view.Login = u.Login
	}

	// the page carries the session's access token
	c.Header("Cache-Control", "no-store")
	render(c, http.StatusOK, Layout("Sign up", c.Request.URL.Path, SignupPage(view)))
}

func (h *Handler) dashboardPage(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c.Request.Context())
	if !ok {
		apperror.Write(c, apperror.NewAuthError("unauthorized", "Please sign up first.", nil))
		return
	}

	tags, err := h.tags.InterestTags(c.Request.Context(), sess.UserID)
	if err != nil {
		apperror.Write(c, err)
		return
	}

	render(c, http.StatusOK, Layout("Dashboard", c.Request.URL.Path, DashboardPage(DashboardView{
		Login:        sess.Login,
		InterestTags: tags,
	})))
}

func render(c *gin.Context, status int, component templ.Component) {
	templ.Handler(component, templ.WithStatus(status)).ServeHTTP(c.Writer, c.Request)
}
