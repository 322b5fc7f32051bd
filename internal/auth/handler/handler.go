package handler

import (
	"net/http"
	"time"

	"opensesame/internal/apperror"
	"opensesame/internal/auth/provider"
	"opensesame/internal/logger"
	"opensesame/internal/session"

	"github.com/gin-gonic/gin"
)

// LinkedRedirect is where the browser lands after linking or unlinking.
const LinkedRedirect = "/signup.html"

// Handler runs the browser side of identity linking: the OAuth round trip
// that links a provider account to a session, and logout which unlinks it.
type Handler struct {
	providers       *provider.Registry
	defaultProvider string
	sessions        session.Store
	cookies         session.CookieOptions
	sessionTTL      time.Duration
}

// NewHandler links through any registered provider; defaultProvider is the
// one advertised by GET /auth.
func NewHandler(
	registry *provider.Registry,
	defaultProvider string,
	sessions session.Store,
	cookies session.CookieOptions,
	sessionTTL time.Duration,
) *Handler {
	return &Handler{
		providers:       registry,
		defaultProvider: defaultProvider,
		sessions:        sessions,
		cookies:         cookies,
		sessionTTL:      sessionTTL,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/auth", h.status)
	r.GET("/oauth/login/:provider", h.login)
	r.GET("/oauth/callback/:provider", h.callback)
	r.POST(logoutPath, h.logout)
}

const logoutPath = "/auth/logout"

type statusUser struct {
	ID    string `json:"id"`
	Login string `json:"login,omitempty"`
	Email string `json:"email,omitempty"`
}

type statusResponse struct {
	LoginURL   string      `json:"loginUrl"`
	LogoutURL  string      `json:"logoutUrl"`
	Authorized bool        `json:"authorized"`
	SignedUp   bool        `json:"signedUp"`
	User       *statusUser `json:"user,omitempty"`
}

// status reports where to link and unlink, and the linked identity if any.
func (h *Handler) status(c *gin.Context) {
	resp := statusResponse{
		LoginURL:  "/oauth/login/" + h.defaultProvider,
		LogoutURL: logoutPath,
	}

	if sessionID, ok := session.ReadCookie(c.Request, h.cookies); ok {
		sess, err := h.sessions.Get(c.Request.Context(), sessionID)
		if err != nil {
			apperror.Write(c, apperror.NewInternalError("session_lookup_failed", err))
			return
		}
		if sess.Linked() && time.Now().Before(sess.ExpiresAt) {
			resp.Authorized = true
			resp.SignedUp = sess.UserID != ""
			resp.User = &statusUser{
				ID:    sess.ProviderUserID,
				Login: sess.Login,
				Email: sess.Email,
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) login(c *gin.Context) {
	p, err := h.providers.Get(c.Param("provider"))
	if err != nil {
		apperror.Write(c, apperror.NewNotFoundError("unknown_oauth_provider", "This sign-in provider is not available."))
		return
	}

	state, err := h.generateState(c)
	if err != nil {
		apperror.Write(c, apperror.NewInternalError("state_generation_failed", err))
		return
	}

	_, challenge, err := h.generatePKCE(c)
	if err != nil {
		apperror.Write(c, apperror.NewInternalError("pkce_generation_failed", err))
		return
	}

	c.Redirect(http.StatusFound, p.AuthCodeURL(state, challenge))
}

func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		apperror.Write(c, apperror.NewNotFoundError("unknown_oauth_provider", "This sign-in provider is not available."))
		return
	}

	// the user declined or the provider failed: back to the form, unlinked
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		c.Redirect(http.StatusFound, LinkedRedirect)
		return
	}

	if !h.validateState(c) {
		apperror.Write(c, apperror.NewAuthError("invalid_state", "Your sign-in attempt expired. Please try again.", nil))
		return
	}

	code := c.Query("code")
	if code == "" {
		apperror.Write(c, apperror.NewValidationError("missing_code", "Your sign-in attempt failed. Please try again."))
		return
	}

	verifier := h.pkceVerifier(c)
	if verifier == "" {
		apperror.Write(c, apperror.NewAuthError("missing_pkce_verifier", "Your sign-in attempt expired. Please try again.", nil))
		return
	}

	identity, err := p.ExchangeCode(c.Request.Context(), code, verifier)
	if err != nil {
		logger.Error("oauth code exchange failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		apperror.Write(c, apperror.NewAuthError("authentication_failed", "We could not link your account. Please try again.", err))
		return
	}

	sessionID, err := session.GenerateID()
	if err != nil {
		apperror.Write(c, apperror.NewInternalError("session_generation_failed", err))
		return
	}

	now := time.Now()
	expiresAt := now.Add(h.sessionTTL)

	sess := session.Session{
		SessionID:      sessionID,
		Provider:       identity.Provider,
		ProviderUserID: identity.ProviderUserID,
		Login:          identity.Login,
		Email:          identity.Email,
		AccessToken:    identity.Token,
		CreatedAt:      now,
		ExpiresAt:      expiresAt,
	}

	if err := h.sessions.Create(c.Request.Context(), sess); err != nil {
		apperror.Write(c, apperror.NewInternalError("session_persist_failed", err))
		return
	}

	// a browser holds a single linked identity
	if oldID, ok := session.ReadCookie(c.Request, h.cookies); ok {
		_ = h.sessions.Delete(c.Request.Context(), oldID)
	}

	session.SetCookie(c.Writer, sessionID, expiresAt, h.cookies)

	logger.Info("identity linked", map[string]any{
		"provider": identity.Provider,
		"login":    identity.Login,
		"ip":       c.ClientIP(),
	})

	c.Redirect(http.StatusFound, LinkedRedirect)
}

func (h *Handler) logout(c *gin.Context) {
	if sessionID, ok := session.ReadCookie(c.Request, h.cookies); ok {
		// best-effort, the cookie is cleared regardless
		if err := h.sessions.Delete(c.Request.Context(), sessionID); err != nil {
			logger.Warn("session delete failed", map[string]any{
				"error": err.Error(),
			})
		}
		logger.Info("identity unlinked", map[string]any{
			"ip": c.ClientIP(),
		})
	}

	session.ClearCookie(c.Writer, h.cookies)

	if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
		c.Redirect(http.StatusSeeOther, LinkedRedirect)
		return
	}
	c.Status(http.StatusNoContent)
}
