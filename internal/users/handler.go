package users

import (
	"net/http"

	"opensesame/internal/apperror"
	"opensesame/internal/logger"
	"opensesame/internal/middleware"
	"opensesame/internal/session"
	"opensesame/internal/signup"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service  *Service
	sessions session.Store
}

func NewHandler(service *Service, sessions session.Store) *Handler {
	return &Handler{service: service, sessions: sessions}
}

type userResponse struct {
	UserID       string   `json:"userId"`
	Login        string   `json:"login,omitempty"`
	InterestTags []string `json:"interestTags"`
}

// RegisterRoutes mounts POST /user. The route expects LoadSession to run
// before it so a linked session can be promoted to a signed-up one.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST(signup.UserPath, h.createUser)
}

func (h *Handler) createUser(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		apperror.Write(c, apperror.NewValidationError("malformed_form", signup.MsgServerFailure))
		return
	}

	body, err := signup.Decode(c.Request.PostForm)
	if err != nil {
		apperror.Write(c, apperror.NewValidationError("malformed_form", signup.MsgServerFailure))
		return
	}

	result, err := h.service.SignUp(c.Request.Context(), body)
	if err != nil {
		apperror.Write(c, err)
		return
	}

	h.attachUser(c, result)

	if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
		c.Redirect(http.StatusSeeOther, signup.AfterSignupRedirect)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}

	c.JSON(status, userResponse{
		UserID:       result.UserID,
		Login:        result.Identity.Login,
		InterestTags: result.InterestTags,
	})
}

// attachUser records the user on the caller's session when the session holds
// the identity that just signed up.
func (h *Handler) attachUser(c *gin.Context, result *Result) {
	sess, ok := middleware.SessionFromContext(c.Request.Context())
	if !ok {
		return
	}
	if sess.Provider != result.Identity.Provider || sess.ProviderUserID != result.Identity.ProviderUserID {
		return
	}

	updated := *sess
	updated.UserID = result.UserID
	if err := h.sessions.Update(c.Request.Context(), updated); err != nil {
		// the account exists, the browser just has to link again
		logger.Warn("session user attach failed", map[string]any{
			"user_id": result.UserID,
			"error":   err.Error(),
		})
	}
}
