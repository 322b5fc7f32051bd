package projects

import (
	"net/http"

	"opensesame/internal/apperror"

	"github.com/gin-gonic/gin"
)

// ProjectIDParam names the path parameter holding the repository id.
const ProjectIDParam = "projectId"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts GET /projects and GET /projects/:projectId.
// /projects takes any number of filter query parameters, all of which must
// match.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/projects", h.list)
	r.GET("/projects/:"+ProjectIDParam, h.get)
}

func (h *Handler) list(c *gin.Context) {
	projects, err := h.service.List(c.Request.Context(), c.QueryArray("filter"))
	if err != nil {
		apperror.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param(ProjectIDParam))
	if err != nil {
		apperror.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
