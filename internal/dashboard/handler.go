package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler serves the dashboard payload.
type Handler struct {
	svc *Service
}

// NewHandler creates a dashboard handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the dashboard route.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/dashboard", h.data)
}

// data always answers 200; failed metrics are already replaced by their
// fallbacks inside the service.
func (h *Handler) data(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Data(c.Request.Context()))
}
