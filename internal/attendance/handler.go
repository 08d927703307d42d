package attendance

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler serves the attendance roster endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an attendance handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the attendance routes.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/courses/:id/attendance", h.list)
	r.PATCH("/attendance/:id", h.markPresent)
	r.DELETE("/attendance/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	date := h.svc.Today()
	if v := c.Query("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}
	recs, err := h.svc.RecordsForDate(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": recs})
}

func (h *Handler) markPresent(c *gin.Context) {
	var req struct {
		Present *bool `json:"present" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.MarkPresent(c.Request.Context(), c.Param("id"), *req.Present); err != nil {
		if err == ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if err == ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
