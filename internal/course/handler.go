package course

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler serves the course and enrollment endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a course handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the course routes.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/courses", h.list)
	r.GET("/courses/:id", h.get)
	r.PUT("/courses/:id/members", h.replaceMembers)
	r.GET("/courses/:id/enrollments", h.listEnrollments)
	r.POST("/courses/:id/enrollments", h.enroll)
	r.DELETE("/courses/:id/enrollments/:partner", h.unenroll)
}

func (h *Handler) list(c *gin.Context) {
	courses, err := h.svc.ListCourses(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (h *Handler) get(c *gin.Context) {
	course, err := h.svc.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, course)
}

func (h *Handler) listEnrollments(c *gin.Context) {
	enrollments, err := h.svc.ListEnrollments(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": enrollments})
}

func (h *Handler) replaceMembers(c *gin.Context) {
	var req struct {
		PartnerIDs []string `json:"partner_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.ReplaceMembers(c.Request.Context(), c.Param("id"), req.PartnerIDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) enroll(c *gin.Context) {
	var req struct {
		PartnerIDs []string `json:"partner_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.Enroll(c.Request.Context(), c.Param("id"), req.PartnerIDs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusCreated)
}

func (h *Handler) unenroll(c *gin.Context) {
	if err := h.svc.Unenroll(c.Request.Context(), c.Param("id"), c.Param("partner")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
