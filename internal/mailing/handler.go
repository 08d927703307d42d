package mailing

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"training/internal/auth"
	"training/internal/queue"
)

// Handler serves the campaign endpoints. Sends are handed to the queue and
// delivered by the worker.
type Handler struct {
	svc *Service
	q   queue.Queue
}

// NewHandler creates a mailing handler.
func NewHandler(svc *Service, q queue.Queue) *Handler {
	return &Handler{svc: svc, q: q}
}

// Register mounts the campaign routes.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/campaigns", h.create)
	r.GET("/campaigns/:id", h.get)
	r.PUT("/campaigns/:id/attendees", h.setAttendees)
	r.POST("/campaigns/:id/send", h.send)
}

func (h *Handler) create(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Subject  string `json:"subject"`
		Body     string `json:"body"`
		CourseID string `json:"course_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	campaign, err := h.svc.Create(c.Request.Context(), CreateInput{
		Name:          req.Name,
		Subject:       req.Subject,
		Body:          req.Body,
		CourseID:      req.CourseID,
		ActingPartner: auth.PartnerID(c),
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

func (h *Handler) get(c *gin.Context) {
	campaign, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	attendees, err := h.svc.Attendees(c.Request.Context(), campaign.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": campaign, "attendees": attendees})
}

func (h *Handler) setAttendees(c *gin.Context) {
	var req struct {
		PartnerIDs []string `json:"partner_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.SetAttendees(c.Request.Context(), c.Param("id"), req.PartnerIDs); err != nil {
		if err == ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) send(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.svc.Get(c.Request.Context(), id); err != nil {
		if err == ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.q.Publish(context.Background(), queue.Message{Type: "campaign", Body: []byte(id)}); err != nil {
		log.Printf("queue publish failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
