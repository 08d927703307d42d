package calendar

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"training/internal/auth"
)

// Handler serves the training calendar page.
type Handler struct {
	repo *Repository
	now  func() time.Time
}

// NewHandler creates a calendar handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo, now: time.Now}
}

// Register mounts the calendar route.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/slides/course/:id/calendar", h.page)
}

func (h *Handler) page(c *gin.Context) {
	courseID := c.Param("id")
	partnerID := auth.PartnerID(c)
	ctx := c.Request.Context()

	exists, err := h.repo.CourseExists(ctx, courseID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !exists {
		c.Redirect(http.StatusSeeOther, "/slides")
		return
	}

	now := h.now()
	year, month := now.Year(), now.Month()
	if v := c.Query("year"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			year = parsed
		}
	}
	if v := c.Query("month"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 1 && parsed <= 12 {
			month = time.Month(parsed)
		}
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	sessions, err := h.repo.SessionsInRange(ctx, courseID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	proofDates, err := h.repo.ProofDates(ctx, partnerID, courseID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	upcoming, err := h.repo.Upcoming(ctx, courseID, time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), 5)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	view := BuildMonth(year, month, now, sessions, proofDates)
	c.JSON(http.StatusOK, gin.H{
		"course_id":          courseID,
		"calendar":           view,
		"upcoming_trainings": upcoming,
	})
}
