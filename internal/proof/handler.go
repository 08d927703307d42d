package proof

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"training/internal/auth"
	"training/internal/flash"
)

const flashScope = "proof"

// Handler serves the proof upload pages. Outcomes of a submission are
// carried across the redirect as a flash message, mirroring the session
// flags of the hosting platform.
type Handler struct {
	svc     *Service
	flashes *flash.Store
}

// NewHandler creates a proof handler.
func NewHandler(svc *Service, flashes *flash.Store) *Handler {
	return &Handler{svc: svc, flashes: flashes}
}

// Register mounts the proof routes.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/slides/course/:id/upload-proof", h.page)
	r.POST("/slides/course/:id/submit-proof", h.submit)
	r.GET("/slides/course/proof/delete/:id", h.delete)
}

func (h *Handler) page(c *gin.Context) {
	courseID := c.Param("id")
	partnerID := auth.PartnerID(c)

	data, err := h.svc.Page(c.Request.Context(), courseID, partnerID)
	if err != nil {
		switch {
		case errors.Is(err, ErrCourseNotFound):
			c.Redirect(http.StatusSeeOther, "/slides")
		case errors.Is(err, ErrNotEnrolled):
			c.Redirect(http.StatusSeeOther, "/slides/"+courseID)
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	msg, err := h.flashes.Pop(c.Request.Context(), flashScope, partnerID)
	if err != nil {
		log.Printf("flash pop failed: %v", err)
	}
	resp := gin.H{
		"course_id":               data.CourseID,
		"training_schedules":      data.Sessions,
		"existing_proofs":         data.Proofs,
		"uploaded_training_dates": data.UploadedDates,
	}
	if msg != nil {
		if msg.Kind == "success" {
			resp["success_message"] = true
		} else {
			resp["error_message"] = msg.Text
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) submit(c *gin.Context) {
	courseID := c.Param("id")
	partnerID := auth.PartnerID(c)
	back := "/slides/course/" + courseID + "/upload-proof"

	form, err := c.MultipartForm()
	if err != nil {
		h.setFlash(c, partnerID, flash.Message{Kind: "error", Text: ErrNoFiles.Error()})
		c.Redirect(http.StatusSeeOther, back)
		return
	}

	var files []File
	for _, fh := range form.File["proof_file"] {
		f, err := fh.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			continue
		}
		files = append(files, File{Name: fh.Filename, Data: data})
	}

	trainingDate := c.PostForm("training_date")
	notes := c.PostForm("notes")

	if err := h.svc.Submit(c.Request.Context(), courseID, partnerID, trainingDate, notes, files); err != nil {
		if isRejection(err) {
			h.setFlash(c, partnerID, flash.Message{Kind: "error", Text: err.Error()})
		} else {
			log.Printf("proof submit failed: %v", err)
			h.setFlash(c, partnerID, flash.Message{Kind: "error", Text: ErrUploadFailed.Error()})
		}
		c.Redirect(http.StatusSeeOther, back)
		return
	}

	h.setFlash(c, partnerID, flash.Message{Kind: "success", Text: "Proof uploaded."})
	c.Redirect(http.StatusSeeOther, back)
}

func (h *Handler) delete(c *gin.Context) {
	partnerID := auth.PartnerID(c)

	courseID, err := h.svc.Delete(c.Request.Context(), c.Param("id"), partnerID)
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/slides")
		return
	}
	c.Redirect(http.StatusSeeOther, "/slides/course/"+courseID+"/upload-proof")
}

func (h *Handler) setFlash(c *gin.Context, partnerID string, msg flash.Message) {
	if err := h.flashes.Set(c.Request.Context(), flashScope, partnerID, msg); err != nil {
		log.Printf("flash set failed: %v", err)
	}
}

// isRejection reports whether err is a user-facing validation rejection
// rather than an internal failure.
func isRejection(err error) bool {
	for _, rejection := range []error{
		ErrNoTrainingDate, ErrUnknownSession, ErrNotStarted, ErrDuplicateProof, ErrNoFiles, ErrUploadFailed,
	} {
		if errors.Is(err, rejection) {
			return true
		}
	}
	return false
}
