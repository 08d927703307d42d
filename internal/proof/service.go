package proof

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"training/internal/cloudinary"
)

// Proof is one uploaded piece of attendance evidence.
type Proof struct {
	ID           string    `json:"id"`
	PartnerID    string    `json:"partner_id"`
	CourseID     string    `json:"course_id"`
	TrainingDate time.Time `json:"training_date"`
	ImageURL     string    `json:"image_url"`
	Filename     string    `json:"filename"`
	Notes        string    `json:"notes"`
	Status       string    `json:"status"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Session is a scheduled training session a proof can reference.
type Session struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Date      time.Time `json:"training_date"`
	StartTime string    `json:"start_time,omitempty"` // "HH:MM", empty means midnight
}

// Workflow rejections; the text is shown to the user as-is.
var (
	ErrCourseNotFound = errors.New("course not found")
	ErrNotEnrolled    = errors.New("not enrolled in this course")
	ErrProofNotFound  = errors.New("proof not found")

	ErrNoTrainingDate = errors.New("Please select a training schedule.")
	ErrUnknownSession = errors.New("Invalid training schedule selected.")
	ErrNotStarted     = errors.New("Cannot upload proof before the training session starts.")
	ErrDuplicateProof = errors.New("You have already uploaded proof for this training schedule.")
	ErrNoFiles        = errors.New("Please select at least one file to upload.")
	ErrUploadFailed   = errors.New("An error occurred while uploading. Please try again.")
)

// Store is the persistence surface the workflow needs.
type Store interface {
	CourseExists(ctx context.Context, courseID string) (bool, error)
	IsEnrolled(ctx context.Context, courseID, partnerID string) (bool, error)
	SessionByDate(ctx context.Context, courseID string, date time.Time) (*Session, error)
	ListSessions(ctx context.Context, courseID string) ([]Session, error)
	ListProofs(ctx context.Context, partnerID, courseID string) ([]Proof, error)
	ProofExists(ctx context.Context, partnerID, courseID string, date time.Time) (bool, error)
	InsertProof(ctx context.Context, p Proof) error
	GetProof(ctx context.Context, id string) (*Proof, error)
	DeleteProof(ctx context.Context, id string) error
}

// Uploader stores an image and returns its public location.
type Uploader interface {
	UploadBytes(data []byte, filename string) (*cloudinary.UploadResult, error)
}

// File is one uploaded attachment.
type File struct {
	Name string
	Data []byte
}

// PageData is the view model for the proof upload page.
type PageData struct {
	CourseID      string    `json:"course_id"`
	Sessions      []Session `json:"training_schedules"`
	Proofs        []Proof   `json:"existing_proofs"`
	UploadedDates []string  `json:"uploaded_training_dates"`
}

// Service implements the attendance-proof workflow. Validation follows the
// strict rules: the training date must reference a scheduled session, the
// session must have started, and only one proof flow per date is allowed.
type Service struct {
	store    Store
	uploader Uploader // nil when image storage is not configured
	now      func() time.Time
}

// NewService creates a proof service. uploader may be nil.
func NewService(store Store, uploader Uploader) *Service {
	return &Service{store: store, uploader: uploader, now: time.Now}
}

// Page gathers everything the upload page shows for one (partner, course).
func (s *Service) Page(ctx context.Context, courseID, partnerID string) (*PageData, error) {
	exists, err := s.store.CourseExists(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrCourseNotFound
	}
	enrolled, err := s.store.IsEnrolled(ctx, courseID, partnerID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotEnrolled
	}

	sessions, err := s.store.ListSessions(ctx, courseID)
	if err != nil {
		return nil, err
	}
	proofs, err := s.store.ListProofs(ctx, partnerID, courseID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(proofs))
	var dates []string
	for _, p := range proofs {
		d := p.TrainingDate.Format("2006-01-02")
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}

	return &PageData{
		CourseID:      courseID,
		Sessions:      sessions,
		Proofs:        proofs,
		UploadedDates: dates,
	}, nil
}

// Submit validates and stores one proof record per uploaded file, all
// sharing the same training date, notes and pending status. A failure
// mid-loop is logged and surfaced generically; records created before the
// failure are kept.
func (s *Service) Submit(ctx context.Context, courseID, partnerID, trainingDate, notes string, files []File) error {
	if trainingDate == "" {
		return ErrNoTrainingDate
	}
	date, err := time.Parse("2006-01-02", trainingDate)
	if err != nil {
		return ErrUnknownSession
	}

	session, err := s.store.SessionByDate(ctx, courseID, date)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrUnknownSession
	}

	if SessionStart(*session).After(s.now()) {
		return ErrNotStarted
	}

	exists, err := s.store.ProofExists(ctx, partnerID, courseID, date)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateProof
	}

	if len(files) == 0 {
		return ErrNoFiles
	}

	for _, f := range files {
		imageURL := ""
		if s.uploader != nil {
			result, err := s.uploader.UploadBytes(f.Data, f.Name)
			if err != nil {
				log.Printf("proof upload: image store failed for %s: %v", f.Name, err)
				return ErrUploadFailed
			}
			imageURL = result.SecureURL
		}
		p := Proof{
			PartnerID:    partnerID,
			CourseID:     courseID,
			TrainingDate: date,
			ImageURL:     imageURL,
			Filename:     f.Name,
			Notes:        notes,
			Status:       "pending",
		}
		if err := s.store.InsertProof(ctx, p); err != nil {
			log.Printf("proof upload: insert failed for %s: %v", f.Name, err)
			return ErrUploadFailed
		}
	}
	return nil
}

// Delete removes a proof when the requester owns it and returns the course
// id for the redirect target.
func (s *Service) Delete(ctx context.Context, proofID, partnerID string) (string, error) {
	p, err := s.store.GetProof(ctx, proofID)
	if err != nil {
		return "", err
	}
	if p == nil || p.PartnerID != partnerID {
		return "", ErrProofNotFound
	}
	if err := s.store.DeleteProof(ctx, proofID); err != nil {
		return "", err
	}
	return p.CourseID, nil
}

// SessionStart combines the session date with its optional HH:MM start time.
func SessionStart(s Session) time.Time {
	start := time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), 0, 0, 0, 0, s.Date.Location())
	if s.StartTime != "" {
		var h, m int
		if _, err := fmt.Sscanf(s.StartTime, "%d:%d", &h, &m); err == nil {
			start = start.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
		}
	}
	return start
}
