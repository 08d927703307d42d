package mailing

import (
	"context"
	"errors"
	"time"
)

// Campaign is a mailing whose attendee list doubles as the desired
// membership set for its linked course.
type Campaign struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CourseID  string    `json:"course_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrNotFound is returned when a campaign does not exist.
var ErrNotFound = errors.New("campaign not found")

// Synchronizer reconciles the attendance roster after membership changes.
type Synchronizer interface {
	SyncToday(ctx context.Context, courseID string) error
}

// Store is the persistence surface the bridge needs.
type Store interface {
	CreateCampaign(ctx context.Context, campaign Campaign) (Campaign, error)
	GetCampaign(ctx context.Context, id string) (Campaign, error)
	SetAttendees(ctx context.Context, campaignID string, partnerIDs []string) error
	ListAttendees(ctx context.Context, campaignID string) ([]string, error)
	AttendeeEmails(ctx context.Context, campaignID string) ([]string, error)

	EnrolledPartnerIDs(ctx context.Context, courseID string) ([]string, error)
	CreateEnrollments(ctx context.Context, courseID string, partnerIDs []string) error
	DeleteEnrollments(ctx context.Context, courseID string, partnerIDs []string) error

	RecentCourseForPartner(ctx context.Context, partnerID string) (string, error)
	MostViewedCourse(ctx context.Context) (string, error)
}

// Service reconciles campaign attendee lists against course enrollment.
type Service struct {
	store Store
	sync  Synchronizer
}

// NewService creates a mailing bridge service.
func NewService(store Store, sync Synchronizer) *Service {
	return &Service{store: store, sync: sync}
}

// CreateInput describes a new campaign. CourseID may be empty; the fallback
// strategy then picks the acting partner's most recently updated course, or
// the most viewed course overall.
type CreateInput struct {
	Name          string
	Subject       string
	Body          string
	CourseID      string
	ActingPartner string
	SkipPrefill   bool
}

// Create stores a campaign; when linked to a course its attendee list is
// pre-filled with the course's current enrollment.
func (s *Service) Create(ctx context.Context, in CreateInput) (Campaign, error) {
	if in.Name == "" {
		return Campaign{}, errors.New("campaign name required")
	}

	courseID := in.CourseID
	if courseID == "" {
		courseID = s.inferCourse(ctx, in.ActingPartner)
	}

	campaign, err := s.store.CreateCampaign(ctx, Campaign{
		Name:     in.Name,
		Subject:  in.Subject,
		Body:     in.Body,
		CourseID: courseID,
	})
	if err != nil {
		return Campaign{}, err
	}

	if courseID != "" && !in.SkipPrefill {
		enrolled, err := s.store.EnrolledPartnerIDs(ctx, courseID)
		if err != nil {
			return Campaign{}, err
		}
		if len(enrolled) > 0 {
			if err := s.store.SetAttendees(ctx, campaign.ID, enrolled); err != nil {
				return Campaign{}, err
			}
		}
	}
	return campaign, nil
}

// inferCourse is the named fallback strategy for campaigns created without
// an explicit course: most recently updated course the acting partner is
// enrolled in, else the most viewed course overall.
func (s *Service) inferCourse(ctx context.Context, partnerID string) string {
	if partnerID != "" {
		if id, err := s.store.RecentCourseForPartner(ctx, partnerID); err == nil && id != "" {
			return id
		}
	}
	id, err := s.store.MostViewedCourse(ctx)
	if err != nil {
		return ""
	}
	return id
}

// SetAttendees rewrites the attendee list and, for course-linked campaigns,
// reconciles enrollment to match: partners dropped from the list are
// unenrolled, new ones enrolled, and today's roster is synced. Store errors
// propagate with no compensation.
func (s *Service) SetAttendees(ctx context.Context, campaignID string, partnerIDs []string) error {
	campaign, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if err := s.store.SetAttendees(ctx, campaignID, partnerIDs); err != nil {
		return err
	}
	if campaign.CourseID == "" {
		return nil
	}

	enrolled, err := s.store.EnrolledPartnerIDs(ctx, campaign.CourseID)
	if err != nil {
		return err
	}

	desired := make(map[string]bool, len(partnerIDs))
	for _, id := range partnerIDs {
		desired[id] = true
	}
	existing := make(map[string]bool, len(enrolled))

	var removed []string
	for _, id := range enrolled {
		existing[id] = true
		if !desired[id] {
			removed = append(removed, id)
		}
	}
	var added []string
	for _, id := range partnerIDs {
		if !existing[id] {
			added = append(added, id)
		}
	}

	if len(removed) > 0 {
		if err := s.store.DeleteEnrollments(ctx, campaign.CourseID, removed); err != nil {
			return err
		}
	}
	if len(added) > 0 {
		if err := s.store.CreateEnrollments(ctx, campaign.CourseID, added); err != nil {
			return err
		}
	}
	return s.sync.SyncToday(ctx, campaign.CourseID)
}

// Attendees returns the campaign's attendee partner ids.
func (s *Service) Attendees(ctx context.Context, campaignID string) ([]string, error) {
	return s.store.ListAttendees(ctx, campaignID)
}

// Recipients returns attendee email addresses for delivery.
func (s *Service) Recipients(ctx context.Context, campaignID string) ([]string, error) {
	return s.store.AttendeeEmails(ctx, campaignID)
}

// Get returns a campaign by id.
func (s *Service) Get(ctx context.Context, id string) (Campaign, error) {
	return s.store.GetCampaign(ctx, id)
}
