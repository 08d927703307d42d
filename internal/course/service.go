package course

import (
	"context"
	"errors"
)

// Synchronizer reconciles the attendance roster after membership changes.
type Synchronizer interface {
	SyncToday(ctx context.Context, courseID string) error
	EnsureToday(ctx context.Context, courseID string) error
}

// Store is the persistence surface the service needs.
type Store interface {
	GetCourse(ctx context.Context, id string) (Course, error)
	ListCourses(ctx context.Context) ([]Course, error)
	ListEnrollments(ctx context.Context, courseID string) ([]Enrollment, error)
	EnrolledPartnerIDs(ctx context.Context, courseID string) ([]string, error)
	CreateEnrollments(ctx context.Context, courseID string, partnerIDs []string) error
	DeleteEnrollments(ctx context.Context, courseID string, partnerIDs []string) error
}

// Service applies enrollment mutations and keeps attendance in step.
// Every membership change is followed synchronously by a roster sync.
type Service struct {
	store Store
	sync  Synchronizer
}

// NewService creates a course service.
func NewService(store Store, sync Synchronizer) *Service {
	return &Service{store: store, sync: sync}
}

// GetCourse loads a course and runs the defensive attendance catch-up,
// so reading a course heals roster drift for today.
func (s *Service) GetCourse(ctx context.Context, id string) (Course, error) {
	course, err := s.store.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if err := s.sync.EnsureToday(ctx, id); err != nil {
		return Course{}, err
	}
	return course, nil
}

// ListCourses returns all courses.
func (s *Service) ListCourses(ctx context.Context) ([]Course, error) {
	return s.store.ListCourses(ctx)
}

// ListEnrollments returns a course's enrollments.
func (s *Service) ListEnrollments(ctx context.Context, courseID string) ([]Enrollment, error) {
	return s.store.ListEnrollments(ctx, courseID)
}

// Enroll adds partners to a course and syncs today's roster.
func (s *Service) Enroll(ctx context.Context, courseID string, partnerIDs []string) error {
	if len(partnerIDs) == 0 {
		return errors.New("at least one partner required")
	}
	if err := s.store.CreateEnrollments(ctx, courseID, partnerIDs); err != nil {
		return err
	}
	return s.sync.SyncToday(ctx, courseID)
}

// Unenroll removes a partner from a course and syncs today's roster.
func (s *Service) Unenroll(ctx context.Context, courseID, partnerID string) error {
	if err := s.store.DeleteEnrollments(ctx, courseID, []string{partnerID}); err != nil {
		return err
	}
	return s.sync.SyncToday(ctx, courseID)
}

// ReplaceMembers rewrites the course's membership to exactly partnerIDs,
// then syncs today's roster once.
func (s *Service) ReplaceMembers(ctx context.Context, courseID string, partnerIDs []string) error {
	current, err := s.store.EnrolledPartnerIDs(ctx, courseID)
	if err != nil {
		return err
	}

	desired := make(map[string]bool, len(partnerIDs))
	for _, id := range partnerIDs {
		desired[id] = true
	}
	existing := make(map[string]bool, len(current))

	var removed []string
	for _, id := range current {
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
		if err := s.store.DeleteEnrollments(ctx, courseID, removed); err != nil {
			return err
		}
	}
	if len(added) > 0 {
		if err := s.store.CreateEnrollments(ctx, courseID, added); err != nil {
			return err
		}
	}
	return s.sync.SyncToday(ctx, courseID)
}
