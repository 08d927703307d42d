package attendance

import (
	"context"
	"errors"
	"time"
)

// Record is one roster entry: an enrolled partner on a course for one date.
// At most one record exists per (partner, course, date).
type Record struct {
	ID           string    `json:"id"`
	EnrollmentID string    `json:"enrollment_id"`
	CourseID     string    `json:"course_id"`
	PartnerID    string    `json:"partner_id"`
	Date         time.Time `json:"date"`
	Present      bool      `json:"present"`
	CreatedAt    time.Time `json:"created_at"`
}

// Member is the enrollment identity the synchronizer reconciles against.
type Member struct {
	EnrollmentID string
	PartnerID    string
}

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("attendance record not found")

// Store is the persistence surface the synchronizer needs. InTx runs fn
// against a transaction-bound store; the cascade rule relies on it.
type Store interface {
	Members(ctx context.Context, courseID string) ([]Member, error)
	RecordsForDate(ctx context.Context, courseID string, date time.Time) ([]Record, error)
	InsertRecords(ctx context.Context, recs []Record) error
	DeleteRecords(ctx context.Context, ids []string) error
	GetRecord(ctx context.Context, id string) (Record, error)
	SetPresent(ctx context.Context, id string, present bool) error
	CountOtherRecords(ctx context.Context, partnerID, courseID, excludeID string) (int, error)
	DeleteEnrollment(ctx context.Context, courseID, partnerID string) error
	InTx(ctx context.Context, fn func(Store) error) error
}

// Service keeps the per-day attendance roster consistent with enrollment.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a synchronizer backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Today returns the current date truncated to midnight UTC.
func (s *Service) Today() time.Time {
	return DateOnly(s.now())
}

// DateOnly truncates a timestamp to its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SyncToday reconciles today's roster for a course: exactly one record per
// current member, none for partners no longer enrolled. Other dates are
// untouched.
func (s *Service) SyncToday(ctx context.Context, courseID string) error {
	return s.syncToday(ctx, s.store, courseID)
}

func (s *Service) syncToday(ctx context.Context, store Store, courseID string) error {
	today := s.Today()

	members, err := store.Members(ctx, courseID)
	if err != nil {
		return err
	}
	existing, err := store.RecordsForDate(ctx, courseID, today)
	if err != nil {
		return err
	}

	memberSet := make(map[string]Member, len(members))
	for _, m := range members {
		memberSet[m.PartnerID] = m
	}
	recorded := make(map[string]bool, len(existing))

	var stale []string
	for _, rec := range existing {
		recorded[rec.PartnerID] = true
		if _, ok := memberSet[rec.PartnerID]; !ok {
			stale = append(stale, rec.ID)
		}
	}
	if len(stale) > 0 {
		if err := store.DeleteRecords(ctx, stale); err != nil {
			return err
		}
	}

	var missing []Record
	for _, m := range members {
		if !recorded[m.PartnerID] {
			missing = append(missing, Record{
				EnrollmentID: m.EnrollmentID,
				CourseID:     courseID,
				PartnerID:    m.PartnerID,
				Date:         today,
				Present:      false,
			})
		}
	}
	if len(missing) > 0 {
		return store.InsertRecords(ctx, missing)
	}
	return nil
}

// EnsureToday adds missing records for today without removing anything.
// Idempotent catch-up for drift caused by out-of-band membership changes;
// invoked defensively on course reads.
func (s *Service) EnsureToday(ctx context.Context, courseID string) error {
	today := s.Today()

	members, err := s.store.Members(ctx, courseID)
	if err != nil {
		return err
	}
	existing, err := s.store.RecordsForDate(ctx, courseID, today)
	if err != nil {
		return err
	}

	recorded := make(map[string]bool, len(existing))
	for _, rec := range existing {
		recorded[rec.PartnerID] = true
	}

	var missing []Record
	for _, m := range members {
		if !recorded[m.PartnerID] {
			missing = append(missing, Record{
				EnrollmentID: m.EnrollmentID,
				CourseID:     courseID,
				PartnerID:    m.PartnerID,
				Date:         today,
				Present:      false,
			})
		}
	}
	if len(missing) > 0 {
		return s.store.InsertRecords(ctx, missing)
	}
	return nil
}

// MarkPresent flips the present flag on a record.
func (s *Service) MarkPresent(ctx context.Context, id string, present bool) error {
	return s.store.SetPresent(ctx, id, present)
}

// RecordsForDate lists a course's roster for one date.
func (s *Service) RecordsForDate(ctx context.Context, courseID string, date time.Time) ([]Record, error) {
	return s.store.RecordsForDate(ctx, courseID, DateOnly(date))
}

// Delete removes a record. When it was the partner's last record for the
// course, the enrollment is removed in the same transaction and today's
// roster is reconciled: a partner with no attendance history is treated as
// not enrolled.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.InTx(ctx, func(tx Store) error {
		rec, err := tx.GetRecord(ctx, id)
		if err != nil {
			return err
		}
		others, err := tx.CountOtherRecords(ctx, rec.PartnerID, rec.CourseID, rec.ID)
		if err != nil {
			return err
		}
		if err := tx.DeleteRecords(ctx, []string{rec.ID}); err != nil {
			return err
		}
		if others == 0 {
			if err := tx.DeleteEnrollment(ctx, rec.CourseID, rec.PartnerID); err != nil {
				return err
			}
			return s.syncToday(ctx, tx, rec.CourseID)
		}
		return nil
	})
}
