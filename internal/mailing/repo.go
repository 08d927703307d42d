package mailing

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Repository persists campaigns and attendee lists in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateCampaign writes a campaign and returns it with id and timestamp set.
func (r *Repository) CreateCampaign(ctx context.Context, campaign Campaign) (Campaign, error) {
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	var courseID any
	if campaign.CourseID != "" {
		courseID = campaign.CourseID
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO campaigns (id, name, subject, body, course_id)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at
	`, campaign.ID, campaign.Name, campaign.Subject, campaign.Body, courseID)
	if err := row.Scan(&campaign.CreatedAt); err != nil {
		return Campaign{}, err
	}
	return campaign, nil
}

// GetCampaign returns a campaign by id.
func (r *Repository) GetCampaign(ctx context.Context, id string) (Campaign, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, subject, body, COALESCE(course_id::text, ''), created_at
		FROM campaigns WHERE id = $1
	`, id)
	var campaign Campaign
	if err := row.Scan(&campaign.ID, &campaign.Name, &campaign.Subject, &campaign.Body, &campaign.CourseID, &campaign.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Campaign{}, ErrNotFound
		}
		return Campaign{}, err
	}
	return campaign, nil
}

// SetAttendees rewrites the attendee list for a campaign.
func (r *Repository) SetAttendees(ctx context.Context, campaignID string, partnerIDs []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM campaign_attendees WHERE campaign_id = $1`, campaignID); err != nil {
		return err
	}
	for _, pid := range partnerIDs {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO campaign_attendees (campaign_id, partner_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, campaignID, pid)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListAttendees returns attendee partner ids.
func (r *Repository) ListAttendees(ctx context.Context, campaignID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT partner_id FROM campaign_attendees WHERE campaign_id = $1
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AttendeeEmails returns attendee email addresses.
func (r *Repository) AttendeeEmails(ctx context.Context, campaignID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.email
		FROM campaign_attendees ca
		JOIN partners p ON p.id = ca.partner_id
		WHERE ca.campaign_id = $1
	`, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// EnrolledPartnerIDs returns the partners enrolled in a course.
func (r *Repository) EnrolledPartnerIDs(ctx context.Context, courseID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT partner_id FROM enrollments WHERE course_id = $1
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateEnrollments enrolls partners, skipping ones already enrolled.
func (r *Repository) CreateEnrollments(ctx context.Context, courseID string, partnerIDs []string) error {
	for _, pid := range partnerIDs {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO enrollments (id, course_id, partner_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (course_id, partner_id) DO NOTHING
		`, uuid.NewString(), courseID, pid)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteEnrollments removes partners from a course.
func (r *Repository) DeleteEnrollments(ctx context.Context, courseID string, partnerIDs []string) error {
	for _, pid := range partnerIDs {
		_, err := r.db.ExecContext(ctx, `
			DELETE FROM enrollments WHERE course_id = $1 AND partner_id = $2
		`, courseID, pid)
		if err != nil {
			return err
		}
	}
	return nil
}

// RecentCourseForPartner returns the most recently updated course the
// partner is enrolled in, or empty when there is none.
func (r *Repository) RecentCourseForPartner(ctx context.Context, partnerID string) (string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT c.id
		FROM courses c
		JOIN enrollments e ON e.course_id = c.id
		WHERE e.partner_id = $1
		ORDER BY c.updated_at DESC
		LIMIT 1
	`, partnerID)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return id, nil
}

// MostViewedCourse returns the course with the highest view count, or empty
// when no courses exist.
func (r *Repository) MostViewedCourse(ctx context.Context) (string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id FROM courses ORDER BY total_views DESC LIMIT 1
	`)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return id, nil
}
