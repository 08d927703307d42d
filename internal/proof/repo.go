package proof

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists proofs and reads sessions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CourseExists reports whether a course id is known.
func (r *Repository) CourseExists(ctx context.Context, courseID string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, courseID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

// IsEnrolled reports whether the partner is enrolled in the course.
func (r *Repository) IsEnrolled(ctx context.Context, courseID, partnerID string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id = $1 AND partner_id = $2)
	`, courseID, partnerID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

// SessionByDate returns the scheduled session for a course on a date, or nil.
func (r *Repository) SessionByDate(ctx context.Context, courseID string, date time.Time) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, course_id, training_date, COALESCE(start_time, '')
		FROM training_sessions
		WHERE course_id = $1 AND training_date = $2
		LIMIT 1
	`, courseID, date)
	var s Session
	if err := row.Scan(&s.ID, &s.CourseID, &s.Date, &s.StartTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListSessions returns a course's sessions, most recent first.
func (r *Repository) ListSessions(ctx context.Context, courseID string) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, course_id, training_date, COALESCE(start_time, '')
		FROM training_sessions
		WHERE course_id = $1
		ORDER BY training_date DESC
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.CourseID, &s.Date, &s.StartTime); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ListProofs returns the partner's proofs for a course, newest upload first.
func (r *Repository) ListProofs(ctx context.Context, partnerID, courseID string) ([]Proof, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, partner_id, course_id, training_date, image_url, filename, notes, status, uploaded_at
		FROM attendance_proofs
		WHERE partner_id = $1 AND course_id = $2
		ORDER BY uploaded_at DESC
	`, partnerID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proofs []Proof
	for rows.Next() {
		var p Proof
		if err := rows.Scan(&p.ID, &p.PartnerID, &p.CourseID, &p.TrainingDate, &p.ImageURL, &p.Filename, &p.Notes, &p.Status, &p.UploadedAt); err != nil {
			return nil, err
		}
		proofs = append(proofs, p)
	}
	return proofs, rows.Err()
}

// ProofExists reports whether the partner already has a proof for the date.
func (r *Repository) ProofExists(ctx context.Context, partnerID, courseID string, date time.Time) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance_proofs
			WHERE partner_id = $1 AND course_id = $2 AND training_date = $3
		)
	`, partnerID, courseID, date)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

// InsertProof writes a proof record.
func (r *Repository) InsertProof(ctx context.Context, p Proof) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_proofs (id, partner_id, course_id, training_date, image_url, filename, notes, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, p.ID, p.PartnerID, p.CourseID, p.TrainingDate, p.ImageURL, p.Filename, p.Notes, p.Status)
	return err
}

// GetProof returns a proof by id, or nil.
func (r *Repository) GetProof(ctx context.Context, id string) (*Proof, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, partner_id, course_id, training_date, image_url, filename, notes, status, uploaded_at
		FROM attendance_proofs WHERE id = $1
	`, id)
	var p Proof
	if err := row.Scan(&p.ID, &p.PartnerID, &p.CourseID, &p.TrainingDate, &p.ImageURL, &p.Filename, &p.Notes, &p.Status, &p.UploadedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// DeleteProof removes a proof by id.
func (r *Repository) DeleteProof(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM attendance_proofs WHERE id = $1`, id)
	return err
}

// ProofDates returns the distinct training dates the partner has proofs for.
func (r *Repository) ProofDates(ctx context.Context, partnerID, courseID string) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT training_date
		FROM attendance_proofs
		WHERE partner_id = $1 AND course_id = $2
	`, partnerID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
