package calendar

import (
	"context"
	"database/sql"
	"time"
)

// Repository reads training sessions and proof dates from Postgres.
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

// SessionsInRange returns a course's sessions with from <= date < to.
func (r *Repository) SessionsInRange(ctx context.Context, courseID string, from, to time.Time) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, course_id, training_date, COALESCE(start_time, '')
		FROM training_sessions
		WHERE course_id = $1 AND training_date >= $2 AND training_date < $3
		ORDER BY training_date
	`, courseID, from, to)
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

// Upcoming returns up to limit sessions on or after from, date ascending.
func (r *Repository) Upcoming(ctx context.Context, courseID string, from time.Time, limit int) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, course_id, training_date, COALESCE(start_time, '')
		FROM training_sessions
		WHERE course_id = $1 AND training_date >= $2
		ORDER BY training_date ASC
		LIMIT $3
	`, courseID, from, limit)
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

// ProofDates returns the partner's proof dates for a course as a
// YYYY-MM-DD set. Proofs are matched by their training date.
func (r *Repository) ProofDates(ctx context.Context, partnerID, courseID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT training_date
		FROM attendance_proofs
		WHERE partner_id = $1 AND course_id = $2
	`, partnerID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := make(map[string]bool)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates[d.Format("2006-01-02")] = true
	}
	return dates, rows.Err()
}
