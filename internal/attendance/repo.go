package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository persists attendance data in Postgres.
type Repository struct {
	db   DBTX
	conn *sql.DB // nil when transaction-bound
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, conn: db}
}

// InTx runs fn against a transaction-bound repository. Nested calls reuse
// the existing transaction.
func (r *Repository) InTx(ctx context.Context, fn func(Store) error) error {
	if r.conn == nil {
		return fn(r)
	}
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Repository{db: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Members returns the course's current enrollment identities.
func (r *Repository) Members(ctx context.Context, courseID string) ([]Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, partner_id FROM enrollments WHERE course_id = $1
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.EnrollmentID, &m.PartnerID); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// RecordsForDate returns a course's roster for one date.
func (r *Repository) RecordsForDate(ctx context.Context, courseID string, date time.Time) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, enrollment_id, course_id, partner_id, date, present, created_at
		FROM attendance_records
		WHERE course_id = $1 AND date = $2
		ORDER BY created_at
	`, courseID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EnrollmentID, &rec.CourseID, &rec.PartnerID, &rec.Date, &rec.Present, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// InsertRecords writes new roster entries.
func (r *Repository) InsertRecords(ctx context.Context, recs []Record) error {
	for _, rec := range recs {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO attendance_records (id, enrollment_id, course_id, partner_id, date, present)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, rec.ID, rec.EnrollmentID, rec.CourseID, rec.PartnerID, rec.Date, rec.Present)
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteRecords removes roster entries by id.
func (r *Repository) DeleteRecords(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id); err != nil {
			return err
		}
	}
	return nil
}

// GetRecord returns a single record by id.
func (r *Repository) GetRecord(ctx context.Context, id string) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, enrollment_id, course_id, partner_id, date, present, created_at
		FROM attendance_records WHERE id = $1
	`, id)
	var rec Record
	if err := row.Scan(&rec.ID, &rec.EnrollmentID, &rec.CourseID, &rec.PartnerID, &rec.Date, &rec.Present, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// SetPresent updates the present flag.
func (r *Repository) SetPresent(ctx context.Context, id string, present bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance_records SET present = $2 WHERE id = $1
	`, id, present)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOtherRecords counts the partner's records for a course excluding one id.
func (r *Repository) CountOtherRecords(ctx context.Context, partnerID, courseID, excludeID string) (int, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance_records
		WHERE partner_id = $1 AND course_id = $2 AND id != $3
	`, partnerID, courseID, excludeID)
	var n int
	err := row.Scan(&n)
	return n, err
}

// DeleteEnrollment removes an enrollment; remaining attendance rows cascade
// at the database level.
func (r *Repository) DeleteEnrollment(ctx context.Context, courseID, partnerID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM enrollments WHERE course_id = $1 AND partner_id = $2
	`, courseID, partnerID)
	return err
}
