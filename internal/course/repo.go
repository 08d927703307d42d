package course

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Course is the host platform's course record as this service sees it.
type Course struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IsPublished bool      `json:"is_published"`
	TotalViews  int       `json:"total_views"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Enrollment links a partner to a course and carries progress flags.
type Enrollment struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"course_id"`
	PartnerID    string    `json:"partner_id"`
	Completion   float64   `json:"completion"`
	Completed    bool      `json:"completed"`
	SurveyPassed bool      `json:"survey_passed"`
	CreatedAt    time.Time `json:"created_at"`
}

// ErrNotFound is returned when a course does not exist.
var ErrNotFound = errors.New("course not found")

// Repository persists courses and enrollments in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetCourse returns a course by id.
func (r *Repository) GetCourse(ctx context.Context, id string) (Course, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, is_published, total_views, created_at, updated_at
		FROM courses WHERE id = $1
	`, id)
	var course Course
	if err := row.Scan(&course.ID, &course.Name, &course.IsPublished, &course.TotalViews, &course.CreatedAt, &course.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrNotFound
		}
		return Course{}, err
	}
	return course, nil
}

// ListCourses returns all courses ordered by name.
func (r *Repository) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, is_published, total_views, created_at, updated_at
		FROM courses ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		var course Course
		if err := rows.Scan(&course.ID, &course.Name, &course.IsPublished, &course.TotalViews, &course.CreatedAt, &course.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

// CourseExists reports whether a course id is known.
func (r *Repository) CourseExists(ctx context.Context, id string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM courses WHERE id = $1)`, id)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

// ListEnrollments returns a course's enrollments.
func (r *Repository) ListEnrollments(ctx context.Context, courseID string) ([]Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, course_id, partner_id, completion, completed, survey_passed, created_at
		FROM enrollments WHERE course_id = $1 ORDER BY created_at
	`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.ID, &e.CourseID, &e.PartnerID, &e.Completion, &e.Completed, &e.SurveyPassed, &e.CreatedAt); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// EnrolledPartnerIDs returns the partner ids currently enrolled in a course.
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

// IsEnrolled reports whether the partner is enrolled in the course.
func (r *Repository) IsEnrolled(ctx context.Context, courseID, partnerID string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id = $1 AND partner_id = $2)
	`, courseID, partnerID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
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

// DeleteEnrollments removes partners from a course. Attendance rows cascade
// at the database level.
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
