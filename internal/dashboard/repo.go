package dashboard

import (
	"context"
	"database/sql"
	"time"
)

// SQLRepository implements Repository over Postgres.
type SQLRepository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func (r *SQLRepository) CountCourses(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM courses`)
}

func (r *SQLRepository) CountPublishedCourses(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM courses WHERE is_published`)
}

func (r *SQLRepository) CountEnrollments(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM enrollments`)
}

func (r *SQLRepository) CountCompletedEnrollments(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM enrollments WHERE completed`)
}

func (r *SQLRepository) CountContents(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM contents`)
}

func (r *SQLRepository) CountCourseCampaigns(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM campaigns WHERE course_id IS NOT NULL`)
}

func (r *SQLRepository) CountSurveys(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM surveys`)
}

func (r *SQLRepository) CountQuizzes(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM quizzes`)
}

func (r *SQLRepository) CountUnpublishedQuizzes(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM quizzes WHERE NOT is_published`)
}

func (r *SQLRepository) CountEnrollmentsSince(ctx context.Context, since time.Time) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM enrollments WHERE created_at >= $1`, since)
}

// PublishedSeatAndAttendanceCounts returns enrolled seats and attendance
// rows restricted to published courses.
func (r *SQLRepository) PublishedSeatAndAttendanceCounts(ctx context.Context) (int, int, error) {
	var seats, attendance int
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM enrollments e JOIN courses c ON c.id = e.course_id WHERE c.is_published),
			(SELECT COUNT(*) FROM attendance_records a JOIN courses c ON c.id = a.course_id WHERE c.is_published)
	`).Scan(&seats, &attendance)
	return seats, attendance, err
}

func (r *SQLRepository) CourseProgress(ctx context.Context) ([]CourseProgress, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name,
			COUNT(*) FILTER (WHERE e.completion = 0 AND NOT e.completed),
			COUNT(*) FILTER (WHERE e.completion > 0 AND e.completion < 100 AND NOT e.completed),
			COUNT(*) FILTER (WHERE e.completed),
			COUNT(*)
		FROM courses c
		JOIN enrollments e ON e.course_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CourseProgress
	for rows.Next() {
		var p CourseProgress
		if err := rows.Scan(&p.Course, &p.NotStarted, &p.InProgress, &p.Completed, &p.TotalEnrolled); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *SQLRepository) EnrollmentsByMonth(ctx context.Context, year int) (map[int]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT EXTRACT(MONTH FROM created_at)::int, COUNT(*)
		FROM enrollments
		WHERE EXTRACT(YEAR FROM created_at)::int = $1
		GROUP BY 1
	`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var month, n int
		if err := rows.Scan(&month, &n); err != nil {
			return nil, err
		}
		counts[month] = n
	}
	return counts, rows.Err()
}

func (r *SQLRepository) AttendanceByMonth(ctx context.Context, year int) (map[int]MonthTally, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT EXTRACT(MONTH FROM date)::int,
			COUNT(*),
			COUNT(*) FILTER (WHERE present)
		FROM attendance_records
		WHERE EXTRACT(YEAR FROM date)::int = $1
		GROUP BY 1
	`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tallies := make(map[int]MonthTally)
	for rows.Next() {
		var month int
		var t MonthTally
		if err := rows.Scan(&month, &t.Total, &t.Present); err != nil {
			return nil, err
		}
		tallies[month] = t
	}
	return tallies, rows.Err()
}

// CompletionRates returns raw enrolled/completed counts per course with at
// least one enrollment; the service computes rates and ranks.
func (r *SQLRepository) CompletionRates(ctx context.Context) ([]CompletionRate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, COUNT(*), COUNT(*) FILTER (WHERE e.completed)
		FROM courses c
		JOIN enrollments e ON e.course_id = c.id
		GROUP BY c.id, c.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CompletionRate
	for rows.Next() {
		var cr CompletionRate
		if err := rows.Scan(&cr.CourseName, &cr.TotalEnrolled, &cr.Completed); err != nil {
			return nil, err
		}
		result = append(result, cr)
	}
	return result, rows.Err()
}

// CourseRatings averages finalized ratings per course.
func (r *SQLRepository) CourseRatings(ctx context.Context) ([]CourseRating, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, ROUND(AVG(rt.rating), 2), COUNT(*)
		FROM courses c
		JOIN ratings rt ON rt.course_id = c.id
		WHERE rt.consumed
		GROUP BY c.id, c.name
		ORDER BY c.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CourseRating
	for rows.Next() {
		var cr CourseRating
		if err := rows.Scan(&cr.Course, &cr.AvgRating, &cr.TotalReviews); err != nil {
			return nil, err
		}
		result = append(result, cr)
	}
	return result, rows.Err()
}

func (r *SQLRepository) ProgressDistribution(ctx context.Context) (ProgressDist, error) {
	var dist ProgressDist
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE NOT completed AND completion = 0),
			COUNT(*) FILTER (WHERE NOT completed AND completion > 0),
			COUNT(*) FILTER (WHERE completed AND NOT survey_passed),
			COUNT(*) FILTER (WHERE completed AND survey_passed)
		FROM enrollments
	`).Scan(&dist.NotStarted, &dist.InProgress, &dist.Completed, &dist.Certified)
	return dist, err
}
