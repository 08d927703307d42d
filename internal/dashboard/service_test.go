package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errDown = errors.New("db down")

// fakeRepo answers every metric from fixed fields; failAll flips every
// method to an error to exercise the fallbacks.
type fakeRepo struct {
	failAll bool

	courses       int
	published     int
	enrollments   int
	completed     int
	contents      int
	campaigns     int
	surveys       int
	quizzes       int
	unpubQuizzes  int
	recent        int
	seats         int
	attRows       int
	progress      []CourseProgress
	enrollMonths  map[int]int
	attMonths     map[int]MonthTally
	completionRts []CompletionRate
	ratings       []CourseRating
	dist          ProgressDist
}

func (f *fakeRepo) intOr(n int) (int, error) {
	if f.failAll {
		return 0, errDown
	}
	return n, nil
}

func (f *fakeRepo) CountCourses(context.Context) (int, error) { return f.intOr(f.courses) }
func (f *fakeRepo) CountPublishedCourses(context.Context) (int, error) {
	return f.intOr(f.published)
}
func (f *fakeRepo) CountEnrollments(context.Context) (int, error) { return f.intOr(f.enrollments) }
func (f *fakeRepo) CountCompletedEnrollments(context.Context) (int, error) {
	return f.intOr(f.completed)
}
func (f *fakeRepo) CountContents(context.Context) (int, error) { return f.intOr(f.contents) }
func (f *fakeRepo) CountCourseCampaigns(context.Context) (int, error) {
	return f.intOr(f.campaigns)
}
func (f *fakeRepo) CountSurveys(context.Context) (int, error) { return f.intOr(f.surveys) }
func (f *fakeRepo) CountQuizzes(context.Context) (int, error) { return f.intOr(f.quizzes) }
func (f *fakeRepo) CountUnpublishedQuizzes(context.Context) (int, error) {
	return f.intOr(f.unpubQuizzes)
}
func (f *fakeRepo) CountEnrollmentsSince(context.Context, time.Time) (int, error) {
	return f.intOr(f.recent)
}

func (f *fakeRepo) PublishedSeatAndAttendanceCounts(context.Context) (int, int, error) {
	if f.failAll {
		return 0, 0, errDown
	}
	return f.seats, f.attRows, nil
}

func (f *fakeRepo) CourseProgress(context.Context) ([]CourseProgress, error) {
	if f.failAll {
		return nil, errDown
	}
	return f.progress, nil
}

func (f *fakeRepo) EnrollmentsByMonth(context.Context, int) (map[int]int, error) {
	if f.failAll {
		return nil, errDown
	}
	return f.enrollMonths, nil
}

func (f *fakeRepo) AttendanceByMonth(context.Context, int) (map[int]MonthTally, error) {
	if f.failAll {
		return nil, errDown
	}
	return f.attMonths, nil
}

func (f *fakeRepo) CompletionRates(context.Context) ([]CompletionRate, error) {
	if f.failAll {
		return nil, errDown
	}
	return f.completionRts, nil
}

func (f *fakeRepo) CourseRatings(context.Context) ([]CourseRating, error) {
	if f.failAll {
		return nil, errDown
	}
	return f.ratings, nil
}

func (f *fakeRepo) ProgressDistribution(context.Context) (ProgressDist, error) {
	if f.failAll {
		return ProgressDist{}, errDown
	}
	return f.dist, nil
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo, nil, time.Minute)
	svc.now = func() time.Time { return time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestDataWithLiveMetrics(t *testing.T) {
	repo := &fakeRepo{
		courses:     7,
		published:   5,
		enrollments: 40,
		completed:   12,
		contents:    90,
		campaigns:   3,
		surveys:     2,
		quizzes:     6,
		recent:      4,
		seats:       40,
		attRows:     30,
		progress: []CourseProgress{
			{Course: "Go Basics", NotStarted: 1, InProgress: 2, Completed: 3, TotalEnrolled: 6},
		},
		enrollMonths: map[int]int{1: 5, 6: 10},
		attMonths:    map[int]MonthTally{6: {Total: 20, Present: 15}},
		completionRts: []CompletionRate{
			{CourseName: "Go Basics", TotalEnrolled: 10, Completed: 5},
			{CourseName: "SQL", TotalEnrolled: 4, Completed: 3},
		},
		ratings: []CourseRating{{Course: "Go Basics", AvgRating: 4.5, TotalReviews: 9}},
		dist:    ProgressDist{NotStarted: 1, InProgress: 2, Completed: 3, Certified: 4},
	}
	data := newTestService(repo).Data(context.Background())

	assert.Equal(t, 7, data.KPIs.TotalCourses)
	assert.Equal(t, 40, data.KPIs.TotalStudents)
	assert.Equal(t, "75%", data.KPIs.AttendanceRecords)
	assert.Equal(t, 4, data.KPIs.EmployeesEnrolledThisMonth)
	assert.Equal(t, repo.ratings, data.KPIs.CourseRatings)
	assert.Equal(t, repo.progress, data.Charts.CourseProgress)

	// completion rates ranked descending, highest first
	assert.Equal(t, "SQL", data.Charts.CompletionRates[0].CourseName)
	assert.Equal(t, 75.0, data.Charts.CompletionRates[0].CompletionRate)
	assert.Equal(t, 50.0, data.Charts.CompletionRates[1].CompletionRate)

	assert.Equal(t, []ProgressBucket{
		{Status: "Not Started", Count: 1},
		{Status: "In Progress", Count: 2},
		{Status: "Completed", Count: 3},
		{Status: "Certified", Count: 4},
	}, data.Charts.StudentProgress)
}

func TestMonthSeriesAlwaysTwelveEntries(t *testing.T) {
	repo := &fakeRepo{
		enrollMonths: map[int]int{3: 8},
		attMonths:    map[int]MonthTally{2: {Total: 10, Present: 9}},
	}
	data := newTestService(repo).Data(context.Background())

	assert.Len(t, data.Charts.EnrollmentsByMonth, 12)
	assert.Equal(t, "January", data.Charts.EnrollmentsByMonth[0].Month)
	assert.Equal(t, 8, data.Charts.EnrollmentsByMonth[2].Enrollments)
	assert.Equal(t, 0, data.Charts.EnrollmentsByMonth[11].Enrollments)

	assert.Len(t, data.Charts.AttendanceByMonth, 12)
	feb := data.Charts.AttendanceByMonth[1]
	assert.Equal(t, 90.0, feb.AttendanceRate)
	assert.Equal(t, 10, feb.TotalSessions)
	assert.Equal(t, 9, feb.PresentCount)
}

func TestFallbacksWhenEveryQueryFails(t *testing.T) {
	data := newTestService(&fakeRepo{failAll: true}).Data(context.Background())

	assert.Equal(t, 0, data.KPIs.TotalCourses)
	assert.Equal(t, "0%", data.KPIs.AttendanceRecords)
	assert.Equal(t, sampleCourseRatings(), data.KPIs.CourseRatings)
	assert.Equal(t, sampleCourseProgress(), data.Charts.CourseProgress)
	assert.Equal(t, sampleEnrollmentsByMonth(), data.Charts.EnrollmentsByMonth)
	assert.Equal(t, sampleAttendanceByMonth(), data.Charts.AttendanceByMonth)
	assert.Equal(t, sampleCompletionRates(), data.Charts.CompletionRates)
	assert.Equal(t, sampleStudentProgress(), data.Charts.StudentProgress)
}

func TestFallbacksWhenDataIsEmpty(t *testing.T) {
	data := newTestService(&fakeRepo{}).Data(context.Background())

	assert.Equal(t, "0%", data.KPIs.AttendanceRecords, "zero seats must not divide")
	assert.Equal(t, sampleCourseProgress(), data.Charts.CourseProgress)
	assert.Equal(t, sampleEnrollmentsByMonth(), data.Charts.EnrollmentsByMonth, "all-zero year falls back to samples")
	assert.Equal(t, sampleStudentProgress(), data.Charts.StudentProgress)
}

func TestCompletionRatesTopTen(t *testing.T) {
	repo := &fakeRepo{}
	for i := 0; i < 14; i++ {
		repo.completionRts = append(repo.completionRts, CompletionRate{
			CourseName:    "Course " + string(rune('A'+i)),
			TotalEnrolled: 10,
			Completed:     i % 10,
		})
	}
	data := newTestService(repo).Data(context.Background())

	assert.Len(t, data.Charts.CompletionRates, 10)
	assert.Equal(t, 90.0, data.Charts.CompletionRates[0].CompletionRate)
}
