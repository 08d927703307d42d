package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// KPIs are the dashboard's scalar metrics. JSON field names match what the
// dashboard frontend consumes.
type KPIs struct {
	TotalCourses               int            `json:"totalCourses"`
	TotalStudents              int            `json:"totalStudents"`
	ActiveCourses              int            `json:"activeCourses"`
	CompletedCourses           int            `json:"completedCourses"`
	TotalContent               int            `json:"totalContent"`
	AttendanceRecords          string         `json:"attendanceRecords"`
	MailingCampaigns           int            `json:"mailingCampaigns"`
	TotalCertificates          int            `json:"totalCertificates"`
	Quizzes                    int            `json:"quizzes"`
	CourseRatings              []CourseRating `json:"CourseRatings"`
	EmployeesEnrolledThisMonth int            `json:"employeesEnrolledThisMonth"`
	PendingCourses             int            `json:"pendingCourses"`
}

// CourseRating is the average finalized rating for one course.
type CourseRating struct {
	Course       string  `json:"course"`
	AvgRating    float64 `json:"avgRating"`
	TotalReviews int     `json:"totalReviews"`
}

// CourseProgress breaks one course's enrollments down by progress.
type CourseProgress struct {
	Course        string `json:"course"`
	NotStarted    int    `json:"notStarted"`
	InProgress    int    `json:"inProgress"`
	Completed     int    `json:"completed"`
	TotalEnrolled int    `json:"totalEnrolled"`
}

// MonthEnrollments is one month's enrollment count.
type MonthEnrollments struct {
	Month       string `json:"month"`
	Enrollments int    `json:"enrollments"`
}

// MonthAttendance is one month's attendance tally and rate.
type MonthAttendance struct {
	Month          string  `json:"month"`
	AttendanceRate float64 `json:"attendanceRate"`
	TotalSessions  int     `json:"totalSessions"`
	PresentCount   int     `json:"presentCount"`
}

// CompletionRate ranks one course by enrollment completion.
type CompletionRate struct {
	CourseName     string  `json:"courseName"`
	TotalEnrolled  int     `json:"totalEnrolled"`
	Completed      int     `json:"completed"`
	CompletionRate float64 `json:"completionRate"`
}

// ProgressBucket is one slice of the student-progress distribution.
type ProgressBucket struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// ChartData groups the chart-ready series.
type ChartData struct {
	CourseProgress     []CourseProgress   `json:"CourseProgressChart"`
	EnrollmentsByMonth []MonthEnrollments `json:"enrollmentsByMonth"`
	AttendanceByMonth  []MonthAttendance  `json:"attendanceByMonth"`
	CompletionRates    []CompletionRate   `json:"completionRates"`
	StudentProgress    []ProgressBucket   `json:"studentProgress"`
}

// Data is the full dashboard payload.
type Data struct {
	KPIs   KPIs      `json:"kpis"`
	Charts ChartData `json:"chartData"`
}

// MonthTally is a raw per-month attendance count.
type MonthTally struct {
	Total   int
	Present int
}

// ProgressDist is the raw four-bucket student distribution.
type ProgressDist struct {
	NotStarted int
	InProgress int
	Completed  int
	Certified  int
}

// Repository is the read-only query surface the aggregation uses. Each
// method backs exactly one metric so failures stay isolated.
type Repository interface {
	CountCourses(ctx context.Context) (int, error)
	CountPublishedCourses(ctx context.Context) (int, error)
	CountEnrollments(ctx context.Context) (int, error)
	CountCompletedEnrollments(ctx context.Context) (int, error)
	CountContents(ctx context.Context) (int, error)
	CountCourseCampaigns(ctx context.Context) (int, error)
	CountSurveys(ctx context.Context) (int, error)
	CountQuizzes(ctx context.Context) (int, error)
	CountUnpublishedQuizzes(ctx context.Context) (int, error)
	CountEnrollmentsSince(ctx context.Context, since time.Time) (int, error)
	PublishedSeatAndAttendanceCounts(ctx context.Context) (seats, attendance int, err error)
	CourseProgress(ctx context.Context) ([]CourseProgress, error)
	EnrollmentsByMonth(ctx context.Context, year int) (map[int]int, error)
	AttendanceByMonth(ctx context.Context, year int) (map[int]MonthTally, error)
	CompletionRates(ctx context.Context) ([]CompletionRate, error)
	CourseRatings(ctx context.Context) ([]CourseRating, error)
	ProgressDistribution(ctx context.Context) (ProgressDist, error)
}

const cacheKey = "dashboard:data"

// Service computes the dashboard payload. Every metric is computed in
// isolation; a failed or empty metric yields its fallback so the dashboard
// is never empty. The assembled payload is cached in Redis for a short TTL.
type Service struct {
	repo  Repository
	cache *redis.Client // nil disables caching
	ttl   time.Duration
	now   func() time.Time
}

// NewService creates a dashboard service. cache may be nil.
func NewService(repo Repository, cache *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, now: time.Now}
}

// Data returns the full dashboard payload, from cache when fresh.
func (s *Service) Data(ctx context.Context) Data {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached Data
			if json.Unmarshal(raw, &cached) == nil {
				return cached
			}
		}
	}

	data := Data{
		KPIs: KPIs{
			TotalCourses:               s.safeCount(ctx, "totalCourses", s.repo.CountCourses),
			TotalStudents:              s.safeCount(ctx, "totalStudents", s.repo.CountEnrollments),
			ActiveCourses:              s.safeCount(ctx, "activeCourses", s.repo.CountPublishedCourses),
			CompletedCourses:           s.safeCount(ctx, "completedCourses", s.repo.CountCompletedEnrollments),
			TotalContent:               s.safeCount(ctx, "totalContent", s.repo.CountContents),
			AttendanceRecords:          s.attendancePercentage(ctx),
			MailingCampaigns:           s.safeCount(ctx, "mailingCampaigns", s.repo.CountCourseCampaigns),
			TotalCertificates:          s.safeCount(ctx, "totalCertificates", s.repo.CountSurveys),
			Quizzes:                    s.safeCount(ctx, "quizzes", s.repo.CountQuizzes),
			CourseRatings:              s.courseRatings(ctx),
			EmployeesEnrolledThisMonth: s.enrolledThisMonth(ctx),
			PendingCourses:             s.safeCount(ctx, "pendingCourses", s.repo.CountUnpublishedQuizzes),
		},
		Charts: ChartData{
			CourseProgress:     s.courseProgress(ctx),
			EnrollmentsByMonth: s.enrollmentsByMonth(ctx),
			AttendanceByMonth:  s.attendanceByMonth(ctx),
			CompletionRates:    s.completionRates(ctx),
			StudentProgress:    s.studentProgress(ctx),
		},
	}

	if s.cache != nil {
		if raw, err := json.Marshal(data); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, s.ttl).Err(); err != nil {
				log.Printf("dashboard cache set failed: %v", err)
			}
		}
	}
	return data
}

// safeCount runs a count query, falling back to zero on failure.
func (s *Service) safeCount(ctx context.Context, name string, fn func(context.Context) (int, error)) int {
	n, err := fn(ctx)
	if err != nil {
		log.Printf("dashboard %s failed: %v", name, err)
		return 0
	}
	return n
}

// attendancePercentage is attendance rows over enrolled seats of published
// courses, rendered with a percent sign.
func (s *Service) attendancePercentage(ctx context.Context) string {
	seats, attendance, err := s.repo.PublishedSeatAndAttendanceCounts(ctx)
	if err != nil {
		log.Printf("dashboard attendanceRecords failed: %v", err)
		return "0%"
	}
	if seats == 0 {
		return "0%"
	}
	pct := math.Round(float64(attendance)/float64(seats)*100*100) / 100
	return strconv.FormatFloat(pct, 'f', -1, 64) + "%"
}

func (s *Service) enrolledThisMonth(ctx context.Context) int {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	n, err := s.repo.CountEnrollmentsSince(ctx, start)
	if err != nil {
		log.Printf("dashboard employeesEnrolledThisMonth failed: %v", err)
		return 0
	}
	return n
}

func (s *Service) courseRatings(ctx context.Context) []CourseRating {
	ratings, err := s.repo.CourseRatings(ctx)
	if err != nil {
		log.Printf("dashboard CourseRatings failed: %v", err)
		return sampleCourseRatings()
	}
	if len(ratings) == 0 {
		return sampleCourseRatings()
	}
	return ratings
}

func (s *Service) courseProgress(ctx context.Context) []CourseProgress {
	rows, err := s.repo.CourseProgress(ctx)
	if err != nil {
		log.Printf("dashboard CourseProgressChart failed: %v", err)
		return sampleCourseProgress()
	}
	if len(rows) == 0 {
		return sampleCourseProgress()
	}
	return rows
}

// enrollmentsByMonth always emits twelve entries, zero-filled, so chart
// axes stay stable.
func (s *Service) enrollmentsByMonth(ctx context.Context) []MonthEnrollments {
	year := s.now().Year()
	counts, err := s.repo.EnrollmentsByMonth(ctx, year)
	if err != nil {
		log.Printf("dashboard enrollmentsByMonth failed: %v", err)
		return sampleEnrollmentsByMonth()
	}

	data := make([]MonthEnrollments, 0, 12)
	any := false
	for m := 1; m <= 12; m++ {
		n := counts[m]
		if n > 0 {
			any = true
		}
		data = append(data, MonthEnrollments{Month: time.Month(m).String(), Enrollments: n})
	}
	if !any {
		return sampleEnrollmentsByMonth()
	}
	return data
}

func (s *Service) attendanceByMonth(ctx context.Context) []MonthAttendance {
	year := s.now().Year()
	tallies, err := s.repo.AttendanceByMonth(ctx, year)
	if err != nil {
		log.Printf("dashboard attendanceByMonth failed: %v", err)
		return sampleAttendanceByMonth()
	}

	data := make([]MonthAttendance, 0, 12)
	any := false
	for m := 1; m <= 12; m++ {
		t := tallies[m]
		rate := 0.0
		if t.Total > 0 {
			any = true
			rate = math.Round(float64(t.Present)/float64(t.Total)*100*10) / 10
		}
		data = append(data, MonthAttendance{
			Month:          time.Month(m).String(),
			AttendanceRate: rate,
			TotalSessions:  t.Total,
			PresentCount:   t.Present,
		})
	}
	if !any {
		return sampleAttendanceByMonth()
	}
	return data
}

// completionRates ranks courses by completion rate, top ten descending.
func (s *Service) completionRates(ctx context.Context) []CompletionRate {
	rows, err := s.repo.CompletionRates(ctx)
	if err != nil {
		log.Printf("dashboard completionRates failed: %v", err)
		return sampleCompletionRates()
	}
	if len(rows) == 0 {
		return sampleCompletionRates()
	}

	for i := range rows {
		if rows[i].TotalEnrolled > 0 {
			rows[i].CompletionRate = math.Round(float64(rows[i].Completed)/float64(rows[i].TotalEnrolled)*100*10) / 10
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CompletionRate > rows[j].CompletionRate
	})
	if len(rows) > 10 {
		rows = rows[:10]
	}
	return rows
}

func (s *Service) studentProgress(ctx context.Context) []ProgressBucket {
	dist, err := s.repo.ProgressDistribution(ctx)
	if err != nil {
		log.Printf("dashboard studentProgress failed: %v", err)
		return sampleStudentProgress()
	}
	if dist.NotStarted+dist.InProgress+dist.Completed+dist.Certified == 0 {
		return sampleStudentProgress()
	}
	return []ProgressBucket{
		{Status: "Not Started", Count: dist.NotStarted},
		{Status: "In Progress", Count: dist.InProgress},
		{Status: "Completed", Count: dist.Completed},
		{Status: "Certified", Count: dist.Certified},
	}
}
