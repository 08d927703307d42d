package calendar

import (
	"fmt"
	"time"
)

// Session is a scheduled training session shown on the calendar.
type Session struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Date      time.Time `json:"training_date"`
	StartTime string    `json:"start_time,omitempty"` // "HH:MM", empty means midnight
}

// Day status colors, matching the page's badge classes.
const (
	StatusScheduled   = "warning" // upcoming session
	StatusDoneProof   = "success" // past session with a proof
	StatusDoneNoProof = "danger"  // past session without a proof
)

// DayCell is one cell in the month grid. Day is zero for padding cells
// outside the month.
type DayCell struct {
	Day         int    `json:"day,omitempty"`
	IsToday     bool   `json:"is_today,omitempty"`
	HasTraining bool   `json:"has_training,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	StatusColor string `json:"status_color,omitempty"`
	ProofExists bool   `json:"proof_exists,omitempty"`
}

// MonthView is the calendar page view model.
type MonthView struct {
	Year      int         `json:"year"`
	Month     int         `json:"month"`
	MonthName string      `json:"month_name"`
	Weeks     [][]DayCell `json:"weeks"`
	PrevMonth int         `json:"prev_month"`
	PrevYear  int         `json:"prev_year"`
	NextMonth int         `json:"next_month"`
	NextYear  int         `json:"next_year"`
}

// BuildMonth lays out a Monday-first week grid for the month and annotates
// days that have a session with a status color: warning while the session
// start is in the future, success when a proof exists for the session date,
// danger otherwise.
func BuildMonth(year int, month time.Month, now time.Time, sessions []Session, proofDates map[string]bool) MonthView {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	byDay := make(map[int]Session, len(sessions))
	for _, s := range sessions {
		if s.Date.Year() == year && s.Date.Month() == month {
			byDay[s.Date.Day()] = s
		}
	}

	var weeks [][]DayCell
	week := make([]DayCell, 0, 7)

	// Leading blanks before the first day (Monday-first).
	for i := 0; i < (int(first.Weekday())+6)%7; i++ {
		week = append(week, DayCell{})
	}

	for day := 1; day <= daysInMonth; day++ {
		cell := DayCell{Day: day}
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		cell.IsToday = date.Equal(today)

		if s, ok := byDay[day]; ok {
			cell.HasTraining = true
			cell.SessionID = s.ID
			cell.StartTime = s.StartTime
			cell.ProofExists = proofDates[date.Format("2006-01-02")]
			cell.StatusColor = status(s, cell.ProofExists, now)
		}

		week = append(week, cell)
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = make([]DayCell, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, DayCell{})
		}
		weeks = append(weeks, week)
	}

	view := MonthView{
		Year:      year,
		Month:     int(month),
		MonthName: month.String(),
		Weeks:     weeks,
	}
	view.PrevMonth, view.PrevYear = int(month)-1, year
	if month == time.January {
		view.PrevMonth, view.PrevYear = 12, year-1
	}
	view.NextMonth, view.NextYear = int(month)+1, year
	if month == time.December {
		view.NextMonth, view.NextYear = 1, year+1
	}
	return view
}

func status(s Session, proofExists bool, now time.Time) string {
	if SessionStart(s).After(now) {
		return StatusScheduled
	}
	if proofExists {
		return StatusDoneProof
	}
	return StatusDoneNoProof
}

// SessionStart combines the session date with its optional HH:MM start time.
func SessionStart(s Session) time.Time {
	start := time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), 0, 0, 0, 0, s.Date.Location())
	if s.StartTime != "" {
		var h, m int
		if _, err := fmt.Sscanf(s.StartTime, "%d:%d", &h, &m); err == nil {
			start = start.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
		}
	}
	return start
}

// UpcomingSessions returns up to limit sessions on or after today, ordered
// by date ascending.
func UpcomingSessions(sessions []Session, today time.Time, limit int) []Session {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	var upcoming []Session
	for _, s := range sessions {
		if !s.Date.Before(day) {
			upcoming = append(upcoming, s)
		}
	}
	for i := 1; i < len(upcoming); i++ {
		for j := i; j > 0 && upcoming[j].Date.Before(upcoming[j-1].Date); j-- {
			upcoming[j], upcoming[j-1] = upcoming[j-1], upcoming[j]
		}
	}
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}
