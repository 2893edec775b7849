package models

import "time"

// DateOnly is the calendar-day layout used across the API surface.
const DateOnly = "2006-01-02"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceLate    AttendanceStatus = "LATE"
	AttendanceOnLeave AttendanceStatus = "ON_LEAVE"
	AttendanceHoliday AttendanceStatus = "HOLIDAY"
	AttendanceWeekend AttendanceStatus = "WEEKEND"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate,
		AttendanceOnLeave, AttendanceHoliday, AttendanceWeekend:
		return true
	default:
		return false
	}
}

// Attendance represents one record per (user, date).
// CheckIn/CheckOut carry HH:mm wall-clock strings when present.
type Attendance struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	CheckIn   *string          `db:"check_in" json:"check_in,omitempty"`
	CheckOut  *string          `db:"check_out" json:"check_out,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceFilter defines query filters for attendance listings.
type AttendanceFilter struct {
	UserID    string
	Status    *AttendanceStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AttendanceSummary aggregates per-status counts for a user.
type AttendanceSummary struct {
	Present int `db:"present" json:"present"`
	Absent  int `db:"absent" json:"absent"`
	Late    int `db:"late" json:"late"`
	OnLeave int `db:"on_leave" json:"on_leave"`
	Holiday int `db:"holiday" json:"holiday"`
	Weekend int `db:"weekend" json:"weekend"`
	Total   int `db:"total" json:"total"`
}
