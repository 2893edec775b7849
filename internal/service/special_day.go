package service

import (
	"time"

	"github.com/ksndmc/flow-api/internal/models"
)

// HolidayCalendar indexes holidays by calendar date for O(1) lookups.
type HolidayCalendar struct {
	byDate map[string]models.Holiday
}

// NewHolidayCalendar builds the index from a holiday list.
func NewHolidayCalendar(holidays []models.Holiday) *HolidayCalendar {
	byDate := make(map[string]models.Holiday, len(holidays))
	for _, h := range holidays {
		byDate[h.Date.Format(models.DateOnly)] = h
	}
	return &HolidayCalendar{byDate: byDate}
}

// Lookup returns the holiday on the given date, if any.
func (c *HolidayCalendar) Lookup(date time.Time) (models.Holiday, bool) {
	h, ok := c.byDate[date.Format(models.DateOnly)]
	return h, ok
}

// SpecialDay is the classification of a calendar date for one employee.
type SpecialDay struct {
	Status models.AttendanceStatus `json:"status"`
	Name   string                  `json:"name"`
}

// Classify decides whether a date is a special day for the given employee
// type. Outsourced staff work every day, so no date is special for them.
// Holidays take precedence over weekend rules. Sundays are always weekends;
// Saturdays only the second and fourth of the month.
func (c *HolidayCalendar) Classify(date time.Time, employeeType models.EmployeeType) (SpecialDay, bool) {
	if employeeType == models.EmployeeOutsourced {
		return SpecialDay{}, false
	}

	if h, ok := c.Lookup(date); ok {
		return SpecialDay{Status: models.AttendanceHoliday, Name: h.Name}, true
	}

	switch date.Weekday() {
	case time.Sunday:
		return SpecialDay{Status: models.AttendanceWeekend, Name: "Sunday"}, true
	case time.Saturday:
		// Occurrence of this Saturday within its month: day 1-7 is the
		// first, 8-14 the second, and so on.
		occurrence := (date.Day() + 6) / 7
		if occurrence == 2 {
			return SpecialDay{Status: models.AttendanceWeekend, Name: "2nd Saturday"}, true
		}
		if occurrence == 4 {
			return SpecialDay{Status: models.AttendanceWeekend, Name: "4th Saturday"}, true
		}
	}

	return SpecialDay{}, false
}
