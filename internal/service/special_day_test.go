package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksndmc/flow-api/internal/models"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	date, err := time.Parse(models.DateOnly, value)
	require.NoError(t, err)
	return date
}

func testCalendar(t *testing.T) *HolidayCalendar {
	t.Helper()
	return NewHolidayCalendar([]models.Holiday{
		{Date: mustDate(t, "2026-01-01"), Name: "New Year's Day", Type: models.HolidayPublic},
		{Date: mustDate(t, "2026-01-26"), Name: "Republic Day", Type: models.HolidayPublic},
		{Date: mustDate(t, "2026-08-15"), Name: "Independence Day", Type: models.HolidayPublic},
	})
}

func TestClassifyHoliday(t *testing.T) {
	cal := testCalendar(t)

	day, ok := cal.Classify(mustDate(t, "2026-01-26"), models.EmployeeRegular)
	require.True(t, ok)
	assert.Equal(t, models.AttendanceHoliday, day.Status)
	assert.Equal(t, "Republic Day", day.Name)
}

func TestClassifyHolidayBeatsWeekend(t *testing.T) {
	cal := testCalendar(t)

	// 2026-08-15 is a third Saturday; the holiday must win.
	day, ok := cal.Classify(mustDate(t, "2026-08-15"), models.EmployeeRegular)
	require.True(t, ok)
	assert.Equal(t, models.AttendanceHoliday, day.Status)
	assert.Equal(t, "Independence Day", day.Name)
}

func TestClassifySundays(t *testing.T) {
	cal := testCalendar(t)

	day, ok := cal.Classify(mustDate(t, "2026-03-01"), models.EmployeeRegular)
	require.True(t, ok)
	assert.Equal(t, models.AttendanceWeekend, day.Status)
	assert.Equal(t, "Sunday", day.Name)
}

func TestClassifySaturdays(t *testing.T) {
	cal := testCalendar(t)

	cases := []struct {
		date string
		want string
		ok   bool
	}{
		{"2026-03-07", "", false},           // 1st Saturday
		{"2026-03-14", "2nd Saturday", true},
		{"2026-03-21", "", false},           // 3rd Saturday
		{"2026-03-28", "4th Saturday", true},
		{"2026-05-30", "", false},           // 5th Saturday
	}
	for _, tc := range cases {
		day, ok := cal.Classify(mustDate(t, tc.date), models.EmployeeRegular)
		assert.Equal(t, tc.ok, ok, tc.date)
		if tc.ok {
			assert.Equal(t, models.AttendanceWeekend, day.Status, tc.date)
			assert.Equal(t, tc.want, day.Name, tc.date)
		}
	}
}

func TestClassifyOutsourcedNeverSpecial(t *testing.T) {
	cal := testCalendar(t)

	for _, date := range []string{"2026-01-01", "2026-03-01", "2026-03-14"} {
		_, ok := cal.Classify(mustDate(t, date), models.EmployeeOutsourced)
		assert.False(t, ok, date)
	}
}

func TestClassifyOrdinaryWeekday(t *testing.T) {
	cal := testCalendar(t)

	_, ok := cal.Classify(mustDate(t, "2026-03-04"), models.EmployeeRegular)
	assert.False(t, ok)
}
