package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksndmc/flow-api/internal/models"
)

func attendanceRows(now time.Time) *sqlmock.Rows {
	checkIn := "09:05"
	return sqlmock.NewRows([]string{"id", "user_id", "date", "status", "check_in", "check_out", "created_at", "updated_at"}).
		AddRow("att-1", "2", now, string(models.AttendancePresent), checkIn, nil, now, now)
}

func TestAttendanceListFiltersByUserAndRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	from, _ := time.Parse(models.DateOnly, "2026-03-01")
	to, _ := time.Parse(models.DateOnly, "2026-03-31")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, date, status, check_in, check_out, created_at, updated_at FROM attendance WHERE 1=1 AND user_id = $1 AND date >= $2 AND date <= $3 ORDER BY date DESC LIMIT 50 OFFSET 0")).
		WithArgs("2", from, to).
		WillReturnRows(attendanceRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM attendance WHERE 1=1 AND user_id = $1 AND date >= $2 AND date <= $3")).
		WithArgs("2", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows, total, err := repo.List(context.Background(), models.AttendanceFilter{UserID: "2", DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceUpsertReturnsStoredRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO attendance").
		WillReturnRows(attendanceRows(now))

	date, _ := time.Parse(models.DateOnly, "2026-03-02")
	checkIn := "09:05"
	stored, err := repo.Upsert(context.Background(), &models.Attendance{
		UserID:  "2",
		Date:    date,
		Status:  models.AttendancePresent,
		CheckIn: &checkIn,
	})
	require.NoError(t, err)
	assert.Equal(t, "att-1", stored.ID)
	assert.Equal(t, models.AttendancePresent, stored.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceSummary(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from, _ := time.Parse(models.DateOnly, "2026-03-01")
	to, _ := time.Parse(models.DateOnly, "2026-03-31")

	mock.ExpectQuery("COUNT\\(\\*\\) FILTER").
		WithArgs("2", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"present", "absent", "late", "on_leave", "holiday", "weekend", "total"}).
			AddRow(18, 1, 2, 2, 1, 7, 31))

	summary, err := repo.Summary(context.Background(), "2", from, to)
	require.NoError(t, err)
	assert.Equal(t, 18, summary.Present)
	assert.Equal(t, 2, summary.OnLeave)
	assert.Equal(t, 31, summary.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceMonthlyRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	from, _ := time.Parse(models.DateOnly, "2026-03-01")
	to, _ := time.Parse(models.DateOnly, "2026-03-31")

	mock.ExpectQuery("JOIN users u ON u.id = a.user_id").
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "user_name", "date", "status", "check_in", "check_out"}).
			AddRow("2", "Jane Doe", from, string(models.AttendancePresent), "09:00", "17:30"))

	rows, err := repo.MonthlyRows(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane Doe", rows[0].UserName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
