package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksndmc/flow-api/internal/models"
)

func TestLeaveGetRequestNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, type, start_date, end_date, reason, status, applied_date, decided_at FROM leave_requests WHERE id = $1 LIMIT 1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetRequest(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveCreateRequestAssignsDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectExec("INSERT INTO leave_requests").WillReturnResult(sqlmock.NewResult(1, 1))

	start, _ := time.Parse(models.DateOnly, "2026-03-02")
	end, _ := time.Parse(models.DateOnly, "2026-03-03")
	req := &models.LeaveRequest{
		UserID:    "2",
		Type:      models.LeaveAnnual,
		StartDate: start,
		EndDate:   end,
		Reason:    "Family function",
		Status:    models.LeavePending,
	}
	err := repo.CreateRequest(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.False(t, req.AppliedDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveReject(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	decidedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE leave_requests SET status = $2, decided_at = $3 WHERE id = $1")).
		WithArgs("lr-1", models.LeaveRejected, decidedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Reject(context.Background(), "lr-1", decidedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveApproveBatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	decidedAt := time.Now().UTC()
	start, _ := time.Parse(models.DateOnly, "2026-03-02")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE leave_requests").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO leave_balances").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO attendance").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO attendance").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	balance := models.DefaultLeaveBalance("2").Debit(models.LeaveAnnual, 2)
	err := repo.Approve(context.Background(), ApproveLeaveParams{
		RequestID: "lr-1",
		DecidedAt: decidedAt,
		Balance:   balance,
		Attendance: []models.Attendance{
			{UserID: "2", Date: start, Status: models.AttendanceOnLeave},
			{UserID: "2", Date: start.AddDate(0, 0, 1), Status: models.AttendanceOnLeave},
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveApproveRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE leave_requests").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO leave_balances").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.Approve(context.Background(), ApproveLeaveParams{
		RequestID: "lr-1",
		DecidedAt: time.Now().UTC(),
		Balance:   models.DefaultLeaveBalance("2"),
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveGetBalance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, al, ml, cl, rh, comoff, used, updated_at FROM leave_balances WHERE user_id = $1 LIMIT 1")).
		WithArgs("2").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "al", "ml", "cl", "rh", "comoff", "used", "updated_at"}).
			AddRow("2", 15, 10, 8, 2, 0, 0, now))

	balance, err := repo.GetBalance(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, 15, balance.AL)
	assert.Equal(t, 0, balance.Used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeavePatchBalance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE leave_balances SET comoff = $1, updated_at = $2 WHERE user_id = $3")).
		WithArgs(3, sqlmock.AnyArg(), "2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	comoff := 3
	err := repo.PatchBalance(context.Background(), "2", models.LeaveBalancePatch{ComOff: &comoff})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveListRequestsFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	now := time.Now()
	status := models.LeavePending
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, user_id, type, start_date, end_date, reason, status, applied_date, decided_at FROM leave_requests WHERE 1=1 AND status = $1 ORDER BY applied_date DESC LIMIT 20 OFFSET 0")).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "start_date", "end_date", "reason", "status", "applied_date", "decided_at"}).
			AddRow("lr-1", "2", string(models.LeaveAnnual), now, now, "Trip", string(status), now, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM leave_requests WHERE 1=1 AND status = $1")).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	requests, total, err := repo.ListRequests(context.Background(), models.LeaveRequestFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, requests, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
