package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksndmc/flow-api/internal/models"
	"github.com/ksndmc/flow-api/internal/repository"
	appErrors "github.com/ksndmc/flow-api/pkg/errors"
)

type mockLeaveRepo struct {
	requests map[string]*models.LeaveRequest
	balances map[string]*models.LeaveBalance

	created  []*models.LeaveRequest
	rejected []string
	approved []repository.ApproveLeaveParams
	patched  []models.LeaveBalancePatch
}

func newMockLeaveRepo() *mockLeaveRepo {
	return &mockLeaveRepo{
		requests: map[string]*models.LeaveRequest{},
		balances: map[string]*models.LeaveBalance{},
	}
}

func (m *mockLeaveRepo) GetRequest(_ context.Context, id string) (*models.LeaveRequest, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *req
	return &copied, nil
}

func (m *mockLeaveRepo) ListRequests(_ context.Context, _ models.LeaveRequestFilter) ([]models.LeaveRequest, int, error) {
	var out []models.LeaveRequest
	for _, req := range m.requests {
		out = append(out, *req)
	}
	return out, len(out), nil
}

func (m *mockLeaveRepo) CreateRequest(_ context.Context, req *models.LeaveRequest) error {
	if req.ID == "" {
		req.ID = "generated-id"
	}
	m.created = append(m.created, req)
	m.requests[req.ID] = req
	return nil
}

func (m *mockLeaveRepo) Reject(_ context.Context, id string, decidedAt time.Time) error {
	m.rejected = append(m.rejected, id)
	if req, ok := m.requests[id]; ok {
		req.Status = models.LeaveRejected
		req.DecidedAt = &decidedAt
	}
	return nil
}

func (m *mockLeaveRepo) Approve(_ context.Context, params repository.ApproveLeaveParams) error {
	m.approved = append(m.approved, params)
	if req, ok := m.requests[params.RequestID]; ok {
		req.Status = models.LeaveApproved
		req.DecidedAt = &params.DecidedAt
	}
	m.balances[params.Balance.UserID] = &params.Balance
	return nil
}

func (m *mockLeaveRepo) GetBalance(_ context.Context, userID string) (*models.LeaveBalance, error) {
	balance, ok := m.balances[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *balance
	return &copied, nil
}

func (m *mockLeaveRepo) PatchBalance(_ context.Context, userID string, patch models.LeaveBalancePatch) error {
	m.patched = append(m.patched, patch)
	return nil
}

type mockHolidayRepo struct {
	holidays []models.Holiday
}

func (m *mockHolidayRepo) List(_ context.Context, _ int) ([]models.Holiday, error) {
	return m.holidays, nil
}

type mockPublisher struct {
	published [][]string
}

func (m *mockPublisher) Publish(_ context.Context, collections ...string) {
	m.published = append(m.published, collections)
}

func newLeaveService(t *testing.T, repo *mockLeaveRepo, holidays []models.Holiday) (*LeaveService, *mockPublisher) {
	t.Helper()
	publisher := &mockPublisher{}
	svc := NewLeaveService(repo, &mockHolidayRepo{holidays: holidays}, publisher, nil, nil)
	return svc, publisher
}

func pendingRequest(t *testing.T, id, userID string, leaveType models.LeaveType, start, end string) *models.LeaveRequest {
	t.Helper()
	return &models.LeaveRequest{
		ID:          id,
		UserID:      userID,
		Type:        leaveType,
		StartDate:   mustDate(t, start),
		EndDate:     mustDate(t, end),
		Reason:      "test",
		Status:      models.LeavePending,
		AppliedDate: mustDate(t, "2026-02-20"),
	}
}

func TestLeaveSubmit(t *testing.T) {
	repo := newMockLeaveRepo()
	svc, publisher := newLeaveService(t, repo, nil)

	created, err := svc.Submit(context.Background(), SubmitLeaveRequest{
		UserID:    "2",
		Type:      "AL",
		StartDate: "2026-03-02",
		EndDate:   "2026-03-03",
		Reason:    "Family function",
	})
	require.NoError(t, err)
	assert.Equal(t, models.LeavePending, created.Status)
	assert.Len(t, repo.created, 1)
	assert.Equal(t, [][]string{{"leaveRequests"}}, publisher.published)
}

func TestLeaveSubmitRejectsBadRange(t *testing.T) {
	repo := newMockLeaveRepo()
	svc, _ := newLeaveService(t, repo, nil)

	_, err := svc.Submit(context.Background(), SubmitLeaveRequest{
		UserID:    "2",
		Type:      "AL",
		StartDate: "2026-03-03",
		EndDate:   "2026-03-02",
		Reason:    "backwards",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestLeaveSubmitRejectsUnknownType(t *testing.T) {
	repo := newMockLeaveRepo()
	svc, _ := newLeaveService(t, repo, nil)

	_, err := svc.Submit(context.Background(), SubmitLeaveRequest{
		UserID:    "2",
		Type:      "SABBATICAL",
		StartDate: "2026-03-02",
		EndDate:   "2026-03-02",
		Reason:    "nope",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLeaveDecideMissingRequest(t *testing.T) {
	repo := newMockLeaveRepo()
	svc, _ := newLeaveService(t, repo, nil)

	_, err := svc.Decide(context.Background(), "missing", true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLeaveDecideFinalizedRequest(t *testing.T) {
	repo := newMockLeaveRepo()
	req := pendingRequest(t, "lr-1", "2", models.LeaveAnnual, "2026-03-02", "2026-03-03")
	req.Status = models.LeaveApproved
	repo.requests["lr-1"] = req
	svc, publisher := newLeaveService(t, repo, nil)

	_, err := svc.Decide(context.Background(), "lr-1", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFinalized.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.rejected)
	assert.Empty(t, repo.approved)
	assert.Empty(t, publisher.published)
}

func TestLeaveDecideReject(t *testing.T) {
	repo := newMockLeaveRepo()
	repo.requests["lr-1"] = pendingRequest(t, "lr-1", "2", models.LeaveAnnual, "2026-03-02", "2026-03-03")
	svc, publisher := newLeaveService(t, repo, nil)

	decided, err := svc.Decide(context.Background(), "lr-1", false)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveRejected, decided.Status)
	require.NotNil(t, decided.DecidedAt)
	assert.Empty(t, repo.approved)
	assert.Equal(t, [][]string{{"leaveRequests"}}, publisher.published)
}

func TestLeaveDecideApproveTwoDayAnnual(t *testing.T) {
	repo := newMockLeaveRepo()
	repo.requests["lr-1"] = pendingRequest(t, "lr-1", "2", models.LeaveAnnual, "2026-03-02", "2026-03-03")
	svc, publisher := newLeaveService(t, repo, nil)

	decided, err := svc.Decide(context.Background(), "lr-1", true)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveApproved, decided.Status)

	require.Len(t, repo.approved, 1)
	params := repo.approved[0]
	assert.Equal(t, 13, params.Balance.AL)
	assert.Equal(t, 2, params.Balance.Used)
	assert.Equal(t, 10, params.Balance.ML)

	require.Len(t, params.Attendance, 2)
	assert.Equal(t, "2026-03-02", params.Attendance[0].Date.Format(models.DateOnly))
	assert.Equal(t, "2026-03-03", params.Attendance[1].Date.Format(models.DateOnly))
	for _, rec := range params.Attendance {
		assert.Equal(t, models.AttendanceOnLeave, rec.Status)
		assert.Equal(t, "2", rec.UserID)
	}

	assert.Equal(t, [][]string{{"leaveRequests", "leaveBalances", "attendance"}}, publisher.published)
}

func TestLeaveDecideApproveMarksHolidays(t *testing.T) {
	repo := newMockLeaveRepo()
	repo.requests["lr-1"] = pendingRequest(t, "lr-1", "2", models.LeaveCasual, "2025-12-31", "2026-01-02")
	holidays := []models.Holiday{{Date: mustDate(t, "2026-01-01"), Name: "New Year's Day", Type: models.HolidayPublic}}
	svc, _ := newLeaveService(t, repo, holidays)

	_, err := svc.Decide(context.Background(), "lr-1", true)
	require.NoError(t, err)

	require.Len(t, repo.approved, 1)
	params := repo.approved[0]
	require.Len(t, params.Attendance, 3)
	assert.Equal(t, models.AttendanceOnLeave, params.Attendance[0].Status)
	assert.Equal(t, models.AttendanceHoliday, params.Attendance[1].Status)
	assert.Equal(t, models.AttendanceOnLeave, params.Attendance[2].Status)
}

func TestLeaveDecideApproveUsesExistingBalance(t *testing.T) {
	repo := newMockLeaveRepo()
	repo.requests["lr-1"] = pendingRequest(t, "lr-1", "2", models.LeaveMedical, "2026-03-04", "2026-03-04")
	repo.balances["2"] = &models.LeaveBalance{UserID: "2", AL: 12, ML: 4, CL: 8, RH: 2, ComOff: 1, Used: 9}
	svc, _ := newLeaveService(t, repo, nil)

	_, err := svc.Decide(context.Background(), "lr-1", true)
	require.NoError(t, err)

	params := repo.approved[0]
	assert.Equal(t, 3, params.Balance.ML)
	assert.Equal(t, 10, params.Balance.Used)
	assert.Equal(t, 12, params.Balance.AL)
}

func TestLeaveDecideApproveUnpaidOnlyCountsUsage(t *testing.T) {
	repo := newMockLeaveRepo()
	repo.requests["lr-1"] = pendingRequest(t, "lr-1", "2", models.LeaveUnpaid, "2026-03-02", "2026-03-04")
	svc, _ := newLeaveService(t, repo, nil)

	_, err := svc.Decide(context.Background(), "lr-1", true)
	require.NoError(t, err)

	params := repo.approved[0]
	balance := params.Balance
	assert.Equal(t, 15, balance.AL)
	assert.Equal(t, 10, balance.ML)
	assert.Equal(t, 8, balance.CL)
	assert.Equal(t, 2, balance.RH)
	assert.Equal(t, 0, balance.ComOff)
	assert.Equal(t, 3, balance.Used)
}

func TestLeaveBalanceDefaultsWhenAbsent(t *testing.T) {
	repo := newMockLeaveRepo()
	svc, _ := newLeaveService(t, repo, nil)

	balance, err := svc.Balance(context.Background(), "99")
	require.NoError(t, err)
	assert.Equal(t, 15, balance.AL)
	assert.Equal(t, 0, balance.Used)
}

func TestInclusiveDays(t *testing.T) {
	assert.Equal(t, 1, inclusiveDays(mustDate(t, "2026-03-02"), mustDate(t, "2026-03-02")))
	assert.Equal(t, 7, inclusiveDays(mustDate(t, "2026-03-02"), mustDate(t, "2026-03-08")))
}
