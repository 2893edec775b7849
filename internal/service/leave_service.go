package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ksndmc/flow-api/internal/models"
	"github.com/ksndmc/flow-api/internal/repository"
	appErrors "github.com/ksndmc/flow-api/pkg/errors"
)

type leaveRepository interface {
	GetRequest(ctx context.Context, id string) (*models.LeaveRequest, error)
	ListRequests(ctx context.Context, filter models.LeaveRequestFilter) ([]models.LeaveRequest, int, error)
	CreateRequest(ctx context.Context, req *models.LeaveRequest) error
	Reject(ctx context.Context, id string, decidedAt time.Time) error
	Approve(ctx context.Context, params repository.ApproveLeaveParams) error
	GetBalance(ctx context.Context, userID string) (*models.LeaveBalance, error)
	PatchBalance(ctx context.Context, userID string, patch models.LeaveBalancePatch) error
}

type holidayLister interface {
	List(ctx context.Context, year int) ([]models.Holiday, error)
}

type changePublisher interface {
	Publish(ctx context.Context, collections ...string)
}

// LeaveService implements the leave request workflow: submission, the
// admin decision and the resulting balance and attendance writes.
type LeaveService struct {
	leaves    leaveRepository
	holidays  holidayLister
	changes   changePublisher
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewLeaveService constructs the service.
func NewLeaveService(leaves leaveRepository, holidays holidayLister, changes changePublisher, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{
		leaves:    leaves,
		holidays:  holidays,
		changes:   changes,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SubmitLeaveRequest describes the employee-facing submission payload.
type SubmitLeaveRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	Type      string `json:"type" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// Submit records a new PENDING leave request.
func (s *LeaveService) Submit(ctx context.Context, req SubmitLeaveRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	leaveType := models.LeaveType(req.Type)
	if !leaveType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown leave type")
	}
	start, err := time.Parse(models.DateOnly, req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(models.DateOnly, req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}

	record := &models.LeaveRequest{
		UserID:      req.UserID,
		Type:        leaveType,
		StartDate:   start,
		EndDate:     end,
		Reason:      req.Reason,
		Status:      models.LeavePending,
		AppliedDate: s.now(),
	}
	if err := s.leaves.CreateRequest(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave request")
	}

	s.logger.Info("leave request submitted",
		zap.String("request_id", record.ID),
		zap.String("user_id", record.UserID),
		zap.String("type", string(record.Type)))
	s.publish(ctx, "leaveRequests")
	return record, nil
}

// List returns leave requests matching the filter.
func (s *LeaveService) List(ctx context.Context, filter models.LeaveRequestFilter) ([]models.LeaveRequest, int, error) {
	requests, total, err := s.leaves.ListRequests(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave requests")
	}
	return requests, total, nil
}

// Get returns a single leave request.
func (s *LeaveService) Get(ctx context.Context, id string) (*models.LeaveRequest, error) {
	req, err := s.leaves.GetRequest(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get leave request")
	}
	return req, nil
}

// Decide applies an admin decision to a pending request. A rejection only
// flips the status. An approval debits the balance and writes one attendance
// row per day of the inclusive range in a single batch.
func (s *LeaveService) Decide(ctx context.Context, requestID string, approve bool) (*models.LeaveRequest, error) {
	req, err := s.leaves.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave request")
	}
	if req.Status.Terminal() {
		return nil, appErrors.ErrFinalized
	}

	decidedAt := s.now()

	if !approve {
		if err := s.leaves.Reject(ctx, requestID, decidedAt); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject leave request")
		}
		req.Status = models.LeaveRejected
		req.DecidedAt = &decidedAt
		s.logger.Info("leave request rejected", zap.String("request_id", requestID))
		s.publish(ctx, "leaveRequests")
		return req, nil
	}

	days := inclusiveDays(req.StartDate, req.EndDate)

	balance, err := s.currentBalance(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	debited := balance.Debit(req.Type, days)

	calendar, err := s.loadCalendar(ctx)
	if err != nil {
		return nil, err
	}
	attendance := make([]models.Attendance, 0, days)
	for i := 0; i < days; i++ {
		date := req.StartDate.AddDate(0, 0, i)
		status := models.AttendanceOnLeave
		if _, ok := calendar.Lookup(date); ok {
			status = models.AttendanceHoliday
		}
		attendance = append(attendance, models.Attendance{
			UserID: req.UserID,
			Date:   date,
			Status: status,
		})
	}

	params := repository.ApproveLeaveParams{
		RequestID:  requestID,
		DecidedAt:  decidedAt,
		Balance:    debited,
		Attendance: attendance,
	}
	if err := s.leaves.Approve(ctx, params); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve leave request")
	}

	req.Status = models.LeaveApproved
	req.DecidedAt = &decidedAt
	s.logger.Info("leave request approved",
		zap.String("request_id", requestID),
		zap.String("user_id", req.UserID),
		zap.Int("days", days))
	s.publish(ctx, "leaveRequests", "leaveBalances", "attendance")
	return req, nil
}

// Balance returns the leave balance for a user, falling back to the default
// allocation when no row exists yet.
func (s *LeaveService) Balance(ctx context.Context, userID string) (*models.LeaveBalance, error) {
	balance, err := s.currentBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

// PatchBalance applies field-level balance edits made by an admin.
func (s *LeaveService) PatchBalance(ctx context.Context, userID string, patch models.LeaveBalancePatch) error {
	if patch.Empty() {
		return nil
	}
	if err := s.leaves.PatchBalance(ctx, userID, patch); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update leave balance")
	}
	s.publish(ctx, "leaveBalances")
	return nil
}

func (s *LeaveService) currentBalance(ctx context.Context, userID string) (models.LeaveBalance, error) {
	balance, err := s.leaves.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultLeaveBalance(userID), nil
		}
		return models.LeaveBalance{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave balance")
	}
	return *balance, nil
}

func (s *LeaveService) loadCalendar(ctx context.Context) (*HolidayCalendar, error) {
	holidays, err := s.holidays.List(ctx, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	return NewHolidayCalendar(holidays), nil
}

func (s *LeaveService) publish(ctx context.Context, collections ...string) {
	if s.changes == nil {
		return
	}
	s.changes.Publish(ctx, collections...)
}

// inclusiveDays counts calendar days in [start, end], both endpoints
// included.
func inclusiveDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}
