package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ksndmc/flow-api/internal/models"
	appErrors "github.com/ksndmc/flow-api/pkg/errors"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error)
	Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error)
	Summary(ctx context.Context, userID string, from, to time.Time) (*models.AttendanceSummary, error)
}

// AttendanceService manages daily attendance records.
type AttendanceService struct {
	attendance attendanceRepository
	changes    changePublisher
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAttendanceService constructs the service.
func NewAttendanceService(attendance attendanceRepository, changes changePublisher, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{attendance: attendance, changes: changes, validator: validate, logger: logger}
}

// MarkAttendanceRequest describes the attendance upsert payload.
type MarkAttendanceRequest struct {
	UserID   string  `json:"user_id" validate:"required"`
	Date     string  `json:"date" validate:"required"`
	Status   string  `json:"status" validate:"required"`
	CheckIn  *string `json:"check_in"`
	CheckOut *string `json:"check_out"`
}

// List returns attendance rows matching the filter.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error) {
	rows, total, err := s.attendance.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return rows, total, nil
}

// Mark inserts or replaces the attendance record for (user, date).
func (s *AttendanceService) Mark(ctx context.Context, req MarkAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	status := models.AttendanceStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown attendance status")
	}
	date, err := time.Parse(models.DateOnly, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	stored, err := s.attendance.Upsert(ctx, &models.Attendance{
		UserID:   req.UserID,
		Date:     date,
		Status:   status,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attendance")
	}

	s.logger.Info("attendance marked",
		zap.String("user_id", req.UserID),
		zap.String("date", req.Date),
		zap.String("status", string(status)))
	s.publish(ctx, "attendance")
	return stored, nil
}

// Summary aggregates per-status counts for one user within a month given as
// YYYY-MM.
func (s *AttendanceService) Summary(ctx context.Context, userID, month string) (*models.AttendanceSummary, error) {
	from, to, err := monthRange(month)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be YYYY-MM")
	}
	summary, err := s.attendance.Summary(ctx, userID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build summary")
	}
	return summary, nil
}

func (s *AttendanceService) publish(ctx context.Context, collections ...string) {
	if s.changes == nil {
		return
	}
	s.changes.Publish(ctx, collections...)
}

// monthRange expands YYYY-MM into the first and last day of that month.
func monthRange(month string) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to := from.AddDate(0, 1, -1)
	return from, to, nil
}
