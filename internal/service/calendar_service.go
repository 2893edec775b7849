package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ksndmc/flow-api/internal/models"
	appErrors "github.com/ksndmc/flow-api/pkg/errors"
)

// CalendarService serves the holiday calendar and per-date classification.
type CalendarService struct {
	holidays holidayLister
	logger   *zap.Logger
}

// NewCalendarService constructs the service.
func NewCalendarService(holidays holidayLister, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{holidays: holidays, logger: logger}
}

// Holidays returns the holiday list, optionally restricted to a year.
func (s *CalendarService) Holidays(ctx context.Context, year int) ([]models.Holiday, error) {
	holidays, err := s.holidays.List(ctx, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	return holidays, nil
}

// ClassifyDate classifies one date for an employee type. Dates come in as
// YYYY-MM-DD strings from the query layer.
func (s *CalendarService) ClassifyDate(ctx context.Context, rawDate string, employeeType models.EmployeeType) (*SpecialDay, error) {
	date, err := time.Parse(models.DateOnly, rawDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if !employeeType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown employee type")
	}

	holidays, err := s.holidays.List(ctx, date.Year())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}

	day, ok := NewHolidayCalendar(holidays).Classify(date, employeeType)
	if !ok {
		return nil, nil
	}
	return &day, nil
}
