package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ksndmc/flow-api/internal/models"
	appErrors "github.com/ksndmc/flow-api/pkg/errors"
)

type snapshotUserRepository interface {
	All(ctx context.Context) ([]models.User, error)
}

type snapshotAttendanceRepository interface {
	All(ctx context.Context) ([]models.Attendance, error)
}

type snapshotLeaveRepository interface {
	AllRequests(ctx context.Context) ([]models.LeaveRequest, error)
	AllBalances(ctx context.Context) ([]models.LeaveBalance, error)
}

// SnapshotService loads whole collections for the realtime feed. Clients
// reload a collection whenever a change notification names it.
type SnapshotService struct {
	users      snapshotUserRepository
	attendance snapshotAttendanceRepository
	leaves     snapshotLeaveRepository
	holidays   holidayLister
	logger     *zap.Logger
}

// NewSnapshotService constructs the service.
func NewSnapshotService(users snapshotUserRepository, attendance snapshotAttendanceRepository, leaves snapshotLeaveRepository, holidays holidayLister, logger *zap.Logger) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{users: users, attendance: attendance, leaves: leaves, holidays: holidays, logger: logger}
}

// Collections lists every collection the feed can carry.
func (s *SnapshotService) Collections() []string {
	return []string{"users", "attendance", "leaveRequests", "leaveBalances", "holidays"}
}

// Snapshot returns the current contents of one collection. User rows are
// projected to UserInfo so password hashes never leave the server.
func (s *SnapshotService) Snapshot(ctx context.Context, collection string) (interface{}, error) {
	switch collection {
	case "users":
		users, err := s.users.All(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users")
		}
		infos := make([]models.UserInfo, 0, len(users))
		for _, user := range users {
			infos = append(infos, models.UserInfo{
				ID:           user.ID,
				Email:        user.Email,
				Name:         user.Name,
				Role:         user.Role,
				EmployeeType: user.EmployeeType,
				Position:     user.Position,
			})
		}
		return infos, nil
	case "attendance":
		rows, err := s.attendance.All(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
		}
		return rows, nil
	case "leaveRequests":
		requests, err := s.leaves.AllRequests(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave requests")
		}
		return requests, nil
	case "leaveBalances":
		balances, err := s.leaves.AllBalances(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave balances")
		}
		return balances, nil
	case "holidays":
		holidays, err := s.holidays.List(ctx, 0)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
		}
		return holidays, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown collection")
	}
}
