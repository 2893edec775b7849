package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ksndmc/flow-api/internal/models"
	appErrors "github.com/ksndmc/flow-api/pkg/errors"
)

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	CreateWithBalance(ctx context.Context, user *models.User, balance *models.LeaveBalance) error
	Patch(ctx context.Context, id string, patch models.UserPatch, balancePatch models.LeaveBalancePatch) error
	DeleteWithBalance(ctx context.Context, id string) error
}

// UserService manages employee accounts and their leave balances.
type UserService struct {
	users     userRepository
	changes   changePublisher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users userRepository, changes changePublisher, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, changes: changes, validator: validate, logger: logger}
}

// CreateUserRequest describes the admin-facing create payload.
type CreateUserRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	Role         string `json:"role" validate:"required"`
	EmployeeType string `json:"employee_type" validate:"required"`
	Position     string `json:"position" validate:"required"`
	JoinDate     string `json:"join_date" validate:"required"`
	Birthday     string `json:"birthday"`
}

// Create registers a new user together with the default leave allocation.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	role := models.Role(strings.ToUpper(req.Role))
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	employeeType := models.EmployeeType(strings.ToUpper(req.EmployeeType))
	if !employeeType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown employee type")
	}
	joinDate, err := time.Parse(models.DateOnly, req.JoinDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "join_date must be YYYY-MM-DD")
	}
	var birthday *time.Time
	if req.Birthday != "" {
		parsed, err := time.Parse(models.DateOnly, req.Birthday)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "birthday must be YYYY-MM-DD")
		}
		birthday = &parsed
	}

	if existing, err := s.users.FindByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		Role:         role,
		EmployeeType: employeeType,
		Position:     req.Position,
		JoinDate:     joinDate,
		Birthday:     birthday,
	}
	balance := models.DefaultLeaveBalance("")
	if err := s.users.CreateWithBalance(ctx, user, &balance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user created",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)))
	s.publish(ctx, "users", "leaveBalances")
	return user, nil
}

// List returns users matching the filter.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, total, nil
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get user")
	}
	return user, nil
}

// UpdateUserRequest describes field-level user edits. Nil fields are left
// untouched; balance fields ride along in the same transaction.
type UpdateUserRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Role         *string `json:"role"`
	EmployeeType *string `json:"employee_type"`
	Position     *string `json:"position"`
	JoinDate     *string `json:"join_date"`
	Birthday     *string `json:"birthday"`

	AL     *int `json:"al"`
	ML     *int `json:"ml"`
	CL     *int `json:"cl"`
	RH     *int `json:"rh"`
	ComOff *int `json:"comoff"`
	Used   *int `json:"used"`
}

// Update applies a partial edit to a user and, optionally, its balance.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	patch := models.UserPatch{
		Name:     req.Name,
		Email:    req.Email,
		Position: req.Position,
	}
	if req.Role != nil {
		role := models.Role(strings.ToUpper(*req.Role))
		if !role.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
		}
		patch.Role = &role
	}
	if req.EmployeeType != nil {
		employeeType := models.EmployeeType(strings.ToUpper(*req.EmployeeType))
		if !employeeType.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown employee type")
		}
		patch.EmployeeType = &employeeType
	}
	if req.JoinDate != nil {
		joinDate, err := time.Parse(models.DateOnly, *req.JoinDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "join_date must be YYYY-MM-DD")
		}
		patch.JoinDate = &joinDate
	}
	if req.Birthday != nil {
		birthday, err := time.Parse(models.DateOnly, *req.Birthday)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "birthday must be YYYY-MM-DD")
		}
		patch.Birthday = &birthday
	}

	balancePatch := models.LeaveBalancePatch{
		AL: req.AL, ML: req.ML, CL: req.CL,
		RH: req.RH, ComOff: req.ComOff, Used: req.Used,
	}

	if err := s.users.Patch(ctx, id, patch, balancePatch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	collections := []string{"users"}
	if !balancePatch.Empty() {
		collections = append(collections, "leaveBalances")
	}
	s.publish(ctx, collections...)
	return s.Get(ctx, id)
}

// Delete removes a user and its leave balance. The reserved admin account
// cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if id == models.ProtectedAdminID {
		return appErrors.ErrProtectedUser
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.users.DeleteWithBalance(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.logger.Info("user deleted", zap.String("user_id", id))
	s.publish(ctx, "users", "leaveBalances")
	return nil
}

func (s *UserService) publish(ctx context.Context, collections ...string) {
	if s.changes == nil {
		return
	}
	s.changes.Publish(ctx, collections...)
}
