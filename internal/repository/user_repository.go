package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ksndmc/flow-api/internal/models"
)

const userColumns = "id, name, email, password_hash, role, employee_type, position, join_date, birthday, created_at, updated_at"

// UserRepository provides database access for user management.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address, compared case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE email = LOWER($1) LIMIT 1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1 LIMIT 1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// List returns users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.EmployeeType != nil {
		conditions = append(conditions, fmt.Sprintf("employee_type = $%d", len(args)+1))
		args = append(args, *filter.EmployeeType)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"email":     true,
		"name":      true,
		"join_date": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "join_date"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", userColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// All returns the full user collection, ordered by id. Used by the realtime
// snapshot feed.
func (r *UserRepository) All(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users ORDER BY id", userColumns)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("all users: %w", err)
	}
	return users, nil
}

// CreateWithBalance inserts a user record and its leave balance in one
// transaction.
func (r *UserRepository) CreateWithBalance(ctx context.Context, user *models.User, balance *models.LeaveBalance) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	balance.UserID = user.ID
	balance.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create user: %w", err)
	}

	const insertUser = `INSERT INTO users (id, name, email, password_hash, role, employee_type, position, join_date, birthday, created_at, updated_at)
VALUES (:id, :name, LOWER(:email), :password_hash, :role, :employee_type, :position, :join_date, :birthday, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertUser, user); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("create user: %w", err)
	}

	const insertBalance = `INSERT INTO leave_balances (user_id, al, ml, cl, rh, comoff, used, updated_at)
VALUES (:user_id, :al, :ml, :cl, :rh, :comoff, :used, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertBalance, balance); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("create leave balance: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create user: %w", err)
	}
	return nil
}

// Patch applies field-level user updates and, optionally, balance updates in
// one transaction. Nil patch fields are not written.
func (r *UserRepository) Patch(ctx context.Context, id string, patch models.UserPatch, balancePatch models.LeaveBalancePatch) error {
	if patch.Empty() && balancePatch.Empty() {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin patch user: %w", err)
	}

	if !patch.Empty() {
		var sets []string
		var args []interface{}
		add := func(column string, value interface{}) {
			args = append(args, value)
			sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		}
		if patch.Name != nil {
			add("name", *patch.Name)
		}
		if patch.Email != nil {
			args = append(args, strings.ToLower(*patch.Email))
			sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
		}
		if patch.Role != nil {
			add("role", *patch.Role)
		}
		if patch.EmployeeType != nil {
			add("employee_type", *patch.EmployeeType)
		}
		if patch.Position != nil {
			add("position", *patch.Position)
		}
		if patch.JoinDate != nil {
			add("join_date", *patch.JoinDate)
		}
		if patch.Birthday != nil {
			add("birthday", *patch.Birthday)
		}
		add("updated_at", time.Now().UTC())

		args = append(args, id)
		query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("patch user: %w", err)
		}
	}

	if !balancePatch.Empty() {
		if err = patchBalanceTx(ctx, tx, id, balancePatch); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit patch user: %w", err)
	}
	return nil
}

// DeleteWithBalance removes the user and its leave balance in one
// transaction. Attendance and leave request history is deliberately left in
// place.
func (r *UserRepository) DeleteWithBalance(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM leave_balances WHERE user_id = $1`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete leave balance: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete user: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user: %w", err)
	}
	return nil
}
