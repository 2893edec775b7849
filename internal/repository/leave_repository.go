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

const (
	leaveRequestColumns = "id, user_id, type, start_date, end_date, reason, status, applied_date, decided_at"
	leaveBalanceColumns = "user_id, al, ml, cl, rh, comoff, used, updated_at"
)

// LeaveRepository handles persistence for leave requests and balances.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// GetRequest returns a leave request by id.
func (r *LeaveRepository) GetRequest(ctx context.Context, id string) (*models.LeaveRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM leave_requests WHERE id = $1 LIMIT 1", leaveRequestColumns)
	var req models.LeaveRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get leave request: %w", err)
	}
	return &req, nil
}

// ListRequests returns leave requests matching the filter with total count.
func (r *LeaveRepository) ListRequests(ctx context.Context, filter models.LeaveRequestFilter) ([]models.LeaveRequest, int, error) {
	baseQuery := `FROM leave_requests WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"applied_date": true,
		"start_date":   true,
		"status":       true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "applied_date"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", leaveRequestColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var requests []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &requests, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list leave requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count leave requests: %w", err)
	}

	return requests, total, nil
}

// AllRequests returns the full leave request collection for the snapshot feed.
func (r *LeaveRepository) AllRequests(ctx context.Context) ([]models.LeaveRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM leave_requests ORDER BY applied_date DESC", leaveRequestColumns)
	var requests []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, fmt.Errorf("all leave requests: %w", err)
	}
	return requests, nil
}

// CreateRequest inserts a new leave request.
func (r *LeaveRepository) CreateRequest(ctx context.Context, req *models.LeaveRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.AppliedDate.IsZero() {
		req.AppliedDate = time.Now().UTC()
	}

	const query = `INSERT INTO leave_requests (id, user_id, type, start_date, end_date, reason, status, applied_date)
VALUES (:id, :user_id, :type, :start_date, :end_date, :reason, :status, :applied_date)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create leave request: %w", err)
	}
	return nil
}

// Reject writes the terminal REJECTED status onto a request.
func (r *LeaveRepository) Reject(ctx context.Context, id string, decidedAt time.Time) error {
	const query = `UPDATE leave_requests SET status = $2, decided_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.LeaveRejected, decidedAt); err != nil {
		return fmt.Errorf("reject leave request: %w", err)
	}
	return nil
}

// ApproveLeaveParams carries every write of an approval decision.
type ApproveLeaveParams struct {
	RequestID  string
	DecidedAt  time.Time
	Balance    models.LeaveBalance
	Attendance []models.Attendance
}

// Approve commits the approval decision as one atomic batch: the status
// flip, the wholesale balance write and the generated attendance rows either
// all land or none do.
func (r *LeaveRepository) Approve(ctx context.Context, params ApproveLeaveParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve leave: %w", err)
	}

	const updateRequest = `UPDATE leave_requests SET status = $2, decided_at = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updateRequest, params.RequestID, models.LeaveApproved, params.DecidedAt); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("approve leave request: %w", err)
	}

	params.Balance.UpdatedAt = params.DecidedAt
	const upsertBalance = `INSERT INTO leave_balances (user_id, al, ml, cl, rh, comoff, used, updated_at)
VALUES (:user_id, :al, :ml, :cl, :rh, :comoff, :used, :updated_at)
ON CONFLICT (user_id)
DO UPDATE SET al = EXCLUDED.al, ml = EXCLUDED.ml, cl = EXCLUDED.cl, rh = EXCLUDED.rh, comoff = EXCLUDED.comoff, used = EXCLUDED.used, updated_at = EXCLUDED.updated_at`
	if _, err = tx.NamedExecContext(ctx, upsertBalance, &params.Balance); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("write leave balance: %w", err)
	}

	const upsertAttendance = `INSERT INTO attendance (id, user_id, date, status, created_at, updated_at)
VALUES (:id, :user_id, :date, :status, :created_at, :updated_at)
ON CONFLICT (user_id, date)
DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	for i := range params.Attendance {
		rec := &params.Attendance[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = params.DecidedAt
		}
		rec.UpdatedAt = params.DecidedAt
		if _, err = tx.NamedExecContext(ctx, upsertAttendance, rec); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write leave attendance: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit approve leave: %w", err)
	}
	return nil
}

// GetBalance returns the leave balance for a user.
func (r *LeaveRepository) GetBalance(ctx context.Context, userID string) (*models.LeaveBalance, error) {
	query := fmt.Sprintf("SELECT %s FROM leave_balances WHERE user_id = $1 LIMIT 1", leaveBalanceColumns)
	var balance models.LeaveBalance
	if err := r.db.GetContext(ctx, &balance, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get leave balance: %w", err)
	}
	return &balance, nil
}

// AllBalances returns the full balance collection for the snapshot feed.
func (r *LeaveRepository) AllBalances(ctx context.Context) ([]models.LeaveBalance, error) {
	query := fmt.Sprintf("SELECT %s FROM leave_balances ORDER BY user_id", leaveBalanceColumns)
	var balances []models.LeaveBalance
	if err := r.db.SelectContext(ctx, &balances, query); err != nil {
		return nil, fmt.Errorf("all leave balances: %w", err)
	}
	return balances, nil
}

// PatchBalance applies field-level balance updates. Nil fields are not
// written; no recompute happens.
func (r *LeaveRepository) PatchBalance(ctx context.Context, userID string, patch models.LeaveBalancePatch) error {
	if patch.Empty() {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin patch balance: %w", err)
	}
	if err = patchBalanceTx(ctx, tx, userID, patch); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit patch balance: %w", err)
	}
	return nil
}

func patchBalanceTx(ctx context.Context, tx *sqlx.Tx, userID string, patch models.LeaveBalancePatch) error {
	var sets []string
	var args []interface{}
	add := func(column string, value *int) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("al", patch.AL)
	add("ml", patch.ML)
	add("cl", patch.CL)
	add("rh", patch.RH)
	add("comoff", patch.ComOff)
	add("used", patch.Used)
	if len(sets) == 0 {
		return nil
	}

	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))

	args = append(args, userID)
	query := fmt.Sprintf("UPDATE leave_balances SET %s WHERE user_id = $%d", strings.Join(sets, ", "), len(args))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("patch leave balance: %w", err)
	}
	return nil
}
