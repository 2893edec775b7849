package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ksndmc/flow-api/internal/models"
)

const attendanceColumns = "id, user_id, date, status, check_in, check_out, created_at, updated_at"

// AttendanceRepository handles persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance rows matching the provided filter.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.Attendance, int, error) {
	baseQuery := `FROM attendance WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"date":   true,
		"status": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "date"
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
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", attendanceColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}

	return rows, total, nil
}

// All returns the full attendance collection for the snapshot feed.
func (r *AttendanceRepository) All(ctx context.Context) ([]models.Attendance, error) {
	query := fmt.Sprintf("SELECT %s FROM attendance ORDER BY date DESC, user_id", attendanceColumns)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("all attendance: %w", err)
	}
	return rows, nil
}

// Upsert inserts or replaces the attendance record for (user, date).
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO attendance (id, user_id, date, status, check_in, check_out, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, date)
DO UPDATE SET status = EXCLUDED.status, check_in = EXCLUDED.check_in, check_out = EXCLUDED.check_out, updated_at = EXCLUDED.updated_at
RETURNING id, user_id, date, status, check_in, check_out, created_at, updated_at`
	var stored models.Attendance
	if err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.UserID, record.Date, record.Status,
		record.CheckIn, record.CheckOut, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &stored, nil
}

// Summary aggregates per-status counts for one user within a date range.
func (r *AttendanceRepository) Summary(ctx context.Context, userID string, from, to time.Time) (*models.AttendanceSummary, error) {
	const query = `SELECT
COUNT(*) FILTER (WHERE status = 'PRESENT') AS present,
COUNT(*) FILTER (WHERE status = 'ABSENT') AS absent,
COUNT(*) FILTER (WHERE status = 'LATE') AS late,
COUNT(*) FILTER (WHERE status = 'ON_LEAVE') AS on_leave,
COUNT(*) FILTER (WHERE status = 'HOLIDAY') AS holiday,
COUNT(*) FILTER (WHERE status = 'WEEKEND') AS weekend,
COUNT(*) AS total
FROM attendance WHERE user_id = $1 AND date >= $2 AND date <= $3`
	var summary models.AttendanceSummary
	if err := r.db.GetContext(ctx, &summary, query, userID, from, to); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	return &summary, nil
}

// MonthlyReportRow is an attendance row joined with the user's name, used by
// report exports.
type MonthlyReportRow struct {
	UserID   string                  `db:"user_id"`
	UserName string                  `db:"user_name"`
	Date     time.Time               `db:"date"`
	Status   models.AttendanceStatus `db:"status"`
	CheckIn  *string                 `db:"check_in"`
	CheckOut *string                 `db:"check_out"`
}

// MonthlyRows returns every attendance row within [from, to] joined with
// user names, ordered for report rendering.
func (r *AttendanceRepository) MonthlyRows(ctx context.Context, from, to time.Time) ([]MonthlyReportRow, error) {
	const query = `SELECT a.user_id, u.name AS user_name, a.date, a.status, a.check_in, a.check_out
FROM attendance a
JOIN users u ON u.id = a.user_id
WHERE a.date >= $1 AND a.date <= $2
ORDER BY u.name, a.date`
	var rows []MonthlyReportRow
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("monthly report rows: %w", err)
	}
	return rows, nil
}
