package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksndmc/flow-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func userRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "employee_type", "position", "join_date", "birthday", "created_at", "updated_at"}).
		AddRow("2", "Jane Doe", "jane.doe@ksndmcflow.com", "hash", string(models.RoleEmployee), string(models.EmployeeRegular), "Software Engineer", now, nil, now, now)
}

func TestUserFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, password_hash, role, employee_type, position, join_date, birthday, created_at, updated_at FROM users WHERE email = LOWER($1) LIMIT 1")).
		WithArgs("Jane.Doe@ksndmcflow.com").
		WillReturnRows(userRows(now))

	user, err := repo.FindByEmail(context.Background(), "Jane.Doe@ksndmcflow.com")
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@ksndmcflow.com", user.Email)
	assert.Equal(t, models.RoleEmployee, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, password_hash, role, employee_type, position, join_date, birthday, created_at, updated_at FROM users WHERE 1=1 ORDER BY join_date ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(userRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateWithBalance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO leave_balances").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	user := &models.User{Name: "New Hire", Email: "new.hire@ksndmcflow.com", Role: models.RoleEmployee, EmployeeType: models.EmployeeRegular, Position: "Analyst", JoinDate: time.Now()}
	balance := models.DefaultLeaveBalance("")
	err := repo.CreateWithBalance(context.Background(), user, &balance)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, user.ID, balance.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPatchOnlyTouchesProvidedFields(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET position = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("Senior Engineer", sqlmock.AnyArg(), "2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	position := "Senior Engineer"
	err := repo.Patch(context.Background(), "2", models.UserPatch{Position: &position}, models.LeaveBalancePatch{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPatchWithBalance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET name = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("Jane D.", sqlmock.AnyArg(), "2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE leave_balances SET al = $1, updated_at = $2 WHERE user_id = $3")).
		WithArgs(20, sqlmock.AnyArg(), "2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	name := "Jane D."
	al := 20
	err := repo.Patch(context.Background(), "2", models.UserPatch{Name: &name}, models.LeaveBalancePatch{AL: &al})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPatchEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	err := repo.Patch(context.Background(), "2", models.UserPatch{}, models.LeaveBalancePatch{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDeleteWithBalance(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM leave_balances WHERE user_id = $1")).
		WithArgs("3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs("3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DeleteWithBalance(context.Background(), "3")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
