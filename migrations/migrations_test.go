package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMigration(t *testing.T, name string) string {
	t.Helper()
	data, err := FS.ReadFile(name)
	require.NoError(t, err)
	return string(data)
}

// Deleting a user removes only the user and balance rows; attendance and
// leave-request history must survive, so those tables carry no FK to users.
func TestHistoryTablesSurviveUserDeletion(t *testing.T) {
	attendance := readMigration(t, "00002_create_attendance.sql")
	assert.NotContains(t, attendance, "REFERENCES users")

	requests := readMigration(t, "00005_create_leave_requests.sql")
	assert.NotContains(t, requests, "REFERENCES users")

	// Balances go with the user; the service deletes the row explicitly and
	// the FK backs that up.
	balances := readMigration(t, "00004_create_leave_balances.sql")
	assert.Contains(t, balances, "REFERENCES users (id) ON DELETE CASCADE")
}

func TestAppliedDateKeepsSubmissionTime(t *testing.T) {
	requests := readMigration(t, "00005_create_leave_requests.sql")
	assert.Contains(t, requests, "applied_date TIMESTAMPTZ NOT NULL")
}
