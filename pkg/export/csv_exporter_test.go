package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRenderKeepsHeaderOrder(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"Employee", "Date", "Status"},
		Rows: []map[string]string{
			{"Employee": "Jane Doe", "Date": "2026-03-02", "Status": "ON_LEAVE"},
			{"Employee": "John Smith", "Date": "2026-03-02", "Status": "PRESENT"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "\ufeffEmployee,Date,Status\nJane Doe,2026-03-02,ON_LEAVE\nJohn Smith,2026-03-02,PRESENT\n", string(out))
}

func TestCSVRenderStartsWithByteOrderMark(t *testing.T) {
	exporter := NewCSVExporter()

	name := "\u0cb8\u0cc1\u0ca8\u0cc0\u0ca4\u0cbe \u0cb0\u0cbe\u0cb5\u0ccd"
	out, err := exporter.Render(AttendanceDataset([]AttendanceRow{
		{Employee: name, Date: "2026-03-02", Status: "PRESENT", CheckIn: "09:05"},
	}))
	require.NoError(t, err)

	require.True(t, len(out) > 3)
	assert.Equal(t, utf8BOM, out[:3])
	assert.Contains(t, string(out), name)
}

func TestAttendanceDatasetColumnOrder(t *testing.T) {
	ds := AttendanceDataset([]AttendanceRow{
		{Employee: "Alice Wong", Date: "2026-03-02", Status: "LATE", CheckIn: "10:12", CheckOut: "18:00"},
	})

	assert.Equal(t, []string{"Employee", "Date", "Status", "Check In", "Check Out"}, ds.Headers)
	assert.Equal(t, []string{"Alice Wong", "2026-03-02", "LATE", "10:12", "18:00"}, ds.record(ds.Rows[0]))
}

func TestCSVRenderMissingCellsStayEmpty(t *testing.T) {
	exporter := NewCSVExporter()

	out, err := exporter.Render(Dataset{
		Headers: []string{"Employee", "Check In"},
		Rows:    []map[string]string{{"Employee": "Alice Wong"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "\ufeffEmployee,Check In\nAlice Wong,\n", string(out))
}

func TestCSVRenderRequiresHeaders(t *testing.T) {
	exporter := NewCSVExporter()

	_, err := exporter.Render(Dataset{})
	assert.Error(t, err)
}
