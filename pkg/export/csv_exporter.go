package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset defines tabular export content. Headers fix the column order; rows
// are keyed by header so a sparse row leaves its cell empty instead of
// shifting columns.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

func (d Dataset) record(row map[string]string) []string {
	record := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		record[i] = row[header]
	}
	return record
}

// AttendanceRow is one line of the monthly attendance report.
type AttendanceRow struct {
	Employee string
	Date     string
	Status   string
	CheckIn  string
	CheckOut string
}

// AttendanceDataset shapes report rows into the report's column order.
func AttendanceDataset(rows []AttendanceRow) Dataset {
	ds := Dataset{Headers: []string{"Employee", "Date", "Status", "Check In", "Check Out"}}
	for _, row := range rows {
		ds.Rows = append(ds.Rows, map[string]string{
			"Employee":  row.Employee,
			"Date":      row.Date,
			"Status":    row.Status,
			"Check In":  row.CheckIn,
			"Check Out": row.CheckOut,
		})
	}
	return ds
}

// utf8BOM lets spreadsheet tools detect the encoding; employee names are not
// guaranteed to be ASCII.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	buf.Write(utf8BOM)
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		if err := writer.Write(data.record(row)); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
