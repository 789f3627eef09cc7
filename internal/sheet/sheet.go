// Package sheet defines the tabular store the repositories are built on: a set
// of named tables, each a header row followed by string rows. Rows and
// columns are numbered from 1, the header being row 1, matching spreadsheet
// addressing.
package sheet

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrTableExists   = errors.New("table already exists")
	ErrRowNotFound   = errors.New("row not found")
	ErrOutOfRange    = errors.New("cell out of range")
)

// Store is a tabular key-value store
type Store interface {
	// ListTables returns the names of all tables.
	ListTables(ctx context.Context) ([]string, error)

	// CreateTable creates an empty table whose first row is header.
	CreateTable(ctx context.Context, name string, header []string) error

	// ReadAll returns every row of the table, the header first.
	ReadAll(ctx context.Context, table string) ([][]string, error)

	// AppendRow adds a row after the last one as a single operation.
	AppendRow(ctx context.Context, table string, row []string) error

	// UpdateCell overwrites one cell.
	UpdateCell(ctx context.Context, table string, row, col int, value string) error

	// FindRow returns the first row whose cell in col equals value.
	FindRow(ctx context.Context, table string, col int, value string) (int, error)
}

// Record is a row keyed by its header
type Record map[string]string

// Get returns the value under header, ignoring case and surrounding spaces
// in the header name. The value is trimmed.
func (r Record) Get(header string) string {
	if v, ok := r[header]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range r {
		if strings.EqualFold(strings.TrimSpace(k), header) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Records converts raw table values into records. Short rows are padded with
// empty values and fully empty rows are skipped.
func Records(values [][]string) []Record {
	if len(values) < 2 {
		return nil
	}
	header := values[0]

	records := make([]Record, 0, len(values)-1)
	for _, row := range values[1:] {
		if isBlank(row) {
			continue
		}
		rec := make(Record, len(header))
		for i, h := range header {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}
	return records
}

// ColumnIndex returns the 1-based index of name in header, or 0.
func ColumnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i + 1
		}
	}
	return 0
}

// HasColumns reports whether every name is present in header.
func HasColumns(header []string, names ...string) bool {
	for _, name := range names {
		if ColumnIndex(header, name) == 0 {
			return false
		}
	}
	return true
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
