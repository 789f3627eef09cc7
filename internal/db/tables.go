package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/pizza-nz/lunch-bot/internal/sheet"
)

// uniqueViolation is the Postgres error code for a duplicate key
const uniqueViolation = "23505"

// TableStore emulates spreadsheet tables in Postgres. The header is kept on
// sheet_tables as row 1 and data rows start at row 2.
type TableStore struct {
	db *sqlx.DB
}

// NewTableStore creates a new table store
func NewTableStore(db *sqlx.DB) *TableStore {
	return &TableStore{db: db}
}

type tableRow struct {
	RowNum int            `db:"row_num"`
	Cells  pq.StringArray `db:"cells"`
}

// ListTables retrieves the names of all tables
func (s *TableStore) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names, `SELECT name FROM sheet_tables ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return names, nil
}

// CreateTable creates a table with its header row
func (s *TableStore) CreateTable(ctx context.Context, name string, header []string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sheet_tables (name, header) VALUES ($1, $2)`,
		name, pq.StringArray(header),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%s: %w", name, sheet.ErrTableExists)
		}
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}
	return nil
}

// ReadAll retrieves the header and every row of a table
func (s *TableStore) ReadAll(ctx context.Context, table string) ([][]string, error) {
	header, err := s.header(ctx, s.db, table)
	if err != nil {
		return nil, err
	}

	var rows []tableRow
	err = s.db.SelectContext(ctx, &rows, `
		SELECT row_num, cells
		FROM sheet_rows
		WHERE table_name = $1
		ORDER BY row_num ASC
	`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}

	values := make([][]string, 0, len(rows)+1)
	values = append(values, header)
	for _, r := range rows {
		values = append(values, []string(r.Cells))
	}
	return values, nil
}

// AppendRow inserts a row after the last one. The table row is locked so
// concurrent appends get consecutive row numbers.
func (s *TableStore) AppendRow(ctx context.Context, table string, row []string) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked string
	err = tx.GetContext(ctx, &locked, `SELECT name FROM sheet_tables WHERE name = $1 FOR UPDATE`, table)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", table, sheet.ErrTableNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock table %s: %w", table, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sheet_rows (table_name, row_num, cells)
		SELECT $1, COALESCE(MAX(row_num), 1) + 1, $2
		FROM sheet_rows
		WHERE table_name = $1
	`, table, pq.StringArray(row))
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", table, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit append to %s: %w", table, err)
	}
	return nil
}

// UpdateCell overwrites a single cell, growing the row when needed
func (s *TableStore) UpdateCell(ctx context.Context, table string, row, col int, value string) (err error) {
	if row < 1 || col < 1 {
		return fmt.Errorf("%s R%dC%d: %w", table, row, col, sheet.ErrOutOfRange)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if row == 1 {
		header, herr := s.header(ctx, tx, table)
		if herr != nil {
			return herr
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE sheet_tables SET header = $2 WHERE name = $1`,
			table, pq.StringArray(setCell(header, col, value)),
		)
	} else {
		var cells pq.StringArray
		err = tx.GetContext(ctx, &cells,
			`SELECT cells FROM sheet_rows WHERE table_name = $1 AND row_num = $2 FOR UPDATE`,
			table, row,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s R%dC%d: %w", table, row, col, sheet.ErrOutOfRange)
		}
		if err != nil {
			return fmt.Errorf("failed to get row %d of %s: %w", row, table, err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE sheet_rows SET cells = $3, updated_at = now() WHERE table_name = $1 AND row_num = $2`,
			table, row, pq.StringArray(setCell(cells, col, value)),
		)
	}
	if err != nil {
		return fmt.Errorf("failed to update %s R%dC%d: %w", table, row, col, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update of %s: %w", table, err)
	}
	return nil
}

// FindRow returns the first row whose cell in col equals value
func (s *TableStore) FindRow(ctx context.Context, table string, col int, value string) (int, error) {
	header, err := s.header(ctx, s.db, table)
	if err != nil {
		return 0, err
	}
	if col >= 1 && col <= len(header) && header[col-1] == value {
		return 1, nil
	}

	var rowNum int
	err = s.db.GetContext(ctx, &rowNum, `
		SELECT row_num
		FROM sheet_rows
		WHERE table_name = $1 AND cells[$2] = $3
		ORDER BY row_num ASC
		LIMIT 1
	`, table, col, value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sheet.ErrRowNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find row in %s: %w", table, err)
	}
	return rowNum, nil
}

func (s *TableStore) header(ctx context.Context, q sqlx.QueryerContext, table string) ([]string, error) {
	var header pq.StringArray
	err := sqlx.GetContext(ctx, q, &header, `SELECT header FROM sheet_tables WHERE name = $1`, table)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", table, sheet.ErrTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get header of %s: %w", table, err)
	}
	return []string(header), nil
}

func setCell(cells []string, col int, value string) []string {
	out := make([]string, len(cells))
	copy(out, cells)
	for len(out) < col {
		out = append(out, "")
	}
	out[col-1] = value
	return out
}

var _ sheet.Store = (*TableStore)(nil)
