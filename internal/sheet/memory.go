package sheet

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process Store used in local mode and by tests
type Memory struct {
	mu     sync.RWMutex
	tables map[string][][]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{tables: make(map[string][][]string)}
}

func (m *Memory) ListTables(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) CreateTable(ctx context.Context, name string, header []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrTableExists)
	}
	m.tables[name] = [][]string{cloneRow(header)}
	return nil
}

func (m *Memory) ReadAll(ctx context.Context, table string) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.tables[table]
	if !ok {
		return nil, fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = cloneRow(row)
	}
	return out, nil
}

func (m *Memory) AppendRow(ctx context.Context, table string, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	m.tables[table] = append(rows, cloneRow(row))
	return nil
}

func (m *Memory) UpdateCell(ctx context.Context, table string, row, col int, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.tables[table]
	if !ok {
		return fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	if row < 1 || row > len(rows) || col < 1 {
		return fmt.Errorf("%s R%dC%d: %w", table, row, col, ErrOutOfRange)
	}

	cells := rows[row-1]
	for len(cells) < col {
		cells = append(cells, "")
	}
	cells[col-1] = value
	rows[row-1] = cells
	return nil
}

func (m *Memory) FindRow(ctx context.Context, table string, col int, value string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.tables[table]
	if !ok {
		return 0, fmt.Errorf("%s: %w", table, ErrTableNotFound)
	}
	for i, row := range rows {
		if col >= 1 && col <= len(row) && row[col-1] == value {
			return i + 1, nil
		}
	}
	return 0, ErrRowNotFound
}

func cloneRow(row []string) []string {
	out := make([]string, len(row))
	copy(out, row)
	return out
}

var _ Store = (*Memory)(nil)
