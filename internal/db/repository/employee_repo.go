package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/pizza-nz/lunch-bot/internal/models"
	"github.com/pizza-nz/lunch-bot/internal/sheet"
)

// EmployeeRepository handles employee data access
type EmployeeRepository struct {
	*tables
}

// List returns all employees
func (r *EmployeeRepository) List(ctx context.Context) []models.Employee {
	records := r.records(ctx, TableEmployees, ColTelegramID)

	employees := make([]models.Employee, 0, len(records))
	for _, rec := range records {
		e := employeeFromRecord(rec)
		if e.TelegramID == "" {
			continue
		}
		employees = append(employees, e)
	}
	return employees
}

// Get retrieves an employee by Telegram ID
func (r *EmployeeRepository) Get(ctx context.Context, telegramID string) (models.Employee, bool) {
	telegramID = strings.TrimSpace(telegramID)
	for _, e := range r.List(ctx) {
		if e.TelegramID == telegramID {
			return e, true
		}
	}
	return models.Employee{}, false
}

// IsRegistered reports whether the Employees table has a row for telegramID
func (r *EmployeeRepository) IsRegistered(ctx context.Context, telegramID string) bool {
	_, ok := r.Get(ctx, telegramID)
	return ok
}

// Register adds an employee row unless one already exists. The existence
// check reads the store directly so a stale snapshot cannot cause a duplicate.
func (r *EmployeeRepository) Register(ctx context.Context, telegramID, fullName string) bool {
	telegramID = strings.TrimSpace(telegramID)
	log := r.logger.WithField("user_id", telegramID)

	col := r.idColumn(ctx)
	_, err := r.store.FindRow(ctx, TableEmployees, col, telegramID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, sheet.ErrTableNotFound):
		if err := EnsureTable(ctx, r.store, TableEmployees, r.now()); err != nil {
			log.WithError(err).Error("Failed to create employees table")
			return false
		}
	case !errors.Is(err, sheet.ErrRowNotFound):
		log.WithError(err).Error("Failed to look up employee")
		return false
	}

	if strings.TrimSpace(fullName) == "" {
		fullName = "Unknown"
	}
	row := []string{telegramID, fullName, string(models.RoleEmployee), models.EmployeeStatusActive, r.today()}
	if err := r.store.AppendRow(ctx, TableEmployees, row); err != nil {
		log.WithError(err).Error("Failed to register employee")
		return false
	}

	r.invalidate(TableEmployees)
	log.Infof("Registered employee %s", fullName)
	return true
}

// idColumn locates the Telegram ID column, assuming the canonical layout when
// no snapshot is available.
func (r *EmployeeRepository) idColumn(ctx context.Context) int {
	if values := r.values(ctx, TableEmployees); len(values) > 0 {
		if col := sheet.ColumnIndex(values[0], ColTelegramID); col > 0 {
			return col
		}
	}
	return sheet.ColumnIndex(Headers[TableEmployees], ColTelegramID)
}
