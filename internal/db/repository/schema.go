package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pizza-nz/lunch-bot/internal/models"
	"github.com/pizza-nz/lunch-bot/internal/sheet"
)

// Table names
const (
	TableEmployees = "Employees"
	TableMenu      = "Menu"
	TableOrders    = "Orders"
	TableSettings  = "Settings"
)

// Employees columns
const (
	ColTelegramID   = "Telegram ID"
	ColFullName     = "Full Name"
	ColRole         = "Role"
	ColStatus       = "Status"
	ColRegisteredAt = "Registered Date"
)

// Menu columns
const (
	ColID          = "ID"
	ColCafe        = "Cafe"
	ColName        = "Name"
	ColDescription = "Description"
	ColActive      = "Active"
	ColStartDate   = "StartDate"
	ColEndDate     = "EndDate"
	ColPrice       = "Price"
)

// Orders columns
const (
	ColOrderDate    = "OrderDate"
	ColDeliveryDate = "DeliveryDate"
	ColEmployeeID   = "EmployeeId"
	ColItems        = "ItemsText"
	ColTotal        = "Total"
)

// Settings columns
const (
	ColKey   = "Key"
	ColValue = "Value"
	ColNote  = "Description"
)

// Headers lists the header row of every table
var Headers = map[string][]string{
	TableEmployees: {ColTelegramID, ColFullName, ColRole, ColStatus, ColRegisteredAt},
	TableMenu:      {ColID, ColCafe, ColName, ColDescription, ColActive, ColStartDate, ColEndDate, ColPrice},
	TableOrders:    {ColID, ColOrderDate, ColDeliveryDate, ColEmployeeID, ColCafe, ColItems, ColTotal, ColStatus},
	TableSettings:  {ColKey, ColValue, ColNote},
}

// Values written to the Active column
const (
	ActiveYes = "Yes"
	ActiveNo  = "No"
)

const dateLayout = "2006-01-02"

func seedRows(table string, now time.Time) [][]string {
	switch table {
	case TableMenu:
		from := now.Format(dateLayout)
		to := now.AddDate(1, 0, 0).Format(dateLayout)
		dishes := []struct {
			name, description string
			price             int
		}{
			{"Borscht", "Beetroot soup with beef", 250},
			{"Cutlet", "Chicken cutlet with buckwheat", 300},
			{"Caesar salad", "Salad with chicken and dressing", 200},
			{"Black tea", "Black tea with lemon", 50},
			{"Compote", "Fruit compote", 70},
			{"Bread", "Fresh white bread", 30},
		}
		rows := make([][]string, 0, len(dishes))
		for i, d := range dishes {
			rows = append(rows, []string{
				strconv.Itoa(i + 1), models.DefaultCafe, d.name, d.description,
				ActiveYes, from, to, strconv.Itoa(d.price),
			})
		}
		return rows
	case TableSettings:
		return [][]string{
			{models.SettingDeadlineHour, "10", "Order deadline hour"},
			{models.SettingDeadlineMinute, "0", "Order deadline minute"},
			{models.SettingOrderDays, "1", "Days ahead an order is for"},
			{models.SettingDefaultCafe, models.DefaultCafe, "Default cafe"},
			{models.SettingDeliveryWindow, "13:00-14:00", "Default delivery window"},
		}
	}
	return nil
}

// EnsureTable creates table with its header and seed rows. An already
// existing table is left untouched.
func EnsureTable(ctx context.Context, store sheet.Store, table string, now time.Time) error {
	header, ok := Headers[table]
	if !ok {
		return fmt.Errorf("unknown table %q", table)
	}

	if err := store.CreateTable(ctx, table, header); err != nil {
		if errors.Is(err, sheet.ErrTableExists) {
			return nil
		}
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	for _, row := range seedRows(table, now) {
		if err := store.AppendRow(ctx, table, row); err != nil {
			return fmt.Errorf("failed to seed table %s: %w", table, err)
		}
	}
	return nil
}

// EnsureSchema creates every missing table.
func EnsureSchema(ctx context.Context, store sheet.Store, now time.Time, logger *logrus.Logger) error {
	existing, err := store.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, name := range existing {
		present[name] = true
	}

	for _, table := range []string{TableEmployees, TableMenu, TableOrders, TableSettings} {
		if present[table] {
			logger.Debugf("Table %s exists", table)
			continue
		}
		logger.Warnf("Table %s is missing, creating it", table)
		if err := EnsureTable(ctx, store, table, now); err != nil {
			return err
		}
	}
	return nil
}

// SeedLocal prepares an empty store for local mode: the schema plus a test
// employee and the administrator.
func SeedLocal(ctx context.Context, store sheet.Store, adminID int64, now time.Time, logger *logrus.Logger) error {
	if err := EnsureSchema(ctx, store, now, logger); err != nil {
		return err
	}

	today := now.Format(dateLayout)
	rows := [][]string{
		{"5960210066", "Test User", string(models.RoleEmployee), models.EmployeeStatusActive, today},
	}
	if adminID != 0 {
		rows = append(rows, []string{
			strconv.FormatInt(adminID, 10), "Administrator", string(models.RoleManager), models.EmployeeStatusActive, today,
		})
	}
	for _, row := range rows {
		if err := store.AppendRow(ctx, TableEmployees, row); err != nil {
			return fmt.Errorf("failed to seed employees: %w", err)
		}
	}
	return nil
}
