// Package gsheets implements sheet.Store on top of a Google spreadsheet, one
// worksheet per table.
package gsheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/pizza-nz/lunch-bot/internal/config"
	"github.com/pizza-nz/lunch-bot/internal/sheet"
)

const (
	authAttempts = 3
	authBackoff  = 2 * time.Second

	// Cells are stored as typed text, never parsed as formulas or numbers.
	valueInput = "RAW"
)

// Store is a spreadsheet-backed sheet.Store
type Store struct {
	svc           *sheets.Service
	spreadsheetID string
	logger        *logrus.Logger
}

// New authenticates with the service account in cfg.CredentialsPath and opens
// the spreadsheet. Authentication is tried a fixed number of times.
func New(ctx context.Context, cfg config.Sheets, logger *logrus.Logger) (*Store, error) {
	if err := checkCredentials(cfg.CredentialsPath); err != nil {
		return nil, err
	}

	var (
		svc *sheets.Service
		doc *sheets.Spreadsheet
		err error
	)
	for attempt := 1; attempt <= authAttempts; attempt++ {
		if attempt > 1 {
			logger.Infof("Retrying spreadsheet connection (attempt %d/%d)", attempt, authAttempts)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(authBackoff):
			}
		}

		svc, err = sheets.NewService(ctx,
			option.WithCredentialsFile(cfg.CredentialsPath),
			option.WithScopes(sheets.SpreadsheetsScope),
		)
		if err == nil {
			doc, err = svc.Spreadsheets.Get(cfg.SpreadsheetID).Context(ctx).Do()
		}
		if err == nil {
			break
		}
		logger.WithError(err).Errorf("Spreadsheet authentication failed (attempt %d/%d)", attempt, authAttempts)
	}
	if err != nil {
		logger.Error("Check that the service account file is current, the system clock is correct, " +
			"and the spreadsheet is shared with the service account email; set LOCAL_MODE=true to run without it")
		return nil, fmt.Errorf("could not open spreadsheet after %d attempts: %w", authAttempts, err)
	}

	logger.Infof("Spreadsheet opened: %s", doc.Properties.Title)

	return &Store{svc: svc, spreadsheetID: cfg.SpreadsheetID, logger: logger}, nil
}

func checkCredentials(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read credentials %s: %w", path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return fmt.Errorf("credentials file %s is empty", path)
	}
	if !json.Valid(data) {
		return fmt.Errorf("credentials file %s is not valid JSON", path)
	}
	return nil
}

func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	doc, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list worksheets: %w", err)
	}

	names := make([]string, 0, len(doc.Sheets))
	for _, ws := range doc.Sheets {
		if ws.Properties != nil {
			names = append(names, ws.Properties.Title)
		}
	}
	return names, nil
}

func (s *Store) CreateTable(ctx context.Context, name string, header []string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to add worksheet %s: %w", name, err)
	}
	return s.AppendRow(ctx, name, header)
}

func (s *Store) ReadAll(ctx context.Context, table string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quote(table)).Context(ctx).Do()
	if err != nil {
		return nil, wrap(table, "read", err)
	}

	values := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		values[i] = cells
	}
	return values, nil
}

func (s *Store) AppendRow(ctx context.Context, table string, row []string) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{toInterfaces(row)}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, quote(table), vr).
		ValueInputOption(valueInput).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return wrap(table, "append to", err)
	}
	return nil
}

func (s *Store) UpdateCell(ctx context.Context, table string, row, col int, value string) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("%s R%dC%d: %w", table, row, col, sheet.ErrOutOfRange)
	}
	rng := fmt.Sprintf("%s!%s%d", quote(table), columnLetter(col), row)
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption(valueInput).
		Context(ctx).
		Do()
	if err != nil {
		return wrap(table, "update", err)
	}
	return nil
}

func (s *Store) FindRow(ctx context.Context, table string, col int, value string) (int, error) {
	values, err := s.ReadAll(ctx, table)
	if err != nil {
		return 0, err
	}
	for i, row := range values {
		if col >= 1 && col <= len(row) && row[col-1] == value {
			return i + 1, nil
		}
	}
	return 0, sheet.ErrRowNotFound
}

// wrap maps "Unable to parse range" (the API's answer for an unknown
// worksheet) to sheet.ErrTableNotFound.
func wrap(table, op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusBadRequest &&
		strings.Contains(gerr.Message, "Unable to parse range") {
		return fmt.Errorf("%s: %w", table, sheet.ErrTableNotFound)
	}
	return fmt.Errorf("failed to %s %s: %w", op, table, err)
}

// quote returns an A1 sheet reference, doubling embedded quotes.
func quote(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// columnLetter converts a 1-based column index to A1 letters (1=A, 27=AA).
func columnLetter(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

func toInterfaces(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

var _ sheet.Store = (*Store)(nil)
