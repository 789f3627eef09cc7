package gsheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/pizza-nz/lunch-bot/internal/logging"
	"github.com/pizza-nz/lunch-bot/internal/sheet"
)

func TestColumnLetter(t *testing.T) {
	tests := map[int]string{1: "A", 5: "E", 26: "Z", 27: "AA", 52: "AZ", 53: "BA", 703: "AAA"}
	for col, want := range tests {
		if got := columnLetter(col); got != want {
			t.Errorf("columnLetter(%d) = %q, want %q", col, got, want)
		}
	}
}

func TestQuote(t *testing.T) {
	if got := quote("Menu"); got != "'Menu'" {
		t.Fatalf("unexpected %q", got)
	}
	if got := quote("Bob's"); got != "'Bob''s'" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestWrapMapsUnknownRange(t *testing.T) {
	err := wrap("Menu", "read", &googleapi.Error{Code: http.StatusBadRequest, Message: "Unable to parse range: 'Menu'"})
	if !errors.Is(err, sheet.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}

	err = wrap("Menu", "read", &googleapi.Error{Code: http.StatusTooManyRequests, Message: "quota"})
	if errors.Is(err, sheet.ErrTableNotFound) {
		t.Fatal("rate limit must not look like a missing table")
	}
	if !strings.Contains(err.Error(), "failed to read Menu") {
		t.Fatalf("unexpected message %v", err)
	}
}

func TestCheckCredentials(t *testing.T) {
	dir := t.TempDir()

	if err := checkCredentials(filepath.Join(dir, "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}

	empty := filepath.Join(dir, "empty.json")
	_ = os.WriteFile(empty, []byte("  \n"), 0o600)
	if err := checkCredentials(empty); err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty error, got %v", err)
	}

	broken := filepath.Join(dir, "broken.json")
	_ = os.WriteFile(broken, []byte("{"), 0o600)
	if err := checkCredentials(broken); err == nil || !strings.Contains(err.Error(), "JSON") {
		t.Fatalf("expected JSON error, got %v", err)
	}

	good := filepath.Join(dir, "good.json")
	_ = os.WriteFile(good, []byte(`{"type":"service_account"}`), 0o600)
	if err := checkCredentials(good); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

type recordedCall struct {
	method     string
	path       string
	valueInput string
	values     [][]interface{}
}

func newFakeSheets(t *testing.T) (*Store, func() []recordedCall) {
	t.Helper()

	var (
		mu    sync.Mutex
		calls []recordedCall
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var vr struct {
			Values [][]interface{} `json:"values"`
		}
		_ = json.Unmarshal(body, &vr)

		mu.Lock()
		calls = append(calls, recordedCall{
			method:     r.Method,
			path:       r.URL.Path,
			valueInput: r.URL.Query().Get("valueInputOption"),
			values:     vr.Values,
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("sheets service: %v", err)
	}

	store := &Store{svc: svc, spreadsheetID: "doc", logger: logging.Discard()}
	return store, func() []recordedCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedCall(nil), calls...)
	}
}

func TestWritesAreNotParsedAsFormulas(t *testing.T) {
	store, calls := newFakeSheets(t)
	name := `=HYPERLINK("http://example.com","x")`

	if err := store.AppendRow(context.Background(), "Employees", []string{"42", name}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.UpdateCell(context.Background(), "Menu", 2, 5, "=1+1"); err != nil {
		t.Fatalf("update: %v", err)
	}

	got := calls()
	if len(got) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(got))
	}
	for _, c := range got {
		if c.valueInput != "RAW" {
			t.Errorf("%s %s: valueInputOption = %q, want RAW", c.method, c.path, c.valueInput)
		}
	}
	if !strings.HasSuffix(got[0].path, ":append") || len(got[0].values) != 1 || got[0].values[0][1] != name {
		t.Fatalf("unexpected append %+v", got[0])
	}
	if got[1].method != http.MethodPut || len(got[1].values) != 1 || got[1].values[0][0] != "=1+1" {
		t.Fatalf("unexpected update %+v", got[1])
	}
}
