package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pizza-nz/lunch-bot/internal/cache"
	"github.com/pizza-nz/lunch-bot/internal/config"
	"github.com/pizza-nz/lunch-bot/internal/db/repository"
	"github.com/pizza-nz/lunch-bot/internal/deadline"
	"github.com/pizza-nz/lunch-bot/internal/logging"
	"github.com/pizza-nz/lunch-bot/internal/models"
	"github.com/pizza-nz/lunch-bot/internal/service"
	"github.com/pizza-nz/lunch-bot/internal/sheet"
	"github.com/pizza-nz/lunch-bot/internal/websockets"
)

const password = "lunch-admin"

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	logger := logging.Discard()
	now := time.Now().UTC()
	store := sheet.NewMemory()
	if err := repository.EnsureSchema(context.Background(), store, now, logger); err != nil {
		t.Fatalf("schema: %v", err)
	}

	dl := config.NewDeadline(10, 0)
	repos := repository.NewRepositories(store, cache.New(cache.Options{}, logger), repository.Options{
		Location: time.UTC,
		Deadline: dl,
	}, logger)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	services := Services{
		Auth:   service.NewAuthService(string(hash), service.JWTConfig{Secret: "test-secret", ExpiresIn: 1}),
		Menu:   service.NewMenuService(repos, nil, logger),
		Orders: service.NewOrderService(repos, deadline.New(dl, time.UTC, true), nil, logger),
	}
	return New(services, websockets.NewHub(logger), nil, logger)
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/auth/login", "", `{"password":"`+password+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.Token == "" {
		t.Fatalf("login: bad body %v", err)
	}
	return resp.Token
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodPost, "/api/auth/login", "", `{"password":"nope"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = do(t, newTestRouter(t), http.MethodPost, "/api/auth/login", "", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/api/menu", "/api/reports/week"} {
		if rec := do(t, r, http.MethodGet, path, "", ""); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, rec.Code)
		}
		if rec := do(t, r, http.MethodGet, path, "garbage", ""); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 for a bad token, got %d", path, rec.Code)
		}
	}
}

func TestMenuListAndToggle(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r)

	rec := do(t, r, http.MethodGet, "/api/menu", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var dishes []models.Dish
	if err := json.NewDecoder(rec.Body).Decode(&dishes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(dishes) != 6 || !dishes[0].Active {
		t.Fatalf("unexpected dishes %+v", dishes)
	}

	rec = do(t, r, http.MethodPost, "/api/menu/1/toggle", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	var update service.MenuUpdate
	if err := json.NewDecoder(rec.Body).Decode(&update); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if update.DishID != "1" || update.Active {
		t.Fatalf("expected dish 1 hidden, got %+v", update)
	}

	if rec := do(t, r, http.MethodPost, "/api/menu/99/toggle", token, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodGet, "/api/menu/1/toggle", token, ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestReports(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r)

	rec := do(t, r, http.MethodGet, "/api/reports/week", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report models.Report
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Period != models.PeriodWeek || report.TotalOrders != 0 {
		t.Fatalf("unexpected report %+v", report)
	}

	if rec := do(t, r, http.MethodGet, "/api/reports/year", token, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWebSocketNeedsToken(t *testing.T) {
	r := newTestRouter(t)
	if rec := do(t, r, http.MethodGet, "/ws", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec := do(t, r, http.MethodGet, "/ws?token=bad", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
