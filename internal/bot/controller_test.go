package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pizza-nz/lunch-bot/internal/cache"
	"github.com/pizza-nz/lunch-bot/internal/config"
	"github.com/pizza-nz/lunch-bot/internal/db/repository"
	"github.com/pizza-nz/lunch-bot/internal/deadline"
	"github.com/pizza-nz/lunch-bot/internal/logging"
	"github.com/pizza-nz/lunch-bot/internal/service"
	"github.com/pizza-nz/lunch-bot/internal/session"
	"github.com/pizza-nz/lunch-bot/internal/sheet"
)

const (
	userID  int64 = 42
	adminID int64 = 7
)

type switchableStore struct {
	sheet.Store
	failAppend bool
}

func (s *switchableStore) AppendRow(ctx context.Context, table string, row []string) error {
	if s.failAppend && table == repository.TableOrders {
		return errors.New("rate limited")
	}
	return s.Store.AppendRow(ctx, table, row)
}

type harness struct {
	t        *testing.T
	store    *switchableStore
	sessions *session.Store
	ctrl     *Controller
}

func newHarness(t *testing.T, now time.Time) *harness {
	t.Helper()

	logger := logging.Discard()
	mem := sheet.NewMemory()
	if err := repository.EnsureSchema(context.Background(), mem, now, logger); err != nil {
		t.Fatalf("schema: %v", err)
	}
	store := &switchableStore{Store: mem}
	clock := func() time.Time { return now }

	dl := config.NewDeadline(10, 0)
	repos := repository.NewRepositories(store, cache.New(cache.Options{Now: clock}, logger), repository.Options{
		Location: time.UTC,
		Deadline: dl,
		Now:      clock,
	}, logger)
	policy := deadline.New(dl, time.UTC, false, deadline.WithClock(clock))
	sessions := session.NewStore(session.NewMemoryRecovery(0, clock, logger), logger)

	ctrl := NewController(
		service.NewEmployeeService(repos, adminID),
		service.NewMenuService(repos, nil, logger),
		service.NewOrderService(repos, policy, nil, logger),
		sessions,
		logger,
	)
	return &harness{t: t, store: store, sessions: sessions, ctrl: ctrl}
}

func (h *harness) command(user int64, name string) Response {
	return h.ctrl.Handle(context.Background(), Update{Kind: KindCommand, UserID: user, ChatID: user, FullName: "Jane Doe", Payload: name})
}

func (h *harness) press(user int64, token string) Response {
	return h.ctrl.Handle(context.Background(), Update{Kind: KindCallback, UserID: user, ChatID: user, Payload: token})
}

func (h *harness) session(user int64) session.Session {
	return h.sessions.Load(context.Background(), session.Key{UserID: user, ChatID: user})
}

func (h *harness) orderRows() int {
	h.t.Helper()
	rows, err := h.store.Store.ReadAll(context.Background(), repository.TableOrders)
	if err != nil {
		h.t.Fatalf("read orders: %v", err)
	}
	return len(rows) - 1
}

func (h *harness) fillCart(user int64) {
	h.t.Helper()
	for _, token := range []string{"menu", "select_1", "quantity_2", "select_6", "quantity_1"} {
		h.press(user, token)
	}
}

func morning() time.Time {
	return time.Date(2024, 12, 7, 9, 0, 0, 0, time.UTC)
}

func hasToken(s *Screen, token string) bool {
	if s == nil {
		return false
	}
	for _, row := range s.Keyboard {
		for _, b := range row {
			if b.Data == token {
				return true
			}
		}
	}
	return false
}

func TestStartRegistersOnce(t *testing.T) {
	h := newHarness(t, morning())

	resp := h.command(userID, "start")
	if resp.Screen == nil || !strings.Contains(resp.Screen.Text, "registered") {
		t.Fatalf("expected registration welcome, got %+v", resp.Screen)
	}
	resp = h.command(userID, "start")
	if resp.Screen == nil || strings.Contains(resp.Screen.Text, "registered") {
		t.Fatalf("expected plain welcome, got %+v", resp.Screen)
	}

	rows, _ := h.store.Store.ReadAll(context.Background(), repository.TableEmployees)
	if len(rows) != 2 {
		t.Fatalf("expected one employee row, got %d", len(rows)-1)
	}
}

func TestUnregisteredCallback(t *testing.T) {
	h := newHarness(t, morning())

	resp := h.press(userID, "menu")
	if resp.Screen == nil || resp.Screen.Text != textNotRegistered {
		t.Fatalf("expected not registered screen, got %+v", resp)
	}
}

func TestUnregisteredCommands(t *testing.T) {
	h := newHarness(t, morning())

	for _, name := range []string{"menu", "cart", "orders"} {
		resp := h.command(userID, name)
		if resp.Screen == nil || resp.Screen.Text != textNotRegistered || resp.Edit {
			t.Fatalf("/%s: expected not registered message, got %+v", name, resp)
		}
		if hasToken(resp.Screen, "select_1") {
			t.Fatalf("/%s: unregistered user was offered dishes", name)
		}
		if sess := h.session(userID); sess.State != session.StateIdle {
			t.Fatalf("/%s: expected idle state, got %s", name, sess.State)
		}
	}

	h.command(userID, "start")
	resp := h.command(userID, "menu")
	if !hasToken(resp.Screen, "select_1") {
		t.Fatalf("expected menu after registration, got %+v", resp.Screen)
	}
}

func TestOrderFlow(t *testing.T) {
	h := newHarness(t, morning())
	h.command(userID, "start")

	resp := h.press(userID, "menu")
	if !hasToken(resp.Screen, "select_1") || !resp.Edit {
		t.Fatalf("expected menu with dish buttons, got %+v", resp)
	}
	if h.session(userID).State != session.StateViewingMenu {
		t.Fatalf("unexpected state %s", h.session(userID).State)
	}

	resp = h.press(userID, "select_1")
	if !hasToken(resp.Screen, "quantity_10") {
		t.Fatalf("expected quantity screen, got %+v", resp.Screen)
	}
	sess := h.session(userID)
	if sess.State != session.StateSelectingQuantity || sess.Pending == nil || sess.Pending.ID != "1" {
		t.Fatalf("unexpected session %+v", sess)
	}

	resp = h.press(userID, "quantity_2")
	if !strings.Contains(resp.Answer, "added") || !hasToken(resp.Screen, "select_1") {
		t.Fatalf("expected added answer and menu, got %+v", resp)
	}
	h.press(userID, "select_1")
	resp = h.press(userID, "quantity_3")
	if !strings.Contains(resp.Answer, "updated to 5") {
		t.Fatalf("expected merge answer, got %q", resp.Answer)
	}

	sess = h.session(userID)
	if len(sess.Cart) != 1 || sess.Cart[0].Quantity != 5 {
		t.Fatalf("expected merged cart, got %+v", sess.Cart)
	}

	resp = h.press(userID, "cart")
	if !hasToken(resp.Screen, tokenConfirm) || !strings.Contains(resp.Screen.Text, "1250 ₽") {
		t.Fatalf("unexpected cart screen %+v", resp.Screen)
	}

	resp = h.press(userID, "confirm_order")
	if !hasToken(resp.Screen, tokenFinalize) || !strings.Contains(resp.Screen.Text, "2024-12-08") {
		t.Fatalf("unexpected confirmation screen %+v", resp.Screen)
	}
	if h.session(userID).State != session.StateWaitingConfirmation {
		t.Fatalf("unexpected state %s", h.session(userID).State)
	}

	resp = h.press(userID, "finalize_order")
	if resp.Screen == nil || !strings.Contains(resp.Screen.Text, "Order placed") {
		t.Fatalf("unexpected response %+v", resp)
	}
	sess = h.session(userID)
	if len(sess.Cart) != 0 || sess.State != session.StateIdle {
		t.Fatalf("expected empty idle session, got %+v", sess)
	}
	if h.orderRows() != 1 {
		t.Fatalf("expected one order, got %d", h.orderRows())
	}

	// The old confirmation button cannot submit again.
	h.press(userID, "finalize_order")
	if h.orderRows() != 1 {
		t.Fatalf("duplicate order submitted, got %d rows", h.orderRows())
	}
}

func TestEmptyMenu(t *testing.T) {
	h := newHarness(t, morning())
	h.command(userID, "start")
	for i := 1; i <= 6; i++ {
		if err := h.store.Store.UpdateCell(context.Background(), repository.TableMenu, i+1, 5, "Нет"); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	resp := h.press(userID, "menu")
	if resp.Answer != textMenuEmpty || resp.Screen != nil {
		t.Fatalf("expected empty menu notice, got %+v", resp)
	}
	if h.session(userID).State != session.StateIdle {
		t.Fatalf("expected idle, got %s", h.session(userID).State)
	}

	resp = h.command(userID, "menu")
	if resp.Screen == nil || hasToken(resp.Screen, "select_1") {
		t.Fatalf("expected no selection controls, got %+v", resp.Screen)
	}
}

func TestDeadlineBlocksConfirmation(t *testing.T) {
	h := newHarness(t, time.Date(2024, 12, 7, 10, 1, 0, 0, time.UTC))
	h.command(userID, "start")
	h.fillCart(userID)
	h.press(userID, "cart")

	resp := h.press(userID, "confirm_order")
	if !resp.Alert || !strings.Contains(resp.Answer, "deadline") || resp.Screen != nil {
		t.Fatalf("expected deadline alert, got %+v", resp)
	}
	sess := h.session(userID)
	if len(sess.Cart) != 2 || sess.State != session.StateReviewingCart {
		t.Fatalf("expected cart intact in review, got %+v", sess)
	}
}

func TestConfirmationBeforeDeadline(t *testing.T) {
	h := newHarness(t, time.Date(2024, 12, 7, 9, 59, 0, 0, time.UTC))
	h.command(userID, "start")
	h.fillCart(userID)
	h.press(userID, "cart")

	resp := h.press(userID, "confirm_order")
	if !hasToken(resp.Screen, tokenFinalize) {
		t.Fatalf("expected confirmation screen, got %+v", resp)
	}
}

func TestSubmissionFailureKeepsCart(t *testing.T) {
	h := newHarness(t, morning())
	h.command(userID, "start")
	h.fillCart(userID)
	h.press(userID, "cart")
	h.press(userID, "confirm_order")
	h.store.failAppend = true

	resp := h.press(userID, "finalize_order")
	if resp.Answer != textSubmitFailed || resp.Screen != nil {
		t.Fatalf("expected retry message, got %+v", resp)
	}
	sess := h.session(userID)
	if len(sess.Cart) != 2 || sess.State != session.StateWaitingConfirmation {
		t.Fatalf("expected cart kept while waiting, got %+v", sess)
	}
	if h.orderRows() != 0 {
		t.Fatalf("expected no order rows, got %d", h.orderRows())
	}

	h.store.failAppend = false
	h.press(userID, "finalize_order")
	if h.orderRows() != 1 {
		t.Fatalf("expected retry to succeed, got %d rows", h.orderRows())
	}
}

func TestUnknownInputKeepsCart(t *testing.T) {
	h := newHarness(t, morning())
	h.command(userID, "start")
	h.fillCart(userID)
	h.press(userID, "select_2")

	resp := h.ctrl.Handle(context.Background(), Update{Kind: KindText, UserID: userID, ChatID: userID, Payload: "hello"})
	if resp.Screen == nil || resp.Screen.Text != textUnknown {
		t.Fatalf("expected unknown reply, got %+v", resp)
	}
	sess := h.session(userID)
	if sess.State != session.StateIdle || sess.Pending != nil || len(sess.Cart) != 2 {
		t.Fatalf("expected idle session with cart, got %+v", sess)
	}

	resp = h.press(userID, "no_such_button")
	if resp.Answer != textOutdated || len(h.session(userID).Cart) != 2 {
		t.Fatalf("expected outdated answer with cart kept, got %+v", resp)
	}
}

func TestSelectUnknownDish(t *testing.T) {
	h := newHarness(t, morning())
	h.command(userID, "start")
	h.press(userID, "menu")

	resp := h.press(userID, "select_999")
	if resp.Answer != textDishNotFound || resp.Screen != nil {
		t.Fatalf("expected not found alert, got %+v", resp)
	}
	if h.session(userID).State != session.StateViewingMenu {
		t.Fatalf("state changed to %s", h.session(userID).State)
	}
}

func TestOutOfOrderEvent(t *testing.T) {
	h := newHarness(t, morning())
	h.command(userID, "start")
	h.fillCart(userID)

	resp := h.press(userID, "quantity_3")
	if resp.Answer != textOutdated {
		t.Fatalf("expected outdated answer, got %+v", resp)
	}
	if got := h.session(userID).Cart; len(got) != 2 || got[0].Quantity != 2 {
		t.Fatalf("cart changed: %+v", got)
	}
}

func TestCartRecoveredAfterSessionLoss(t *testing.T) {
	h := newHarness(t, morning())
	h.command(userID, "start")
	h.fillCart(userID)

	h.sessions.Reset(session.Key{UserID: userID, ChatID: userID})

	resp := h.press(userID, "cart")
	if !hasToken(resp.Screen, tokenConfirm) {
		t.Fatalf("expected recovered cart, got %+v", resp.Screen)
	}
}

func TestMyOrdersAlreadyViewing(t *testing.T) {
	h := newHarness(t, morning())
	h.command(userID, "start")

	first := h.press(userID, "my_orders")
	if first.Screen == nil {
		t.Fatal("expected orders screen")
	}
	again := h.ctrl.Handle(context.Background(), Update{
		Kind: KindCallback, UserID: userID, ChatID: userID, Payload: "my_orders", Current: first.Screen,
	})
	if again.Answer != textAlreadyViewing || again.Screen != nil {
		t.Fatalf("expected already viewing answer, got %+v", again)
	}
}

func TestAdminToggle(t *testing.T) {
	h := newHarness(t, morning())
	h.command(adminID, "start")
	h.command(userID, "start")

	if resp := h.command(userID, "toggle_dish"); resp.Screen == nil || resp.Screen.Text != textAccessDenied {
		t.Fatalf("expected access denied, got %+v", resp)
	}

	resp := h.command(adminID, "toggle_dish")
	if !hasToken(resp.Screen, "tgl_1") {
		t.Fatalf("expected toggle buttons, got %+v", resp.Screen)
	}

	resp = h.press(adminID, "tgl_1")
	if !strings.Contains(resp.Answer, "hidden") {
		t.Fatalf("unexpected answer %q", resp.Answer)
	}
	if hasToken(h.press(userID, "menu").Screen, "select_1") {
		t.Fatal("hidden dish still offered")
	}

	resp = h.press(adminID, "tgl_1")
	if !strings.Contains(resp.Answer, "shown") {
		t.Fatalf("unexpected answer %q", resp.Answer)
	}
	if !hasToken(h.press(userID, "menu").Screen, "select_1") {
		t.Fatal("dish not offered after toggling back")
	}
}

func TestAdminReport(t *testing.T) {
	h := newHarness(t, morning())
	h.command(adminID, "start")
	h.fillCart(adminID)
	h.press(adminID, "cart")
	h.press(adminID, "confirm_order")
	h.press(adminID, "finalize_order")

	resp := h.ctrl.Handle(context.Background(), Update{Kind: KindCommand, UserID: adminID, ChatID: adminID, Payload: "report", Args: "today"})
	if resp.Screen == nil || !strings.Contains(resp.Screen.Text, "Orders: 1") || !strings.Contains(resp.Screen.Text, "530 ₽") {
		t.Fatalf("unexpected report %+v", resp.Screen)
	}

	resp = h.ctrl.Handle(context.Background(), Update{Kind: KindCommand, UserID: adminID, ChatID: adminID, Payload: "report", Args: "year"})
	if resp.Screen == nil || !strings.Contains(resp.Screen.Text, "Unknown period") {
		t.Fatalf("expected period error, got %+v", resp.Screen)
	}
}

func TestLongDishIDsHaveNoButtons(t *testing.T) {
	h := newHarness(t, morning())
	h.command(userID, "start")
	longID := strings.Repeat("x", 51)
	row := []string{longID, "", "Long", "", "Yes", "", "", "100"}
	if err := h.store.Store.AppendRow(context.Background(), repository.TableMenu, row); err != nil {
		t.Fatalf("append: %v", err)
	}

	resp := h.press(userID, "menu")
	if !strings.Contains(resp.Screen.Text, "Long") {
		t.Fatalf("expected dish listed, got %q", resp.Screen.Text)
	}
	for _, row := range resp.Screen.Keyboard {
		for _, b := range row {
			if len(b.Data) > MaxTokenLen || strings.Contains(b.Data, longID) {
				t.Fatalf("unexpected button %+v", b)
			}
		}
	}
}

func TestPanicBecomesTryLater(t *testing.T) {
	h := newHarness(t, morning())
	h.command(userID, "start")
	h.fillCart(userID)

	// A controller without an order service panics on the back button.
	broken := NewController(h.ctrl.employees, h.ctrl.menu, nil, h.sessions, logging.Discard())
	resp := broken.Handle(context.Background(), Update{Kind: KindCallback, UserID: userID, ChatID: userID, Payload: "back_to_main"})
	if resp.Answer != textTryLater || !resp.Alert {
		t.Fatalf("expected try later alert, got %+v", resp)
	}
	if len(h.session(userID).Cart) != 2 {
		t.Fatal("cart lost after panic")
	}
}
