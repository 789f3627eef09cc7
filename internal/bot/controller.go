package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pizza-nz/lunch-bot/internal/cart"
	"github.com/pizza-nz/lunch-bot/internal/service"
	"github.com/pizza-nz/lunch-bot/internal/session"
)

// recentOrders is how many orders the "My orders" screen lists
const recentOrders = 5

// Controller is the conversation state machine
type Controller struct {
	employees *service.EmployeeService
	menu      *service.MenuService
	orders    *service.OrderService
	sessions  *session.Store
	logger    *logrus.Logger
}

// NewController creates a conversation controller
func NewController(
	employees *service.EmployeeService,
	menu *service.MenuService,
	orders *service.OrderService,
	sessions *session.Store,
	logger *logrus.Logger,
) *Controller {
	return &Controller{
		employees: employees,
		menu:      menu,
		orders:    orders,
		sessions:  sessions,
		logger:    logger,
	}
}

// request is the per-event context handed to handlers
type request struct {
	Update
	event Event
	arg   string
	next  session.State
	log   *logrus.Entry
}

// reply builds a response that edits the pressed message for callbacks and
// sends a new message otherwise.
func (r *request) reply(screen *Screen) Response {
	return Response{Screen: screen, Edit: r.Kind == KindCallback}
}

// notice answers a callback with a popup, or sends text for messages.
func (r *request) notice(text string) Response {
	if r.Kind == KindCallback {
		return Response{Answer: text, Alert: true}
	}
	return Response{Screen: &Screen{Text: text}}
}

// Handle processes one inbound event. It never panics and never returns an
// error: unexpected failures become a generic "try later" reply.
func (c *Controller) Handle(ctx context.Context, u Update) (resp Response) {
	event, arg := Decode(u)
	req := &request{
		Update: u,
		event:  event,
		arg:    arg,
		log: c.logger.WithFields(logrus.Fields{
			"event_id": uuid.NewString(),
			"user_id":  u.UserID,
			"chat_id":  u.ChatID,
			"event":    event,
		}),
	}

	defer func() {
		if r := recover(); r != nil {
			req.log.Errorf("Handler panic: %v\n%s", r, debug.Stack())
			resp = req.notice(textTryLater)
		}
	}()

	sess := c.sessions.Load(ctx, session.Key{UserID: u.UserID, ChatID: u.ChatID})
	req.log.Debugf("Handling %q in state %s", u.Payload, sess.State)

	resp = c.dispatch(ctx, &sess, req)
	c.sessions.Save(ctx, sess)
	return resp
}

func (c *Controller) dispatch(ctx context.Context, sess *session.Session, req *request) Response {
	if req.event == EventStart {
		return c.start(ctx, sess, req)
	}
	if !isAdminEvent(req.event) && !c.employees.IsRegistered(ctx, req.UserID) {
		req.log.Infof("Unregistered user sent %q", req.Payload)
		return req.reply(&Screen{Text: textNotRegistered})
	}

	next, ok := Transition(sess.State, req.event)
	if !ok {
		req.log.Infof("Event not allowed in state %s", sess.State)
		return c.outOfOrder(sess, req)
	}
	req.next = next

	switch req.event {
	case EventOpenMenu:
		return c.openMenu(ctx, sess, req)
	case EventSelectDish:
		return c.selectDish(ctx, sess, req)
	case EventChooseQuantity:
		return c.chooseQuantity(ctx, sess, req)
	case EventOpenCart:
		return c.openCart(sess, req)
	case EventClearCart:
		return c.clearCart(sess, req)
	case EventConfirm:
		return c.confirm(ctx, sess, req)
	case EventFinalize:
		return c.finalize(ctx, sess, req)
	case EventMyOrders:
		return c.myOrders(ctx, sess, req)
	case EventStats:
		return c.stats(ctx, sess, req)
	case EventBack:
		c.toIdle(sess)
		return req.reply(welcomeScreen(c.orders.Policy().String(), false))
	case EventAdmin, EventAdminDishes, EventAdminToggle, EventAdminReport:
		return c.admin(ctx, sess, req)
	default:
		return c.unknown(sess, req)
	}
}

// toIdle cancels any pending selection or confirmation and keeps the cart.
func (c *Controller) toIdle(sess *session.Session) {
	sess.State = session.StateIdle
	sess.Pending = nil
	sess.ConfirmationID = ""
}

func (c *Controller) start(ctx context.Context, sess *session.Session, req *request) Response {
	c.toIdle(sess)

	if c.employees.IsRegistered(ctx, req.UserID) {
		return req.reply(welcomeScreen(c.orders.Policy().String(), false))
	}
	if !c.employees.Register(ctx, req.UserID, req.FullName) {
		return req.notice(textRegisterFailed)
	}
	req.log.Info("New employee registered")
	return req.reply(welcomeScreen(c.orders.Policy().String(), true))
}

func (c *Controller) openMenu(ctx context.Context, sess *session.Session, req *request) Response {
	dishes := c.menu.Offered(ctx)
	if len(dishes) == 0 {
		c.toIdle(sess)
		if req.Kind == KindCallback {
			return Response{Answer: textMenuEmpty, Alert: true}
		}
		return req.reply(mainScreen(textMenuEmpty))
	}

	sess.State = req.next
	sess.Pending = nil
	return req.reply(menuScreen(dishes, sess.Cart))
}

func (c *Controller) selectDish(ctx context.Context, sess *session.Session, req *request) Response {
	dish, ok := c.menu.Get(ctx, req.arg)
	if !ok {
		return Response{Answer: textDishNotFound, Alert: true}
	}

	sess.State = req.next
	sess.Pending = &dish
	return req.reply(quantityScreen(dish))
}

func (c *Controller) chooseQuantity(ctx context.Context, sess *session.Session, req *request) Response {
	if sess.Pending == nil {
		c.toIdle(sess)
		return Response{Answer: textChooseDish, Alert: true, Screen: welcomeScreen(c.orders.Policy().String(), false), Edit: true}
	}

	quantity, err := strconv.Atoi(req.arg)
	if err != nil {
		quantity = 0
	}
	items, message, err := cart.Add(sess.Cart, *sess.Pending, quantity)
	if err != nil {
		req.log.WithError(err).Warn("Rejected quantity")
		return Response{Answer: textTryLater, Alert: true}
	}

	sess.Cart = items
	sess.Pending = nil
	sess.State = req.next

	resp := c.openMenu(ctx, sess, req)
	resp.Answer = message
	resp.Alert = true
	return resp
}

func (c *Controller) openCart(sess *session.Session, req *request) Response {
	sess.Pending = nil
	sess.ConfirmationID = ""
	if len(sess.Cart) == 0 {
		sess.State = session.StateIdle
		return req.reply(cartScreen(nil))
	}
	sess.State = req.next
	return req.reply(cartScreen(sess.Cart))
}

func (c *Controller) clearCart(sess *session.Session, req *request) Response {
	sess.Cart = cart.Clear()
	sess.ConfirmationID = ""
	sess.State = req.next
	return req.reply(clearedCartScreen())
}

func (c *Controller) confirm(ctx context.Context, sess *session.Session, req *request) Response {
	err := c.orders.Confirm(ctx, sess)
	switch {
	case errors.Is(err, service.ErrDeadlinePassed):
		req.log.Info("Confirmation after the deadline")
		return Response{Answer: c.deadlineText(), Alert: true}
	case errors.Is(err, service.ErrEmptyCart):
		return Response{Answer: textCartEmpty, Alert: true}
	case err != nil:
		req.log.WithError(err).Error("Confirmation failed")
		return Response{Answer: textTryLater, Alert: true}
	}

	sess.State = req.next
	policy := c.orders.Policy()
	delivery := policy.NextDeliveryDate(policy.Now()).Format("2006-01-02")
	return req.reply(confirmationScreen(sess.Cart, delivery, c.orders.DeliveryWindow(ctx)))
}

func (c *Controller) finalize(ctx context.Context, sess *session.Session, req *request) Response {
	order, err := c.orders.Finalize(ctx, sess)
	switch {
	case errors.Is(err, service.ErrDeadlinePassed):
		sess.State = session.StateReviewingCart
		sess.ConfirmationID = ""
		return Response{Answer: c.deadlineText(), Alert: true, Screen: cartScreen(sess.Cart), Edit: true}
	case errors.Is(err, service.ErrEmptyCart):
		c.toIdle(sess)
		return Response{Answer: textCartEmpty, Alert: true}
	case errors.Is(err, service.ErrNotConfirmed):
		sess.State = session.StateReviewingCart
		return Response{Answer: textReviewFirst, Alert: true, Screen: cartScreen(sess.Cart), Edit: true}
	case err != nil:
		return Response{Answer: textSubmitFailed, Alert: true}
	}

	sess.State = req.next
	sess.Pending = nil
	return req.reply(orderPlacedScreen(order, c.orders.DeliveryWindow(ctx)))
}

func (c *Controller) myOrders(ctx context.Context, sess *session.Session, req *request) Response {
	c.toIdle(sess)
	screen := myOrdersScreen(c.orders.ListUserOrders(ctx, req.UserID, recentOrders))
	if req.Kind == KindCallback && screen.Equal(req.Current) {
		return Response{Answer: textAlreadyViewing}
	}
	return req.reply(screen)
}

func (c *Controller) stats(ctx context.Context, sess *session.Session, req *request) Response {
	c.toIdle(sess)
	return req.reply(statsScreen(c.orders.UserStats(ctx, req.UserID)))
}

// outOfOrder handles an event the current state does not allow, such as a
// button left on an old message. The conversation returns to the main
// screen with the cart intact.
func (c *Controller) outOfOrder(sess *session.Session, req *request) Response {
	c.toIdle(sess)
	return Response{
		Answer: textOutdated,
		Screen: welcomeScreen(c.orders.Policy().String(), false),
		Edit:   req.Kind == KindCallback,
	}
}

func (c *Controller) unknown(sess *session.Session, req *request) Response {
	c.toIdle(sess)
	if req.Kind == KindCallback {
		return Response{Answer: textOutdated, Screen: welcomeScreen(c.orders.Policy().String(), false), Edit: true}
	}
	return req.reply(mainScreen(textUnknown))
}

func (c *Controller) deadlineText() string {
	return fmt.Sprintf(textDeadline, c.orders.Policy().String())
}
