package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pizza-nz/lunch-bot/internal/cart"
	"github.com/pizza-nz/lunch-bot/internal/db/repository"
	"github.com/pizza-nz/lunch-bot/internal/deadline"
	"github.com/pizza-nz/lunch-bot/internal/models"
	"github.com/pizza-nz/lunch-bot/internal/session"
	"github.com/pizza-nz/lunch-bot/internal/websockets"
)

var (
	ErrDeadlinePassed = errors.New("order deadline has passed")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrNotConfirmed   = errors.New("order was not confirmed")
	ErrSubmitFailed   = errors.New("order could not be saved")
)

// OrderService handles order-related business logic
type OrderService struct {
	repos  *repository.Repositories
	policy *deadline.Policy
	feed   Feed
	logger *logrus.Logger
}

// NewOrderService creates a new order service
func NewOrderService(repos *repository.Repositories, policy *deadline.Policy, feed Feed, logger *logrus.Logger) *OrderService {
	return &OrderService{
		repos:  repos,
		policy: policy,
		feed:   feedOrNop(feed),
		logger: logger,
	}
}

// Policy returns the deadline policy orders are checked against
func (s *OrderService) Policy() *deadline.Policy {
	return s.policy
}

// Confirm checks that the cart can be ordered now and issues the
// confirmation ID the submission must present. The settings are reloaded
// first so a deadline edited in the store applies immediately.
func (s *OrderService) Confirm(ctx context.Context, sess *session.Session) error {
	if len(sess.Cart) == 0 {
		return ErrEmptyCart
	}
	s.repos.Settings.Load(ctx)
	if s.policy.IsPastNow() {
		return ErrDeadlinePassed
	}

	sess.ConfirmationID = uuid.NewString()
	return nil
}

// Finalize submits a confirmed cart. The cutoff is checked again, so a cart
// confirmed before the deadline cannot be submitted after it. On success the
// cart and the confirmation are cleared; on failure both are kept so the user
// can retry.
func (s *OrderService) Finalize(ctx context.Context, sess *session.Session) (models.Order, error) {
	if sess.ConfirmationID == "" {
		return models.Order{}, ErrNotConfirmed
	}
	if len(sess.Cart) == 0 {
		return models.Order{}, ErrEmptyCart
	}
	if s.policy.IsPastNow() {
		return models.Order{}, ErrDeadlinePassed
	}

	log := s.logger.WithFields(logrus.Fields{
		"user_id":         sess.Key.UserID,
		"confirmation_id": sess.ConfirmationID,
	})

	order, ok := s.repos.Order.Submit(ctx, repository.Submission{
		EmployeeID: employeeID(sess.Key.UserID),
		Items:      sess.Cart,
	})
	if !ok {
		log.Warn("Order submission failed, cart kept")
		return models.Order{}, ErrSubmitFailed
	}

	log.WithField("order_id", order.ID).Info("Order finalized")
	sess.Cart = cart.Clear()
	sess.ConfirmationID = ""
	s.feed.Broadcast(websockets.TypeOrderNew, order)
	return order, nil
}

// ListUserOrders returns up to limit most recent orders of a user
func (s *OrderService) ListUserOrders(ctx context.Context, userID int64, limit int) []models.Order {
	orders := s.repos.Order.ListByUser(ctx, employeeID(userID))
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders
}

// UserStats summarises a user's order history
func (s *OrderService) UserStats(ctx context.Context, userID int64) models.UserStats {
	return s.repos.Order.UserStats(ctx, employeeID(userID))
}

// Report aggregates the orders of a period
func (s *OrderService) Report(ctx context.Context, period models.ReportPeriod) models.Report {
	return s.repos.Order.Report(ctx, period)
}

// DeliveryWindow returns the delivery time shown to users
func (s *OrderService) DeliveryWindow(ctx context.Context) string {
	return s.repos.Settings.Load(ctx).String(models.SettingDeliveryWindow, "13:00-14:00")
}
