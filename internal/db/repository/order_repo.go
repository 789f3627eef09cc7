package repository

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/pizza-nz/lunch-bot/internal/models"
)

// OrderRepository handles order data access
type OrderRepository struct {
	*tables
	settings *SettingsRepository
}

// Submission is a cart ready to be written as an order
type Submission struct {
	EmployeeID string
	Items      []models.CartItem

	// DeliveryDate as YYYY-MM-DD; tomorrow when empty.
	DeliveryDate string
}

// Submit writes the order as a single appended row. The order ID is the
// current row count of the table, header included, so the first order is 1.
func (r *OrderRepository) Submit(ctx context.Context, sub Submission) (models.Order, bool) {
	log := r.logger.WithField("user_id", sub.EmployeeID)
	if len(sub.Items) == 0 {
		log.Warn("Refusing to submit an empty order")
		return models.Order{}, false
	}

	values, err := r.fresh(ctx, TableOrders)
	if err != nil {
		log.WithError(err).Error("Failed to read orders")
		return models.Order{}, false
	}

	now := r.now()
	order := models.Order{
		ID:           len(values),
		OrderDate:    now.Format(dateLayout),
		DeliveryDate: sub.DeliveryDate,
		EmployeeID:   sub.EmployeeID,
		Cafe:         r.settings.DefaultCafe(ctx),
		Items:        itemsText(sub.Items),
		Status:       models.OrderStatusActive,
	}
	if order.ID < 1 {
		order.ID = 1
	}
	if order.DeliveryDate == "" {
		order.DeliveryDate = now.AddDate(0, 0, 1).Format(dateLayout)
	}
	for _, item := range sub.Items {
		order.Total += item.Subtotal()
	}

	row := []string{
		strconv.Itoa(order.ID),
		order.OrderDate,
		order.DeliveryDate,
		order.EmployeeID,
		order.Cafe,
		order.Items,
		strconv.Itoa(order.Total),
		string(order.Status),
	}
	if err := r.store.AppendRow(ctx, TableOrders, row); err != nil {
		log.WithError(err).Error("Failed to submit order")
		return models.Order{}, false
	}

	r.invalidate(TableOrders)
	log.WithField("order_id", order.ID).Infof("Order submitted, total %d", order.Total)
	return order, true
}

// List returns all orders in table order
func (r *OrderRepository) List(ctx context.Context) []models.Order {
	records := r.records(ctx, TableOrders, ColID, ColEmployeeID, ColItems, ColTotal)

	orders := make([]models.Order, 0, len(records))
	for _, rec := range records {
		orders = append(orders, orderFromRecord(rec))
	}
	return orders
}

// ListByUser returns the orders of one employee, newest first
func (r *OrderRepository) ListByUser(ctx context.Context, employeeID string) []models.Order {
	var orders []models.Order
	for _, o := range r.List(ctx) {
		if o.EmployeeID == employeeID {
			orders = append(orders, o)
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].OrderDate != orders[j].OrderDate {
			return orders[i].OrderDate > orders[j].OrderDate
		}
		return orders[i].ID > orders[j].ID
	})
	return orders
}

// Report aggregates the orders placed within period. Week and month are the
// last 7 and 30 calendar days, today included. Orders whose date cannot be
// parsed are left out.
func (r *OrderRepository) Report(ctx context.Context, period models.ReportPeriod) models.Report {
	today := r.now()
	var from string
	switch period {
	case models.PeriodToday:
		from = today.Format(dateLayout)
	case models.PeriodWeek:
		from = today.AddDate(0, 0, -6).Format(dateLayout)
	case models.PeriodMonth:
		from = today.AddDate(0, 0, -29).Format(dateLayout)
	default:
		period = models.PeriodAll
	}

	report := models.Report{Period: period}
	customers := make(map[string]bool)
	dishes := make(map[string]int)
	for _, o := range r.List(ctx) {
		if o.OrderDate == "" || o.OrderDate < from {
			continue
		}
		if period == models.PeriodToday && o.OrderDate != from {
			continue
		}
		report.TotalOrders++
		report.TotalAmount += o.Total
		customers[o.EmployeeID] = true
		for _, name := range dishNames(o.Items) {
			dishes[name]++
		}
	}
	report.UniqueCustomers = len(customers)
	report.PopularDishes = topDishes(dishes, 10)
	return report
}

// UserStats summarises the order history of one employee
func (r *OrderRepository) UserStats(ctx context.Context, employeeID string) models.UserStats {
	var stats models.UserStats
	dishes := make(map[string]int)
	for _, o := range r.ListByUser(ctx, employeeID) {
		stats.TotalOrders++
		stats.TotalSpent += o.Total
		if o.OrderDate > stats.LastOrderDate {
			stats.LastOrderDate = o.OrderDate
		}
		for _, name := range dishNames(o.Items) {
			dishes[name]++
		}
	}
	stats.TopDishes = topDishes(dishes, 3)
	if len(stats.TopDishes) > 0 {
		stats.FavoriteDish = stats.TopDishes[0].Name
	}
	return stats
}

func topDishes(counts map[string]int, limit int) []models.DishCount {
	out := make([]models.DishCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.DishCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return strings.Compare(out[i].Name, out[j].Name) < 0
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
