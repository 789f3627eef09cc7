package models

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order represents a row of the Orders table
type Order struct {
	ID           int         `json:"id"`
	OrderDate    string      `json:"order_date"`
	DeliveryDate string      `json:"delivery_date"`
	EmployeeID   string      `json:"employee_id"`
	Cafe         string      `json:"cafe"`
	Items        string      `json:"items"`
	Total        int         `json:"total"`
	Status       OrderStatus `json:"status"`
}

// ReportPeriod selects the orders a report aggregates
type ReportPeriod string

const (
	PeriodToday ReportPeriod = "today"
	PeriodWeek  ReportPeriod = "week"
	PeriodMonth ReportPeriod = "month"
	PeriodAll   ReportPeriod = "all"
)

// ParseReportPeriod maps user input to a period, defaulting to all
func ParseReportPeriod(s string) (ReportPeriod, bool) {
	switch ReportPeriod(s) {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodAll:
		return ReportPeriod(s), true
	}
	return PeriodAll, false
}

// DishCount is a dish name with the number of orders that contained it
type DishCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Report aggregates orders over a period
type Report struct {
	Period          ReportPeriod `json:"period"`
	TotalAmount     int          `json:"total_amount"`
	TotalOrders     int          `json:"total_orders"`
	UniqueCustomers int          `json:"unique_customers"`
	PopularDishes   []DishCount  `json:"popular_dishes"`
}

// UserStats summarises one employee's order history
type UserStats struct {
	TotalOrders   int         `json:"total_orders"`
	LastOrderDate string      `json:"last_order_date"`
	TotalSpent    int         `json:"total_spent"`
	FavoriteDish  string      `json:"favorite_dish"`
	TopDishes     []DishCount `json:"top_dishes"`
}
