package repository

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/pizza-nz/lunch-bot/internal/models"
	"github.com/pizza-nz/lunch-bot/internal/sheet"
)

var truthy = map[string]bool{
	"да":   true,
	"yes":  true,
	"1":    true,
	"true": true,
	"+":    true,
	"✓":    true,
}

// IsTruthy reports whether an Active cell means "on".
func IsTruthy(raw string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(raw))]
}

// NormalizePrice parses a price cell such as "250", "250 ₽" or "1 250,50".
// Currency symbols and whitespace are dropped, a decimal comma becomes a
// point and the result is truncated. ok is false when the cell could not be
// parsed, in which case the price is 0.
func NormalizePrice(raw string) (price int, ok bool) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, raw)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return int(f), true
}

// NormalizeDate converts a date cell to YYYY-MM-DD. Cells starting with an ISO
// date (time suffixes are ignored) and DD.MM.YYYY cells are accepted. An empty
// cell is valid and yields "".
func NormalizeDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", true
	}
	if len(raw) >= len(dateLayout) {
		if t, err := time.Parse(dateLayout, raw[:len(dateLayout)]); err == nil {
			return t.Format(dateLayout), true
		}
	}
	if t, err := time.Parse("02.01.2006", raw); err == nil {
		return t.Format(dateLayout), true
	}
	return "", false
}

// dishFromRecord converts a Menu row. windowOK is false when a validity date
// could not be parsed; such a dish is never offered.
func dishFromRecord(rec sheet.Record) (dish models.Dish, priceOK, windowOK bool) {
	dish = models.Dish{
		ID:          rec.Get(ColID),
		Cafe:        rec.Get(ColCafe),
		Name:        rec.Get(ColName),
		Description: rec.Get(ColDescription),
		Active:      IsTruthy(rec.Get(ColActive)),
	}
	if dish.Name == "" {
		dish.Name = "Untitled"
	}
	if dish.Cafe == "" {
		dish.Cafe = models.DefaultCafe
	}

	dish.Price, priceOK = NormalizePrice(rec.Get(ColPrice))

	start, startOK := NormalizeDate(rec.Get(ColStartDate))
	end, endOK := NormalizeDate(rec.Get(ColEndDate))
	dish.StartDate, dish.EndDate = start, end

	return dish, priceOK, startOK && endOK
}

func employeeFromRecord(rec sheet.Record) models.Employee {
	return models.Employee{
		TelegramID:   rec.Get(ColTelegramID),
		FullName:     rec.Get(ColFullName),
		Role:         models.EmployeeRole(rec.Get(ColRole)),
		Status:       rec.Get(ColStatus),
		RegisteredAt: rec.Get(ColRegisteredAt),
	}
}

func orderFromRecord(rec sheet.Record) models.Order {
	id, _ := strconv.Atoi(rec.Get(ColID))
	total, _ := NormalizePrice(rec.Get(ColTotal))
	orderDate, ok := NormalizeDate(rec.Get(ColOrderDate))
	if !ok {
		orderDate = ""
	}
	deliveryDate, ok := NormalizeDate(rec.Get(ColDeliveryDate))
	if !ok {
		deliveryDate = ""
	}
	return models.Order{
		ID:           id,
		OrderDate:    orderDate,
		DeliveryDate: deliveryDate,
		EmployeeID:   rec.Get(ColEmployeeID),
		Cafe:         rec.Get(ColCafe),
		Items:        rec.Get(ColItems),
		Total:        total,
		Status:       models.OrderStatus(strings.ToLower(rec.Get(ColStatus))),
	}
}

// itemsText flattens a cart into "Name x2; Other x1".
func itemsText(items []models.CartItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Name+" x"+strconv.Itoa(item.Quantity))
	}
	return strings.Join(parts, "; ")
}

// dishNames extracts dish names from an items text.
func dishNames(text string) []string {
	var names []string
	for _, part := range strings.Split(text, ";") {
		part = strings.TrimSpace(part)
		i := strings.LastIndex(part, " x")
		if i <= 0 {
			continue
		}
		if _, err := strconv.Atoi(strings.TrimSpace(part[i+2:])); err != nil {
			continue
		}
		names = append(names, strings.TrimSpace(part[:i]))
	}
	return names
}
