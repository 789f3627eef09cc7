// Package cart holds the pure cart operations: merging items, totals and the
// text summary shown on the cart screen.
package cart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pizza-nz/lunch-bot/internal/models"
)

// Quantity bounds of a single add
const (
	MinQuantity = 1
	MaxQuantity = 10
)

// Currency is appended to every amount shown to users
const Currency = "₽"

// EmptyMessage is the summary of an empty cart
const EmptyMessage = "🛒 Your cart is empty"

var ErrInvalidQuantity = errors.New("quantity out of range")

// Add puts quantity of dish into items. An item for the same dish is
// incremented in place, otherwise a snapshot of the dish is appended. The
// input slice is not modified. The message tells whether the item was added
// or its quantity updated.
func Add(items []models.CartItem, dish models.Dish, quantity int) ([]models.CartItem, string, error) {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return items, "", fmt.Errorf("%d: %w", quantity, ErrInvalidQuantity)
	}

	out := make([]models.CartItem, len(items), len(items)+1)
	copy(out, items)

	for i := range out {
		if out[i].DishID == dish.ID {
			out[i].Quantity += quantity
			return out, fmt.Sprintf("✅ %s: quantity updated to %d", out[i].Name, out[i].Quantity), nil
		}
	}

	out = append(out, models.CartItem{
		DishID:      dish.ID,
		Name:        dish.Name,
		Price:       dish.Price,
		Quantity:    quantity,
		Cafe:        dish.Cafe,
		Description: dish.Description,
	})
	return out, fmt.Sprintf("✅ %s x%d added to cart", dish.Name, quantity), nil
}

// Clear returns an empty cart
func Clear() []models.CartItem {
	return nil
}

// Total returns the sum of price times quantity
func Total(items []models.CartItem) int {
	total := 0
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

// Count returns the number of portions in the cart
func Count(items []models.CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

// Summarize renders the cart as numbered lines followed by the total.
func Summarize(items []models.CartItem) (string, int) {
	if len(items) == 0 {
		return EmptyMessage, 0
	}

	var b strings.Builder
	b.WriteString("🛒 Your cart:\n\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s x%d = %s\n", i+1, item.Name, item.Quantity, Amount(item.Subtotal()))
	}
	total := Total(items)
	fmt.Fprintf(&b, "\n💰 Total: %s", Amount(total))
	return b.String(), total
}

// Amount formats a price
func Amount(n int) string {
	return fmt.Sprintf("%d %s", n, Currency)
}
