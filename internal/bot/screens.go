package bot

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pizza-nz/lunch-bot/internal/cart"
	"github.com/pizza-nz/lunch-bot/internal/models"
)

// MaxTokenLen is the transport limit on callback data
const MaxTokenLen = 64

// maxDishIDLen keeps prefixed dish tokens well inside MaxTokenLen
const maxDishIDLen = 50

// Callback tokens
const (
	tokenMenu        = "menu"
	tokenCart        = "cart"
	tokenClearCart   = "clear_cart"
	tokenConfirm     = "confirm_order"
	tokenFinalize    = "finalize_order"
	tokenMyOrders    = "my_orders"
	tokenStats       = "stats"
	tokenBack        = "back_to_main"
	tokenAdminDishes = "admin_dishes"
	tokenBackToAdmin = "back_to_admin"

	prefixSelect   = "select_"
	prefixQuantity = "quantity_"
	prefixToggle   = "tgl_"
	prefixReport   = "report_"
)

const labelBack = "⬅️ Back"

const (
	textWelcome = "👋 Welcome to the lunch ordering bot!\n\n" +
		"Orders for tomorrow are accepted until %s."
	textRegistered     = "✅ You are registered!\n\n" + textWelcome
	textNotRegistered  = "🔒 You are not registered yet. Send /start to register."
	textRegisterFailed = "⚠️ Registration is temporarily unavailable. Please try again later."
	textMenuEmpty      = "🍽 The menu is empty for now."
	textDishNotFound   = "❌ This dish is not available anymore."
	textChooseDish     = "❌ Please choose a dish first."
	textCartCleared    = "🛒 Cart cleared!\n\nAdd dishes from the menu."
	textDeadline       = "⏰ The order deadline (%s) has passed. New orders open tomorrow."
	textCartEmpty      = "🛒 Your cart is empty!"
	textSubmitFailed   = "❌ The order could not be placed. Please try again later."
	textReviewFirst    = "📋 Please review your cart first."
	textUnknown        = "🤔 Unknown command. Use the buttons below."
	textOutdated       = "This button is no longer active."
	textTryLater       = "⚠️ Something went wrong. Please try again later."
	textAlreadyViewing = "🔄 You are already viewing your orders"
	textAccessDenied   = "⛔ This command is for administrators only."
)

func button(label, data string) Button {
	return Button{Label: label, Data: data}
}

// dishToken builds a prefixed dish token, or false when the ID is too long
// to fit the transport limit.
func dishToken(prefix, id string) (string, bool) {
	if id == "" || len(id) > maxDishIDLen {
		return "", false
	}
	token := prefix + id
	return token, len(token) <= MaxTokenLen
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func mainKeyboard() [][]Button {
	return [][]Button{
		{button("🍽 Menu", tokenMenu)},
		{button("🛒 Cart", tokenCart)},
		{button("📋 My orders", tokenMyOrders)},
	}
}

func mainScreen(text string) *Screen {
	return &Screen{Text: text, Keyboard: mainKeyboard()}
}

func welcomeScreen(deadline string, registered bool) *Screen {
	format := textWelcome
	if registered {
		format = textRegistered
	}
	return mainScreen(fmt.Sprintf(format, deadline))
}

func menuScreen(dishes []models.Dish, items []models.CartItem) *Screen {
	var b strings.Builder
	b.WriteString("✅ Choose a dish:\n\n")

	var rows [][]Button
	for _, d := range dishes {
		fmt.Fprintf(&b, "🆔 %s | %s - %s\n", d.ID, d.Name, cart.Amount(d.Price))
		if d.Description != "" {
			fmt.Fprintf(&b, "📝 %s\n", d.Description)
		}
		b.WriteString("\n")

		token, ok := dishToken(prefixSelect, d.ID)
		if !ok {
			continue
		}
		label := fmt.Sprintf("%s (%s)", truncate(d.Name, 30), cart.Amount(d.Price))
		rows = append(rows, []Button{button(label, token)})
	}

	cartLabel := "🛒 Cart"
	if n := cart.Count(items); n > 0 {
		cartLabel = fmt.Sprintf("🛒 Cart (%d)", n)
	}
	rows = append(rows, []Button{button(cartLabel, tokenCart)}, []Button{button(labelBack, tokenBack)})

	return &Screen{Text: strings.TrimRight(b.String(), "\n"), Keyboard: rows}
}

func quantityScreen(d models.Dish) *Screen {
	text := fmt.Sprintf("🔢 Choose the quantity for:\n🍽 %s\n💰 Price: %s\n\nQuantity (%d-%d):",
		d.Name, cart.Amount(d.Price), cart.MinQuantity, cart.MaxQuantity)

	var first, second []Button
	for i := cart.MinQuantity; i <= cart.MaxQuantity; i++ {
		b := button(strconv.Itoa(i), prefixQuantity+strconv.Itoa(i))
		if i <= 5 {
			first = append(first, b)
		} else {
			second = append(second, b)
		}
	}
	return &Screen{
		Text:     text,
		Keyboard: [][]Button{first, second, {button("❌ Cancel", tokenBack)}},
	}
}

func emptyCartKeyboard() [][]Button {
	return [][]Button{
		{button("🍽 Go to menu", tokenMenu)},
		{button(labelBack, tokenBack)},
	}
}

func cartScreen(items []models.CartItem) *Screen {
	text, _ := cart.Summarize(items)
	if len(items) == 0 {
		return &Screen{Text: text, Keyboard: emptyCartKeyboard()}
	}
	return &Screen{
		Text: text,
		Keyboard: [][]Button{
			{button("✅ Place order", tokenConfirm)},
			{button("🗑 Clear cart", tokenClearCart)},
			{button(labelBack, tokenBack)},
		},
	}
}

func clearedCartScreen() *Screen {
	return &Screen{Text: textCartCleared, Keyboard: emptyCartKeyboard()}
}

func confirmationScreen(items []models.CartItem, deliveryDate, window string) *Screen {
	summary, total := cart.Summarize(items)
	text := fmt.Sprintf("📋 Order confirmation:\n\n%s\n\n📍 Delivery address: company office\n"+
		"⏰ Delivery: %s, %s\n💰 Total: %s\n\n❓ Confirm the order:",
		summary, deliveryDate, window, cart.Amount(total))
	return &Screen{
		Text: text,
		Keyboard: [][]Button{
			{button("✅ Confirm order", tokenFinalize)},
			{button("✏️ Edit cart", tokenCart)},
			{button("❌ Cancel", tokenBack)},
		},
	}
}

func orderPlacedScreen(o models.Order, window string) *Screen {
	text := fmt.Sprintf("🎉 Order placed!\n\n📋 Order details:\n🆔 Order number: %d\n🍽 %s\n💰 Total: %s\n"+
		"⏰ Delivery: %s, %s\n📍 Address: company office\n\nThank you!",
		o.ID, o.Items, cart.Amount(o.Total), o.DeliveryDate, window)
	return mainScreen(text)
}

func myOrdersScreen(orders []models.Order) *Screen {
	var text string
	if len(orders) == 0 {
		text = "📋 Your order history is empty.\n\nYou have not placed any orders yet."
	} else {
		var b strings.Builder
		b.WriteString("📋 Your recent orders:\n\n")
		for i, o := range orders {
			fmt.Fprintf(&b, "%d. Order of %s:\n   %s\n   💰 Total: %s\n\n", i+1, o.OrderDate, o.Items, cart.Amount(o.Total))
		}
		text = strings.TrimRight(b.String(), "\n")
	}
	return &Screen{
		Text: text,
		Keyboard: [][]Button{
			{button("📊 Statistics", tokenStats)},
			{button(labelBack, tokenBack)},
		},
	}
}

func statsScreen(s models.UserStats) *Screen {
	var b strings.Builder
	b.WriteString("📊 Your statistics:\n\n")
	if s.TotalOrders == 0 {
		b.WriteString("No orders yet.")
	} else {
		fmt.Fprintf(&b, "🧾 Orders: %d\n💰 Spent: %s\n📅 Last order: %s\n", s.TotalOrders, cart.Amount(s.TotalSpent), s.LastOrderDate)
		if s.FavoriteDish != "" {
			fmt.Fprintf(&b, "❤️ Favourite dish: %s\n", s.FavoriteDish)
		}
		if len(s.TopDishes) > 0 {
			b.WriteString("\n🏆 Top dishes:\n")
			for i, d := range s.TopDishes {
				fmt.Fprintf(&b, "%d. %s (%d)\n", i+1, d.Name, d.Count)
			}
		}
	}
	return &Screen{
		Text: strings.TrimRight(b.String(), "\n"),
		Keyboard: [][]Button{
			{button("📋 My orders", tokenMyOrders)},
			{button(labelBack, tokenBack)},
		},
	}
}

var reportPeriods = []models.ReportPeriod{models.PeriodToday, models.PeriodWeek, models.PeriodMonth, models.PeriodAll}

func adminScreen() *Screen {
	text := "🛠 Administration\n\n" +
		"/toggle_dish - show or hide dishes\n" +
		"/report [today|week|month|all] - order report"

	var reports []Button
	for _, p := range reportPeriods {
		reports = append(reports, button("📊 "+string(p), prefixReport+string(p)))
	}
	return &Screen{
		Text: text,
		Keyboard: [][]Button{
			{button("🍽 Toggle dishes", tokenAdminDishes)},
			reports,
		},
	}
}

func adminDishesScreen(dishes []models.Dish) *Screen {
	if len(dishes) == 0 {
		return &Screen{
			Text:     "🍽 The menu table has no dishes.",
			Keyboard: [][]Button{{button(labelBack, tokenBackToAdmin)}},
		}
	}

	var b strings.Builder
	b.WriteString("🍽 Dishes (press to show or hide):\n\n")
	var rows [][]Button
	for _, d := range dishes {
		status := "🔴"
		if d.Active {
			status = "🟢"
		}
		fmt.Fprintf(&b, "%s %s | %s\n", status, d.ID, d.Name)

		token, ok := dishToken(prefixToggle, d.ID)
		if !ok {
			continue
		}
		rows = append(rows, []Button{button(truncate(status+" "+d.Name, 30), token)})
	}
	rows = append(rows, []Button{button(labelBack, tokenBackToAdmin)})

	return &Screen{Text: strings.TrimRight(b.String(), "\n"), Keyboard: rows}
}

func reportScreen(r models.Report) *Screen {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Report: %s\n\n", r.Period)
	fmt.Fprintf(&b, "🧾 Orders: %d\n💰 Amount: %s\n👥 Customers: %d\n", r.TotalOrders, cart.Amount(r.TotalAmount), r.UniqueCustomers)
	if len(r.PopularDishes) > 0 {
		b.WriteString("\n🏆 Popular dishes:\n")
		for i, d := range r.PopularDishes {
			fmt.Fprintf(&b, "%d. %s (%d)\n", i+1, d.Name, d.Count)
		}
	}
	return &Screen{
		Text:     strings.TrimRight(b.String(), "\n"),
		Keyboard: [][]Button{{button(labelBack, tokenBackToAdmin)}},
	}
}
