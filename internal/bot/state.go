package bot

import (
	"github.com/pizza-nz/lunch-bot/internal/session"
)

// Event is a user intent decoded from an update
type Event string

const (
	EventStart          Event = "start"
	EventOpenMenu       Event = "open_menu"
	EventSelectDish     Event = "select_dish"
	EventChooseQuantity Event = "choose_quantity"
	EventOpenCart       Event = "open_cart"
	EventClearCart      Event = "clear_cart"
	EventConfirm        Event = "confirm"
	EventFinalize       Event = "finalize"
	EventMyOrders       Event = "my_orders"
	EventStats          Event = "stats"
	EventBack           Event = "back"
	EventUnknown        Event = "unknown"

	EventAdmin       Event = "admin"
	EventAdminDishes Event = "admin_dishes"
	EventAdminToggle Event = "admin_toggle"
	EventAdminReport Event = "admin_report"
)

type transition struct {
	from []session.State // nil means any state
	to   session.State
}

var transitions = map[Event]transition{
	EventStart:    {to: session.StateIdle},
	EventOpenMenu: {to: session.StateViewingMenu},
	EventSelectDish: {
		from: []session.State{session.StateIdle, session.StateViewingMenu, session.StateSelectingQuantity},
		to:   session.StateSelectingQuantity,
	},
	EventChooseQuantity: {
		from: []session.State{session.StateSelectingQuantity},
		to:   session.StateViewingMenu,
	},
	EventOpenCart: {to: session.StateReviewingCart},
	EventClearCart: {
		from: []session.State{session.StateReviewingCart, session.StateWaitingConfirmation},
		to:   session.StateReviewingCart,
	},
	EventConfirm: {
		from: []session.State{session.StateReviewingCart},
		to:   session.StateWaitingConfirmation,
	},
	EventFinalize: {
		from: []session.State{session.StateWaitingConfirmation},
		to:   session.StateIdle,
	},
	EventMyOrders: {to: session.StateIdle},
	EventStats:    {to: session.StateIdle},
	EventBack:     {to: session.StateIdle},
	EventUnknown:  {to: session.StateIdle},

	EventAdmin:       {to: session.StateIdle},
	EventAdminDishes: {to: session.StateIdle},
	EventAdminToggle: {to: session.StateIdle},
	EventAdminReport: {to: session.StateIdle},
}

// Transition returns the state an event leads to from the given state, and
// false when the event is not allowed there.
func Transition(from session.State, ev Event) (session.State, bool) {
	t, ok := transitions[ev]
	if !ok {
		return from, false
	}
	if t.from == nil {
		return t.to, true
	}
	for _, s := range t.from {
		if s == from {
			return t.to, true
		}
	}
	return from, false
}

// isAdminEvent reports events that are gated by admin rights instead of
// registration.
func isAdminEvent(ev Event) bool {
	switch ev {
	case EventAdmin, EventAdminDishes, EventAdminToggle, EventAdminReport:
		return true
	}
	return false
}
