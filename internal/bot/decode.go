package bot

import (
	"strings"
)

// Decode maps an update to an event and its argument (a dish ID, quantity
// or report period).
func Decode(u Update) (Event, string) {
	switch u.Kind {
	case KindCommand:
		switch strings.ToLower(u.Payload) {
		case "start":
			return EventStart, ""
		case "menu":
			return EventOpenMenu, ""
		case "cart":
			return EventOpenCart, ""
		case "orders":
			return EventMyOrders, ""
		case "admin":
			return EventAdmin, ""
		case "toggle_dish":
			return EventAdminDishes, ""
		case "report":
			return EventAdminReport, strings.ToLower(strings.TrimSpace(u.Args))
		}
		return EventUnknown, ""

	case KindCallback:
		switch u.Payload {
		case tokenMenu:
			return EventOpenMenu, ""
		case tokenCart:
			return EventOpenCart, ""
		case tokenClearCart:
			return EventClearCart, ""
		case tokenConfirm:
			return EventConfirm, ""
		case tokenFinalize:
			return EventFinalize, ""
		case tokenMyOrders:
			return EventMyOrders, ""
		case tokenStats:
			return EventStats, ""
		case tokenBack:
			return EventBack, ""
		case tokenAdminDishes:
			return EventAdminDishes, ""
		case tokenBackToAdmin:
			return EventAdmin, ""
		}

		prefixes := []struct {
			prefix string
			event  Event
		}{
			{prefixSelect, EventSelectDish},
			{prefixQuantity, EventChooseQuantity},
			{prefixToggle, EventAdminToggle},
			{prefixReport, EventAdminReport},
		}
		for _, p := range prefixes {
			if arg, ok := strings.CutPrefix(u.Payload, p.prefix); ok && arg != "" {
				return p.event, arg
			}
		}
	}

	return EventUnknown, ""
}
