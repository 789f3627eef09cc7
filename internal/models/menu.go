package models

// Dish represents a row of the Menu table
type Dish struct {
	ID          string `json:"id"`
	Cafe        string `json:"cafe"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	Active      bool   `json:"active"`

	// Validity window as YYYY-MM-DD, empty means unbounded on that side
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// DefaultCafe is used when neither the dish nor the settings name a cafe
const DefaultCafe = "Coffee Time"

// OfferedOn reports whether the dish can be ordered on day (YYYY-MM-DD).
// Dates are compared lexicographically, which is exact for ISO dates.
func (d Dish) OfferedOn(day string) bool {
	if !d.Active {
		return false
	}
	if d.StartDate != "" && d.StartDate > day {
		return false
	}
	if d.EndDate != "" && d.EndDate < day {
		return false
	}
	return true
}
