package models

// CartItem is a dish snapshot taken when it was added to a cart
type CartItem struct {
	DishID      string `json:"dish_id"`
	Name        string `json:"name"`
	Price       int    `json:"price"`
	Quantity    int    `json:"quantity"`
	Cafe        string `json:"cafe"`
	Description string `json:"description"`
}

// Subtotal returns price times quantity
func (i CartItem) Subtotal() int {
	return i.Price * i.Quantity
}
