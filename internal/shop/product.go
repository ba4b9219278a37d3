package shop

// Product is a purchasable item. Price and stock are stored as registered.
// Order fulfilment decrements stock and never drives it below zero.
type Product struct {
	ID    string  `json:"id" validate:"required"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}
