package shop

type OrderStatus string

// OrderStatusCompleted is the only persisted status. Orders that fail
// validation or payment are never stored.
const OrderStatusCompleted OrderStatus = "completed"

type Order struct {
	ID       string      `json:"id"`
	Products []string    `json:"products"`
	Total    float64     `json:"total"`
	Status   OrderStatus `json:"status"`
}

// StressResult is the outcome of a synthetic CPU-bound run.
type StressResult struct {
	Status string  `json:"status"`
	Result float64 `json:"result"`
}
