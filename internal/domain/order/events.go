package order

import "time"

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type OrderPlaced struct {
	OrderID      string        `json:"order_id"`
	CustomerName string        `json:"customer_name"`
	Items        []RequestItem `json:"items"`
	Total        float64       `json:"total"`
	PlacedAt     time.Time     `json:"placed_at"`
}

type OrderStatusChanged struct {
	OrderID   string    `json:"order_id"`
	Status    Status    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
}
