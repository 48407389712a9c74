package cart

import "time"

const (
	EventItemAdded       = "ItemAddedToCart"
	EventItemRemoved     = "ItemRemovedFromCart"
	EventQuantityChanged = "CartItemQuantityChanged"
	EventCartCleared     = "CartCleared"
)

type ItemAddedToCart struct {
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	AddedAt   time.Time `json:"added_at"`
}

type ItemRemovedFromCart struct {
	ProductID int64     `json:"product_id"`
	RemovedAt time.Time `json:"removed_at"`
}

type CartItemQuantityChanged struct {
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	ChangedAt time.Time `json:"changed_at"`
}

type CartCleared struct {
	ItemCount int       `json:"item_count"`
	ClearedAt time.Time `json:"cleared_at"`
}
