package order

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const AggregateType = "Order"

type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusAccepted  Status = "ACCEPTED"
	StatusPacked    Status = "PACKED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// Statuses lists every status in fulfilment order
var Statuses = []Status{
	StatusPlaced,
	StatusAccepted,
	StatusPacked,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

var (
	ErrEmptyOrder      = errors.New("order must have at least one item")
	ErrInvalidStatus   = errors.New("invalid order status")
	ErrInvalidCustomer = errors.New("customer name and email are required")
	ErrInvalidItem     = errors.New("order item needs a product and a positive quantity")
)

// ParseStatus accepts a status name in any case
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Pending reports whether the order has not left the warehouse yet
func (s Status) Pending() bool {
	return s == StatusPlaced || s == StatusAccepted || s == StatusPacked
}

// RequestItem is one line of an order submission
type RequestItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Request is the body of POST /orders
type Request struct {
	CustomerName string        `json:"customerName"`
	Email        string        `json:"email"`
	Items        []RequestItem `json:"items"`
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.CustomerName) == "" || strings.TrimSpace(r.Email) == "" {
		return ErrInvalidCustomer
	}
	if len(r.Items) == 0 {
		return ErrEmptyOrder
	}
	for _, item := range r.Items {
		if item.ProductID == 0 || item.Quantity < 1 {
			return ErrInvalidItem
		}
	}
	return nil
}

// ID is an order identifier. Backends return it either as a number or as a
// string; both decode to the same textual form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("order id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

type Item struct {
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	TotalPrice  float64 `json:"totalPrice"`
}

// Order is the confirmation and history shape returned by the backend
type Order struct {
	OrderID      ID     `json:"orderId"`
	CustomerName string `json:"customerName"`
	Email        string `json:"email"`
	Status       Status `json:"status"`
	OrderDate    string `json:"orderDate,omitempty"`
	Items        []Item `json:"items"`
}

// Total sums the item totals
func (o Order) Total() float64 {
	var sum float64
	for _, item := range o.Items {
		sum += item.TotalPrice
	}
	return sum
}

// PlacedAt parses OrderDate. Both RFC 3339 and the zone-less
// LocalDateTime form are accepted.
func (o Order) PlacedAt() (time.Time, bool) {
	if o.OrderDate == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"} {
		if t, err := time.Parse(layout, o.OrderDate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Filter returns the orders matching term and status. term matches the
// order id, or the customer name or email case-insensitively. An empty
// term or status matches everything.
func Filter(orders []Order, term string, status Status) []Order {
	term = strings.ToLower(strings.TrimSpace(term))
	result := make([]Order, 0, len(orders))
	for _, o := range orders {
		if status != "" && o.Status != status {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(o.CustomerName), term) &&
			!strings.Contains(strings.ToLower(o.Email), term) &&
			!strings.Contains(strings.ToLower(string(o.OrderID)), term) {
			continue
		}
		result = append(result, o)
	}
	return result
}

// Stats counts orders by fulfilment stage
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Shipped   int `json:"shipped"`
	Delivered int `json:"delivered"`
}

func Summarize(orders []Order) Stats {
	stats := Stats{Total: len(orders)}
	for _, o := range orders {
		switch {
		case o.Status.Pending():
			stats.Pending++
		case o.Status == StatusShipped:
			stats.Shipped++
		case o.Status == StatusDelivered:
			stats.Delivered++
		}
	}
	return stats
}
