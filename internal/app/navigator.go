package app

import "sync"

type View string

const (
	ViewHome     View = "home"
	ViewLogin    View = "login"
	ViewRegister View = "register"
	ViewCart     View = "cart"
	ViewOrders   View = "orders"
	ViewAdmin    View = "admin"
)

// Navigator moves the user between views
type Navigator interface {
	Current() View
	Navigate(view View)
}

// History is an in-memory Navigator that remembers every transition
type History struct {
	mu      sync.Mutex
	current View
	visits  []View
}

func NewHistory(start View) *History {
	return &History{current: start}
}

func (h *History) Current() View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *History) Navigate(view View) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = view
	h.visits = append(h.visits, view)
}

// Visits returns every navigation in order
func (h *History) Visits() []View {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]View(nil), h.visits...)
}
