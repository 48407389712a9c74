package cart

import "math"

const (
	freeShippingOver = 999
	flatShipping     = 99
	taxRate          = 0.18
)

// Summary is the checkout breakdown shown next to the cart
type Summary struct {
	Items      int     `json:"items"`
	Subtotal   float64 `json:"subtotal"`
	Shipping   float64 `json:"shipping"`
	Tax        float64 `json:"tax"`
	GrandTotal float64 `json:"grand_total"`
}

// Summarize computes the breakdown for the current lines
func (c *Cart) Summarize() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return summarize(c.lines)
}

func summarize(lines []Line) Summary {
	subtotal := total(lines)
	s := Summary{Subtotal: subtotal}
	for _, l := range lines {
		s.Items += l.Quantity
	}
	if len(lines) == 0 {
		return s
	}
	if subtotal <= freeShippingOver {
		s.Shipping = flatShipping
	}
	s.Tax = math.Round(subtotal * taxRate)
	s.GrandTotal = s.Subtotal + s.Shipping + s.Tax
	return s
}
