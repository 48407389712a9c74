package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name  string
		lines []Line
		want  Summary
	}{
		{
			name:  "empty cart",
			lines: nil,
			want:  Summary{},
		},
		{
			name:  "flat shipping under threshold",
			lines: []Line{{ProductID: 1, Price: 100, Quantity: 2}},
			want:  Summary{Items: 2, Subtotal: 200, Shipping: 99, Tax: 36, GrandTotal: 335},
		},
		{
			name:  "threshold itself still pays shipping",
			lines: []Line{{ProductID: 1, Price: 999, Quantity: 1}},
			want:  Summary{Items: 1, Subtotal: 999, Shipping: 99, Tax: 180, GrandTotal: 1278},
		},
		{
			name:  "free shipping over threshold",
			lines: []Line{{ProductID: 1, Price: 500, Quantity: 1}, {ProductID: 2, Price: 600, Quantity: 1}},
			want:  Summary{Items: 2, Subtotal: 1100, Shipping: 0, Tax: 198, GrandTotal: 1298},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, summarize(tt.lines))
		})
	}
}

func TestCart_Summarize(t *testing.T) {
	c, _, _ := newTestCart(t, nil)
	_, err := c.Add(context.Background(), testProduct(1, 50, 10), 3)
	require.NoError(t, err)

	s := c.Summarize()

	assert.Equal(t, 3, s.Items)
	assert.Equal(t, 150.0, s.Subtotal)
	assert.Equal(t, c.Total(), s.Subtotal)
}
