package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/activity"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/storage"
	"go.uber.org/zap"
)

const AggregateType = "Cart"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product id is required")
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrStockLimit      = errors.New("cannot add more than available stock")
)

// Line is one product/quantity pairing. The JSON shape is the persisted
// snapshot format: the product fields plus quantity.
type Line struct {
	ProductID     int64   `json:"id"`
	Name          string  `json:"name"`
	Brand         string  `json:"brand"`
	Price         float64 `json:"price"`
	ImageName     string  `json:"imageName,omitempty"`
	ImageData     string  `json:"imageData,omitempty"`
	StockQuantity int     `json:"stockQuantity"`
	Quantity      int     `json:"quantity"`
}

// Subtotal is price times quantity for the line
func (l Line) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

func lineFromProduct(p product.Product, qty int) Line {
	return Line{
		ProductID:     p.ID,
		Name:          p.Name,
		Brand:         p.Brand,
		Price:         p.Price,
		ImageName:     p.ImageName,
		ImageData:     p.ImageData,
		StockQuantity: p.StockQuantity,
		Quantity:      qty,
	}
}

// Cart holds the ordered line list. At most one line exists per product and
// every line has quantity >= 1. Each mutation writes the new snapshot to the
// store before it becomes visible; if the write fails the cart is unchanged.
type Cart struct {
	mu        sync.RWMutex
	lines     []Line
	store     storage.KeyValueStore
	publisher activity.Publisher
	logger    *zap.Logger
}

// Load restores the cart from the store. A missing, unreadable or
// undecodable snapshot yields an empty cart.
func Load(ctx context.Context, store storage.KeyValueStore, publisher activity.Publisher, logger *zap.Logger) *Cart {
	if publisher == nil {
		publisher = activity.Nop{}
	}
	c := &Cart{
		store:     store,
		publisher: publisher,
		logger:    logger.With(zap.String("component", "cart")),
	}

	raw, ok, err := store.Get(ctx, storage.KeyCart)
	if err != nil {
		c.logger.Warn("failed to read cart snapshot, starting empty", zap.Error(err))
		return c
	}
	if !ok || raw == "" {
		return c
	}

	lines, err := decodeLines(raw)
	if err != nil {
		c.logger.Warn("discarding unreadable cart snapshot", zap.Error(err))
		return c
	}
	c.lines = lines
	return c
}

// decodeLines parses a snapshot and drops entries that would break the
// one-line-per-product or positive-quantity rules.
func decodeLines(raw string) ([]Line, error) {
	var decoded []Line
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(decoded))
	seen := make(map[int64]struct{}, len(decoded))
	for _, l := range decoded {
		if l.Quantity < 1 || l.ProductID == 0 {
			continue
		}
		if _, dup := seen[l.ProductID]; dup {
			continue
		}
		seen[l.ProductID] = struct{}{}
		lines = append(lines, l)
	}
	return lines, nil
}

// Add puts qty units of p into the cart, merging with an existing line and
// clamping to the product's stock. It fails with ErrStockLimit when the
// line is already at stock and with ErrOutOfStock when p has none left.
// Either way an existing line is first brought in line with p's stock.
func (c *Cart) Add(ctx context.Context, p product.Product, qty int) (Line, error) {
	if p.ID == 0 {
		return Line{}, ErrInvalidProduct
	}
	if qty < 1 {
		return Line{}, ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	next := slices.Clone(c.lines)
	var line Line
	if i := indexOf(next, p.ID); i >= 0 {
		if p.StockQuantity <= 0 || next[i].Quantity >= p.StockQuantity {
			return c.reconcileLocked(ctx, next, i, p)
		}
		// refresh product details, keep the accumulated quantity
		line = lineFromProduct(p, min(next[i].Quantity+qty, p.StockQuantity))
		next[i] = line
	} else {
		if p.StockQuantity <= 0 {
			return Line{}, ErrOutOfStock
		}
		line = lineFromProduct(p, min(qty, p.StockQuantity))
		next = append(next, line)
	}

	if err := c.commit(ctx, next); err != nil {
		return Line{}, err
	}

	c.publisher.Publish(ctx, AggregateType, EventItemAdded, ItemAddedToCart{
		ProductID: p.ID,
		Quantity:  line.Quantity,
		Price:     line.Price,
		AddedAt:   time.Now(),
	})
	return line, nil
}

// reconcileLocked refreshes line i from p when nothing more can be added.
// A sold-out product loses its line; otherwise the quantity is cut to the
// current stock.
func (c *Cart) reconcileLocked(ctx context.Context, next []Line, i int, p product.Product) (Line, error) {
	if p.StockQuantity <= 0 {
		if err := c.removeLocked(ctx, p.ID); err != nil {
			return Line{}, err
		}
		return Line{}, ErrOutOfStock
	}

	line := lineFromProduct(p, min(next[i].Quantity, p.StockQuantity))
	if line == next[i] {
		return line, ErrStockLimit
	}
	changed := line.Quantity != next[i].Quantity
	next[i] = line
	if err := c.commit(ctx, next); err != nil {
		return c.lines[i], err
	}
	if changed {
		c.publisher.Publish(ctx, AggregateType, EventQuantityChanged, CartItemQuantityChanged{
			ProductID: p.ID,
			Quantity:  line.Quantity,
			ChangedAt: time.Now(),
		})
	}
	return line, ErrStockLimit
}

// Remove drops the line for productID; absent products are a no-op
func (c *Cart) Remove(ctx context.Context, productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(ctx, productID)
}

func (c *Cart) removeLocked(ctx context.Context, productID int64) error {
	next := slices.DeleteFunc(slices.Clone(c.lines), func(l Line) bool {
		return l.ProductID == productID
	})
	if len(next) == len(c.lines) {
		return nil
	}

	if err := c.commit(ctx, next); err != nil {
		return err
	}

	c.publisher.Publish(ctx, AggregateType, EventItemRemoved, ItemRemovedFromCart{
		ProductID: productID,
		RemovedAt: time.Now(),
	})
	return nil
}

// UpdateQuantity sets the line quantity, clamped to [1, stock]. A quantity
// below 1 removes the line.
func (c *Cart) UpdateQuantity(ctx context.Context, productID int64, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if qty < 1 {
		return c.removeLocked(ctx, productID)
	}

	next := slices.Clone(c.lines)
	i := indexOf(next, productID)
	if i < 0 {
		return nil
	}
	next[i].Quantity = clampQuantity(qty, next[i].StockQuantity)
	if next[i].Quantity == c.lines[i].Quantity {
		return nil
	}

	if err := c.commit(ctx, next); err != nil {
		return err
	}

	c.publisher.Publish(ctx, AggregateType, EventQuantityChanged, CartItemQuantityChanged{
		ProductID: productID,
		Quantity:  next[i].Quantity,
		ChangedAt: time.Now(),
	})
	return nil
}

// Clear empties the cart
func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := len(c.lines)
	if err := c.commit(ctx, nil); err != nil {
		return err
	}

	c.publisher.Publish(ctx, AggregateType, EventCartCleared, CartCleared{
		ItemCount: count,
		ClearedAt: time.Now(),
	})
	return nil
}

// Discard empties the in-memory cart after the caller has already removed
// the persisted snapshot.
func (c *Cart) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Lines returns a copy of the lines in insertion order
func (c *Cart) Lines() []Line {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.lines)
}

// Line returns the line for productID
func (c *Cart) Line(productID int64) (Line, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := indexOf(c.lines, productID); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

func (c *Cart) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return c.Len() == 0
}

// Total is recomputed from the current lines on every call
func (c *Cart) Total() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return total(c.lines)
}

func total(lines []Line) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}

// commit persists next and then makes it the current line list
func (c *Cart) commit(ctx context.Context, next []Line) error {
	if next == nil {
		next = []Line{}
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := c.store.Set(ctx, storage.KeyCart, string(data)); err != nil {
		c.logger.Error("failed to persist cart", zap.Error(err))
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	c.lines = next
	return nil
}

func indexOf(lines []Line, productID int64) int {
	return slices.IndexFunc(lines, func(l Line) bool { return l.ProductID == productID })
}

func clampQuantity(qty, stock int) int {
	if stock < 1 {
		return 1
	}
	return max(1, min(qty, stock))
}
