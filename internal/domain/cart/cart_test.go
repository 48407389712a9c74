package cart

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/example/ec-storefront/internal/activity"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/storage"
	"github.com/example/ec-storefront/internal/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCart(t *testing.T, initial map[string]string) (*Cart, *mocks.MockStore, *activity.Recorder) {
	t.Helper()
	store := mocks.NewMockStore(initial)
	recorder := activity.NewRecorder()
	c := Load(context.Background(), store, recorder, zap.NewNop())
	return c, store, recorder
}

func testProduct(id int64, price float64, stock int) product.Product {
	return product.Product{
		ID:               id,
		Name:             "Product",
		Brand:            "Brand",
		Price:            price,
		StockQuantity:    stock,
		ProductAvailable: true,
	}
}

// ============================================
// Load Tests
// ============================================

func TestLoad_Empty(t *testing.T) {
	c, _, _ := newTestCart(t, nil)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0.0, c.Total())
}

func TestLoad_CorruptSnapshot(t *testing.T) {
	c, _, _ := newTestCart(t, map[string]string{storage.KeyCart: "{broken"})
	assert.True(t, c.IsEmpty())
}

func TestLoad_NonArraySnapshot(t *testing.T) {
	c, _, _ := newTestCart(t, map[string]string{storage.KeyCart: `{"id":1}`})
	assert.True(t, c.IsEmpty())
}

func TestLoad_DropsInvalidLines(t *testing.T) {
	raw := `[{"id":1,"price":2,"stockQuantity":5,"quantity":1},` +
		`{"id":1,"price":2,"stockQuantity":5,"quantity":3},` +
		`{"id":2,"price":2,"stockQuantity":5,"quantity":0}]`
	c, _, _ := newTestCart(t, map[string]string{storage.KeyCart: raw})

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(1), lines[0].ProductID)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestLoad_StoreError(t *testing.T) {
	store := mocks.NewMockStore(map[string]string{storage.KeyCart: "[]"})
	store.GetErr = errors.New("unavailable")

	c := Load(context.Background(), store, nil, zap.NewNop())

	assert.True(t, c.IsEmpty())
}

func TestCart_RoundTrip(t *testing.T) {
	c, store, _ := newTestCart(t, nil)
	ctx := context.Background()

	p := testProduct(1, 9.99, 10)
	p.Name = "Mouse"
	p.ImageName = "mouse.png"
	_, err := c.Add(ctx, p, 2)
	require.NoError(t, err)

	raw, ok := store.Value(storage.KeyCart)
	require.True(t, ok)
	assert.JSONEq(t,
		`[{"id":1,"name":"Mouse","brand":"Brand","price":9.99,"imageName":"mouse.png","stockQuantity":10,"quantity":2}]`,
		raw)

	reloaded := Load(ctx, store, nil, zap.NewNop())
	assert.Equal(t, c.Lines(), reloaded.Lines())

	again, err := json.Marshal(reloaded.Lines())
	require.NoError(t, err)
	assert.Equal(t, raw, string(again))
}

// ============================================
// Add Tests
// ============================================

func TestCart_Add_NewLine(t *testing.T) {
	c, store, recorder := newTestCart(t, nil)

	line, err := c.Add(context.Background(), testProduct(5, 10, 3), 1)

	require.NoError(t, err)
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, 1, c.Len())
	assert.Len(t, store.SetCalls, 1)
	assert.Equal(t, []string{EventItemAdded}, recorder.EventTypes())
}

func TestCart_Add_MergesExistingLine(t *testing.T) {
	c, _, _ := newTestCart(t, nil)
	ctx := context.Background()

	_, err := c.Add(ctx, testProduct(5, 10, 10), 2)
	require.NoError(t, err)
	_, err = c.Add(ctx, testProduct(6, 1, 10), 1)
	require.NoError(t, err)
	line, err := c.Add(ctx, testProduct(5, 12, 10), 3)
	require.NoError(t, err)

	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, 12.0, line.Price)
	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, int64(5), lines[0].ProductID)
	assert.Equal(t, int64(6), lines[1].ProductID)
}

func TestCart_Add_ClampsToStock(t *testing.T) {
	c, _, _ := newTestCart(t, nil)

	line, err := c.Add(context.Background(), testProduct(1, 1, 3), 7)

	require.NoError(t, err)
	assert.Equal(t, 3, line.Quantity)
}

func TestCart_Add_AtStockLimit(t *testing.T) {
	c, store, _ := newTestCart(t, nil)
	ctx := context.Background()

	_, err := c.Add(ctx, testProduct(1, 1, 2), 2)
	require.NoError(t, err)

	_, err = c.Add(ctx, testProduct(1, 1, 2), 1)

	assert.ErrorIs(t, err, ErrStockLimit)
	line, _ := c.Line(1)
	assert.Equal(t, 2, line.Quantity)
	assert.Len(t, store.SetCalls, 1)
}

func TestCart_Add_AtStockLimitClampsStaleLine(t *testing.T) {
	snapshot := `[{"id":1,"name":"Product","brand":"Brand","price":1,"stockQuantity":10,"quantity":8}]`
	c, store, recorder := newTestCart(t, map[string]string{storage.KeyCart: snapshot})

	line, err := c.Add(context.Background(), testProduct(1, 1, 3), 1)

	assert.ErrorIs(t, err, ErrStockLimit)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, 3, line.StockQuantity)
	stored, _ := c.Line(1)
	assert.Equal(t, line, stored)
	assert.Len(t, store.SetCalls, 1)
	assert.Equal(t, []string{EventQuantityChanged}, recorder.EventTypes())
}

func TestCart_Add_SoldOutDropsLine(t *testing.T) {
	snapshot := `[{"id":1,"name":"Product","brand":"Brand","price":1,"stockQuantity":10,"quantity":2}]`
	c, _, _ := newTestCart(t, map[string]string{storage.KeyCart: snapshot})

	_, err := c.Add(context.Background(), testProduct(1, 1, 0), 1)

	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.True(t, c.IsEmpty())
}

func TestCart_Add_StaleLineStoreFailure(t *testing.T) {
	snapshot := `[{"id":1,"name":"Product","brand":"Brand","price":1,"stockQuantity":10,"quantity":8}]`
	c, store, _ := newTestCart(t, map[string]string{storage.KeyCart: snapshot})
	store.SetErr = errors.New("unavailable")

	_, err := c.Add(context.Background(), testProduct(1, 1, 3), 1)

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrStockLimit)
	line, _ := c.Line(1)
	assert.Equal(t, 8, line.Quantity)
}

func TestCart_Add_Validation(t *testing.T) {
	tests := []struct {
		name string
		p    product.Product
		qty  int
		want error
	}{
		{"missing id", testProduct(0, 1, 1), 1, ErrInvalidProduct},
		{"zero quantity", testProduct(1, 1, 1), 0, ErrInvalidQuantity},
		{"negative quantity", testProduct(1, 1, 1), -2, ErrInvalidQuantity},
		{"out of stock", testProduct(1, 1, 0), 1, ErrOutOfStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store, _ := newTestCart(t, nil)
			_, err := c.Add(context.Background(), tt.p, tt.qty)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, c.IsEmpty())
			assert.Empty(t, store.SetCalls)
		})
	}
}

func TestCart_Add_PersistFailureLeavesCartUnchanged(t *testing.T) {
	c, store, recorder := newTestCart(t, nil)
	store.SetErr = errors.New("quota exceeded")

	_, err := c.Add(context.Background(), testProduct(1, 1, 5), 1)

	assert.Error(t, err)
	assert.True(t, c.IsEmpty())
	assert.Empty(t, recorder.Events())
}

// ============================================
// Remove / Update / Clear Tests
// ============================================

func TestCart_Remove(t *testing.T) {
	c, store, recorder := newTestCart(t, nil)
	ctx := context.Background()
	_, _ = c.Add(ctx, testProduct(1, 1, 5), 1)
	_, _ = c.Add(ctx, testProduct(2, 1, 5), 1)

	require.NoError(t, c.Remove(ctx, 1))

	assert.Equal(t, 1, c.Len())
	_, ok := c.Line(1)
	assert.False(t, ok)
	raw, _ := store.Value(storage.KeyCart)
	assert.NotContains(t, raw, `"id":1,`)
	assert.Contains(t, recorder.EventTypes(), EventItemRemoved)
}

func TestCart_Remove_AbsentIsNoop(t *testing.T) {
	c, store, recorder := newTestCart(t, nil)
	ctx := context.Background()
	_, _ = c.Add(ctx, testProduct(1, 1, 5), 1)

	require.NoError(t, c.Remove(ctx, 99))

	assert.Equal(t, 1, c.Len())
	assert.Len(t, store.SetCalls, 1)
	assert.NotContains(t, recorder.EventTypes(), EventItemRemoved)
}

func TestCart_UpdateQuantity(t *testing.T) {
	c, _, recorder := newTestCart(t, nil)
	ctx := context.Background()
	_, _ = c.Add(ctx, testProduct(1, 2.5, 5), 1)

	require.NoError(t, c.UpdateQuantity(ctx, 1, 4))

	line, _ := c.Line(1)
	assert.Equal(t, 4, line.Quantity)
	assert.Equal(t, 10.0, c.Total())
	assert.Contains(t, recorder.EventTypes(), EventQuantityChanged)
}

func TestCart_UpdateQuantity_ClampsToStock(t *testing.T) {
	c, _, _ := newTestCart(t, nil)
	ctx := context.Background()
	_, _ = c.Add(ctx, testProduct(1, 1, 5), 1)

	require.NoError(t, c.UpdateQuantity(ctx, 1, 50))

	line, _ := c.Line(1)
	assert.Equal(t, 5, line.Quantity)
}

func TestCart_UpdateQuantity_BelowOneRemoves(t *testing.T) {
	c, store, _ := newTestCart(t, nil)
	ctx := context.Background()
	_, _ = c.Add(ctx, testProduct(1, 1, 5), 3)

	require.NoError(t, c.UpdateQuantity(ctx, 1, 0))

	assert.True(t, c.IsEmpty())
	raw, _ := store.Value(storage.KeyCart)
	assert.Equal(t, "[]", raw)
}

func TestCart_UpdateQuantity_NonPositiveStockKeepsOne(t *testing.T) {
	raw := `[{"id":1,"price":2,"stockQuantity":0,"quantity":1}]`
	c, _, _ := newTestCart(t, map[string]string{storage.KeyCart: raw})

	require.NoError(t, c.UpdateQuantity(context.Background(), 1, 3))

	line, ok := c.Line(1)
	require.True(t, ok)
	assert.Equal(t, 1, line.Quantity)
}

func TestCart_UpdateQuantity_Absent(t *testing.T) {
	c, store, _ := newTestCart(t, nil)

	require.NoError(t, c.UpdateQuantity(context.Background(), 42, 2))

	assert.True(t, c.IsEmpty())
	assert.Empty(t, store.SetCalls)
}

func TestCart_Clear(t *testing.T) {
	c, store, recorder := newTestCart(t, nil)
	ctx := context.Background()
	_, _ = c.Add(ctx, testProduct(1, 1, 5), 1)

	require.NoError(t, c.Clear(ctx))

	assert.True(t, c.IsEmpty())
	raw, _ := store.Value(storage.KeyCart)
	assert.Equal(t, "[]", raw)
	assert.Equal(t, EventCartCleared, recorder.EventTypes()[len(recorder.EventTypes())-1])
}

func TestCart_LinesReturnsCopy(t *testing.T) {
	c, _, _ := newTestCart(t, nil)
	_, _ = c.Add(context.Background(), testProduct(1, 1, 5), 1)

	lines := c.Lines()
	lines[0].Quantity = 99

	line, _ := c.Line(1)
	assert.Equal(t, 1, line.Quantity)
}

// ============================================
// Invariant Tests
// ============================================

func TestCart_RandomOperationsKeepInvariants(t *testing.T) {
	c, store, _ := newTestCart(t, nil)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		id := int64(rng.Intn(6) + 1)
		stock := rng.Intn(4) + 1
		switch rng.Intn(3) {
		case 0:
			_, _ = c.Add(ctx, testProduct(id, float64(id)*1.25, stock), rng.Intn(3)+1)
		case 1:
			require.NoError(t, c.Remove(ctx, id))
		case 2:
			require.NoError(t, c.UpdateQuantity(ctx, id, rng.Intn(8)-2))
		}

		lines := c.Lines()
		seen := make(map[int64]bool)
		var want float64
		for _, l := range lines {
			assert.False(t, seen[l.ProductID], "duplicate line for product %d", l.ProductID)
			seen[l.ProductID] = true
			assert.GreaterOrEqual(t, l.Quantity, 1)
			assert.LessOrEqual(t, l.Quantity, l.StockQuantity)
			want += l.Price * float64(l.Quantity)
		}
		assert.InDelta(t, want, c.Total(), 1e-9)

		reloaded := Load(ctx, store, nil, zap.NewNop())
		assert.Equal(t, lines, reloaded.Lines())
	}
}
