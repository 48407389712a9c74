package mockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/ec-storefront/internal/apiclient"
	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "mockapi-test-secret-at-least-32-chars"

type testServer struct {
	store *Store
	jwt   *auth.JWTService
	srv   *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := NewStore()
	Seed(store)
	require.NoError(t, AddUser(store, "admin", "admin1234", "Admin", true))
	jwtService := auth.NewJWTService(testSecret, time.Hour)
	srv := httptest.NewServer(NewRouter(RouterConfig{Store: store, JWTService: jwtService}))
	t.Cleanup(srv.Close)
	return &testServer{store: store, jwt: jwtService, srv: srv}
}

func (ts *testServer) client(token string) *apiclient.Client {
	return apiclient.New(apiclient.Options{
		BaseURL: ts.srv.URL + "/api",
		Token:   func() string { return token },
	})
}

func (ts *testServer) token(t *testing.T, username string, admin bool) string {
	t.Helper()
	token, _, err := ts.jwt.GenerateAccessToken(username, admin)
	require.NoError(t, err)
	return token
}

// ============================================
// Auth
// ============================================

func TestAuth_RegisterThenLogin(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	client := ts.client("")

	registered, err := client.Register(ctx, "alice", "secret123", "Alice A")
	require.NoError(t, err)
	assert.Equal(t, "alice", registered.Username)
	assert.False(t, registered.Admin)

	loggedIn, err := client.Login(ctx, "alice", "secret123")
	require.NoError(t, err)
	claims, err := ts.jwt.ValidateAccessToken(loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestAuth_Failures(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	client := ts.client("")

	_, err := client.Login(ctx, "admin", "wrong-password")
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)

	_, err = client.Register(ctx, "admin", "whatever123", "")
	assert.Equal(t, http.StatusConflict, apiclient.StatusCode(err))

	_, err = client.Register(ctx, "shorty", "short", "")
	assert.Equal(t, http.StatusBadRequest, apiclient.StatusCode(err))
}

func TestAuth_AdminLogin(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.client("").Login(context.Background(), "admin", "admin1234")

	require.NoError(t, err)
	assert.True(t, resp.Admin)
}

// ============================================
// Products
// ============================================

func TestProducts_PublicRead(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	client := ts.client("")

	products, err := client.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 5)

	p, err := client.GetProduct(ctx, products[0].ID)
	require.NoError(t, err)
	assert.Equal(t, products[0].Name, p.Name)

	found, err := client.SearchProducts(ctx, "sony")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "WH-1000XM5", found[0].Name)

	img, contentType, err := client.ProductImage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, placeholderPNG, img)

	_, err = client.GetProduct(ctx, 999)
	assert.ErrorIs(t, err, apiclient.ErrNotFound)
}

func TestProducts_InvalidTokenRejectedOnPublicRoute(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.client("garbage").ListProducts(context.Background())

	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
}

func TestProducts_AdminWrites(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	admin := ts.client(ts.token(t, "admin", true))
	newProduct := product.Product{
		Name: "iPad", Brand: "Apple", Description: "Tablet", Category: "Tablet",
		Price: 499, StockQuantity: 4, ProductAvailable: true, ReleaseDate: "2024-05-01",
	}

	created, err := admin.CreateProduct(ctx, newProduct, apiclient.Image{Name: "ipad.png", ContentType: "image/png", Data: placeholderPNG})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "ipad.png", created.ImageName)

	created.Price = 449
	require.NoError(t, admin.UpdateProduct(ctx, created.ID, created, nil))
	got, _ := ts.store.Product(created.ID)
	assert.Equal(t, 449.0, got.Price)
	assert.Equal(t, "ipad.png", got.ImageName)

	require.NoError(t, admin.DeleteProduct(ctx, created.ID))
	_, ok := ts.store.Product(created.ID)
	assert.False(t, ok)
}

func TestProducts_CreateRequiresImage(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.client(ts.token(t, "admin", true))

	_, err := admin.CreateProduct(context.Background(), product.Product{Name: "X"}, apiclient.Image{})

	assert.Equal(t, http.StatusBadRequest, apiclient.StatusCode(err))
}

func TestProducts_WritesNeedAdmin(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	err := ts.client("").DeleteProduct(ctx, 1)
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)

	err = ts.client(ts.token(t, "bob", false)).DeleteProduct(ctx, 1)
	assert.ErrorIs(t, err, apiclient.ErrForbidden)
}

// ============================================
// Orders
// ============================================

func TestOrders_PlaceAndList(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	bob := ts.client(ts.token(t, "bob", false))
	before, _ := ts.store.Product(1)

	placed, err := bob.PlaceOrder(ctx, order.Request{
		CustomerName: "Bob",
		Email:        "bob@example.com",
		Items:        []order.RequestItem{{ProductID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, order.StatusPlaced, placed.Status)
	require.Len(t, placed.Items, 1)
	assert.Equal(t, before.Price*2, placed.Items[0].TotalPrice)

	after, _ := ts.store.Product(1)
	assert.Equal(t, before.StockQuantity-2, after.StockQuantity)

	mine, err := bob.MyOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	other, err := ts.client(ts.token(t, "carol", false)).MyOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = bob.AllOrders(ctx)
	assert.ErrorIs(t, err, apiclient.ErrForbidden)
}

func TestOrders_InsufficientStock(t *testing.T) {
	ts := newTestServer(t)
	bob := ts.client(ts.token(t, "bob", false))

	_, err := bob.PlaceOrder(context.Background(), order.Request{
		CustomerName: "Bob",
		Email:        "bob@example.com",
		Items:        []order.RequestItem{{ProductID: 2, Quantity: 2}, {ProductID: 2, Quantity: 2}},
	})

	assert.Equal(t, http.StatusConflict, apiclient.StatusCode(err))
	p, _ := ts.store.Product(2)
	assert.Equal(t, 3, p.StockQuantity)
}

func TestOrders_RequireLogin(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.client("").MyOrders(context.Background())

	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
}

func TestOrders_AdminStatusUpdate(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	bob := ts.client(ts.token(t, "bob", false))
	admin := ts.client(ts.token(t, "admin", true))
	placed, err := bob.PlaceOrder(ctx, order.Request{
		CustomerName: "Bob", Email: "bob@example.com",
		Items: []order.RequestItem{{ProductID: 4, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, admin.UpdateOrderStatus(ctx, placed.OrderID, order.StatusShipped))

	all, err := admin.AllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, order.StatusShipped, all[0].Status)

	err = admin.UpdateOrderStatus(ctx, placed.OrderID, "LOST")
	assert.Equal(t, http.StatusBadRequest, apiclient.StatusCode(err))
	err = admin.UpdateOrderStatus(ctx, "999", order.StatusShipped)
	assert.ErrorIs(t, err, apiclient.ErrNotFound)
}

func TestRouter_MalformedBody(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.srv.URL+"/api/auth/login", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Invalid request body", body["message"])
}
