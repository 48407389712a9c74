package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/example/ec-storefront/internal/domain/order"
)

// PlaceOrder submits an order and returns the backend's confirmation
func (c *Client) PlaceOrder(ctx context.Context, req order.Request) (order.Order, error) {
	body, err := c.sendJSON(ctx, http.MethodPost, "/orders", req)
	if err != nil {
		return order.Order{}, err
	}
	return DecodeObject[order.Order](body)
}

// MyOrders lists the signed-in user's orders
func (c *Client) MyOrders(ctx context.Context) ([]order.Order, error) {
	body, err := c.getJSON(ctx, "/orders/my", nil)
	if err != nil {
		return nil, err
	}
	return DecodeList[order.Order](body)
}

// AllOrders lists every order; admin only
func (c *Client) AllOrders(ctx context.Context) ([]order.Order, error) {
	body, err := c.getJSON(ctx, "/orders", nil)
	if err != nil {
		return nil, err
	}
	return DecodeList[order.Order](body)
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id order.ID, status order.Status) error {
	_, err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/orders/" + url.PathEscape(string(id)) + "/status",
		query:  url.Values{"status": {string(status)}},
	})
	return err
}
