package app

import (
	"context"
	"errors"

	"github.com/example/ec-storefront/internal/apiclient"
	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/notify"
	"go.uber.org/zap"
)

// AddToCart adds a catalog product to the cart
func (s *State) AddToCart(ctx context.Context, productID int64, qty int) (cart.Line, error) {
	p, ok := s.catalog.Product(productID)
	if !ok {
		notify.Error(s.notifier, "Product not found")
		return cart.Line{}, ErrUnknownProduct
	}
	line, err := s.cart.Add(ctx, p, qty)
	switch {
	case errors.Is(err, cart.ErrOutOfStock):
		notify.Error(s.notifier, "Product is out of stock")
	case errors.Is(err, cart.ErrStockLimit):
		notify.Error(s.notifier, "Cannot add more than available stock")
	case err != nil:
		notify.Error(s.notifier, "Could not update the cart")
	default:
		notify.Success(s.notifier, "Added to cart")
	}
	return line, err
}

// PlaceOrder runs checkout for the current cart
func (s *State) PlaceOrder(ctx context.Context, customerName, email string) (order.Order, error) {
	return s.checkout.PlaceOrder(ctx, customerName, email)
}

// RefreshProducts re-fetches the catalog on demand
func (s *State) RefreshProducts(ctx context.Context) error {
	return s.catalog.Refresh(ctx)
}

func (s *State) Product(ctx context.Context, id int64) (product.Product, error) {
	p, err := s.client.GetProduct(ctx, id)
	if err != nil {
		s.logger.Error("failed to fetch product", zap.Int64("product_id", id), zap.Error(err))
		notify.Error(s.notifier, "Failed to load product")
	}
	return p, err
}

func (s *State) ProductImage(ctx context.Context, id int64) ([]byte, string, error) {
	data, contentType, err := s.client.ProductImage(ctx, id)
	if err != nil {
		s.logger.Warn("failed to fetch product image", zap.Int64("product_id", id), zap.Error(err))
	}
	return data, contentType, err
}

// Search queries the backend. An unusable response is reported as no
// results.
func (s *State) Search(ctx context.Context, keyword string) ([]product.Product, error) {
	results, err := s.client.SearchProducts(ctx, keyword)
	if errors.Is(err, apiclient.ErrUnexpectedShape) {
		s.logger.Warn("search returned an unexpected shape", zap.Error(err))
		return []product.Product{}, nil
	}
	if err != nil {
		s.logger.Error("search failed", zap.String("keyword", keyword), zap.Error(err))
		notify.Error(s.notifier, "Search failed")
		return []product.Product{}, err
	}
	return results, nil
}

// MyOrders lists the signed-in user's orders
func (s *State) MyOrders(ctx context.Context) ([]order.Order, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}
	orders, err := s.client.MyOrders(ctx)
	return s.orderList(orders, err)
}

// AllOrders lists every order; admin only
func (s *State) AllOrders(ctx context.Context) ([]order.Order, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	orders, err := s.client.AllOrders(ctx)
	return s.orderList(orders, err)
}

func (s *State) orderList(orders []order.Order, err error) ([]order.Order, error) {
	if err != nil {
		s.logger.Error("failed to fetch orders", zap.Error(err))
		notify.Error(s.notifier, "Failed to fetch orders. Please try again later.")
		return []order.Order{}, err
	}
	return orders, nil
}

// UpdateOrderStatus changes an order's status; admin only
func (s *State) UpdateOrderStatus(ctx context.Context, id order.ID, status order.Status) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if !status.Valid() {
		notify.Error(s.notifier, "Unknown order status")
		return order.ErrInvalidStatus
	}
	if err := s.client.UpdateOrderStatus(ctx, id, status); err != nil {
		s.logger.Error("failed to update order status", zap.String("order_id", string(id)), zap.Error(err))
		notify.Error(s.notifier, "Failed to update status")
		return err
	}
	notify.Success(s.notifier, "Order status updated!")
	return nil
}

// CreateProduct uploads a product and refreshes the catalog; admin only
func (s *State) CreateProduct(ctx context.Context, p product.Product, image apiclient.Image) (product.Product, error) {
	if err := s.requireAdmin(); err != nil {
		return product.Product{}, err
	}
	if err := p.Validate(); err != nil {
		notify.Error(s.notifier, err.Error())
		return product.Product{}, err
	}
	if len(image.Data) == 0 {
		notify.Error(s.notifier, product.ErrMissingImageFile.Error())
		return product.Product{}, product.ErrMissingImageFile
	}
	created, err := s.client.CreateProduct(ctx, p, image)
	if err != nil {
		s.logger.Error("failed to create product", zap.Error(err))
		notify.Error(s.notifier, "Failed to add product")
		return product.Product{}, err
	}
	notify.Success(s.notifier, "Product added successfully")
	s.refreshAfterWrite(ctx)
	return created, nil
}

// UpdateProduct replaces a product; a nil image keeps the current one
func (s *State) UpdateProduct(ctx context.Context, id int64, p product.Product, image *apiclient.Image) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		notify.Error(s.notifier, err.Error())
		return err
	}
	if err := s.client.UpdateProduct(ctx, id, p, image); err != nil {
		s.logger.Error("failed to update product", zap.Int64("product_id", id), zap.Error(err))
		notify.Error(s.notifier, "Failed to update product")
		return err
	}
	notify.Success(s.notifier, "Product updated successfully")
	s.refreshAfterWrite(ctx)
	return nil
}

// DeleteProduct removes a product from the backend and from the cart
func (s *State) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := s.client.DeleteProduct(ctx, id); err != nil {
		s.logger.Error("failed to delete product", zap.Int64("product_id", id), zap.Error(err))
		notify.Error(s.notifier, "Failed to delete product")
		return err
	}
	if err := s.cart.Remove(ctx, id); err != nil {
		s.logger.Warn("failed to drop deleted product from cart", zap.Int64("product_id", id), zap.Error(err))
	}
	notify.Success(s.notifier, "Product deleted successfully")
	s.refreshAfterWrite(ctx)
	return nil
}

func (s *State) refreshAfterWrite(ctx context.Context) {
	if err := s.catalog.Refresh(ctx); err != nil {
		s.logger.Warn("catalog refresh after write failed", zap.Error(err))
	}
}
