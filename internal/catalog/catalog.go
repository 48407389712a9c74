package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/notify"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const loadFailedMessage = "Failed to load products"

// Source fetches the full product list
type Source interface {
	ListProducts(ctx context.Context) ([]product.Product, error)
}

// Catalog caches the product list for read-only consumers
type Catalog struct {
	source   Source
	notifier notify.Notifier
	logger   *zap.Logger
	group    singleflight.Group

	mu          sync.RWMutex
	products    []product.Product
	loading     bool
	lastErr     error
	refreshedAt time.Time
}

func New(source Source, notifier notify.Notifier, logger *zap.Logger) *Catalog {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &Catalog{
		source:   source,
		notifier: notifier,
		logger:   logger.With(zap.String("component", "catalog")),
		products: []product.Product{},
	}
}

// Refresh replaces the cached list with the backend's. On any failure the
// cache is emptied rather than left stale, and a single notice is raised.
// Concurrent calls share one request and one outcome.
func (c *Catalog) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("products", func() (any, error) {
		c.setLoading(true)
		products, err := c.source.ListProducts(ctx)
		c.settle(products, err)
		return nil, err
	})
	return err
}

func (c *Catalog) setLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = loading
}

func (c *Catalog) settle(products []product.Product, err error) {
	c.mu.Lock()
	c.loading = false
	c.lastErr = err
	if err != nil {
		c.products = []product.Product{}
	} else {
		if products == nil {
			products = []product.Product{}
		}
		c.products = products
		c.refreshedAt = time.Now()
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("failed to fetch products", zap.Error(err))
		notify.Error(c.notifier, loadFailedMessage)
		return
	}
	c.logger.Debug("catalog refreshed", zap.Int("products", len(products)))
}

// Products returns a copy of the cached list
func (c *Catalog) Products() []product.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]product.Product{}, c.products...)
}

// Loading is true strictly while a refresh is in flight
func (c *Catalog) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the outcome of the last refresh
func (c *Catalog) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// RefreshedAt is the time of the last successful refresh
func (c *Catalog) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshedAt
}

func (c *Catalog) Product(id int64) (product.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return product.Product{}, false
}

func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return product.Categories(c.products)
}

// ByCategory filters the cached list; an empty category returns everything
func (c *Catalog) ByCategory(category string) []product.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return product.FilterByCategory(c.products, category)
}
