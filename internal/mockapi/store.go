package mockapi

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
)

var (
	ErrUserExists        = errors.New("username already taken")
	ErrUserNotFound      = errors.New("user not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type user struct {
	Username     string
	FullName     string
	PasswordHash string
	Admin        bool
}

type storedOrder struct {
	order.Order
	Username string
}

type image struct {
	contentType string
	data        []byte
}

// Store keeps every backend entity in memory
type Store struct {
	mu          sync.RWMutex
	products    []product.Product
	images      map[int64]image
	users       map[string]user
	orders      []storedOrder
	nextProduct int64
	nextOrder   int64
}

func NewStore() *Store {
	return &Store{
		images:      make(map[int64]image),
		users:       make(map[string]user),
		nextProduct: 1,
		nextOrder:   1,
	}
}

func (s *Store) Products() []product.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.products)
}

func (s *Store) Product(id int64) (product.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.productIndex(id); i >= 0 {
		return s.products[i], true
	}
	return product.Product{}, false
}

// Search matches keyword against name, brand, description and category
func (s *Store) Search(keyword string) []product.Product {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]product.Product, 0)
	for _, p := range s.products {
		fields := []string{p.Name, p.Brand, p.Description, p.Category}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), keyword) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func (s *Store) AddProduct(p product.Product, img []byte, contentType string) product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextProduct
	s.nextProduct++
	p.ImageData = ""
	s.products = append(s.products, p)
	if len(img) > 0 {
		s.images[p.ID] = image{contentType: contentType, data: img}
	}
	return p
}

// UpdateProduct replaces the product; a nil img keeps the stored image
func (s *Store) UpdateProduct(id int64, p product.Product, img []byte, contentType string) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndex(id)
	if i < 0 {
		return product.Product{}, product.ErrProductNotFound
	}
	p.ID = id
	p.ImageData = ""
	if img == nil {
		p.ImageName = s.products[i].ImageName
		p.ImageType = s.products[i].ImageType
	} else {
		s.images[id] = image{contentType: contentType, data: img}
	}
	s.products[i] = p
	return p, nil
}

func (s *Store) DeleteProduct(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndex(id)
	if i < 0 {
		return product.ErrProductNotFound
	}
	s.products = slices.Delete(s.products, i, i+1)
	delete(s.images, id)
	return nil
}

func (s *Store) Image(id int64) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[id]
	return img.data, img.contentType, ok
}

func (s *Store) productIndex(id int64) int {
	return slices.IndexFunc(s.products, func(p product.Product) bool { return p.ID == id })
}

func (s *Store) AddUser(u user) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.Username]; exists {
		return ErrUserExists
	}
	s.users[u.Username] = u
	return nil
}

func (s *Store) User(username string) (user, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	return u, ok
}

// PlaceOrder checks stock for every item before reserving any of it
func (s *Store) PlaceOrder(username string, req order.Request) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needed := make(map[int64]int, len(req.Items))
	items := make([]order.Item, 0, len(req.Items))
	for _, item := range req.Items {
		i := s.productIndex(item.ProductID)
		if i < 0 {
			return order.Order{}, product.ErrProductNotFound
		}
		p := s.products[i]
		needed[p.ID] += item.Quantity
		if p.StockQuantity < needed[p.ID] {
			return order.Order{}, ErrInsufficientStock
		}
		items = append(items, order.Item{
			ProductName: p.Name,
			Quantity:    item.Quantity,
			TotalPrice:  p.Price * float64(item.Quantity),
		})
	}
	for _, item := range req.Items {
		i := s.productIndex(item.ProductID)
		s.products[i].StockQuantity -= item.Quantity
		if s.products[i].StockQuantity == 0 {
			s.products[i].ProductAvailable = false
		}
	}

	o := order.Order{
		OrderID:      order.ID(strconv.FormatInt(s.nextOrder, 10)),
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Status:       order.StatusPlaced,
		OrderDate:    time.Now().UTC().Format("2006-01-02T15:04:05"),
		Items:        items,
	}
	s.nextOrder++
	s.orders = append(s.orders, storedOrder{Order: o, Username: username})
	return o, nil
}

// Orders returns every order for username, or all orders when username is empty
func (s *Store) Orders(username string) []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]order.Order, 0)
	for _, o := range s.orders {
		if username == "" || o.Username == username {
			out = append(out, o.Order)
		}
	}
	return out
}

func (s *Store) SetOrderStatus(id order.ID, status order.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].OrderID == id {
			s.orders[i].Status = status
			return nil
		}
	}
	return ErrOrderNotFound
}
