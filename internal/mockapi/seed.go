package mockapi

import (
	"github.com/example/ec-storefront/internal/domain/product"
)

// placeholder 1x1 PNG
var placeholderPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// Seed loads a small demo catalog
func Seed(store *Store) {
	samples := []product.Product{
		{Name: "Galaxy S24", Brand: "Samsung", Description: "6.2 inch flagship phone", Category: "Mobile", Price: 799, StockQuantity: 12, ReleaseDate: "2024-01-31"},
		{Name: "Pixel 8", Brand: "Google", Description: "Tensor G3 phone", Category: "Mobile", Price: 699, StockQuantity: 3, ReleaseDate: "2023-10-12"},
		{Name: "ThinkPad X1", Brand: "Lenovo", Description: "14 inch business laptop", Category: "Laptop", Price: 1499, StockQuantity: 5, ReleaseDate: "2024-03-01"},
		{Name: "WH-1000XM5", Brand: "Sony", Description: "Noise cancelling headphones", Category: "Headphone", Price: 349, StockQuantity: 20, ReleaseDate: "2022-05-20"},
		{Name: "USB-C Cable", Brand: "Anker", Description: "1m braided cable", Category: "Electronics", Price: 12.99, StockQuantity: 0, ReleaseDate: "2021-07-01"},
	}
	for _, p := range samples {
		p.ProductAvailable = p.StockQuantity > 0
		p.ImageName = "placeholder.png"
		p.ImageType = "image/png"
		store.AddProduct(p, placeholderPNG, "image/png")
	}
}
