package product

import (
	"errors"
	"strings"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrInvalidName      = errors.New("product name is required")
	ErrInvalidBrand     = errors.New("brand is required")
	ErrInvalidDesc      = errors.New("description is required")
	ErrInvalidPrice     = errors.New("price must be greater than zero")
	ErrInvalidCategory  = errors.New("category is required")
	ErrInvalidStock     = errors.New("stock quantity cannot be negative")
	ErrInvalidRelease   = errors.New("release date is required")
	ErrMissingImageFile = errors.New("product image is required")
)

// Product is owned by the backend; the client only reads it, except for the
// admin create/update forms.
type Product struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Brand            string  `json:"brand"`
	Description      string  `json:"description"`
	Category         string  `json:"category"`
	Price            float64 `json:"price"`
	StockQuantity    int     `json:"stockQuantity"`
	ProductAvailable bool    `json:"productAvailable"`
	ReleaseDate      string  `json:"releaseDate,omitempty"`
	ImageName        string  `json:"imageName,omitempty"`
	ImageType        string  `json:"imageType,omitempty"`
	ImageData        string  `json:"imageData,omitempty"`
}

// InStock reports whether the product can be added to a cart
func (p Product) InStock() bool {
	return p.ProductAvailable && p.StockQuantity > 0
}

// LowStock reports the "only N left" condition shown next to listings
func (p Product) LowStock() bool {
	return p.StockQuantity > 0 && p.StockQuantity <= 5
}

// Validate checks the fields the admin forms require before upload
func (p Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return ErrInvalidName
	case strings.TrimSpace(p.Brand) == "":
		return ErrInvalidBrand
	case strings.TrimSpace(p.Description) == "":
		return ErrInvalidDesc
	case p.Price <= 0:
		return ErrInvalidPrice
	case p.Category == "":
		return ErrInvalidCategory
	case p.StockQuantity < 0:
		return ErrInvalidStock
	case p.ReleaseDate == "":
		return ErrInvalidRelease
	}
	return nil
}

// Categories returns the distinct non-empty categories in first-seen order
func Categories(products []Product) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// FilterByCategory returns the products in category; an empty category
// matches everything.
func FilterByCategory(products []Product, category string) []Product {
	if category == "" {
		return append([]Product(nil), products...)
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}
