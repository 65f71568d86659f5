package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/cart"
)

type Product struct {
	ID                 cart.ProductID  `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Price              decimal.Decimal `json:"price"`
	StockQuantity      int             `json:"stockQuantity"`
	Category           string          `json:"category,omitempty"`
	Brand              string          `json:"brand,omitempty"`
	ImageURL           string          `json:"imageUrl,omitempty"`
	AverageRating      float64         `json:"averageRating,omitempty"`
	ReviewCount        int             `json:"reviewCount,omitempty"`
	DiscountPercentage float64         `json:"discountPercentage,omitempty"`
	Active             *bool           `json:"active,omitempty"`
}

func (p Product) ToCart() cart.Product {
	return cart.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
	}
}

func (p Product) Available() bool {
	return p.Active == nil || *p.Active
}

// Page is a 1-based page of products.
type Page struct {
	Items      []Product `json:"items"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	Size       int       `json:"size"`
	TotalPages int       `json:"totalPages"`
}

func newPage(items []Product, total int64, page, size int) Page {
	if items == nil {
		items = []Product{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return Page{Items: items, Total: total, Page: page, Size: size, TotalPages: pages}
}

// springPage is the paged listing shape served by the gateway.
type springPage struct {
	Content       []Product `json:"content"`
	TotalElements int64     `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
	Number        int       `json:"number"`
	Size          int       `json:"size"`
}

func (sp springPage) toPage() Page {
	p := newPage(sp.Content, sp.TotalElements, sp.Number+1, sp.Size)
	if sp.TotalPages > 0 {
		p.TotalPages = sp.TotalPages
	}
	return p
}
