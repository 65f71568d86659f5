package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/cart"
)

var ErrNotFound = errors.New("product not found")

type Getter interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
}

// Client browses the catalog through the gateway.
type Client struct {
	API Getter
}

func NewClient(api Getter) *Client {
	return &Client{API: api}
}

type ListQuery struct {
	Page     int
	Size     int
	SortBy   string
	SortDir  string
	Category string
}

func (c *Client) Product(ctx context.Context, id cart.ProductID) (Product, error) {
	var raw json.RawMessage
	err := c.API.GetJSON(ctx, "/api/products/"+url.PathEscape(string(id)), nil, &raw)
	if apiclient.IsStatus(err, http.StatusNotFound) {
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}

	var p Product
	if err := apiclient.DecodeData(raw, &p); err != nil {
		return Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	if p.ID == "" {
		return Product{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

func (c *Client) List(ctx context.Context, q ListQuery) (Page, error) {
	page, size := Normalize(q.Page, q.Size)
	params := url.Values{
		"page": {strconv.Itoa(page - 1)},
		"size": {strconv.Itoa(size)},
	}
	if q.SortBy != "" {
		params.Set("sortBy", q.SortBy)
	}
	if q.SortDir == "asc" || q.SortDir == "desc" {
		params.Set("sortDir", q.SortDir)
	}

	path := "/api/products"
	if q.Category != "" {
		path = "/api/products/category/" + url.PathEscape(q.Category)
	}
	return c.page(ctx, path, params)
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var raw json.RawMessage
	if err := c.API.GetJSON(ctx, "/api/products/categories", nil, &raw); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := []string{}
	if err := apiclient.DecodeData(raw, &out); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// Search runs the gateway's own product search. It serves when no
// Elasticsearch index is configured.
func (c *Client) Search(ctx context.Context, query string, page, size int) (Page, error) {
	page, size = Normalize(page, size)
	params := url.Values{
		"query": {query},
		"page":  {strconv.Itoa(page - 1)},
		"size":  {strconv.Itoa(size)},
	}
	return c.page(ctx, "/api/products/search", params)
}

func (c *Client) page(ctx context.Context, path string, params url.Values) (Page, error) {
	var raw json.RawMessage
	if err := c.API.GetJSON(ctx, path, params, &raw); err != nil {
		return Page{}, fmt.Errorf("list products: %w", err)
	}
	var sp springPage
	if err := apiclient.DecodeData(raw, &sp); err != nil {
		return Page{}, fmt.Errorf("list products: %w", err)
	}
	return sp.toPage(), nil
}
