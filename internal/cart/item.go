package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductID is the opaque catalog key. The catalog serves numeric ids, so
// both JSON numbers and strings decode into it.
type ProductID string

func (id *ProductID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("product id: %w", err)
		}
		*id = ProductID(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

func (id ProductID) String() string { return string(id) }

// Product is the catalog snapshot taken when an item is added.
type Product struct {
	ID          ProductID
	Name        string
	Description string
	ImageURL    string
	Price       decimal.Decimal
}

type LineItem struct {
	ID          ProductID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

func (li LineItem) LineTotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

var errInvalidSnapshot = errors.New("invalid cart snapshot")

func decodeSnapshot(raw string) ([]LineItem, error) {
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidSnapshot, err)
	}
	seen := make(map[ProductID]struct{}, len(items))
	for i, it := range items {
		items[i].Quantity = min(it.Quantity, MaxQuantity)
		switch {
		case it.ID == "":
			return nil, fmt.Errorf("%w: item %d has no id", errInvalidSnapshot, i)
		case it.Quantity < 1:
			return nil, fmt.Errorf("%w: item %s quantity %d", errInvalidSnapshot, it.ID, it.Quantity)
		case it.Price.IsNegative():
			return nil, fmt.Errorf("%w: item %s negative price", errInvalidSnapshot, it.ID)
		}
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate item %s", errInvalidSnapshot, it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return items, nil
}
