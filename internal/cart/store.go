// Package cart keeps a visitor's line items and the totals derived from
// them, persisting the whole collection after every mutation.
package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/storage"
)

const StorageKey = "cart"

// MaxQuantity caps a single line. Larger requests saturate at the cap.
const MaxQuantity = 999

type Store struct {
	storage storage.Storage

	items       []LineItem
	totalAmount decimal.Decimal
	itemCount   int

	err error
}

// Load restores the cart persisted in st. A missing, unreadable or malformed
// snapshot yields an empty cart.
func Load(ctx context.Context, st storage.Storage) *Store {
	l := logging.FromContext(ctx).With("component", "cart")
	s := &Store{storage: st, items: []LineItem{}}

	raw, ok, err := st.GetItem(ctx, StorageKey)
	switch {
	case err != nil:
		l.Warn("cart_restore_error", "error", err)
	case ok:
		items, err := decodeSnapshot(raw)
		if err != nil {
			l.Warn("cart_snapshot_discarded", "error", err)
			break
		}
		s.items = items
	}
	s.recompute()
	return s
}

func (s *Store) AddToCart(ctx context.Context, p Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	quantity = min(quantity, MaxQuantity)
	if i := s.index(p.ID); i >= 0 {
		s.items[i].Quantity = min(s.items[i].Quantity+quantity, MaxQuantity)
	} else {
		s.items = append(s.items, LineItem{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			ImageURL:    p.ImageURL,
			Price:       p.Price,
			Quantity:    quantity,
		})
	}
	s.commit(ctx)
}

func (s *Store) RemoveFromCart(ctx context.Context, id ProductID) {
	i := s.index(id)
	if i < 0 {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.commit(ctx)
}

// UpdateQuantity sets the quantity of an existing item; zero or less removes it.
func (s *Store) UpdateQuantity(ctx context.Context, id ProductID, quantity int) {
	if quantity <= 0 {
		s.RemoveFromCart(ctx, id)
		return
	}
	i := s.index(id)
	if i < 0 {
		return
	}
	s.items[i].Quantity = min(quantity, MaxQuantity)
	s.commit(ctx)
}

// ClearCart empties the cart and deletes the persisted snapshot.
func (s *Store) ClearCart(ctx context.Context) {
	s.items = []LineItem{}
	s.recompute()
	if err := s.storage.RemoveItem(ctx, StorageKey); err != nil {
		logging.FromContext(ctx).Error("cart_clear_error", "error", err)
		s.err = err
		return
	}
	s.err = nil
}

func (s *Store) IsInCart(id ProductID) bool {
	return s.index(id) >= 0
}

func (s *Store) GetItemQuantity(id ProductID) int {
	if i := s.index(id); i >= 0 {
		return s.items[i].Quantity
	}
	return 0
}

func (s *Store) Items() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) TotalAmount() decimal.Decimal { return s.totalAmount }

func (s *Store) ItemCount() int { return s.itemCount }

func (s *Store) IsEmpty() bool { return len(s.items) == 0 }

// Err reports the outcome of the last persistence attempt.
func (s *Store) Err() error { return s.err }

func (s *Store) index(id ProductID) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) recompute() {
	total := decimal.Zero
	count := 0
	for _, it := range s.items {
		total = total.Add(it.LineTotal())
		count += it.Quantity
	}
	s.totalAmount = total
	s.itemCount = count
}

func (s *Store) commit(ctx context.Context) {
	s.recompute()

	data, err := json.Marshal(s.items)
	if err != nil {
		s.err = fmt.Errorf("encode cart: %w", err)
		logging.FromContext(ctx).Error("cart_persist_error", "error", s.err)
		return
	}
	if err := s.storage.SetItem(ctx, StorageKey, string(data)); err != nil {
		s.err = err
		logging.FromContext(ctx).Error("cart_persist_error", "error", err)
		return
	}
	s.err = nil
}
