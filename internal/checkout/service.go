package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/logging"
)

const ordersPath = "/api/orders"

var ErrEmptyCart = errors.New("cart is empty")

type Transport interface {
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
	PostJSON(ctx context.Context, path string, in, out any, header http.Header) error
}

type Service struct {
	API Transport
}

func NewService(api Transport) *Service {
	return &Service{API: api}
}

// PlaceOrder submits the cart as an order and clears it once the order
// service accepts it.
func (s *Service) PlaceOrder(ctx context.Context, c *cart.Store, req Request) (Order, error) {
	l := logging.FromContext(ctx).With("component", "checkout")

	if c.IsEmpty() {
		return Order{}, ErrEmptyCart
	}
	if err := req.Validate(); err != nil {
		return Order{}, err
	}

	payload := BuildPayload(c.Items(), req)
	key := uuid.NewString()
	hdr := http.Header{"Idempotency-Key": {key}}

	var raw json.RawMessage
	if err := s.API.PostJSON(ctx, ordersPath, payload, &raw, hdr); err != nil {
		return Order{}, fmt.Errorf("place order: %w", err)
	}

	var order Order
	if err := apiclient.DecodeData(raw, &order); err != nil {
		l.Warn("order_reply_undecodable", "error", err, "idempotency_key", key)
	}

	c.ClearCart(ctx)
	l.Info("order_placed", "order_id", order.ID, "items", len(payload.Items), "total", payload.Total.String())
	return order, nil
}

func (s *Service) History(ctx context.Context) ([]Order, error) {
	var raw json.RawMessage
	if err := s.API.GetJSON(ctx, ordersPath, nil, &raw); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return decodeOrders(raw)
}

func decodeOrders(raw json.RawMessage) ([]Order, error) {
	raw = bytes.TrimSpace(raw)
	out := []Order{}
	if len(raw) == 0 {
		return out, nil
	}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		return out, nil
	}

	var page struct {
		Content []Order `json:"content"`
	}
	if err := apiclient.DecodeData(raw, &page); err != nil {
		var list []Order
		if err2 := apiclient.DecodeData(raw, &list); err2 != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		return append(out, list...), nil
	}
	return append(out, page.Content...), nil
}
