package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/validate"
)

type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentPayPal         PaymentMethod = "paypal"
	PaymentCashOnDelivery PaymentMethod = "cod"
)

func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCard:
		return "Card"
	case PaymentPayPal:
		return "PayPal"
	case PaymentCashOnDelivery:
		return "Cash on Delivery"
	}
	return string(m)
}

type ShippingInfo struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	ZipCode   string `json:"zipCode" validate:"required"`
	Country   string `json:"country,omitempty"`
}

// SingleLine formats the address the way orders record it.
func (s ShippingInfo) SingleLine() string {
	parts := []string{
		strings.TrimSpace(s.FirstName + " " + s.LastName),
		s.Address,
		strings.TrimSpace(s.City + ", " + s.State + " " + s.ZipCode),
	}
	if s.Country != "" {
		parts = append(parts, s.Country)
	}
	return strings.Join(parts, ", ")
}

type CardInfo struct {
	CardNumber string `json:"cardNumber" validate:"required"`
	ExpiryDate string `json:"expiryDate" validate:"required"`
	CVV        string `json:"cvv" validate:"required"`
	NameOnCard string `json:"nameOnCard" validate:"required"`
}

type Request struct {
	Shipping      ShippingInfo  `json:"shipping"`
	PaymentMethod PaymentMethod `json:"paymentMethod" validate:"required,oneof=card paypal cod"`
	Card          *CardInfo     `json:"card,omitempty" validate:"-"`
}

var ErrValidation = errors.New("validation error")

func (r Request) Validate() error {
	if err := validate.Check(r); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if r.PaymentMethod != PaymentCard {
		return nil
	}
	if r.Card == nil {
		return fmt.Errorf("%w: card details are required", ErrValidation)
	}
	if err := validate.Check(r.Card); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

type OrderItem struct {
	ProductID cart.ProductID  `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Payload is the order creation body. Card details never leave the
// storefront.
type Payload struct {
	Items           []OrderItem     `json:"items"`
	ShippingAddress string          `json:"shippingAddress"`
	ShippingInfo    ShippingInfo    `json:"shippingInfo"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Shipping        decimal.Decimal `json:"shipping"`
	Tax             decimal.Decimal `json:"tax"`
	Total           decimal.Decimal `json:"total"`
}

func BuildPayload(items []cart.LineItem, req Request) Payload {
	subtotal := decimal.Zero
	out := make([]OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, OrderItem{ProductID: it.ID, Quantity: it.Quantity, Price: it.Price})
		subtotal = subtotal.Add(it.LineTotal())
	}
	t := ComputeTotals(subtotal).Rounded()
	return Payload{
		Items:           out,
		ShippingAddress: req.Shipping.SingleLine(),
		ShippingInfo:    req.Shipping,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        t.Subtotal,
		Shipping:        t.Shipping,
		Tax:             t.Tax,
		Total:           t.Total,
	}
}

type OrderLine struct {
	ProductID   cart.ProductID  `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

// OrderID accepts numeric and string ids.
type OrderID string

func (id *OrderID) UnmarshalJSON(b []byte) error {
	var p cart.ProductID
	if err := p.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("order id: %w", err)
	}
	*id = OrderID(p)
	return nil
}

type Order struct {
	ID              OrderID         `json:"id"`
	UserID          string          `json:"userId,omitempty"`
	Items           []OrderLine     `json:"items"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          string          `json:"status,omitempty"`
	ShippingAddress string          `json:"shippingAddress,omitempty"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
	CreatedAt       json.RawMessage `json:"createdAt,omitempty"`
}
