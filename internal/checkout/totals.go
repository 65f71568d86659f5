package checkout

import "github.com/shopspring/decimal"

var (
	FreeShippingThreshold = decimal.NewFromInt(50)
	FlatShipping          = decimal.RequireFromString("9.99")
	TaxRate               = decimal.RequireFromString("0.10")
)

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals derives the checkout totals from a cart subtotal. Shipping
// is free strictly above the threshold.
func ComputeTotals(subtotal decimal.Decimal) Totals {
	shipping := FlatShipping
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(TaxRate)
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// Rounded returns the totals at cent precision for display and payloads.
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal: t.Subtotal.Round(2),
		Shipping: t.Shipping.Round(2),
		Tax:      t.Tax.Round(2),
		Total:    t.Total.Round(2),
	}
}
