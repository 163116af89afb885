// Package pricing computes order totals from cart contents. All functions are
// pure: totals are recomputed from scratch on every call and depend only on
// the lines and configuration passed in.
package pricing

import (
	"petshop-service/internal/cart"

	"github.com/shopspring/decimal"
)

// Config holds the three pricing constants.
type Config struct {
	ShippingCost          decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	TaxRate               decimal.Decimal
}

// Breakdown is the monetary breakdown persisted onto an order.
type Breakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// Subtotal sums unit price times quantity over all lines.
func Subtotal(lines []cart.Line) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal())
	}
	return subtotal
}

// Shipping is zero once the subtotal reaches the free-shipping threshold,
// otherwise the flat shipping cost.
func Shipping(subtotal decimal.Decimal, cfg Config) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		return decimal.Zero
	}
	return cfg.ShippingCost
}

// Tax applies the configured rate to the subtotal. Shipping is not taxed.
func Tax(subtotal decimal.Decimal, cfg Config) decimal.Decimal {
	return subtotal.Mul(cfg.TaxRate)
}

// Compute returns the full breakdown for the given lines.
func Compute(lines []cart.Line, cfg Config) Breakdown {
	subtotal := Subtotal(lines)
	shipping := Shipping(subtotal, cfg)
	tax := Tax(subtotal, cfg)

	return Breakdown{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}
