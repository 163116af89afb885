package pricing

import (
	"testing"

	"petshop-service/internal/cart"
	"petshop-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testConfig() Config {
	return Config{
		ShippingCost:          decimal.NewFromInt(500),
		FreeShippingThreshold: decimal.NewFromInt(5000),
		TaxRate:               decimal.RequireFromString("0.1"),
	}
}

func line(id int64, price string, qty int) cart.Line {
	return cart.Line{
		Product: models.Product{
			ID:    id,
			Name:  "product",
			Price: decimal.RequireFromString(price),
			Stock: qty,
		},
		Quantity: qty,
	}
}

func TestComputeScenario(t *testing.T) {
	lines := []cart.Line{line(1, "1000", 2)}

	b := Compute(lines, testConfig())

	assert.True(t, b.Subtotal.Equal(decimal.NewFromInt(2000)), "subtotal = %s", b.Subtotal)
	assert.True(t, b.Shipping.Equal(decimal.NewFromInt(500)), "shipping = %s", b.Shipping)
	assert.True(t, b.Tax.Equal(decimal.NewFromInt(200)), "tax = %s", b.Tax)
	assert.True(t, b.Total.Equal(decimal.NewFromInt(2700)), "total = %s", b.Total)
}

func TestComputeIsIdempotent(t *testing.T) {
	lines := []cart.Line{line(1, "129.99", 3), line(2, "45.50", 1)}
	cfg := testConfig()

	first := Compute(lines, cfg)
	second := Compute(lines, cfg)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.Shipping.Equal(second.Shipping))
	assert.True(t, first.Tax.Equal(second.Tax))
	assert.True(t, first.Total.Equal(second.Total))
}

func TestFreeShippingBoundary(t *testing.T) {
	cfg := testConfig()

	// Exactly at the threshold ships free.
	atThreshold := []cart.Line{line(1, "5000", 1)}
	assert.True(t, Compute(atThreshold, cfg).Shipping.IsZero())

	// One unit below pays the flat cost.
	below := []cart.Line{line(1, "4999", 1)}
	assert.True(t, Compute(below, cfg).Shipping.Equal(cfg.ShippingCost))
}

func TestComputeEmptyCart(t *testing.T) {
	b := Compute(nil, testConfig())

	assert.True(t, b.Subtotal.IsZero())
	assert.True(t, b.Shipping.Equal(decimal.NewFromInt(500)))
	assert.True(t, b.Tax.IsZero())
	assert.True(t, b.Total.Equal(decimal.NewFromInt(500)))
}

func TestSubtotalSumsAllLines(t *testing.T) {
	lines := []cart.Line{
		line(1, "10.25", 2),
		line(2, "3.50", 4),
	}

	assert.True(t, Subtotal(lines).Equal(decimal.RequireFromString("34.50")))
}

func TestTaxNotAppliedToShipping(t *testing.T) {
	cfg := testConfig()
	lines := []cart.Line{line(1, "100", 1)}

	b := Compute(lines, cfg)

	// 100 subtotal, 500 shipping, tax only on the 100.
	assert.True(t, b.Tax.Equal(decimal.NewFromInt(10)), "tax = %s", b.Tax)
}
