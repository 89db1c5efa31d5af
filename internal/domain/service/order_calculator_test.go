package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
)

func item(price string, qty int) PricedItem {
	return PricedItem{UnitPrice: entity.MustMoney(price, "NGN"), Quantity: qty}
}

func TestCalculateTotal_ReferenceExample(t *testing.T) {
	calc := NewOrderCalculator(DefaultPricingConfig())
	total, err := calc.CalculateTotal([]PricedItem{item("1000", 2)}, decimal.NewFromInt(10), "Lagos")
	require.NoError(t, err)

	assert.Equal(t, "2000.00", total.Subtotal.Amount().StringFixed(2))
	assert.Equal(t, "200.00", total.Discount.Amount().StringFixed(2))
	assert.Equal(t, "500.00", total.Shipping.Amount().StringFixed(2))
	assert.Equal(t, "2300.00", total.TotalAmount.Amount().StringFixed(2))
	assert.True(t, total.Tax.IsZero())
}

func TestCalculateTotal_IdentityHoldsForAllDiscounts(t *testing.T) {
	calc := NewOrderCalculator(DefaultPricingConfig())
	sets := [][]PricedItem{
		{item("1000", 2)},
		{item("19999.99", 1), item("0.01", 7)},
		{item("12500", 4), item("333.33", 3)},
		{},
	}
	for _, items := range sets {
		for pct := 0; pct <= 100; pct++ {
			total, err := calc.CalculateTotal(items, decimal.NewFromInt(int64(pct)), "Abuja")
			require.NoError(t, err)

			want := total.Subtotal.Amount().Sub(total.Discount.Amount()).Add(total.Shipping.Amount())
			assert.True(t, total.TotalAmount.Amount().Equal(want), "pct %d items %v", pct, items)
			assert.True(t, total.Tax.IsZero())
		}
	}
}

func TestCalculateTotal_FreeShippingBoundary(t *testing.T) {
	calc := NewOrderCalculator(DefaultPricingConfig())

	atThreshold, err := calc.CalculateTotal([]PricedItem{item("50000", 1)}, decimal.Zero, "Lagos")
	require.NoError(t, err)
	assert.True(t, atThreshold.Shipping.IsZero())

	belowThreshold, err := calc.CalculateTotal([]PricedItem{item("49999.99", 1)}, decimal.Zero, "Lagos")
	require.NoError(t, err)
	assert.Equal(t, "500.00", belowThreshold.Shipping.Amount().StringFixed(2))
}

func TestCalculateTotal_DestinationDoesNotChangeFee(t *testing.T) {
	calc := NewOrderCalculator(DefaultPricingConfig())
	a, err := calc.CalculateTotal([]PricedItem{item("100", 1)}, decimal.Zero, "Lagos")
	require.NoError(t, err)
	b, err := calc.CalculateTotal([]PricedItem{item("100", 1)}, decimal.Zero, "Kano")
	require.NoError(t, err)
	assert.True(t, a.Shipping.Equals(b.Shipping))
}

func TestCalculateTotal_ConfigurableFees(t *testing.T) {
	calc := NewOrderCalculator(PricingConfig{
		Currency:              "NGN",
		ShippingFlatFee:       decimal.NewFromInt(1500),
		FreeShippingThreshold: decimal.NewFromInt(10000),
	})
	total, err := calc.CalculateTotal([]PricedItem{item("9000", 1)}, decimal.Zero, "")
	require.NoError(t, err)
	assert.Equal(t, "1500.00", total.Shipping.Amount().StringFixed(2))

	total, err = calc.CalculateTotal([]PricedItem{item("5000", 2)}, decimal.Zero, "")
	require.NoError(t, err)
	assert.True(t, total.Shipping.IsZero())
}

func TestCalculateTotal_RejectsBadDiscount(t *testing.T) {
	calc := NewOrderCalculator(DefaultPricingConfig())
	_, err := calc.CalculateTotal([]PricedItem{item("100", 1)}, decimal.NewFromInt(101), "")
	assert.ErrorIs(t, err, entity.ErrInvalidDiscount)
	_, err = calc.CalculateTotal([]PricedItem{item("100", 1)}, decimal.NewFromInt(-1), "")
	assert.ErrorIs(t, err, entity.ErrInvalidDiscount)
}

func TestCalculateTotal_CurrencyMismatch(t *testing.T) {
	calc := NewOrderCalculator(DefaultPricingConfig())
	items := []PricedItem{item("100", 1), {UnitPrice: entity.MustMoney("1", "USD"), Quantity: 1}}
	_, err := calc.CalculateTotal(items, decimal.Zero, "")
	assert.ErrorIs(t, err, entity.ErrCurrencyMismatch)
}
