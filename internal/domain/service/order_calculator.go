// Package service holds domain computations that span several entities.
package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// PricingConfig carries the market-specific pricing knobs. Amounts are in
// major currency units.
type PricingConfig struct {
	Currency              string
	ShippingFlatFee       decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		Currency:              "NGN",
		ShippingFlatFee:       decimal.NewFromInt(500),
		FreeShippingThreshold: decimal.NewFromInt(50000),
	}
}

// PricedItem is one (unit price, quantity) pair to be totalled.
type PricedItem struct {
	UnitPrice entity.Money
	Quantity  int
}

// OrderCalculator turns priced items into an OrderTotal. It is pure: all
// inputs come from its config and arguments.
type OrderCalculator struct {
	cfg PricingConfig
}

func NewOrderCalculator(cfg PricingConfig) *OrderCalculator {
	return &OrderCalculator{cfg: cfg}
}

// CalculateTotal sums the items, applies a percentage discount and the
// free-shipping threshold. Tax is always zero. The destination is accepted
// but does not vary the flat fee.
func (c *OrderCalculator) CalculateTotal(items []PricedItem, discountPercentage decimal.Decimal, destination string) (entity.OrderTotal, error) {
	if discountPercentage.IsNegative() || discountPercentage.GreaterThan(hundred) {
		return entity.OrderTotal{}, fmt.Errorf("%w: %s", entity.ErrInvalidDiscount, discountPercentage.String())
	}

	currency := c.cfg.Currency
	if len(items) > 0 {
		currency = items[0].UnitPrice.Currency()
	}
	subtotal, err := entity.ZeroMoney(currency)
	if err != nil {
		return entity.OrderTotal{}, err
	}
	for _, it := range items {
		line, err := it.UnitPrice.MultiplyInt(it.Quantity)
		if err != nil {
			return entity.OrderTotal{}, err
		}
		if subtotal, err = subtotal.Add(line); err != nil {
			return entity.OrderTotal{}, err
		}
	}

	discount, _ := entity.ZeroMoney(currency)
	if discountPercentage.IsPositive() {
		if discount, err = subtotal.Multiply(discountPercentage.Div(hundred)); err != nil {
			return entity.OrderTotal{}, err
		}
	}

	shipping, err := c.shippingFor(subtotal, destination)
	if err != nil {
		return entity.OrderTotal{}, err
	}
	return entity.NewOrderTotal(subtotal, discount, shipping)
}

func (c *OrderCalculator) shippingFor(subtotal entity.Money, _ string) (entity.Money, error) {
	if subtotal.Amount().GreaterThanOrEqual(c.cfg.FreeShippingThreshold) {
		return entity.ZeroMoney(subtotal.Currency())
	}
	return entity.NewMoney(c.cfg.ShippingFlatFee, subtotal.Currency())
}
