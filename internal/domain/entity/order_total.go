package entity

import "fmt"

// OrderTotal is the price breakdown of an order. Tax is always zero in this
// market, so TotalAmount = Subtotal - Discount + Shipping.
type OrderTotal struct {
	Subtotal    Money
	Tax         Money
	Discount    Money
	Shipping    Money
	TotalAmount Money
}

// NewOrderTotal derives TotalAmount from its parts.
func NewOrderTotal(subtotal, discount, shipping Money) (OrderTotal, error) {
	tax, err := ZeroMoney(subtotal.Currency())
	if err != nil {
		return OrderTotal{}, err
	}
	afterDiscount, err := subtotal.Subtract(discount)
	if err != nil {
		return OrderTotal{}, fmt.Errorf("apply discount: %w", err)
	}
	total, err := afterDiscount.Add(shipping)
	if err != nil {
		return OrderTotal{}, fmt.Errorf("add shipping: %w", err)
	}
	return OrderTotal{
		Subtotal:    subtotal,
		Tax:         tax,
		Discount:    discount,
		Shipping:    shipping,
		TotalAmount: total,
	}, nil
}

// ReconstituteOrderTotal rebuilds a total from persisted columns. Shipping is
// never stored; it is re-derived as total - subtotal + discount and the total
// is then recomputed from the parts, so drift in stored data cannot produce an
// inconsistent breakdown.
func ReconstituteOrderTotal(subtotal, discount, totalAmount Money) (OrderTotal, error) {
	withDiscount, err := totalAmount.Add(discount)
	if err != nil {
		return OrderTotal{}, err
	}
	shipping, err := withDiscount.Subtract(subtotal)
	if err != nil {
		return OrderTotal{}, fmt.Errorf("derive shipping: %w", err)
	}
	return NewOrderTotal(subtotal, discount, shipping)
}

func (t OrderTotal) Currency() string { return t.TotalAmount.Currency() }
