package entity

import "github.com/google/uuid"

// VariantDetails are the variant attributes frozen onto an order line.
type VariantDetails struct {
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
	SKU   string `json:"sku"`
}

// OrderLine is an immutable snapshot of one cart item at order time.
type OrderLine struct {
	ID               string
	OrderID          string
	ProductVariantID string
	ProductName      string
	VariantDetails   VariantDetails
	Quantity         int
	UnitPrice        Money
	LineTotal        Money
}

// NewOrderLine snapshots item using the cart's locked unit price, not the
// variant's live price.
func NewOrderLine(orderID string, item *CartItem, variant *ProductVariant) (*OrderLine, error) {
	total, err := item.LineTotal()
	if err != nil {
		return nil, err
	}
	return &OrderLine{
		ID:               uuid.NewString(),
		OrderID:          orderID,
		ProductVariantID: item.ProductVariantID,
		ProductName:      item.ProductName,
		VariantDetails:   variant.Details(),
		Quantity:         item.Quantity,
		UnitPrice:        item.UnitPrice,
		LineTotal:        total,
	}, nil
}
