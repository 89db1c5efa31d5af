package entity

import "fmt"

// ProductVariant carries the stock-relevant view of a purchasable SKU.
// The catalog owns everything else about it.
type ProductVariant struct {
	ID            string
	ProductID     string
	ProductName   string
	SKU           string
	Size          string
	Color         string
	Price         Money
	StockQuantity int
	IsActive      bool
}

func (v *ProductVariant) HasStock(quantity int) bool {
	return quantity <= v.StockQuantity
}

// DecreaseStock removes quantity units, refusing to go below zero.
func (v *ProductVariant) DecreaseStock(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	if !v.HasStock(quantity) {
		return &InsufficientStockError{ProductName: v.ProductName, Requested: quantity, Available: v.StockQuantity}
	}
	v.StockQuantity -= quantity
	return nil
}

func (v *ProductVariant) IncreaseStock(quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}
	v.StockQuantity += quantity
	return nil
}

// Details snapshots the attributes copied onto an order line.
func (v *ProductVariant) Details() VariantDetails {
	return VariantDetails{Size: v.Size, Color: v.Color, SKU: v.SKU}
}
