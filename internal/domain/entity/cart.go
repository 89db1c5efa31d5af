package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	MinItemQuantity = 1
	MaxItemQuantity = 999
)

// CartItem is one variant in a cart with the unit price locked when it was added.
type CartItem struct {
	ID               string
	CartID           string
	ProductVariantID string
	ProductName      string
	Quantity         int
	UnitPrice        Money
	AddedAt          time.Time
}

func NewCartItem(cartID, variantID, productName string, quantity int, unitPrice Money) (*CartItem, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	return &CartItem{
		ID:               uuid.NewString(),
		CartID:           cartID,
		ProductVariantID: variantID,
		ProductName:      productName,
		Quantity:         quantity,
		UnitPrice:        unitPrice,
		AddedAt:          time.Now().UTC(),
	}, nil
}

// LineTotal is UnitPrice × Quantity.
func (i *CartItem) LineTotal() (Money, error) {
	return i.UnitPrice.MultiplyInt(i.Quantity)
}

// Cart is the per-user basket. There is at most one item per variant.
type Cart struct {
	ID        string
	UserID    string
	Items     []*CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewCart(userID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     []*CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddItem appends item, or raises the quantity of the existing item for the
// same variant. The existing item's locked price is kept.
func (c *Cart) AddItem(item *CartItem) error {
	if existing, ok := c.FindItem(item.ProductVariantID); ok {
		qty := existing.Quantity + item.Quantity
		if err := validateQuantity(qty); err != nil {
			return err
		}
		existing.Quantity = qty
		c.touch()
		return nil
	}
	if err := validateQuantity(item.Quantity); err != nil {
		return err
	}
	item.CartID = c.ID
	c.Items = append(c.Items, item)
	c.touch()
	return nil
}

func (c *Cart) RemoveItem(variantID string) error {
	for i, it := range c.Items {
		if it.ProductVariantID == variantID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.touch()
			return nil
		}
	}
	return fmt.Errorf("%w: variant %s", ErrItemNotFound, variantID)
}

func (c *Cart) UpdateItemQuantity(variantID string, quantity int) error {
	item, ok := c.FindItem(variantID)
	if !ok {
		return fmt.Errorf("%w: variant %s", ErrItemNotFound, variantID)
	}
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	item.Quantity = quantity
	c.touch()
	return nil
}

func (c *Cart) FindItem(variantID string) (*CartItem, bool) {
	for _, it := range c.Items {
		if it.ProductVariantID == variantID {
			return it, true
		}
	}
	return nil, false
}

// CalculateSubtotal sums UnitPrice × Quantity over all items. Callers must
// keep a cart single-currency; a mixed cart surfaces ErrCurrencyMismatch.
// currency is only used for an empty cart.
func (c *Cart) CalculateSubtotal(currency string) (Money, error) {
	if len(c.Items) > 0 {
		currency = c.Items[0].UnitPrice.Currency()
	}
	total, err := ZeroMoney(currency)
	if err != nil {
		return Money{}, err
	}
	for _, it := range c.Items {
		line, err := it.LineTotal()
		if err != nil {
			return Money{}, err
		}
		if total, err = total.Add(line); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

// ItemCount is the number of units across all items.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// ClearItems empties the in-memory item list only; persisted rows are the
// repository's concern.
func (c *Cart) ClearItems() {
	c.Items = []*CartItem{}
	c.touch()
}

func (c *Cart) touch() { c.UpdatedAt = time.Now().UTC() }

func validateQuantity(q int) error {
	if q < MinItemQuantity || q > MaxItemQuantity {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, q)
	}
	return nil
}
