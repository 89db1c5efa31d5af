package presenter

import "github.com/stylehub/commerce-backend/internal/domain/entity"

// CartPresenter shapes carts for delivery layer responses.
type CartPresenter struct {
	currency string
}

func NewCartPresenter(currency string) *CartPresenter {
	return &CartPresenter{currency: currency}
}

type CartItemResponse struct {
	VariantID   string        `json:"variantId"`
	ProductName string        `json:"productName"`
	Quantity    int           `json:"quantity"`
	UnitPrice   MoneyResponse `json:"unitPrice"`
	LineTotal   MoneyResponse `json:"lineTotal"`
	AddedAt     string        `json:"addedAt"`
}

type CartResponse struct {
	ID        string              `json:"id"`
	Items     []*CartItemResponse `json:"items"`
	ItemCount int                 `json:"itemCount"`
	Subtotal  MoneyResponse       `json:"subtotal"`
	UpdatedAt string              `json:"updatedAt"`
}

func (p *CartPresenter) ToResponse(cart *entity.Cart) (*CartResponse, error) {
	subtotal, err := cart.CalculateSubtotal(p.currency)
	if err != nil {
		return nil, err
	}
	items := make([]*CartItemResponse, 0, len(cart.Items))
	for _, it := range cart.Items {
		total, err := it.LineTotal()
		if err != nil {
			return nil, err
		}
		items = append(items, &CartItemResponse{
			VariantID:   it.ProductVariantID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   toMoney(it.UnitPrice),
			LineTotal:   toMoney(total),
			AddedAt:     it.AddedAt.Format(timeLayout),
		})
	}
	return &CartResponse{
		ID:        cart.ID,
		Items:     items,
		ItemCount: cart.ItemCount(),
		Subtotal:  toMoney(subtotal),
		UpdatedAt: cart.UpdatedAt.Format(timeLayout),
	}, nil
}
