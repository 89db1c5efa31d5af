package presenter

import "github.com/stylehub/commerce-backend/internal/domain/entity"

type OrderPresenter struct{}

func NewOrderPresenter() *OrderPresenter {
	return &OrderPresenter{}
}

type OrderLineResponse struct {
	ID             string                `json:"id"`
	VariantID      string                `json:"variantId"`
	ProductName    string                `json:"productName"`
	VariantDetails entity.VariantDetails `json:"variantDetails"`
	Quantity       int                   `json:"quantity"`
	UnitPrice      MoneyResponse         `json:"unitPrice"`
	LineTotal      MoneyResponse         `json:"lineTotal"`
}

type OrderResponse struct {
	ID              string               `json:"id"`
	OrderNumber     string               `json:"orderNumber"`
	Status          string               `json:"status"`
	PaymentStatus   string               `json:"paymentStatus"`
	Subtotal        MoneyResponse        `json:"subtotal"`
	Tax             MoneyResponse        `json:"tax"`
	Discount        MoneyResponse        `json:"discount"`
	Shipping        MoneyResponse        `json:"shipping"`
	TotalAmount     MoneyResponse        `json:"totalAmount"`
	ShippingAddress entity.Address       `json:"shippingAddress"`
	Lines           []*OrderLineResponse `json:"lines,omitempty"`
	CreatedAt       string               `json:"createdAt"`
	UpdatedAt       string               `json:"updatedAt"`
}

func (p *OrderPresenter) ToResponse(o *entity.Order) *OrderResponse {
	if o == nil {
		return nil
	}
	res := &OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		Subtotal:        toMoney(o.Total.Subtotal),
		Tax:             toMoney(o.Total.Tax),
		Discount:        toMoney(o.Total.Discount),
		Shipping:        toMoney(o.Total.Shipping),
		TotalAmount:     toMoney(o.Total.TotalAmount),
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt.Format(timeLayout),
		UpdatedAt:       o.UpdatedAt.Format(timeLayout),
	}
	for _, l := range o.Lines {
		res.Lines = append(res.Lines, &OrderLineResponse{
			ID:             l.ID,
			VariantID:      l.ProductVariantID,
			ProductName:    l.ProductName,
			VariantDetails: l.VariantDetails,
			Quantity:       l.Quantity,
			UnitPrice:      toMoney(l.UnitPrice),
			LineTotal:      toMoney(l.LineTotal),
		})
	}
	return res
}

func (p *OrderPresenter) ToList(orders []*entity.Order) []*OrderResponse {
	result := make([]*OrderResponse, 0, len(orders))
	for _, o := range orders {
		result = append(result, p.ToResponse(o))
	}
	return result
}
