package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
)

// OrderUsecase exposes order placement, queries and state changes.
type OrderUsecase interface {
	CreateFromCart(ctx context.Context, userID string, input CreateOrderInput) (*CreateOrderResult, error)
	Cancel(ctx context.Context, userID, orderID string) (*entity.Order, error)
	Get(ctx context.Context, userID, orderID string) (*entity.Order, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*entity.Order, error)
	UpdateShippingAddress(ctx context.Context, userID, orderID string, input AddressInput) (*entity.Order, error)
	AdvanceStatus(ctx context.Context, orderID string, action StatusAction) (*entity.Order, error)
}

// AddressInput is an unvalidated shipping address.
type AddressInput struct {
	Street         string
	City           string
	State          string
	Country        string
	PostalCode     string
	AdditionalInfo string
}

// CreateOrderInput carries everything needed to turn the cart into an order.
// IdempotencyKey is optional.
type CreateOrderInput struct {
	ShippingAddress    AddressInput
	DiscountPercentage decimal.Decimal
	IdempotencyKey     string
}

// CreateOrderResult reports whether the order was created by this call or
// replayed from an earlier call with the same idempotency key.
type CreateOrderResult struct {
	Order    *entity.Order
	Replayed bool
}

// StatusAction is a staff-driven forward transition.
type StatusAction string

const (
	ActionConfirm StatusAction = "confirm"
	ActionProcess StatusAction = "process"
	ActionShip    StatusAction = "ship"
	ActionDeliver StatusAction = "deliver"
)
