package usecase

import (
	"context"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
)

// CartUsecase exposes the shopper's cart operations.
type CartUsecase interface {
	Get(ctx context.Context, userID string) (*entity.Cart, error)
	AddItem(ctx context.Context, userID string, input AddCartItemInput) (*entity.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID, variantID string, quantity int) (*entity.Cart, error)
	RemoveItem(ctx context.Context, userID, variantID string) (*entity.Cart, error)
	Clear(ctx context.Context, userID string) error
}

// AddCartItemInput carries the variant and quantity to add.
type AddCartItemInput struct {
	VariantID string
	Quantity  int
}
