package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
	"github.com/stylehub/commerce-backend/pkg/logging"
)

// CartService implements CartUsecase. Writes run in a unit of work so the
// stock check and the cart update see the same variant row.
type CartService struct {
	store repository.Store
	log   *logging.Logger
}

var _ CartUsecase = (*CartService)(nil)

func NewCartService(store repository.Store, log *logging.Logger) *CartService {
	return &CartService{store: store, log: log}
}

// Get returns the user's cart, or an unsaved empty one if none exists yet.
func (s *CartService) Get(ctx context.Context, userID string) (*entity.Cart, error) {
	cart, err := s.store.Repositories().Carts.FindByUserID(ctx, userID)
	if errors.Is(err, entity.ErrCartNotFound) {
		return entity.NewCart(userID), nil
	}
	return cart, err
}

func (s *CartService) AddItem(ctx context.Context, userID string, input AddCartItemInput) (*entity.Cart, error) {
	variantID := strings.TrimSpace(input.VariantID)
	if variantID == "" {
		return nil, fmt.Errorf("%w: variantId is required", entity.ErrVariantNotFound)
	}
	var out *entity.Cart
	err := s.store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		variant, err := repos.Variants.FindByID(ctx, variantID)
		if err != nil {
			return err
		}
		if !variant.IsActive {
			return fmt.Errorf("%w: %s", entity.ErrVariantInactive, variant.ID)
		}

		cart, err := loadOrNewCart(ctx, repos, userID)
		if err != nil {
			return err
		}
		requested := input.Quantity
		if existing, ok := cart.FindItem(variant.ID); ok {
			requested += existing.Quantity
		}
		if input.Quantity > 0 && !variant.HasStock(requested) {
			return &entity.InsufficientStockError{ProductName: variant.ProductName, Requested: requested, Available: variant.StockQuantity}
		}
		if len(cart.Items) > 0 && cart.Items[0].UnitPrice.Currency() != variant.Price.Currency() {
			return fmt.Errorf("%w: cart holds %s, variant is priced in %s", entity.ErrCurrencyMismatch,
				cart.Items[0].UnitPrice.Currency(), variant.Price.Currency())
		}

		item, err := entity.NewCartItem(cart.ID, variant.ID, variant.ProductName, input.Quantity, variant.Price)
		if err != nil {
			return err
		}
		if err := cart.AddItem(item); err != nil {
			return err
		}
		if err := repos.Carts.Save(ctx, cart); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		out = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("cart item added", logging.Fields{UserID: userID, VariantID: variantID, Step: "cart.add"})
	return out, nil
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, variantID string, quantity int) (*entity.Cart, error) {
	var out *entity.Cart
	err := s.store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		cart, err := repos.Carts.FindByUserID(ctx, userID)
		if errors.Is(err, entity.ErrCartNotFound) {
			return fmt.Errorf("%w: variant %s", entity.ErrItemNotFound, variantID)
		}
		if err != nil {
			return err
		}
		if _, ok := cart.FindItem(variantID); !ok {
			return fmt.Errorf("%w: variant %s", entity.ErrItemNotFound, variantID)
		}
		variant, err := repos.Variants.FindByID(ctx, variantID)
		if err != nil {
			return err
		}
		if quantity > 0 && !variant.HasStock(quantity) {
			return &entity.InsufficientStockError{ProductName: variant.ProductName, Requested: quantity, Available: variant.StockQuantity}
		}
		if err := cart.UpdateItemQuantity(variantID, quantity); err != nil {
			return err
		}
		if err := repos.Carts.Save(ctx, cart); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		out = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID, variantID string) (*entity.Cart, error) {
	var out *entity.Cart
	err := s.store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		cart, err := repos.Carts.FindByUserID(ctx, userID)
		if errors.Is(err, entity.ErrCartNotFound) {
			return fmt.Errorf("%w: variant %s", entity.ErrItemNotFound, variantID)
		}
		if err != nil {
			return err
		}
		if err := cart.RemoveItem(variantID); err != nil {
			return err
		}
		if err := repos.Carts.Save(ctx, cart); err != nil {
			return fmt.Errorf("save cart: %w", err)
		}
		out = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Clear deletes every item and keeps the cart row. Clearing a missing cart
// is a no-op.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.store.Do(ctx, func(ctx context.Context, repos repository.Repositories) error {
		cart, err := repos.Carts.FindByUserID(ctx, userID)
		if errors.Is(err, entity.ErrCartNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return repos.Carts.ClearItems(ctx, cart.ID)
	})
}

func loadOrNewCart(ctx context.Context, repos repository.Repositories, userID string) (*entity.Cart, error) {
	cart, err := repos.Carts.FindByUserID(ctx, userID)
	if errors.Is(err, entity.ErrCartNotFound) {
		return entity.NewCart(userID), nil
	}
	return cart, err
}
