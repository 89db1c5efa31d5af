package inmemory

import (
	"context"
	"fmt"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
)

// CartRepository is an in-memory implementation of repository.CartRepository.
type CartRepository struct {
	store *Store
	inTx  bool
}

var _ repository.CartRepository = (*CartRepository)(nil)

func (r *CartRepository) FindByUserID(ctx context.Context, userID string) (*entity.Cart, error) {
	var c *entity.Cart
	r.store.read(r.inTx, func(d *dataset) {
		if found, ok := d.carts[userID]; ok {
			c = copyCart(found)
		}
	})
	if c == nil {
		return nil, fmt.Errorf("%w: user %s", entity.ErrCartNotFound, userID)
	}
	return c, nil
}

func (r *CartRepository) Save(ctx context.Context, cart *entity.Cart) error {
	return r.store.write(r.inTx, func(d *dataset) error {
		if existing, ok := d.carts[cart.UserID]; ok && existing.ID != cart.ID {
			return fmt.Errorf("%w: user %s has cart %s", entity.ErrCartExists, cart.UserID, existing.ID)
		}
		d.carts[cart.UserID] = copyCart(cart)
		return nil
	})
}

func (r *CartRepository) ClearItems(ctx context.Context, cartID string) error {
	return r.store.write(r.inTx, func(d *dataset) error {
		for _, c := range d.carts {
			if c.ID == cartID {
				c.Items = []*entity.CartItem{}
				return nil
			}
		}
		return fmt.Errorf("%w: %s", entity.ErrCartNotFound, cartID)
	})
}
