package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
)

// CartRepository stores carts in carts and their items in cart_items.
type CartRepository struct {
	db   DBTX
	lock bool
}

var _ repository.CartRepository = (*CartRepository)(nil)

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) FindByUserID(ctx context.Context, userID string) (*entity.Cart, error) {
	var c entity.Cart
	query := forUpdate(`SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`, r.lock)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", entity.ErrCartNotFound, userID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, cart_id, product_variant_id, product_name, quantity, unit_price, currency, added_at
		FROM cart_items WHERE cart_id = $1 ORDER BY position, added_at`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	c.Items = []*entity.CartItem{}
	for rows.Next() {
		var (
			it       entity.CartItem
			price    decimal.Decimal
			currency string
		)
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductVariantID, &it.ProductName, &it.Quantity, &price, &currency, &it.AddedAt); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = toMoney(price, currency); err != nil {
			return nil, fmt.Errorf("cart item %s price: %w", it.ID, err)
		}
		c.Items = append(c.Items, &it)
	}
	return &c, rows.Err()
}

func (r *CartRepository) Save(ctx context.Context, cart *entity.Cart) error {
	return inTx(ctx, r.db, func(db DBTX) error {
		if _, err := db.ExecContext(ctx, `INSERT INTO carts (id, user_id, created_at, updated_at)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO UPDATE SET updated_at = EXCLUDED.updated_at`,
			cart.ID, cart.UserID, cart.CreatedAt, cart.UpdatedAt); err != nil {
			if constraint, ok := isUniqueViolation(err); ok {
				return fmt.Errorf("%w: user %s (%s)", entity.ErrCartExists, cart.UserID, constraint)
			}
			return err
		}
		if _, err := db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
			return err
		}
		for i, it := range cart.Items {
			if _, err := db.ExecContext(ctx, `INSERT INTO cart_items
				(id, cart_id, product_variant_id, product_name, quantity, unit_price, currency, position, added_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
				it.ID, cart.ID, it.ProductVariantID, it.ProductName, it.Quantity,
				it.UnitPrice.Amount(), it.UnitPrice.Currency(), i, it.AddedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CartRepository) ClearItems(ctx context.Context, cartID string) error {
	return inTx(ctx, r.db, func(db DBTX) error {
		if _, err := db.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
			return err
		}
		res, err := db.ExecContext(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", entity.ErrCartNotFound, cartID)
		}
		return nil
	})
}
