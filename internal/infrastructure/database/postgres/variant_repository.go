package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/stylehub/commerce-backend/internal/domain/apperror"
	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
)

const variantColumns = `id, product_id, product_name, sku, size, color, price, currency, stock_quantity, is_active`

// VariantRepository reads and adjusts variant stock in product_variants.
type VariantRepository struct {
	db   DBTX
	lock bool
}

var _ repository.VariantRepository = (*VariantRepository)(nil)

func NewVariantRepository(db *sql.DB) *VariantRepository {
	return &VariantRepository{db: db}
}

func scanVariant(row scanner) (*entity.ProductVariant, error) {
	var (
		v        entity.ProductVariant
		price    decimal.Decimal
		currency string
	)
	if err := row.Scan(&v.ID, &v.ProductID, &v.ProductName, &v.SKU, &v.Size, &v.Color, &price, &currency, &v.StockQuantity, &v.IsActive); err != nil {
		return nil, err
	}
	m, err := toMoney(price, currency)
	if err != nil {
		return nil, fmt.Errorf("variant %s price: %w", v.ID, err)
	}
	v.Price = m
	return &v, nil
}

func (r *VariantRepository) FindByID(ctx context.Context, id string) (*entity.ProductVariant, error) {
	query := forUpdate(`SELECT `+variantColumns+` FROM product_variants WHERE id = $1`, r.lock)
	v, err := scanVariant(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrVariantNotFound, id)
	}
	return v, err
}

// FindByIDs loads the given variants in ascending id order, so that inside a
// unit of work concurrent callers acquire row locks in the same order.
func (r *VariantRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*entity.ProductVariant, error) {
	out := make(map[string]*entity.ProductVariant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := forUpdate(`SELECT `+variantColumns+` FROM product_variants WHERE id = ANY($1) ORDER BY id`, r.lock)
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		out[v.ID] = v
	}
	return out, rows.Err()
}

func (r *VariantRepository) Save(ctx context.Context, v *entity.ProductVariant) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO product_variants (`+variantColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			product_id = EXCLUDED.product_id,
			product_name = EXCLUDED.product_name,
			sku = EXCLUDED.sku,
			size = EXCLUDED.size,
			color = EXCLUDED.color,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			stock_quantity = EXCLUDED.stock_quantity,
			is_active = EXCLUDED.is_active,
			updated_at = now()`,
		v.ID, v.ProductID, v.ProductName, v.SKU, v.Size, v.Color, v.Price.Amount(), v.Price.Currency(), v.StockQuantity, v.IsActive)
	if constraint, ok := isUniqueViolation(err); ok {
		return fmt.Errorf("%w: %s", apperror.New(apperror.ErrConflict, "sku already in use"), constraint)
	}
	return err
}

// DecrementStock only succeeds when the row still holds enough stock, which
// closes the window between the caller's pre-check and the write.
func (r *VariantRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", entity.ErrInvalidQuantity, quantity)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE product_variants
		SET stock_quantity = stock_quantity - $1, updated_at = now()
		WHERE id = $2 AND stock_quantity >= $1`, quantity, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	var (
		name      string
		available int
	)
	err = r.db.QueryRowContext(ctx, `SELECT product_name, stock_quantity FROM product_variants WHERE id = $1`, id).Scan(&name, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", entity.ErrVariantNotFound, id)
	}
	if err != nil {
		return err
	}
	return &entity.InsufficientStockError{ProductName: name, Requested: quantity, Available: available}
}

func (r *VariantRepository) IncrementStock(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", entity.ErrInvalidQuantity, quantity)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE product_variants
		SET stock_quantity = stock_quantity + $1, updated_at = now()
		WHERE id = $2`, quantity, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", entity.ErrVariantNotFound, id)
	}
	return nil
}
