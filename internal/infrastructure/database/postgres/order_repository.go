package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
)

const orderColumns = `id, user_id, order_number, status, payment_status, subtotal, discount, total_amount, currency,
	shipping_address, idempotency_key, created_at, updated_at`

// OrderRepository stores orders in orders and their snapshots in order_lines.
type OrderRepository struct {
	db   DBTX
	lock bool
}

var _ repository.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o *entity.Order) error {
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}
	var key sql.NullString
	if o.IdempotencyKey != "" {
		key = sql.NullString{String: o.IdempotencyKey, Valid: true}
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO orders (`+orderColumns+`, tax)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		o.ID, o.UserID, o.OrderNumber, o.Status, o.PaymentStatus,
		o.Total.Subtotal.Amount(), o.Total.Discount.Amount(), o.Total.TotalAmount.Amount(), o.Total.Currency(),
		addr, key, o.CreatedAt, o.UpdatedAt, o.Total.Tax.Amount())
	if constraint, ok := isUniqueViolation(err); ok {
		return fmt.Errorf("%w: %s", entity.ErrDuplicateOrder, constraint)
	}
	return err
}

// CreateLines inserts every line in a single statement.
func (r *OrderRepository) CreateLines(ctx context.Context, lines []*entity.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	const cols = 10
	var (
		sb   strings.Builder
		args = make([]any, 0, len(lines)*cols)
	)
	sb.WriteString(`INSERT INTO order_lines
		(id, order_id, product_variant_id, product_name, variant_details, quantity, unit_price, line_total, currency, position)
		VALUES `)
	for i, l := range lines {
		details, err := json.Marshal(l.VariantDetails)
		if err != nil {
			return err
		}
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(")
		for j := 0; j < cols; j++ {
			if j > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, "$%d", i*cols+j+1)
		}
		sb.WriteString(")")
		args = append(args, l.ID, l.OrderID, l.ProductVariantID, l.ProductName, details, l.Quantity,
			l.UnitPrice.Amount(), l.LineTotal.Amount(), l.UnitPrice.Currency(), i)
	}
	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	return err
}

func (r *OrderRepository) Update(ctx context.Context, o *entity.Order) error {
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE orders
		SET status = $1, payment_status = $2, shipping_address = $3, updated_at = $4
		WHERE id = $5`, o.Status, o.PaymentStatus, addr, o.UpdatedAt, o.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", entity.ErrOrderNotFound, o.ID)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	query := forUpdate(`SELECT `+orderColumns+` FROM orders WHERE id = $1`, r.lock)
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if o.Lines, err = r.lines(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) FindByIdempotencyKey(ctx context.Context, userID, key string) (*entity.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 AND idempotency_key = $2`, userID, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: idempotency key %s", entity.ErrOrderNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	if o.Lines, err = r.lines(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// ListByUserID returns orders newest first, without lines.
func (r *OrderRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC, order_number DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*entity.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) lines(ctx context.Context, orderID string) ([]*entity.OrderLine, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, order_id, product_variant_id, product_name, variant_details, quantity, unit_price, line_total, currency
		FROM order_lines WHERE order_id = $1 ORDER BY position`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]*entity.OrderLine, 0)
	for rows.Next() {
		var (
			l               entity.OrderLine
			details         []byte
			unit, lineTotal decimal.Decimal
			currency        string
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductVariantID, &l.ProductName, &details, &l.Quantity, &unit, &lineTotal, &currency); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(details, &l.VariantDetails); err != nil {
			return nil, fmt.Errorf("order line %s details: %w", l.ID, err)
		}
		if l.UnitPrice, err = toMoney(unit, currency); err != nil {
			return nil, err
		}
		if l.LineTotal, err = toMoney(lineTotal, currency); err != nil {
			return nil, err
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}

func scanOrder(row scanner) (*entity.Order, error) {
	var (
		o                         entity.Order
		subtotal, discount, total decimal.Decimal
		currency                  string
		addr                      []byte
		key                       sql.NullString
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.Status, &o.PaymentStatus,
		&subtotal, &discount, &total, &currency, &addr, &key, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	sub, err := toMoney(subtotal, currency)
	if err != nil {
		return nil, err
	}
	disc, err := toMoney(discount, currency)
	if err != nil {
		return nil, err
	}
	tot, err := toMoney(total, currency)
	if err != nil {
		return nil, err
	}
	if o.Total, err = entity.ReconstituteOrderTotal(sub, disc, tot); err != nil {
		return nil, fmt.Errorf("order %s total: %w", o.ID, err)
	}
	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("order %s address: %w", o.ID, err)
	}
	o.IdempotencyKey = key.String
	return &o, nil
}
