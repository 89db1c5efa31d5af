package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/stylehub/commerce-backend/internal/domain/apperror"
	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
)

const paymentColumns = `id, order_id, provider, transaction_id, status, amount, refunded_amount, pending_refund_amount,
	currency, payment_method, metadata, failure_reason, created_at, updated_at`

// PaymentRepository stores payment attempts in payments. The gateway
// reference lives inside the metadata document.
type PaymentRepository struct {
	db   DBTX
	lock bool
}

var _ repository.PaymentRepository = (*PaymentRepository)(nil)

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	method, meta, err := encodePaymentDocs(p)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		p.ID, p.OrderID, p.Provider, nullString(p.TransactionID), p.Status,
		p.Amount.Amount(), p.RefundedAmount.Amount(), p.PendingRefund.Amount(), p.Amount.Currency(),
		method, meta, p.FailureReason, p.CreatedAt, p.UpdatedAt)
	if constraint, ok := isUniqueViolation(err); ok {
		return fmt.Errorf("%w: %s", apperror.New(apperror.ErrConflict, "payment reference already recorded"), constraint)
	}
	return err
}

func (r *PaymentRepository) Update(ctx context.Context, p *entity.Payment) error {
	method, meta, err := encodePaymentDocs(p)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE payments
		SET transaction_id = $1, status = $2, refunded_amount = $3, pending_refund_amount = $4,
			payment_method = $5, metadata = $6, failure_reason = $7, updated_at = $8
		WHERE id = $9`,
		nullString(p.TransactionID), p.Status, p.RefundedAmount.Amount(), p.PendingRefund.Amount(),
		method, meta, p.FailureReason, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", entity.ErrPaymentNotFound, p.ID)
	}
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*entity.Payment, error) {
	query := forUpdate(`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, r.lock)
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrPaymentNotFound, id)
	}
	return p, err
}

func (r *PaymentRepository) FindByReference(ctx context.Context, reference string) (*entity.Payment, error) {
	query := forUpdate(`SELECT `+paymentColumns+` FROM payments WHERE metadata->>'reference' = $1`, r.lock)
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: reference %s", entity.ErrPaymentNotFound, reference)
	}
	return p, err
}

func (r *PaymentRepository) ListByOrderID(ctx context.Context, orderID string) ([]*entity.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*entity.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func encodePaymentDocs(p *entity.Payment) (method []byte, meta []byte, err error) {
	if p.PaymentMethod != nil {
		if method, err = json.Marshal(p.PaymentMethod); err != nil {
			return nil, nil, err
		}
	}
	if meta, err = json.Marshal(p.Metadata); err != nil {
		return nil, nil, err
	}
	return method, meta, nil
}

func scanPayment(row scanner) (*entity.Payment, error) {
	var (
		p                         entity.Payment
		txID                      sql.NullString
		amount, refunded, pending decimal.Decimal
		currency                  string
		method, meta              []byte
	)
	if err := row.Scan(&p.ID, &p.OrderID, &p.Provider, &txID, &p.Status, &amount, &refunded, &pending, &currency,
		&method, &meta, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.Amount, err = toMoney(amount, currency); err != nil {
		return nil, err
	}
	if p.RefundedAmount, err = toMoney(refunded, currency); err != nil {
		return nil, err
	}
	if p.PendingRefund, err = toMoney(pending, currency); err != nil {
		return nil, err
	}
	p.TransactionID = txID.String
	if len(method) > 0 {
		p.PaymentMethod = &entity.PaymentMethod{}
		if err := json.Unmarshal(method, p.PaymentMethod); err != nil {
			return nil, fmt.Errorf("payment %s method: %w", p.ID, err)
		}
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &p.Metadata); err != nil {
			return nil, fmt.Errorf("payment %s metadata: %w", p.ID, err)
		}
	}
	return &p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
