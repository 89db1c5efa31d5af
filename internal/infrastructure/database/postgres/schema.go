package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS product_variants (
		id UUID PRIMARY KEY,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		sku TEXT NOT NULL UNIQUE,
		size TEXT NOT NULL DEFAULT '',
		color TEXT NOT NULL DEFAULT '',
		price NUMERIC(14,2) NOT NULL CHECK (price >= 0),
		currency CHAR(3) NOT NULL,
		stock_quantity INT NOT NULL CHECK (stock_quantity >= 0),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS carts (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id UUID PRIMARY KEY,
		cart_id UUID NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
		product_variant_id UUID NOT NULL,
		product_name TEXT NOT NULL,
		quantity INT NOT NULL CHECK (quantity BETWEEN 1 AND 999),
		unit_price NUMERIC(14,2) NOT NULL,
		currency CHAR(3) NOT NULL,
		position INT NOT NULL DEFAULT 0,
		added_at TIMESTAMPTZ NOT NULL,
		UNIQUE (cart_id, product_variant_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		order_number TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		payment_status TEXT NOT NULL,
		subtotal NUMERIC(14,2) NOT NULL,
		tax NUMERIC(14,2) NOT NULL DEFAULT 0,
		discount NUMERIC(14,2) NOT NULL,
		total_amount NUMERIC(14,2) NOT NULL,
		currency CHAR(3) NOT NULL,
		shipping_address JSONB NOT NULL,
		idempotency_key TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT orders_user_idempotency_key UNIQUE (user_id, idempotency_key)
	)`,
	`CREATE INDEX IF NOT EXISTS orders_user_created_idx ON orders (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		id UUID PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES orders(id),
		product_variant_id UUID NOT NULL,
		product_name TEXT NOT NULL,
		variant_details JSONB NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(14,2) NOT NULL,
		line_total NUMERIC(14,2) NOT NULL,
		currency CHAR(3) NOT NULL,
		position INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES orders(id),
		provider TEXT NOT NULL,
		transaction_id TEXT,
		status TEXT NOT NULL,
		amount NUMERIC(14,2) NOT NULL,
		refunded_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
		pending_refund_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
		currency CHAR(3) NOT NULL,
		payment_method JSONB,
		metadata JSONB NOT NULL DEFAULT '{}',
		failure_reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CHECK (refunded_amount + pending_refund_amount <= amount)
	)`,
	`ALTER TABLE payments ADD COLUMN IF NOT EXISTS pending_refund_amount NUMERIC(14,2) NOT NULL DEFAULT 0`,
	`CREATE INDEX IF NOT EXISTS payments_order_idx ON payments (order_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS payments_reference_idx ON payments ((metadata->>'reference')) WHERE metadata->>'reference' <> ''`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id UUID PRIMARY KEY,
		topic TEXT NOT NULL,
		key TEXT NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		sent_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS outbox_unsent_idx ON outbox_events (created_at) WHERE sent_at IS NULL`,
}

// Migrate creates every table the service needs. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
