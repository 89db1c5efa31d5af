package repository

import (
	"context"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
)

// VariantRepository is the inventory ledger view of product variants.
type VariantRepository interface {
	FindByID(ctx context.Context, id string) (*entity.ProductVariant, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*entity.ProductVariant, error)
	Save(ctx context.Context, variant *entity.ProductVariant) error
	// DecrementStock removes quantity only if the current stock covers it and
	// returns *entity.InsufficientStockError otherwise.
	DecrementStock(ctx context.Context, id string, quantity int) error
	IncrementStock(ctx context.Context, id string, quantity int) error
}

// CartRepository persists carts with their items.
type CartRepository interface {
	FindByUserID(ctx context.Context, userID string) (*entity.Cart, error)
	// Save upserts the cart row and replaces its item rows.
	Save(ctx context.Context, cart *entity.Cart) error
	// ClearItems deletes every item row and keeps the cart row.
	ClearItems(ctx context.Context, cartID string) error
}

// OrderRepository persists orders and their lines.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	CreateLines(ctx context.Context, lines []*entity.OrderLine) error
	Update(ctx context.Context, order *entity.Order) error
	FindByID(ctx context.Context, id string) (*entity.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*entity.Order, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Order, error)
}

// PaymentRepository persists payment attempts.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	Update(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id string) (*entity.Payment, error)
	FindByReference(ctx context.Context, reference string) (*entity.Payment, error)
	ListByOrderID(ctx context.Context, orderID string) ([]*entity.Payment, error)
}

// EventRepository is the transactional outbox.
type EventRepository interface {
	Append(ctx context.Context, events ...*entity.OutboxEvent) error
	FetchUnsent(ctx context.Context, limit int) ([]*entity.OutboxEvent, error)
	MarkSent(ctx context.Context, ids []string) error
}

// Repositories are bound to one unit of work.
type Repositories struct {
	Variants VariantRepository
	Carts    CartRepository
	Orders   OrderRepository
	Payments PaymentRepository
	Events   EventRepository
}

// UnitOfWork runs fn atomically: every write made through the repositories
// handed to fn is committed together, or none is when fn returns an error.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Store hands out repositories bound to the connection pool and runs units
// of work.
type Store interface {
	UnitOfWork
	Repositories() Repositories
}
