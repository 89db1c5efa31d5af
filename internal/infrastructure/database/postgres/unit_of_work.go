package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stylehub/commerce-backend/internal/domain/repository"
)

// UnitOfWork runs a function inside one database transaction.
type UnitOfWork struct {
	db *sql.DB
}

var _ repository.Store = (*UnitOfWork)(nil)

func NewUnitOfWork(db *sql.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

// Repositories returns repositories bound to the pool, without row locks.
func (u *UnitOfWork) Repositories() repository.Repositories {
	return newRepositories(u.db, false)
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := u.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(ctx, newRepositories(tx, true)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func newRepositories(db DBTX, lock bool) repository.Repositories {
	return repository.Repositories{
		Variants: &VariantRepository{db: db, lock: lock},
		Carts:    &CartRepository{db: db, lock: lock},
		Orders:   &OrderRepository{db: db, lock: lock},
		Payments: &PaymentRepository{db: db, lock: lock},
		Events:   &EventRepository{db: db},
	}
}
