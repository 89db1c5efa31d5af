package inmemory

import (
	"context"
	"fmt"
	"sort"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
)

// OrderRepository is an in-memory implementation of repository.OrderRepository.
type OrderRepository struct {
	store *Store
	inTx  bool
}

var _ repository.OrderRepository = (*OrderRepository)(nil)

func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) error {
	return r.store.write(r.inTx, func(d *dataset) error {
		if _, ok := d.orders[order.ID]; ok {
			return fmt.Errorf("%w: id %s", entity.ErrDuplicateOrder, order.ID)
		}
		for _, o := range d.orders {
			if o.OrderNumber == order.OrderNumber {
				return fmt.Errorf("%w: number %s", entity.ErrDuplicateOrder, order.OrderNumber)
			}
			if order.IdempotencyKey != "" && o.UserID == order.UserID && o.IdempotencyKey == order.IdempotencyKey {
				return fmt.Errorf("%w: idempotency key %s", entity.ErrDuplicateOrder, order.IdempotencyKey)
			}
		}
		d.orders[order.ID] = copyOrder(order)
		return nil
	})
}

func (r *OrderRepository) CreateLines(ctx context.Context, lines []*entity.OrderLine) error {
	return r.store.write(r.inTx, func(d *dataset) error {
		for _, l := range lines {
			if _, ok := d.orders[l.OrderID]; !ok {
				return fmt.Errorf("%w: %s", entity.ErrOrderNotFound, l.OrderID)
			}
		}
		for _, l := range copyLines(lines) {
			d.lines[l.OrderID] = append(d.lines[l.OrderID], l)
		}
		return nil
	})
}

func (r *OrderRepository) Update(ctx context.Context, order *entity.Order) error {
	return r.store.write(r.inTx, func(d *dataset) error {
		if _, ok := d.orders[order.ID]; !ok {
			return fmt.Errorf("%w: %s", entity.ErrOrderNotFound, order.ID)
		}
		d.orders[order.ID] = copyOrder(order)
		return nil
	})
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*entity.Order, error) {
	var o *entity.Order
	r.store.read(r.inTx, func(d *dataset) {
		if found, ok := d.orders[id]; ok {
			o = copyOrder(found)
			o.Lines = copyLines(d.lines[id])
		}
	})
	if o == nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrOrderNotFound, id)
	}
	return o, nil
}

func (r *OrderRepository) FindByIdempotencyKey(ctx context.Context, userID, key string) (*entity.Order, error) {
	var o *entity.Order
	r.store.read(r.inTx, func(d *dataset) {
		for _, found := range d.orders {
			if found.UserID == userID && found.IdempotencyKey == key {
				o = copyOrder(found)
				o.Lines = copyLines(d.lines[found.ID])
				return
			}
		}
	})
	if o == nil {
		return nil, fmt.Errorf("%w: idempotency key %s", entity.ErrOrderNotFound, key)
	}
	return o, nil
}

func (r *OrderRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Order, error) {
	var out []*entity.Order
	r.store.read(r.inTx, func(d *dataset) {
		for _, o := range d.orders {
			if o.UserID == userID {
				out = append(out, copyOrder(o))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].OrderNumber > out[j].OrderNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []*entity.Order{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
