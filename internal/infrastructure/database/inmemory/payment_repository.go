package inmemory

import (
	"context"
	"fmt"
	"sort"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
)

// PaymentRepository is an in-memory implementation of repository.PaymentRepository.
type PaymentRepository struct {
	store *Store
	inTx  bool
}

var _ repository.PaymentRepository = (*PaymentRepository)(nil)

func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	return r.store.write(r.inTx, func(d *dataset) error {
		if _, ok := d.payments[payment.ID]; ok {
			return fmt.Errorf("payment %s already exists", payment.ID)
		}
		d.payments[payment.ID] = copyPayment(payment)
		return nil
	})
}

func (r *PaymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	return r.store.write(r.inTx, func(d *dataset) error {
		if _, ok := d.payments[payment.ID]; !ok {
			return fmt.Errorf("%w: %s", entity.ErrPaymentNotFound, payment.ID)
		}
		d.payments[payment.ID] = copyPayment(payment)
		return nil
	})
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*entity.Payment, error) {
	var p *entity.Payment
	r.store.read(r.inTx, func(d *dataset) {
		if found, ok := d.payments[id]; ok {
			p = copyPayment(found)
		}
	})
	if p == nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrPaymentNotFound, id)
	}
	return p, nil
}

func (r *PaymentRepository) FindByReference(ctx context.Context, reference string) (*entity.Payment, error) {
	var p *entity.Payment
	r.store.read(r.inTx, func(d *dataset) {
		for _, found := range d.payments {
			if reference != "" && found.Metadata.Reference == reference {
				p = copyPayment(found)
				return
			}
		}
	})
	if p == nil {
		return nil, fmt.Errorf("%w: reference %s", entity.ErrPaymentNotFound, reference)
	}
	return p, nil
}

func (r *PaymentRepository) ListByOrderID(ctx context.Context, orderID string) ([]*entity.Payment, error) {
	var out []*entity.Payment
	r.store.read(r.inTx, func(d *dataset) {
		for _, p := range d.payments {
			if p.OrderID == orderID {
				out = append(out, copyPayment(p))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
