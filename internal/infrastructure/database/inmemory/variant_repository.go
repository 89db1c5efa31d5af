package inmemory

import (
	"context"
	"fmt"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
)

// VariantRepository is an in-memory implementation of repository.VariantRepository.
type VariantRepository struct {
	store *Store
	inTx  bool
}

var _ repository.VariantRepository = (*VariantRepository)(nil)

func (r *VariantRepository) FindByID(ctx context.Context, id string) (*entity.ProductVariant, error) {
	var (
		v  entity.ProductVariant
		ok bool
	)
	r.store.read(r.inTx, func(d *dataset) {
		v, ok = d.variants[id]
	})
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrVariantNotFound, id)
	}
	return &v, nil
}

func (r *VariantRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*entity.ProductVariant, error) {
	out := make(map[string]*entity.ProductVariant, len(ids))
	r.store.read(r.inTx, func(d *dataset) {
		for _, id := range ids {
			if v, ok := d.variants[id]; ok {
				variant := v
				out[id] = &variant
			}
		}
	})
	return out, nil
}

func (r *VariantRepository) Save(ctx context.Context, variant *entity.ProductVariant) error {
	return r.store.write(r.inTx, func(d *dataset) error {
		for id, v := range d.variants {
			if v.SKU == variant.SKU && id != variant.ID {
				return fmt.Errorf("sku %s already used by variant %s", variant.SKU, id)
			}
		}
		d.variants[variant.ID] = *variant
		return nil
	})
}

func (r *VariantRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	return r.store.write(r.inTx, func(d *dataset) error {
		v, ok := d.variants[id]
		if !ok {
			return fmt.Errorf("%w: %s", entity.ErrVariantNotFound, id)
		}
		if err := v.DecreaseStock(quantity); err != nil {
			return err
		}
		d.variants[id] = v
		return nil
	})
}

func (r *VariantRepository) IncrementStock(ctx context.Context, id string, quantity int) error {
	return r.store.write(r.inTx, func(d *dataset) error {
		v, ok := d.variants[id]
		if !ok {
			return fmt.Errorf("%w: %s", entity.ErrVariantNotFound, id)
		}
		if err := v.IncreaseStock(quantity); err != nil {
			return err
		}
		d.variants[id] = v
		return nil
	})
}

// Delete removes a variant; the catalog owns this in production and it is
// exposed here for seeding and tests.
func (r *VariantRepository) Delete(ctx context.Context, id string) {
	_ = r.store.write(r.inTx, func(d *dataset) error {
		delete(d.variants, id)
		return nil
	})
}
