package inmemory

import (
	"context"
	"time"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
)

// EventRepository is an in-memory outbox.
type EventRepository struct {
	store *Store
	inTx  bool
}

var _ repository.EventRepository = (*EventRepository)(nil)

func (r *EventRepository) Append(ctx context.Context, events ...*entity.OutboxEvent) error {
	return r.store.write(r.inTx, func(d *dataset) error {
		for _, e := range events {
			d.events = append(d.events, copyEvent(e))
		}
		return nil
	})
}

func (r *EventRepository) FetchUnsent(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	var out []*entity.OutboxEvent
	r.store.read(r.inTx, func(d *dataset) {
		for _, e := range d.events {
			if e.SentAt != nil {
				continue
			}
			out = append(out, copyEvent(e))
			if limit > 0 && len(out) == limit {
				return
			}
		}
	})
	return out, nil
}

func (r *EventRepository) MarkSent(ctx context.Context, ids []string) error {
	now := time.Now().UTC()
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return r.store.write(r.inTx, func(d *dataset) error {
		for _, e := range d.events {
			if _, ok := set[e.ID]; ok && e.SentAt == nil {
				sent := now
				e.SentAt = &sent
			}
		}
		return nil
	})
}

// All returns every stored event, sent or not.
func (r *EventRepository) All() []*entity.OutboxEvent {
	var out []*entity.OutboxEvent
	r.store.read(r.inTx, func(d *dataset) {
		for _, e := range d.events {
			out = append(out, copyEvent(e))
		}
	})
	return out
}
