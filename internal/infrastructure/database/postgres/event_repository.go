package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
)

// EventRepository is the outbox_events table.
type EventRepository struct {
	db DBTX
}

var _ repository.EventRepository = (*EventRepository)(nil)

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Append(ctx context.Context, events ...*entity.OutboxEvent) error {
	for _, e := range events {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO outbox_events (id, topic, key, payload, created_at)
			VALUES ($1,$2,$3,$4,$5)`, e.ID, e.Topic, e.Key, []byte(e.Payload), e.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *EventRepository) FetchUnsent(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, topic, key, payload, created_at FROM outbox_events
		WHERE sent_at IS NULL ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*entity.OutboxEvent, 0)
	for rows.Next() {
		var (
			e       entity.OutboxEvent
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.Topic, &e.Key, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Payload = payload
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (r *EventRepository) MarkSent(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `UPDATE outbox_events SET sent_at = now() WHERE id = ANY($1) AND sent_at IS NULL`, pq.Array(ids))
	return err
}
