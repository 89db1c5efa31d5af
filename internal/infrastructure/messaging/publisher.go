// Package messaging relays outbox events to a message broker.
package messaging

import (
	"context"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/pkg/logging"
)

// Publisher delivers outbox events. Publish returns only after the broker
// has accepted every event, or with an error.
type Publisher interface {
	Publish(ctx context.Context, events ...*entity.OutboxEvent) error
	Close() error
}

// LogPublisher writes events to the log. It is used when no broker is
// configured.
type LogPublisher struct {
	log *logging.Logger
}

func NewLogPublisher(log *logging.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, events ...*entity.OutboxEvent) error {
	for _, e := range events {
		p.log.Info("event "+e.Topic+" "+string(e.Payload), logging.Fields{EventID: e.ID, Step: "outbox.publish"})
	}
	return nil
}

func (p *LogPublisher) Close() error { return nil }
