package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/repository"
	"github.com/stylehub/commerce-backend/pkg/logging"
	"github.com/stylehub/commerce-backend/pkg/metrics"
)

const (
	DefaultBatchSize    = 100
	DefaultPollInterval = 2 * time.Second
)

type RelayConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

// Relay moves unsent outbox events to a Publisher in creation order. Events
// are marked sent only after the broker accepts them, so delivery is at
// least once.
type Relay struct {
	events    repository.EventRepository
	publisher Publisher
	cfg       RelayConfig
	metrics   *metrics.ServerMetrics
	log       *logging.Logger
}

func NewRelay(events repository.EventRepository, publisher Publisher, cfg RelayConfig, m *metrics.ServerMetrics, log *logging.Logger) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Relay{events: events, publisher: publisher, cfg: cfg, metrics: m, log: log}
}

// Run polls until ctx is done. Errors are logged and retried on the next tick.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()
	for {
		for {
			n, err := r.RunOnce(ctx)
			if err != nil {
				if ctx.Err() == nil {
					r.log.Error("outbox relay failed", logging.Fields{Step: "outbox.relay", Error: err.Error()})
				}
				break
			}
			// A full batch usually means more is waiting.
			if n < r.cfg.BatchSize {
				break
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce publishes one batch and returns how many events were sent.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	batch, err := r.events.FetchUnsent(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox: %w", err)
	}
	if len(batch) == 0 {
		return 0, nil
	}
	if err := r.publisher.Publish(ctx, batch...); err != nil {
		r.count(batch, "error")
		return 0, fmt.Errorf("publish outbox: %w", err)
	}
	ids := make([]string, 0, len(batch))
	for _, e := range batch {
		ids = append(ids, e.ID)
	}
	if err := r.events.MarkSent(ctx, ids); err != nil {
		return 0, fmt.Errorf("mark outbox sent: %w", err)
	}
	r.count(batch, "ok")
	return len(batch), nil
}

func (r *Relay) count(batch []*entity.OutboxEvent, result string) {
	if r.metrics == nil {
		return
	}
	for _, e := range batch {
		r.metrics.OutboxPublished.WithLabelValues(e.Topic, result).Inc()
	}
}
