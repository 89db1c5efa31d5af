package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/infrastructure/database/inmemory"
	"github.com/stylehub/commerce-backend/pkg/logging"
	"github.com/stylehub/commerce-backend/pkg/metrics"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...*entity.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	for _, e := range events {
		p.topics = append(p.topics, e.Topic)
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

func seedEvents(t *testing.T, repo *inmemory.EventRepository, topics ...string) {
	t.Helper()
	for _, topic := range topics {
		e, err := entity.NewOutboxEvent(topic, "order-1", map[string]string{"orderId": "order-1"})
		require.NoError(t, err)
		require.NoError(t, repo.Append(context.Background(), e))
	}
}

func TestRelay_RunOncePublishesInOrderAndMarksSent(t *testing.T) {
	store := inmemory.NewStore()
	repo := store.Repositories().Events.(*inmemory.EventRepository)
	seedEvents(t, repo, entity.TopicOrderCreated, entity.TopicPaymentSucceeded, entity.TopicOrderStatusChanged)
	pub := &recordingPublisher{}
	m := metrics.NewServerMetrics()
	relay := NewRelay(repo, pub, RelayConfig{BatchSize: 2}, m, logging.Nop())

	n, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.Equal(t, []string{entity.TopicOrderCreated, entity.TopicPaymentSucceeded, entity.TopicOrderStatusChanged}, pub.published())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxPublished.WithLabelValues(entity.TopicOrderCreated, "ok")))
	for _, e := range repo.All() {
		assert.NotNil(t, e.SentAt)
	}
}

func TestRelay_PublishFailureKeepsEventsUnsent(t *testing.T) {
	store := inmemory.NewStore()
	repo := store.Repositories().Events.(*inmemory.EventRepository)
	seedEvents(t, repo, entity.TopicOrderCreated)
	pub := &recordingPublisher{err: errors.New("broker down")}
	m := metrics.NewServerMetrics()
	relay := NewRelay(repo, pub, RelayConfig{}, m, logging.Nop())

	_, err := relay.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxPublished.WithLabelValues(entity.TopicOrderCreated, "error")))

	unsent, err := repo.FetchUnsent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, unsent, 1)

	pub.err = nil
	n, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRelay_RunStopsWithContext(t *testing.T) {
	store := inmemory.NewStore()
	repo := store.Repositories().Events.(*inmemory.EventRepository)
	seedEvents(t, repo, entity.TopicOrderCreated)
	pub := &recordingPublisher{}
	relay := NewRelay(repo, pub, RelayConfig{PollInterval: 10 * time.Millisecond}, nil, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	require.Eventually(t, func() bool { return len(pub.published()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}
