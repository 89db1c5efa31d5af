package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Outbox topics.
const (
	TopicOrderCreated       = "order.created"
	TopicOrderCancelled     = "order.cancelled"
	TopicOrderStatusChanged = "order.status_changed"
	TopicPaymentSucceeded   = "payment.succeeded"
	TopicPaymentFailed      = "payment.failed"
	TopicPaymentRefunded    = "payment.refunded"
)

// OutboxEvent is a domain event stored in the same transaction as the state
// change it describes and relayed to the message broker afterwards.
type OutboxEvent struct {
	ID        string
	Topic     string
	Key       string
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    *time.Time
}

func NewOutboxEvent(topic, key string, payload any) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:        uuid.NewString(),
		Topic:     topic,
		Key:       key,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}
