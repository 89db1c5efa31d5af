package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
)

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, ParseBrokers(" k1:9092, ,k2:9092 "))
	assert.Empty(t, ParseBrokers(""))
}

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher(KafkaConfig{Brokers: " , "})
	assert.Error(t, err)
}

func TestMessage(t *testing.T) {
	e, err := entity.NewOutboxEvent(entity.TopicOrderCreated, "order-1", map[string]string{"orderId": "order-1"})
	require.NoError(t, err)

	msg := message("stylehub", e)
	assert.Equal(t, "stylehub.order.created", msg.Topic)
	assert.Equal(t, "order-1", string(msg.Key))
	assert.JSONEq(t, `{"orderId":"order-1"}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, e.ID, string(msg.Headers[0].Value))

	assert.Equal(t, "order.created", TopicName("", entity.TopicOrderCreated))
}
