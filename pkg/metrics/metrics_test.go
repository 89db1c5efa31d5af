package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerMetrics_IndependentRegistries(t *testing.T) {
	a := NewServerMetrics()
	b := NewServerMetrics()

	a.Requests.WithLabelValues("/api/v1/orders", "POST", "201").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Requests.WithLabelValues("/api/v1/orders", "POST", "201")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Requests.WithLabelValues("/api/v1/orders", "POST", "201")))
}

func TestServerMetrics_Handler(t *testing.T) {
	m := NewServerMetrics()
	m.OutboxPublished.WithLabelValues("order.created", "ok").Add(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `commerce_outbox_published_total{result="ok",topic="order.created"} 3`)
}
