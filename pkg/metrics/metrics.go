package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "commerce"

type ServerMetrics struct {
	Requests        *prometheus.CounterVec
	Latency         *prometheus.HistogramVec
	OutboxPublished *prometheus.CounterVec
	PaymentOutcomes *prometheus.CounterVec
	registry        *prometheus.Registry
}

// NewServerMetrics registers the collectors on a private registry so tests
// can build as many instances as they like.
func NewServerMetrics() *ServerMetrics {
	reg := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"route", "method"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_published_total",
		Help:      "Outbox events handed to the broker.",
	}, []string{"topic", "result"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_outcomes_total",
		Help:      "Payment attempts by final gateway outcome.",
	}, []string{"outcome"})

	reg.MustRegister(requests, latency, published, payments,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return &ServerMetrics{
		Requests:        requests,
		Latency:         latency,
		OutboxPublished: published,
		PaymentOutcomes: payments,
		registry:        reg,
	}
}

func (m *ServerMetrics) Registry() *prometheus.Registry { return m.registry }

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
