package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stylehub/commerce-backend/pkg/metrics"
)

// Metrics records request count and latency per route template, so
// /orders/:id stays one series regardless of the id.
func Metrics(m *metrics.ServerMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}
		route := c.Route().Path
		m.Requests.WithLabelValues(route, c.Method(), strconv.Itoa(status)).Inc()
		m.Latency.WithLabelValues(route, c.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}

func statusOf(err error) int {
	if fe, ok := err.(*fiber.Error); ok {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
