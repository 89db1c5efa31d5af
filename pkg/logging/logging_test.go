package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("orders", true, &buf)
	l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	l.Warn("compensation skipped", Fields{OrderID: "o-1", VariantID: "v-9"})

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "warn", got["level"])
	assert.Equal(t, "orders", got["service"])
	assert.Equal(t, "o-1", got["order_id"])
	assert.Equal(t, "v-9", got["variant_id"])
	assert.NotContains(t, got, "payment_id")
	assert.Equal(t, "2026-01-02T03:04:05Z", got["timestamp"])
}

func TestLogger_PlainLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("payments", false, &buf)
	l.Info("payment verified", Fields{PaymentID: "p-1", Status: "success"})

	line := buf.String()
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, `INFO "payment verified"`)
	assert.Contains(t, line, "payment_id=p-1")
	assert.Contains(t, line, "status=success")
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	l.Info("ignored", Fields{})
}
