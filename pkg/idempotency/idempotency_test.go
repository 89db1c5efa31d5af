package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	k, ok := Normalize("  abc-123 ")
	assert.True(t, ok)
	assert.Equal(t, "abc-123", k)

	_, ok = Normalize("   ")
	assert.False(t, ok)

	_, ok = Normalize(strings.Repeat("x", MaxKeyLength+1))
	assert.False(t, ok)
}
