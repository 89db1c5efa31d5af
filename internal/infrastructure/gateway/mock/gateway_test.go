package mock

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylehub/commerce-backend/internal/domain/apperror"
	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/gateway"
)

func TestInitializeThenVerify(t *testing.T) {
	g := New("")
	ctx := context.Background()

	started, err := g.Initialize(ctx, gateway.InitializeRequest{Email: "a@b.c", Amount: entity.MustMoney("2300", "NGN")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(started.Reference, "mock_ref_"))

	res, err := g.Verify(ctx, started.Reference)
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusSuccess, res.Status)
	assert.Equal(t, "NGN 2300.00", res.Amount.String())
	assert.NotNil(t, res.Method)

	g.SetStatus(started.Reference, gateway.StatusAbandoned)
	res, err = g.Verify(ctx, started.Reference)
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusAbandoned, res.Status)
	assert.Nil(t, res.Method)
}

func TestScriptedFailures(t *testing.T) {
	g := New("")
	g.FailInitialize("down")

	_, err := g.Initialize(context.Background(), gateway.InitializeRequest{Amount: entity.MustMoney("1", "NGN")})
	assert.ErrorIs(t, err, apperror.ErrGateway)

	g.FailInitialize("")
	_, err = g.Initialize(context.Background(), gateway.InitializeRequest{Amount: entity.MustMoney("1", "NGN")})
	assert.NoError(t, err)
}

func TestSignature(t *testing.T) {
	g := New("secret")
	body := []byte(`{"event":"charge.success"}`)
	assert.True(t, g.VerifyWebhookSignature(body, g.Sign(body)))
	assert.False(t, g.VerifyWebhookSignature(body, New("other").Sign(body)))
}
