package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylehub/commerce-backend/internal/domain/apperror"
	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/gateway"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{SecretKey: "sk_test", BaseURL: srv.URL, Timeout: time.Second})
	require.NoError(t, err)
	return c
}

func TestInitialize_SendsKobo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 230050, body["amount"])
		assert.Equal(t, "NGN", body["currency"])
		w.Write([]byte(`{"status":true,"message":"ok","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ref_1"}}`))
	})

	res, err := c.Initialize(context.Background(), gateway.InitializeRequest{
		Email:     "ada@example.com",
		Amount:    entity.MustMoney("2300.50", "NGN"),
		Reference: "pay-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ref_1", res.Reference)
	assert.Equal(t, "abc", res.AccessCode)
}

func TestVerify_ConvertsToMajorUnits(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/ref_1", r.URL.Path)
		w.Write([]byte(`{"status":true,"message":"ok","data":{"id":9001,"status":"success","reference":"ref_1","amount":230000,"currency":"NGN","channel":"card","gateway_response":"Approved","authorization":{"last4":"4081","card_type":"visa","bank":"TEST BANK","exp_month":"12","exp_year":"2030"}}}`))
	})

	res, err := c.Verify(context.Background(), "ref_1")
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusSuccess, res.Status)
	assert.Equal(t, "9001", res.TransactionID)
	assert.Equal(t, "NGN 2300.00", res.Amount.String())
	require.NotNil(t, res.Method)
	assert.Equal(t, "card", res.Method.Type)
	assert.Equal(t, "visa", res.Method.Brand)
	assert.Equal(t, "4081", res.Method.Last4)
}

func TestRefund(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/refund", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "9001", body["transaction"])
		assert.EqualValues(t, 50000, body["amount"])
		w.Write([]byte(`{"status":true,"message":"Refund has been queued","data":{"id":77,"status":"pending","amount":50000,"currency":"NGN"}}`))
	})

	res, err := c.Refund(context.Background(), gateway.RefundRequest{TransactionID: "9001", Amount: entity.MustMoney("500", "NGN")})
	require.NoError(t, err)
	assert.Equal(t, "77", res.RefundID)
	assert.Equal(t, "NGN 500.00", res.Amount.String())
}

func TestFailuresWrapGatewayError(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-2xx": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"status":false,"message":"boom"}`))
		},
		"status false": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
		},
		"malformed": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		},
		"timeout": func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			c, err := NewClient(Config{SecretKey: "sk_test", BaseURL: srv.URL, Timeout: 100 * time.Millisecond})
			require.NoError(t, err)

			_, err = c.Verify(context.Background(), "ref_1")
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrGateway)
		})
	}
}

func TestWebhookSignature(t *testing.T) {
	c, err := NewClient(Config{SecretKey: "sk_test"})
	require.NoError(t, err)
	body := []byte(`{"event":"charge.success","data":{"reference":"ref_1"}}`)

	assert.True(t, c.VerifyWebhookSignature(body, Sign("sk_test", body)))
	assert.False(t, c.VerifyWebhookSignature(body, Sign("other", body)))
	assert.False(t, c.VerifyWebhookSignature(body, ""))
	assert.False(t, c.VerifyWebhookSignature(body, "not-hex"))
	assert.False(t, c.VerifyWebhookSignature(append(body, ' '), Sign("sk_test", body)))
}

func TestNewClientRequiresSecret(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}
