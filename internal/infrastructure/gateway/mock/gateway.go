// Package mock is an in-process payment gateway with the live adapter's
// contract. It is used for local development and tests.
package mock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/stylehub/commerce-backend/internal/domain/apperror"
	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/domain/gateway"
	"github.com/stylehub/commerce-backend/internal/infrastructure/gateway/paystack"
)

const DefaultSecret = "mock_secret"

type transaction struct {
	id     string
	amount entity.Money
	status string
	paid   *entity.Money
}

// Gateway settles every initialized transaction as successful unless a test
// scripts otherwise.
type Gateway struct {
	mu      sync.Mutex
	secret  string
	txs     map[string]*transaction
	seq     int
	refunds []gateway.RefundRequest

	initErr   error
	verifyErr error
	refundErr error
}

var _ gateway.PaymentGateway = (*Gateway)(nil)

func New(secret string) *Gateway {
	if secret == "" {
		secret = DefaultSecret
	}
	return &Gateway{secret: secret, txs: make(map[string]*transaction)}
}

// FailInitialize makes the next Initialize calls fail with a gateway error.
func (g *Gateway) FailInitialize(msg string) { g.set(&g.initErr, msg) }

func (g *Gateway) FailVerify(msg string) { g.set(&g.verifyErr, msg) }

func (g *Gateway) FailRefund(msg string) { g.set(&g.refundErr, msg) }

func (g *Gateway) set(target *error, msg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if msg == "" {
		*target = nil
		return
	}
	*target = fmt.Errorf("%w: mock: %s", apperror.ErrGateway, msg)
}

// SetStatus overrides what Verify reports for reference.
func (g *Gateway) SetStatus(reference, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if tx, ok := g.txs[reference]; ok {
		tx.status = status
	}
}

// SetPaidAmount overrides the amount Verify reports as collected.
func (g *Gateway) SetPaidAmount(reference string, amount entity.Money) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if tx, ok := g.txs[reference]; ok {
		tx.paid = &amount
	}
}

// Refunds returns every refund accepted so far.
func (g *Gateway) Refunds() []gateway.RefundRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.RefundRequest(nil), g.refunds...)
}

func (g *Gateway) Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.initErr != nil {
		return nil, g.initErr
	}
	ref, err := newReference()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrGateway, err)
	}
	g.seq++
	g.txs[ref] = &transaction{id: fmt.Sprintf("mock_tx_%d", g.seq), amount: req.Amount, status: gateway.StatusSuccess}
	return &gateway.InitializeResult{
		AuthorizationURL: "https://checkout.mock.local/" + ref,
		AccessCode:       "mock_access_" + ref[len("mock_ref_"):],
		Reference:        ref,
	}, nil
}

func (g *Gateway) Verify(ctx context.Context, reference string) (*gateway.VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	tx, ok := g.txs[reference]
	if !ok {
		return nil, fmt.Errorf("%w: mock: unknown reference %s", apperror.ErrGateway, reference)
	}
	amount := tx.amount
	if tx.paid != nil {
		amount = *tx.paid
	}
	res := &gateway.VerifyResult{
		Reference:     reference,
		TransactionID: tx.id,
		Status:        tx.status,
		Amount:        amount,
		Message:       tx.status,
	}
	if tx.status == gateway.StatusSuccess {
		now := time.Now().UTC()
		res.PaidAt = &now
		res.Method = &entity.PaymentMethod{Type: "card", Channel: "card", Brand: "visa", Last4: "4081", ExpMonth: "12", ExpYear: "2030"}
	}
	return res, nil
}

func (g *Gateway) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refunds = append(g.refunds, req)
	return &gateway.RefundResult{
		RefundID: fmt.Sprintf("mock_refund_%d", len(g.refunds)),
		Status:   "processed",
		Amount:   req.Amount,
	}, nil
}

func (g *Gateway) VerifyWebhookSignature(payload []byte, signature string) bool {
	return paystack.VerifySignature(g.secret, payload, signature)
}

// Sign produces a valid webhook signature for payload.
func (g *Gateway) Sign(payload []byte) string {
	return paystack.Sign(g.secret, payload)
}

func newReference() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "mock_ref_" + hex.EncodeToString(b), nil
}
