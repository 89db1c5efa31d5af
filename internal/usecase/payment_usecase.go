package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
)

// PaymentUsecase reconciles gateway interactions with payment and order state.
type PaymentUsecase interface {
	Initiate(ctx context.Context, userID string, input InitiatePaymentInput) (*entity.Payment, error)
	Verify(ctx context.Context, userID, reference string) (*entity.Payment, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
	Refund(ctx context.Context, input RefundInput) (*RefundResult, error)
	Get(ctx context.Context, userID, paymentID string) (*entity.Payment, error)
	ListByOrder(ctx context.Context, userID, orderID string) ([]*entity.Payment, error)
}

// InitiatePaymentInput starts a payment attempt for an order. CallbackURL
// overrides the configured default.
type InitiatePaymentInput struct {
	OrderID     string
	Email       string
	CallbackURL string
}

// RefundInput requests a full or partial refund. Staff may refund any
// payment; other callers only their own.
type RefundInput struct {
	PaymentID string
	UserID    string
	Staff     bool
	Amount    decimal.Decimal
	Reason    string
}

type RefundResult struct {
	Payment  *entity.Payment
	RefundID string
	Amount   entity.Money
	Status   string
}

// WebhookResult is what the webhook endpoint acknowledges back to the gateway.
type WebhookResult struct {
	Processed bool
	Message   string
}
