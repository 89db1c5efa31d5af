// Package gateway defines the contract with external payment providers.
// Implementations convert amounts to the provider's minor unit at their
// boundary; everything here is in major units.
package gateway

import (
	"context"
	"time"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
)

// Transaction statuses reported by Verify.
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
	StatusPending   = "pending"
	StatusReversed  = "reversed"
)

// Webhook event types the reconciler acts on. Others are ignored.
const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

type InitializeRequest struct {
	Email       string
	Amount      entity.Money
	Reference   string
	CallbackURL string
	Metadata    map[string]string
}

type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type VerifyResult struct {
	Reference     string
	TransactionID string
	Status        string
	Amount        entity.Money
	PaidAt        *time.Time
	Method        *entity.PaymentMethod
	Message       string
}

type RefundRequest struct {
	TransactionID string
	Reference     string
	Amount        entity.Money
	Reason        string
}

type RefundResult struct {
	RefundID string
	Status   string
	Amount   entity.Money
}

// PaymentGateway is the four-operation protocol every provider implements.
type PaymentGateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
	VerifyWebhookSignature(payload []byte, signature string) bool
}

// WebhookEvent is the provider-neutral envelope of a webhook body.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

type WebhookData struct {
	ID            int64               `json:"id"`
	Reference     string              `json:"reference"`
	Status        string              `json:"status"`
	Amount        int64               `json:"amount"`
	Currency      string              `json:"currency"`
	Channel       string              `json:"channel"`
	GatewayReason string              `json:"gateway_response"`
	Authorization WebhookAuthorization `json:"authorization"`
	Customer      struct {
		Email string `json:"email"`
	} `json:"customer"`
}

type WebhookAuthorization struct {
	CardType    string `json:"card_type"`
	Last4       string `json:"last4"`
	ExpMonth    string `json:"exp_month"`
	ExpYear     string `json:"exp_year"`
	Bank        string `json:"bank"`
	Brand       string `json:"brand"`
	Channel     string `json:"channel"`
	AccountName string `json:"account_name"`
}

// Method converts the authorization block into a PaymentMethod.
func (a WebhookAuthorization) Method(channel string) *entity.PaymentMethod {
	if channel == "" {
		channel = a.Channel
	}
	typ := channel
	if typ == "" {
		typ = "card"
	}
	return &entity.PaymentMethod{
		Type:        typ,
		Channel:     channel,
		Brand:       firstNonEmpty(a.Brand, a.CardType),
		Last4:       a.Last4,
		ExpMonth:    a.ExpMonth,
		ExpYear:     a.ExpYear,
		Bank:        a.Bank,
		AccountName: a.AccountName,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
