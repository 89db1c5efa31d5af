package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PaymentProvider string

const (
	PaymentProviderPaystack PaymentProvider = "paystack"
	PaymentProviderStripe   PaymentProvider = "stripe"
	PaymentProviderManual   PaymentProvider = "manual"
)

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusProcessing        PaymentStatus = "processing"
	PaymentStatusSuccess           PaymentStatus = "success"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

// PaymentMethod describes how the customer paid, as reported by the gateway.
type PaymentMethod struct {
	Type        string `json:"type"`
	Channel     string `json:"channel,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Last4       string `json:"last4,omitempty"`
	ExpMonth    string `json:"expMonth,omitempty"`
	ExpYear     string `json:"expYear,omitempty"`
	Bank        string `json:"bank,omitempty"`
	AccountName string `json:"accountName,omitempty"`
}

// PaymentMetadata holds the typed correlation data for a payment. Extra is
// reserved for provider-specific values.
type PaymentMetadata struct {
	Reference        string            `json:"reference,omitempty"`
	AccessCode       string            `json:"accessCode,omitempty"`
	AuthorizationURL string            `json:"authorizationUrl,omitempty"`
	OrderID          string            `json:"orderId"`
	OrderNumber      string            `json:"orderNumber"`
	UserID           string            `json:"userId,omitempty"`
	CustomerEmail    string            `json:"customerEmail,omitempty"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// Payment is one attempt to charge an order. An order may accumulate several.
type Payment struct {
	ID             string
	OrderID        string
	Provider       PaymentProvider
	TransactionID  string
	Status         PaymentStatus
	Amount         Money
	RefundedAmount Money
	// PendingRefund is reserved for refunds sent to the gateway but not yet settled.
	PendingRefund  Money
	PaymentMethod  *PaymentMethod
	Metadata       PaymentMetadata
	FailureReason  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewPayment(orderID string, provider PaymentProvider, amount Money, meta PaymentMetadata) (*Payment, error) {
	refunded, err := ZeroMoney(amount.Currency())
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	meta.OrderID = orderID
	return &Payment{
		ID:             uuid.NewString(),
		OrderID:        orderID,
		Provider:       provider,
		Status:         PaymentStatusPending,
		Amount:         amount,
		RefundedAmount: refunded,
		PendingRefund:  refunded,
		Metadata:       meta,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Reference is the gateway's correlation id for this attempt.
func (p *Payment) Reference() string { return p.Metadata.Reference }

func (p *Payment) AttachReference(reference, accessCode, authorizationURL string) {
	p.Metadata.Reference = reference
	p.Metadata.AccessCode = accessCode
	p.Metadata.AuthorizationURL = authorizationURL
	p.touch()
}

func (p *Payment) IsSuccessful() bool { return p.Status == PaymentStatusSuccess }

// IsAwaitingConfirmation is true while the gateway has not settled the payment.
func (p *Payment) IsAwaitingConfirmation() bool {
	return p.Status == PaymentStatusPending || p.Status == PaymentStatusProcessing
}

func (p *Payment) MarkAsProcessing() error {
	if p.Status != PaymentStatusPending {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPaymentTransition, p.Status, PaymentStatusProcessing)
	}
	p.Status = PaymentStatusProcessing
	p.touch()
	return nil
}

// MarkAsSuccessful records a gateway-confirmed charge.
func (p *Payment) MarkAsSuccessful(transactionID string, method *PaymentMethod) error {
	if p.IsSuccessful() {
		return ErrPaymentAlreadyProcessed
	}
	if !p.IsAwaitingConfirmation() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPaymentTransition, p.Status, PaymentStatusSuccess)
	}
	p.TransactionID = transactionID
	if method != nil {
		p.PaymentMethod = method
	}
	p.Status = PaymentStatusSuccess
	p.FailureReason = ""
	p.touch()
	return nil
}

// MarkAsFailed only applies to unsettled payments; a successful payment
// never regresses to failed.
func (p *Payment) MarkAsFailed(reason string) error {
	if !p.IsAwaitingConfirmation() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidPaymentTransition, p.Status, PaymentStatusFailed)
	}
	p.Status = PaymentStatusFailed
	p.FailureReason = reason
	p.touch()
	return nil
}

// IsRefundable is true for a settled payment with an unrefunded balance.
func (p *Payment) IsRefundable() bool {
	if p.Status != PaymentStatusSuccess && p.Status != PaymentStatusPartiallyRefunded {
		return false
	}
	balance, err := p.RefundableBalance()
	return err == nil && !balance.IsZero()
}

// RefundableBalance is Amount - RefundedAmount - PendingRefund.
func (p *Payment) RefundableBalance() (Money, error) {
	balance, err := p.Amount.Subtract(p.RefundedAmount)
	if err != nil {
		return Money{}, err
	}
	return balance.Subtract(p.PendingRefund)
}

// ValidateRefund checks amount against the refundable balance without mutating.
func (p *Payment) ValidateRefund(amount Money) error {
	if amount.IsZero() {
		return ErrInvalidRefundAmount
	}
	if !p.IsRefundable() {
		return fmt.Errorf("%w: status %s", ErrPaymentNotRefundable, p.Status)
	}
	balance, err := p.RefundableBalance()
	if err != nil {
		return err
	}
	over, err := amount.IsGreaterThan(balance)
	if err != nil {
		return err
	}
	if over {
		return fmt.Errorf("%w: requested %s, available %s", ErrRefundExceedsBalance, amount, balance)
	}
	return nil
}

// ReserveRefund holds amount against the refundable balance while the
// gateway processes it. Settle with ProcessReservedRefund or undo with
// ReleaseRefund.
func (p *Payment) ReserveRefund(amount Money) error {
	if err := p.ValidateRefund(amount); err != nil {
		return err
	}
	pending, err := p.PendingRefund.Add(amount)
	if err != nil {
		return err
	}
	p.PendingRefund = pending
	p.touch()
	return nil
}

// ReleaseRefund drops a reservation made by ReserveRefund.
func (p *Payment) ReleaseRefund(amount Money) error {
	over, err := amount.IsGreaterThan(p.PendingRefund)
	if err != nil {
		return err
	}
	if over {
		return fmt.Errorf("%w: releasing %s, reserved %s", ErrInvalidRefundAmount, amount, p.PendingRefund)
	}
	if p.PendingRefund, err = p.PendingRefund.Subtract(amount); err != nil {
		return err
	}
	p.touch()
	return nil
}

// ProcessReservedRefund turns a reservation into a recorded refund.
func (p *Payment) ProcessReservedRefund(amount Money) error {
	if err := p.ReleaseRefund(amount); err != nil {
		return err
	}
	return p.ProcessRefund(amount)
}

// ProcessRefund adds amount to the cumulative refund and moves the status to
// refunded or partially_refunded.
func (p *Payment) ProcessRefund(amount Money) error {
	if err := p.ValidateRefund(amount); err != nil {
		return err
	}
	refunded, err := p.RefundedAmount.Add(amount)
	if err != nil {
		return err
	}
	p.RefundedAmount = refunded
	if p.IsFullyRefunded() {
		p.Status = PaymentStatusRefunded
	} else {
		p.Status = PaymentStatusPartiallyRefunded
	}
	p.touch()
	return nil
}

func (p *Payment) IsFullyRefunded() bool {
	return p.RefundedAmount.Equals(p.Amount)
}

func (p *Payment) touch() { p.UpdatedAt = time.Now().UTC() }
