package usecase

import (
	"time"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
)

// OrderEvent is the payload of every order.* outbox event.
type OrderEvent struct {
	OrderID       string    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	UserID        string    `json:"userId"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	PreviousState string    `json:"previousStatus,omitempty"`
	TotalAmount   string    `json:"totalAmount"`
	Currency      string    `json:"currency"`
	ItemCount     int       `json:"itemCount,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// PaymentEvent is the payload of every payment.* outbox event.
type PaymentEvent struct {
	PaymentID      string    `json:"paymentId"`
	OrderID        string    `json:"orderId"`
	Reference      string    `json:"reference,omitempty"`
	TransactionID  string    `json:"transactionId,omitempty"`
	Status         string    `json:"status"`
	Amount         string    `json:"amount"`
	RefundedAmount string    `json:"refundedAmount"`
	Currency       string    `json:"currency"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

func orderEvent(topic string, o *entity.Order, previous entity.OrderStatus) (*entity.OutboxEvent, error) {
	items := 0
	for _, l := range o.Lines {
		items += l.Quantity
	}
	return entity.NewOutboxEvent(topic, o.ID, OrderEvent{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PreviousState: string(previous),
		TotalAmount:   o.Total.TotalAmount.Amount().StringFixed(entity.MoneyScale),
		Currency:      o.Total.Currency(),
		ItemCount:     items,
		OccurredAt:    time.Now().UTC(),
	})
}

func paymentEvent(topic string, p *entity.Payment, reason string) (*entity.OutboxEvent, error) {
	return entity.NewOutboxEvent(topic, p.OrderID, PaymentEvent{
		PaymentID:      p.ID,
		OrderID:        p.OrderID,
		Reference:      p.Reference(),
		TransactionID:  p.TransactionID,
		Status:         string(p.Status),
		Amount:         p.Amount.Amount().StringFixed(entity.MoneyScale),
		RefundedAmount: p.RefundedAmount.Amount().StringFixed(entity.MoneyScale),
		Currency:       p.Amount.Currency(),
		Reason:         reason,
		OccurredAt:     time.Now().UTC(),
	})
}
