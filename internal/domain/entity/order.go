package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// OrderPaymentStatus is the order-level view of payment, distinct from a
// Payment row's own status.
type OrderPaymentStatus string

const (
	OrderPaymentPending  OrderPaymentStatus = "pending"
	OrderPaymentPaid     OrderPaymentStatus = "paid"
	OrderPaymentFailed   OrderPaymentStatus = "failed"
	OrderPaymentRefunded OrderPaymentStatus = "refunded"
)

// Order is created once from a cart snapshot. ID, UserID and OrderNumber
// never change; Status and PaymentStatus move through the state machine below.
type Order struct {
	ID              string
	UserID          string
	OrderNumber     string
	Status          OrderStatus
	PaymentStatus   OrderPaymentStatus
	Total           OrderTotal
	ShippingAddress Address
	IdempotencyKey  string
	Lines           []*OrderLine
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewOrder(userID, orderNumber string, total OrderTotal, shippingAddress Address) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		OrderNumber:     orderNumber,
		Status:          OrderStatusPending,
		PaymentStatus:   OrderPaymentPending,
		Total:           total,
		ShippingAddress: shippingAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (o *Order) BelongsTo(userID string) bool { return o.UserID == userID }

func (o *Order) IsPaid() bool { return o.PaymentStatus == OrderPaymentPaid }

func (o *Order) Confirm() error {
	return o.advance("confirm", OrderStatusPending, OrderStatusConfirmed)
}

func (o *Order) StartProcessing() error {
	return o.advance("start processing", OrderStatusConfirmed, OrderStatusProcessing)
}

func (o *Order) Ship() error {
	return o.advance("ship", OrderStatusProcessing, OrderStatusShipped)
}

func (o *Order) Deliver() error {
	return o.advance("deliver", OrderStatusShipped, OrderStatusDelivered)
}

func (o *Order) CanBeCancelled() bool {
	switch o.Status {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return false
	}
	return true
}

func (o *Order) Cancel() error {
	if !o.CanBeCancelled() {
		return &InvalidTransitionError{From: o.Status, Action: "cancel"}
	}
	o.Status = OrderStatusCancelled
	o.touch()
	return nil
}

// CanBeRefunded is true for a paid order that has shipped or been delivered.
func (o *Order) CanBeRefunded() bool {
	return o.IsPaid() && (o.Status == OrderStatusShipped || o.Status == OrderStatusDelivered)
}

func (o *Order) Refund() error {
	if !o.CanBeRefunded() {
		return &InvalidTransitionError{From: o.Status, Action: "refund"}
	}
	o.Status = OrderStatusRefunded
	o.PaymentStatus = OrderPaymentRefunded
	o.touch()
	return nil
}

func (o *Order) MarkAsPaid() error {
	if o.IsPaid() {
		return ErrOrderAlreadyPaid
	}
	o.PaymentStatus = OrderPaymentPaid
	o.touch()
	return nil
}

func (o *Order) MarkPaymentFailed() {
	o.PaymentStatus = OrderPaymentFailed
	o.touch()
}

// IsPayable reports whether a new payment may be initiated for the order.
func (o *Order) IsPayable() error {
	if o.IsPaid() {
		return ErrOrderAlreadyPaid
	}
	if o.Status == OrderStatusCancelled || o.Status == OrderStatusRefunded {
		return fmt.Errorf("%w: status %s", ErrOrderNotPayable, o.Status)
	}
	return nil
}

func (o *Order) UpdateShippingAddress(addr Address) error {
	if o.Status != OrderStatusPending && o.Status != OrderStatusConfirmed {
		return &InvalidTransitionError{From: o.Status, Action: "change shipping address of"}
	}
	if err := addr.Validate(); err != nil {
		return err
	}
	o.ShippingAddress = addr
	o.touch()
	return nil
}

func (o *Order) advance(action string, from, to OrderStatus) error {
	if o.Status != from {
		return &InvalidTransitionError{From: o.Status, Action: action}
	}
	o.Status = to
	o.touch()
	return nil
}

func (o *Order) touch() { o.UpdatedAt = time.Now().UTC() }
