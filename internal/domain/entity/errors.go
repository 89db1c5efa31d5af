package entity

import (
	"fmt"

	"github.com/stylehub/commerce-backend/internal/domain/apperror"
)

// Money
var (
	ErrInvalidCurrency  = apperror.New(apperror.ErrValidation, "currency must be a 3-letter code")
	ErrInvalidAmount    = apperror.New(apperror.ErrValidation, "amount is not a decimal number")
	ErrNegativeAmount   = apperror.New(apperror.ErrValidation, "amount cannot be negative")
	ErrNegativeResult   = apperror.New(apperror.ErrValidation, "subtraction would produce a negative amount")
	ErrInvalidFactor    = apperror.New(apperror.ErrValidation, "multiplication factor cannot be negative")
	ErrCurrencyMismatch = apperror.New(apperror.ErrValidation, "currency mismatch")
)

// Cart and inventory
var (
	ErrCartNotFound      = apperror.New(apperror.ErrNotFound, "cart not found")
	ErrCartExists        = apperror.New(apperror.ErrConflict, "user already has a cart")
	ErrItemNotFound      = apperror.New(apperror.ErrNotFound, "cart item not found")
	ErrInvalidQuantity   = apperror.New(apperror.ErrValidation, "quantity must be between 1 and 999")
	ErrVariantNotFound   = apperror.New(apperror.ErrNotFound, "product variant not found")
	ErrVariantInactive   = apperror.New(apperror.ErrValidation, "product variant is not available")
	ErrInsufficientStock = apperror.New(apperror.ErrValidation, "insufficient stock")
)

// Order
var (
	ErrEmptyCart         = apperror.New(apperror.ErrValidation, "cart is empty")
	ErrOrderNotFound     = apperror.New(apperror.ErrNotFound, "order not found")
	ErrAddressValidation = apperror.New(apperror.ErrValidation, "invalid shipping address")
	ErrInvalidDiscount   = apperror.New(apperror.ErrValidation, "discount percentage must be between 0 and 100")
	ErrInvalidTransition = apperror.New(apperror.ErrValidation, "invalid order status transition")
	ErrOrderAlreadyPaid  = apperror.New(apperror.ErrConflict, "order is already paid")
	ErrOrderNotPayable   = apperror.New(apperror.ErrValidation, "order cannot be paid in its current status")
	ErrDuplicateOrder    = apperror.New(apperror.ErrConflict, "order already exists")
)

// Payment
var (
	ErrPaymentNotFound           = apperror.New(apperror.ErrNotFound, "payment not found")
	ErrPaymentAlreadyProcessed   = apperror.New(apperror.ErrConflict, "payment already processed")
	ErrPaymentNotRefundable      = apperror.New(apperror.ErrValidation, "payment is not refundable")
	ErrRefundExceedsBalance      = apperror.New(apperror.ErrValidation, "refund amount exceeds refundable balance")
	ErrInvalidRefundAmount       = apperror.New(apperror.ErrValidation, "refund amount must be greater than zero")
	ErrInvalidSignature          = apperror.New(apperror.ErrUnauthorized, "invalid webhook signature")
	ErrPaymentVerificationFailed = apperror.New(apperror.ErrValidation, "payment verification failed")
	ErrAmountMismatch            = apperror.New(apperror.ErrValidation, "paid amount does not match payment amount")
	ErrInvalidPaymentTransition  = apperror.New(apperror.ErrConflict, "invalid payment status transition")
)

// InsufficientStockError reports a variant whose stock cannot cover a request.
type InsufficientStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock || target == apperror.ErrValidation
}

// InvalidTransitionError reports an order status change that the state machine rejects.
type InvalidTransitionError struct {
	From   OrderStatus
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s order in status %s", e.Action, e.From)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition || target == apperror.ErrValidation
}
