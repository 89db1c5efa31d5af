package presenter

import (
	"github.com/stylehub/commerce-backend/internal/domain/entity"
	"github.com/stylehub/commerce-backend/internal/usecase"
)

type PaymentPresenter struct{}

func NewPaymentPresenter() *PaymentPresenter {
	return &PaymentPresenter{}
}

type PaymentResponse struct {
	ID             string                `json:"id"`
	OrderID        string                `json:"orderId"`
	Provider       string                `json:"provider"`
	Reference      string                `json:"reference,omitempty"`
	TransactionID  string                `json:"transactionId,omitempty"`
	Status         string                `json:"status"`
	Amount         MoneyResponse         `json:"amount"`
	RefundedAmount MoneyResponse         `json:"refundedAmount"`
	PaymentMethod  *entity.PaymentMethod `json:"paymentMethod,omitempty"`
	FailureReason  string                `json:"failureReason,omitempty"`
	CreatedAt      string                `json:"createdAt"`
	UpdatedAt      string                `json:"updatedAt"`
}

// InitiationResponse is what a client needs to send the shopper to checkout.
type InitiationResponse struct {
	PaymentID        string        `json:"paymentId"`
	AuthorizationURL string        `json:"authorizationUrl"`
	AccessCode       string        `json:"accessCode"`
	Reference        string        `json:"reference"`
	Amount           MoneyResponse `json:"amount"`
}

type RefundResponse struct {
	PaymentID string        `json:"paymentId"`
	RefundID  string        `json:"refundId"`
	Amount    MoneyResponse `json:"amount"`
	Status    string        `json:"status"`
	Message   string        `json:"message"`
}

func (p *PaymentPresenter) ToResponse(pay *entity.Payment) *PaymentResponse {
	if pay == nil {
		return nil
	}
	return &PaymentResponse{
		ID:             pay.ID,
		OrderID:        pay.OrderID,
		Provider:       string(pay.Provider),
		Reference:      pay.Reference(),
		TransactionID:  pay.TransactionID,
		Status:         string(pay.Status),
		Amount:         toMoney(pay.Amount),
		RefundedAmount: toMoney(pay.RefundedAmount),
		PaymentMethod:  pay.PaymentMethod,
		FailureReason:  pay.FailureReason,
		CreatedAt:      pay.CreatedAt.Format(timeLayout),
		UpdatedAt:      pay.UpdatedAt.Format(timeLayout),
	}
}

func (p *PaymentPresenter) ToList(payments []*entity.Payment) []*PaymentResponse {
	result := make([]*PaymentResponse, 0, len(payments))
	for _, pay := range payments {
		result = append(result, p.ToResponse(pay))
	}
	return result
}

func (p *PaymentPresenter) ToInitiation(pay *entity.Payment) *InitiationResponse {
	return &InitiationResponse{
		PaymentID:        pay.ID,
		AuthorizationURL: pay.Metadata.AuthorizationURL,
		AccessCode:       pay.Metadata.AccessCode,
		Reference:        pay.Reference(),
		Amount:           toMoney(pay.Amount),
	}
}

func (p *PaymentPresenter) ToRefund(res *usecase.RefundResult) *RefundResponse {
	msg := "refund processed"
	if res.Payment.Status == entity.PaymentStatusPartiallyRefunded {
		msg = "partial refund processed"
	}
	return &RefundResponse{
		PaymentID: res.Payment.ID,
		RefundID:  res.RefundID,
		Amount:    toMoney(res.Amount),
		Status:    res.Status,
		Message:   msg,
	}
}
