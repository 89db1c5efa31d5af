package presenter

import (
	"time"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
)

const timeLayout = time.RFC3339

// MoneyResponse renders an amount as a fixed two-decimal string so clients
// never parse money through floating point.
type MoneyResponse struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func toMoney(m entity.Money) MoneyResponse {
	return MoneyResponse{Amount: m.Amount().StringFixed(entity.MoneyScale), Currency: m.Currency()}
}
