package postgres

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stylehub/commerce-backend/internal/domain/entity"
)

type scanner interface {
	Scan(dest ...any) error
}

func toMoney(amount decimal.Decimal, currency string) (entity.Money, error) {
	return entity.NewMoney(amount, strings.TrimSpace(currency))
}
