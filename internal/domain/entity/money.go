package entity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places every Money amount is held at.
const MoneyScale = 2

var minorFactor = decimal.NewFromInt(100)

// Money is an immutable non-negative amount in a single currency.
// Amounts are rounded half-up to two decimal places at construction
// (shopspring rounds half away from zero, which is half-up for the
// non-negative amounts Money admits).
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney validates currency and amount and rounds the amount to MoneyScale.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if !validCurrency(cur) {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s", ErrNegativeAmount, amount.String())
	}
	return Money{amount: amount.Round(MoneyScale), currency: cur}, nil
}

// MoneyFromString parses a decimal string such as "1250.50".
func MoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("%w: invalid amount %q", ErrInvalidAmount, amount)
	}
	return NewMoney(d, currency)
}

// MustMoney is NewMoney from a string that panics on error; intended for
// constants and tests.
func MustMoney(amount, currency string) Money {
	m, err := MoneyFromString(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns a zero amount in currency.
func ZeroMoney(currency string) (Money, error) {
	return NewMoney(decimal.Zero, currency)
}

// MoneyFromMinor converts a minor-unit integer (kobo, cents) into Money.
func MoneyFromMinor(minor int64, currency string) (Money, error) {
	return NewMoney(decimal.NewFromInt(minor).Div(minorFactor), currency)
}

func (m Money) Amount() decimal.Decimal { return m.amount }

func (m Money) Currency() string { return m.currency }

// MinorUnits returns the amount multiplied by 100, the unit payment gateways expect.
func (m Money) MinorUnits() int64 {
	return m.amount.Mul(minorFactor).Round(0).IntPart()
}

func (m Money) IsZero() bool { return m.amount.IsZero() }

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract fails with ErrNegativeResult when other is larger than m.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	res := m.amount.Sub(other.amount)
	if res.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrNegativeResult, m, other)
	}
	return Money{amount: res, currency: m.currency}, nil
}

func (m Money) Multiply(factor decimal.Decimal) (Money, error) {
	if factor.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidFactor, factor.String())
	}
	return Money{amount: m.amount.Mul(factor).Round(MoneyScale), currency: m.currency}, nil
}

// MultiplyInt is Multiply for integer quantities.
func (m Money) MultiplyInt(n int) (Money, error) {
	return m.Multiply(decimal.NewFromInt(int64(n)))
}

func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) IsGreaterThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

func (m Money) IsLessThan(other Money) (bool, error) {
	if err := m.sameCurrency(other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

func (m Money) String() string {
	return m.currency + " " + m.amount.StringFixed(MoneyScale)
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}

func validCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
