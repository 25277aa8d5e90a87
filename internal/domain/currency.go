package domain

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultAmountScale is the number of decimal places accepted on movement
// amounts when no currency is configured.
const DefaultAmountScale int32 = 2

// AmountScaleForCurrency returns the number of decimal places of the
// currency's minor unit.
func AmountScaleForCurrency(code string) (int32, error) {
	cur := money.GetCurrency(strings.ToUpper(strings.TrimSpace(code)))
	if cur == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return int32(cur.Fraction), nil
}

// ToleranceForCurrency returns one minor unit of the currency, the balance
// tolerance for entries kept in that currency.
func ToleranceForCurrency(code string) (decimal.Decimal, error) {
	cur := money.GetCurrency(strings.ToUpper(strings.TrimSpace(code)))
	if cur == nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return decimal.New(1, -int32(cur.Fraction)), nil
}

// FormatAmount renders amount with the currency's symbol and separators.
func FormatAmount(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(strings.ToUpper(code))
	if cur == nil {
		return amount.StringFixed(2)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}
