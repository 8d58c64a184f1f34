//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a request does not name one.
const DefaultCurrency = "usd"

// moneyPlaces is the number of decimal places carried by every amount.
const moneyPlaces = 2

// DefaultDepositRate is the share of a milestone amount requested up front
// when the client does not supply a deposit.
var DefaultDepositRate = decimal.NewFromFloat(0.10)

// RoundMoney rounds d to two decimal places, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// DefaultDeposit returns round(amount × 0.10, 2).
func DefaultDeposit(amount decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(DefaultDepositRate))
}

// ToMinorUnits converts a two-place amount to the processor's integer minor units (cents).
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Shift(moneyPlaces).Round(0).IntPart()
}

// FromMinorUnits converts integer minor units back to a decimal amount.
func FromMinorUnits(v int64) decimal.Decimal {
	return decimal.New(v, -moneyPlaces)
}

// NormalizeCurrency lowercases and trims an ISO 4217 code, defaulting to usd.
func NormalizeCurrency(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" {
		return DefaultCurrency
	}
	return c
}

// validAmount reports whether d is strictly positive with at most two decimal places.
func validAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(RoundMoney(d))
}
