// Package currency converts amounts between the supported currencies and the
// base currency, and provides the live USD->MXN rate used when a record does
// not carry its own.
package currency

import (
	"math"

	"zent/internal/core"
)

// FallbackRate is the MXN per USD rate used when no live rate can be obtained.
const FallbackRate = 17.0

// EffectiveRate returns live when it is a usable rate, FallbackRate otherwise.
func EffectiveRate(live float64) float64 {
	if !core.ValidAmount(live) {
		return FallbackRate
	}
	return live
}

// ToBase converts amount in cur to MXN. A per-record rate, when present and
// positive, wins over the live rate.
func ToBase(amount float64, cur core.Currency, perRecordRate *float64, liveRate float64) float64 {
	if cur != core.USD {
		return amount
	}
	if core.ValidRate(perRecordRate) {
		return amount * *perRecordRate
	}
	return amount * EffectiveRate(liveRate)
}

// FromBase converts an MXN amount into display currency.
func FromBase(amountMXN float64, display core.Currency, liveRate float64) float64 {
	if display != core.USD {
		return amountMXN
	}
	return amountMXN / EffectiveRate(liveRate)
}

// IncomeBase returns the MXN value of an income, trusting the stored converted
// amount and recomputing it only when it is missing.
func IncomeBase(e core.IncomeEvent, liveRate float64) float64 {
	if e.Currency == core.BaseCurrency {
		return e.Amount
	}
	if e.ConvertedAmount > 0 && !math.IsInf(e.ConvertedAmount, 0) {
		return e.ConvertedAmount
	}
	return ToBase(e.Amount, e.Currency, e.RateUsed, liveRate)
}

// ExpenseBase returns the MXN value of an expense.
func ExpenseBase(e core.ExpenseEvent, liveRate float64) float64 {
	if e.Currency == core.BaseCurrency {
		return e.Amount
	}
	if e.ConvertedAmount > 0 && !math.IsInf(e.ConvertedAmount, 0) {
		return e.ConvertedAmount
	}
	return ToBase(e.Amount, e.Currency, nil, liveRate)
}
