package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	MXN Currency = "MXN"
	USD Currency = "USD"

	// BaseCurrency is the currency every multi-currency amount is normalized to.
	BaseCurrency = MXN
)

type (
	Currency string

	Account struct {
		ID       string   // Opaque id assigned by the persistence layer
		Slug     string   // Stable short identifier, primary lookup key
		Name     string   // Display name
		Currency Currency // Native currency of the balance
	}

	IncomeEvent struct {
		ID              string
		Timestamp       time.Time
		Amount          float64
		Currency        Currency
		ConvertedAmount float64 // Amount expressed in MXN
		OriginalText    string
		Account         string // Slug or id reference
		IsSalary        bool
		RateUsed        *float64
	}

	ExpenseEvent struct {
		ID              string
		Timestamp       time.Time
		Amount          float64 // In the paying account's native currency
		Currency        Currency
		ConvertedAmount float64
		Category        string // Leaf label
		Group           string // Category's parent group
		Type            ExpenseType
		Account         string
	}

	TransferEvent struct {
		ID               string
		Timestamp        time.Time
		From             string
		To               string
		AmountSent       float64
		CurrencySent     Currency
		AmountReceived   float64
		CurrencyReceived Currency
		Spread           float64
		Rate             *float64
		IsWithdrawal     bool
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidCurrency  = errors.New("invalid currency")
	ErrEmptyAccount     = errors.New("empty account reference")
	ErrEmptyName        = errors.New("empty account name")
	ErrSameAccount      = errors.New("source and destination accounts must differ")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrInvalidRate      = errors.New("invalid exchange rate")
	ErrMissingTimestamp = errors.New("timestamp cannot be zero")
)

// ParseCurrency normalizes a currency code. Unknown codes are rejected.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case MXN:
		return MXN, nil
	case USD:
		return USD, nil
	}
	return "", ErrInvalidCurrency
}

func (c Currency) Validate() error {
	if c != MXN && c != USD {
		return ErrInvalidCurrency
	}
	return nil
}

func (c Currency) String() string { return string(c) }

// ValidAmount reports whether v is a finite, strictly positive amount.
func ValidAmount(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// ValidRate reports whether r is present, finite and positive.
func ValidRate(r *float64) bool {
	return r != nil && ValidAmount(*r)
}

// Rate returns a pointer to v, or nil when v is not a usable rate.
func Rate(v float64) *float64 {
	if !ValidAmount(v) {
		return nil
	}
	return &v
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 80 {
		return errors.New("account name too long (max 80 characters)")
	}
	return a.Currency.Validate()
}

func (e IncomeEvent) Validate() error {
	if e.Timestamp.IsZero() {
		return ErrMissingTimestamp
	}
	if !ValidAmount(e.Amount) {
		return ErrInvalidAmount
	}
	if err := e.Currency.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Account) == "" {
		return ErrEmptyAccount
	}
	if e.RateUsed != nil && !ValidRate(e.RateUsed) {
		return ErrInvalidRate
	}
	return nil
}

func (e ExpenseEvent) Validate() error {
	if e.Timestamp.IsZero() {
		return ErrMissingTimestamp
	}
	if !ValidAmount(e.Amount) {
		return ErrInvalidAmount
	}
	if err := e.Currency.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Account) == "" {
		return ErrEmptyAccount
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrUnknownCategory
	}
	return nil
}

func (t TransferEvent) Validate() error {
	if t.Timestamp.IsZero() {
		return ErrMissingTimestamp
	}
	if strings.TrimSpace(t.From) == "" || strings.TrimSpace(t.To) == "" {
		return ErrEmptyAccount
	}
	if t.From == t.To {
		return ErrSameAccount
	}
	if !ValidAmount(t.AmountSent) || !ValidAmount(t.AmountReceived) {
		return ErrInvalidAmount
	}
	if err := t.CurrencySent.Validate(); err != nil {
		return err
	}
	if err := t.CurrencyReceived.Validate(); err != nil {
		return err
	}
	if t.Rate != nil && !ValidRate(t.Rate) {
		return ErrInvalidRate
	}
	return nil
}

const (
	KindIncome   EventKind = "income"
	KindExpense  EventKind = "expense"
	KindTransfer EventKind = "transfer"
)

// EventKind names one of the three event streams.
type EventKind string

// ParseEventKind maps s to an event kind.
func ParseEventKind(s string) (EventKind, bool) {
	switch k := EventKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindIncome, KindExpense, KindTransfer:
		return k, true
	}
	return "", false
}
