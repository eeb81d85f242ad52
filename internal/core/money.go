// Package core provides money parsing and formatting utilities.
//
// This file contains functions for parsing monetary amounts typed by users or
// read back from exported files, and for rendering them for display.
package core

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-typed decimal string to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators when only
// one separator kind is present, and rounds half-up to two decimals. Signs are
// rejected: amounts are always positive and their direction comes from the
// event kind.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil (half-up)
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	if !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return 0, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	v := d.Round(2).InexactFloat64()
	if !ValidAmount(v) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ParseLooseNumber parses a number read back from an exported file. Currency
// symbols and codes, thousands separators, whitespace and sign prefixes are
// stripped before parsing, so "+$1,800.00 MXN" and "-1800" both yield 1800.
// The result is never negative.
func ParseLooseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return 0, ErrInvalidAmount
	}
	s = strings.ToUpper(s)
	for _, code := range []string{string(MXN), string(USD)} {
		s = strings.ReplaceAll(s, code, "")
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '$', r == ',', r == '+', r == '-', unicode.IsSpace(r):
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, ErrInvalidAmount)
	}
	v := d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatNumber renders v without exponent, trimming trailing zeros.
func FormatNumber(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// FormatAmount renders v as a currency string, e.g. "$1,234.50".
func FormatAmount(v float64, c Currency) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	cur := money.GetCurrency(string(c))
	if cur == nil {
		return decimal.NewFromFloat(v).StringFixed(2)
	}
	minor := decimal.NewFromFloat(v).Round(int32(cur.Fraction)).Shift(int32(cur.Fraction)).IntPart()
	return money.New(minor, cur.Code).Display()
}

// FormatSigned renders v with an explicit sign and ISO code, e.g.
// "+$1,800.00 MXN" or "-$12.00 USD".
func FormatSigned(v float64, c Currency) string {
	sign := "+"
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + FormatAmount(v, c) + " " + string(c)
}

// IncomeText builds the human label stored with an income. Foreign-currency
// incomes carry the rate annotation.
func IncomeText(amount float64, c Currency, rate *float64) string {
	text := FormatAmount(amount, c)
	if c != BaseCurrency && ValidRate(rate) {
		text += fmt.Sprintf(" (@%.4f)", *rate)
	}
	return text
}
