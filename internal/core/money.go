// Package core holds the journal's domain types.
//
// This file contains amount parsing and formatting helpers. Amounts are kept as
// decimals so that sums over many entries do not drift.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// maxIntegerDigits bounds the integer part of an amount.
	maxIntegerDigits = 15
	// maxFractionDigits bounds the scale of an amount.
	maxFractionDigits = 30
)

// CheckAmount reports ErrAmountOutOfRange when d has more integer digits or a
// finer scale than the journal accepts.
func CheckAmount(d decimal.Decimal) error {
	exp := int64(d.Exponent())
	if exp < -maxFractionDigits || int64(d.NumDigits())+exp > maxIntegerDigits {
		return ErrAmountOutOfRange
	}
	return nil
}

// ParseAmount converts user input to a non-negative decimal.
//
// Empty input means zero. Both dot (12.5) and comma (12,5) separators are accepted.
// Exponent notation is refused.
//
// Examples:
//
//	ParseAmount("")      -> 0, nil
//	ParseAmount("12,50") -> 12.5, nil
//	ParseAmount("-3")    -> 0, ErrNegativeAmount
//	ParseAmount("1e9")   -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 || strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	if err := CheckAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals and a space-grouped integer part,
// e.g. 1234567.5 -> "1 234 567.50".
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
