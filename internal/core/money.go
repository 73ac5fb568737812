// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts and hour counts
// from strings and converting between cents and euro representations.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MaxCents is the largest amount a single record may carry (100 billion
// euros). About 900000 records at this ceiling still sum within int64.
const MaxCents int64 = 10_000_000_000_000

// MaxShiftHours bounds the hours of a single shift.
var MaxShiftHours = decimal.NewFromInt(24)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative or zero values, and amounts
// above MaxCents.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	cents, err := parseCents(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseOptionalCents is like ParseDecimalToCents but accepts zero, for
// adjustments such as bonuses and deductions. An empty string yields nil.
func ParseOptionalCents(s string) (*Money, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	cents, err := parseCents(s)
	if err != nil {
		return nil, err
	}
	return &Money{Cents: cents}, nil
}

// ParseHours parses a positive decimal number of worked hours ("7.5" or "7,5").
// Exponent notation is rejected.
func ParseHours(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, invalid("hours", "must be a positive number")
	}
	h, err := decimal.NewFromString(s)
	if err != nil || !h.IsPositive() {
		return decimal.Zero, invalid("hours", "must be a positive number")
	}
	return h, nil
}

func parseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = math.MaxInt64 / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents > MaxCents {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// Decimal returns the amount in major units as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}
