// Package core provides money parsing and handling utilities.
//
// This file contains the Money type and the parser used for amounts found in
// expense exports ("-1,234", "１２００", "\"-980\"", "12.50").
package core

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// Money is a signed currency amount.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps an integer amount.
func NewMoney(v int64) Money {
	return Money{Decimal: decimal.NewFromInt(v)}
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	return Money{Decimal: m.Decimal.Abs()}
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Decimal: m.Decimal.Add(o.Decimal)}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Decimal: m.Decimal.Sub(o.Decimal)}
}

// Float returns the value as float64 for chart payloads.
// Use Money for arithmetic to keep totals exact.
func (m Money) Float() float64 {
	f, _ := m.Decimal.Float64()
	return f
}

// ParseAmount converts an export amount string into Money.
//
// It accepts an optional sign, thousands separators, surrounding quotes,
// full-width digits and a currency suffix ("円") or prefix ("¥").
//
// Examples:
//
//	ParseAmount("-1,234")  -> -1234, nil
//	ParseAmount("１２００") -> 1200, nil
//	ParseAmount("12.50")   -> 12.5, nil
func ParseAmount(s string) (Money, error) {
	s = width.Narrow.String(strings.TrimSpace(s))
	s = strings.Trim(s, `"' `)
	s = strings.TrimPrefix(s, "¥")
	s = strings.TrimPrefix(s, "\\")
	s = strings.TrimSuffix(s, "円")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{Decimal: d}, nil
}
