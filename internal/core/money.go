// Package core holds the domain model of the ledger: accounts,
// transactions, budgets, profiles and the money type they share.
//
// Amounts are decimal values (IDR). Use Money for all arithmetic so
// balances and budget totals never go through floating point.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount of rupiah. The zero value is 0.
type Money struct {
	decimal.Decimal
}

// NewMoney returns a Money worth v whole rupiah.
func NewMoney(v int64) Money {
	return Money{decimal.NewFromInt(v)}
}

// ParseMoney converts a decimal string to Money.
//
// It accepts both dot (12500.50) and comma (12500,50) decimal separators.
// Returns ErrInvalidAmount for anything that does not parse as a decimal
// number. Sign is preserved; callers that need a positive amount validate
// separately.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{d}, nil
}

func (m Money) Add(o Money) Money { return Money{m.Decimal.Add(o.Decimal)} }

func (m Money) Sub(o Money) Money { return Money{m.Decimal.Sub(o.Decimal)} }

func (m Money) Neg() Money { return Money{m.Decimal.Neg()} }

// Cmp compares m and o: -1 if m < o, 0 if equal, +1 if m > o.
func (m Money) Cmp(o Money) int { return m.Decimal.Cmp(o.Decimal) }

func (m Money) Equal(o Money) bool { return m.Decimal.Equal(o.Decimal) }

// Validate reports whether the amount is usable for a transaction,
// budget cap or transfer: strictly positive.
func (m Money) Validate() error {
	if !m.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
