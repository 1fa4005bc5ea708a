package model

import "github.com/shopspring/decimal"

// Money is a non-floating monetary amount.  It scans from and writes to
// DECIMAL columns through the embedded decimal.Decimal and is rendered
// in JSON as a plain number rather than a quoted string.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps a decimal value.
func NewMoney(d decimal.Decimal) Money { return Money{Decimal: d} }

// MoneyFromInt returns a whole-unit amount.
func MoneyFromInt(v int64) Money { return Money{Decimal: decimal.NewFromInt(v)} }

// MustMoney parses s and panics on malformed input.  Intended for
// constants and tests.
func MustMoney(s string) Money { return Money{Decimal: decimal.RequireFromString(s)} }

// MarshalJSON renders the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money { return Money{Decimal: m.Decimal.Sub(o.Decimal)} }

// Add returns m + o.
func (m Money) Add(o Money) Money { return Money{Decimal: m.Decimal.Add(o.Decimal)} }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Decimal.IsNegative() }

// Equal compares amounts numerically, so 950 equals 950.00.
func (m Money) Equal(o Money) bool { return m.Decimal.Equal(o.Decimal) }

// MoneyScale is the number of decimal places amount columns store.
const MoneyScale = 2

// FitsScale reports whether the amount is stored without rounding in a
// DECIMAL(_, MoneyScale) column.  Trailing zeros do not count.
func (m Money) FitsScale() bool { return m.Decimal.Equal(m.Decimal.Round(MoneyScale)) }

// WholeUnits truncates toward zero and returns the integral part.  It is
// the basis for loyalty points, which are never rounded up.
func (m Money) WholeUnits() int64 { return m.Decimal.Floor().IntPart() }
