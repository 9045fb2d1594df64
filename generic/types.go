/*
Package generic provides the domain-agnostic building blocks of the tracker.

PURPOSE:
  Types and helpers shared by every asset-class package. Whether the
  balance being tracked is an EPF passbook, a recurring deposit or a gold
  holding, the same money, date and period arithmetic applies.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A money quantity with a currency (e.g., 5000 INR)
  - UserID/AccountID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: Strong typing for IDs prevents mixing user/account IDs
  3. Values, not pointers: Amounts are immutable and passed by value

USAGE:
  monthly := generic.NewAmount(5000, generic.INR)
  yearly := monthly.Mul(decimal.NewFromInt(12))

SEE ALSO:
  - time.go: TimePoint and month arithmetic
  - period.go: Fiscal year periods
  - errors.go: Sentinel and validation errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Money quantity with currency
// =============================================================================

type Amount struct {
	Value    decimal.Decimal
	Currency Currency
}

type Currency string

const (
	INR Currency = "INR"
)

func NewAmount(value float64, currency Currency) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Currency: currency}
}

func NewAmountFromInt(value int64, currency Currency) Amount {
	return Amount{Value: decimal.NewFromInt(value), Currency: currency}
}

func NewAmountFromDecimal(value decimal.Decimal, currency Currency) Amount {
	return Amount{Value: value, Currency: currency}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Currency: a.Currency} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Currency: a.Currency} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Currency: a.Currency} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Currency: a.Currency} }
func (a Amount) Div(s decimal.Decimal) Amount { return Amount{Value: a.Value.Div(s), Currency: a.Currency} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg(), Currency: a.Currency} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) }

// RoundWhole rounds to the nearest whole currency unit, halves away from zero.
func (a Amount) RoundWhole() Amount { return Amount{Value: a.Value.Round(0), Currency: a.Currency} }

// Float64 is for presentation only.
func (a Amount) Float64() float64 {
	f, _ := a.Value.Float64()
	return f
}

func (a Amount) String() string { return a.Value.String() + " " + string(a.Currency) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type AccountID string
