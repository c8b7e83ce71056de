package billing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds to two fraction digits, half away from zero. Every amount the
// engine rounds is non-negative, so this is half-up in practice.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Money is a non-negative amount held at two fraction digits.
type Money struct {
	decimal.Decimal
}

// NewMoney rounds d to two places. Negative values clamp to zero.
func NewMoney(d decimal.Decimal) Money {
	if d.IsNegative() {
		return Money{decimal.Zero}
	}
	return Money{Round2(d)}
}

// MoneyFromFloat is NewMoney for float input.
func MoneyFromFloat(f float64) Money {
	return NewMoney(decimal.NewFromFloat(f))
}

// Plus returns m + o. Both operands are already rounded, so the sum is exact.
func (m Money) Plus(o Money) Money {
	return Money{m.Decimal.Add(o.Decimal)}
}

func (m Money) String() string {
	return m.StringFixed(2)
}

// MarshalJSON writes the amount as a bare number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.StringFixed(2)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return m.Decimal.UnmarshalJSON(b)
}

// Rate is a percentage held at two fraction digits.
type Rate struct {
	decimal.Decimal
}

// NewRate rounds d to two places.
func NewRate(d decimal.Decimal) Rate {
	return Rate{Round2(d)}
}

func (r Rate) String() string {
	return r.StringFixed(2)
}

func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(r.StringFixed(2)), nil
}

func (r *Rate) UnmarshalJSON(b []byte) error {
	return r.Decimal.UnmarshalJSON(b)
}

// percentOf returns 100 * part / whole. Callers guarantee whole > 0.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	return part.Mul(hundred).Div(whole)
}
