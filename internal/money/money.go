// Package money provides the Decimal arithmetic used for prices, quantities,
// and money supply across the simulation core. It wraps shopspring/decimal
// to pin a maximum display scale and to add the handful of domain-specific
// helpers the pricer and scarcity engine need (capped ratios, clamped
// percentage moves) so those packages never reach for float64 on monetary
// values.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DisplayScale is the maximum number of fractional digits rendered when a
// Money value is serialized for a snapshot.
const DisplayScale = 18

// Money is an arbitrary-precision signed decimal value.
type Money struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{d: decimal.Zero}

// New builds a Money from an integer mantissa and a base-10 exponent, e.g.
// New(1050, -2) == 10.50.
func New(value int64, exp int32) Money {
	return Money{d: decimal.New(value, exp)}
}

// NewFromInt builds a Money from a plain integer.
func NewFromInt(value int64) Money {
	return Money{d: decimal.NewFromInt(value)}
}

// NewFromFloat builds a Money from a float64. Reserved for constructing
// constants and test fixtures; simulation state itself never round-trips
// through float64.
func NewFromFloat(value float64) Money {
	return Money{d: decimal.NewFromFloat(value)}
}

// Parse parses a decimal string such as "1234.5600".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustParse is Parse but panics on error; only safe for constants known at
// compile time.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) Money { return Money{d: m.d.Add(other.d)} }
func (m Money) Sub(other Money) Money { return Money{d: m.d.Sub(other.d)} }
func (m Money) Mul(other Money) Money { return Money{d: m.d.Mul(other.d)} }
func (m Money) Neg() Money            { return Money{d: m.d.Neg()} }
func (m Money) Abs() Money            { return Money{d: m.d.Abs()} }

// Div divides by other, rounding to DisplayScale decimal places. Callers in
// the pricer must check IsZero on the divisor first; Div still returns a
// well-formed (if meaningless) result for a zero divisor rather than
// panicking, since shopspring/decimal returns an error there and the pricer
// always special-cases the infinite-ratio branch itself (spec §4.2).
func (m Money) Div(other Money) Money {
	if other.IsZero() {
		return Zero
	}
	return Money{d: m.d.DivRound(other.d, DisplayScale)}
}

// MulFloat multiplies by a plain float64 factor (elasticity coefficients,
// damping factors, clamp ratios) and rounds to DisplayScale.
func (m Money) MulFloat(factor float64) Money {
	return Money{d: m.d.Mul(decimal.NewFromFloat(factor)).Round(DisplayScale)}
}

// Cmp returns -1, 0, or 1 comparing m to other.
func (m Money) Cmp(other Money) int { return m.d.Cmp(other.d) }

func (m Money) LessThan(other Money) bool           { return m.d.LessThan(other.d) }
func (m Money) LessThanOrEqual(other Money) bool     { return m.d.LessThanOrEqual(other.d) }
func (m Money) GreaterThan(other Money) bool         { return m.d.GreaterThan(other.d) }
func (m Money) GreaterThanOrEqual(other Money) bool  { return m.d.GreaterThanOrEqual(other.d) }
func (m Money) Equal(other Money) bool               { return m.d.Equal(other.d) }
func (m Money) IsZero() bool                         { return m.d.IsZero() }
func (m Money) IsPositive() bool                     { return m.d.IsPositive() }
func (m Money) IsNegative() bool                      { return m.d.IsNegative() }

// Min returns the smaller of m and other.
func (m Money) Min(other Money) Money {
	if m.LessThanOrEqual(other) {
		return m
	}
	return other
}

// Max returns the larger of m and other.
func (m Money) Max(other Money) Money {
	if m.GreaterThanOrEqual(other) {
		return m
	}
	return other
}

// Clamp restricts m to [lo, hi].
func (m Money) Clamp(lo, hi Money) Money {
	return m.Max(lo).Min(hi)
}

// Float64 converts to a float64. Reserved for the statistical computations
// spec §3 explicitly carves out (volatility, herding, price-impact); never
// used for accounting arithmetic.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// String renders the exact decimal string, round-half-even at DisplayScale.
func (m Money) String() string {
	return m.d.StringFixedBank(DisplayScale)
}

// MarshalJSON renders Money as an exact decimal string, per spec §6's
// snapshot format ("all Money fields rendered as exact decimal strings").
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or a bare JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	m.d = d
	return nil
}

// Ratio computes numerator/denominator as a plain float64 for use in
// elasticity exponents (spec §4.2 supply/demand curves), capping at capAt
// when the denominator is zero instead of producing +Inf.
func Ratio(numerator, denominator Money, capAt float64) float64 {
	if denominator.IsZero() {
		return capAt
	}
	return numerator.Float64() / denominator.Float64()
}
