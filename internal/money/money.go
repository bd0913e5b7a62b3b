// Package money represents plan-cost dollar amounts as fixed-point decimals
// so that per-event rounding never drifts (spec invariant: totals are exact,
// not approximate, once every recorded amount is rounded to cents).
package money

import "github.com/shopspring/decimal"

// Cents is a non-negative dollar amount rounded to the nearest cent at
// every point it is recorded. Negative intermediates are always clamped by
// the caller before they reach here — see internal/engine/budgets.go.
type Cents = decimal.Decimal

var zero = decimal.Zero

// Zero returns the additive identity.
func Zero() Cents { return zero }

// FromFloat builds a Cents value from a float64 dollar amount, rounding to
// two decimal places immediately so every subsequent arithmetic step works
// off an already-quantized value.
func FromFloat(f float64) Cents {
	return decimal.NewFromFloat(f).Round(2)
}

// Round rounds d to the nearest cent, half rounding up, matching the test
// fixtures in spec.md §8.
func Round(d Cents) Cents {
	return d.Round(2)
}

// Min returns the smaller of two amounts.
func Min(a, b Cents) Cents {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Max returns the larger of two amounts.
func Max(a, b Cents) Cents {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// ClampNonNegative returns d if non-negative, else zero. Running budgets
// must never go negative (spec invariant: used+available=initial, both>=0);
// this is the single point every decrement passes through.
func ClampNonNegative(d Cents) Cents {
	if d.IsNegative() {
		return zero
	}
	return d
}

// ToFloat converts to a float64 for JSON/API boundaries only.
func ToFloat(d Cents) float64 {
	f, _ := Round(d).Float64()
	return f
}

// Add and Sub are thin wrappers kept for call-site readability; they defer
// entirely to decimal.Decimal and round nothing themselves — callers round
// at the point of accumulation per spec.md §4.4.
func Add(a, b Cents) Cents { return a.Add(b) }
func Sub(a, b Cents) Cents { return a.Sub(b) }

// MulInt multiplies a per-unit dollar amount by an integer count.
func MulInt(d Cents, n int) Cents {
	return d.Mul(decimal.NewFromInt(int64(n)))
}

// IsZero reports whether d rounds to exactly zero cents.
func IsZero(d Cents) bool {
	return d.Round(2).IsZero()
}

// PosInf is used as the "no cap configured" sentinel for budgets, the same
// role spec.md §3's "+∞" literal plays for deductible/OOP groups that a plan
// does not declare.
func PosInf() Cents {
	return decimal.NewFromFloat(1e18)
}

// IsPosInf reports whether d is the PosInf sentinel (compared loosely: any
// amount at or above 1e17 is "uncapped" for our purposes, since no real
// plan limit approaches that scale).
func IsPosInf(d Cents) bool {
	return d.Cmp(decimal.NewFromFloat(1e17)) >= 0
}
