package money

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/drivelane/appraisal-backend/pkg/errors"
)

const (
	// Scale is the number of fractional digits every Value carries.
	Scale = 2
	// percentScale is the precision used when deriving a percentage factor.
	percentScale = 4
)

var oneHundred = decimal.NewFromInt(100)

// Value is an immutable, non-negative monetary amount held at exactly two
// fractional digits. Construction rescales with banker's rounding; every
// operation returns a fresh Value.
type Value struct {
	amount decimal.Decimal
}

// New builds a Value from a raw decimal, rescaling to two digits with
// round-half-to-even. Negative inputs are rejected.
func New(d decimal.Decimal) (Value, error) {
	scaled := d.RoundBank(Scale)
	if scaled.IsNegative() {
		return Value{}, pkgerrors.New(pkgerrors.CodeInvalidAmount, "monetary amount cannot be negative").
			WithDetails(map[string]any{"amount": d.String()})
	}
	return Value{amount: scaled}, nil
}

// FromString parses a decimal string into a Value.
func FromString(s string) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Value{}, pkgerrors.Wrap(pkgerrors.CodeInvalidAmount, err, "monetary amount is not a valid decimal").
			WithDetails(map[string]any{"amount": s})
	}
	return New(d)
}

// FromFloat converts a float into a Value, rejecting NaN and infinities.
func FromFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, pkgerrors.New(pkgerrors.CodeInvalidAmount, "monetary amount must be a finite number")
	}
	return New(decimal.NewFromFloat(f))
}

// MustFromString is FromString for literals known to be valid. It panics on
// malformed input and belongs in tests and package-level defaults only.
func MustFromString(s string) Value {
	v, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Zero returns the zero amount.
func Zero() Value {
	return Value{amount: decimal.Zero.RoundBank(Scale)}
}

// Add returns v + o.
func (v Value) Add(o Value) Value {
	return Value{amount: v.amount.Add(o.amount)}
}

// Sub returns v - o, failing when the result would go negative. Callers that
// can exceed the base amount (depreciation sums) must clamp upstream.
func (v Value) Sub(o Value) (Value, error) {
	result := v.amount.Sub(o.amount)
	if result.IsNegative() {
		return Value{}, pkgerrors.New(pkgerrors.CodeInvalidAmount, "subtraction result cannot be negative").
			WithDetails(map[string]any{"minuend": v.String(), "subtrahend": o.String()})
	}
	return Value{amount: result}, nil
}

// Mul returns v * factor rescaled to two digits. A factor that would produce
// a negative amount is rejected.
func (v Value) Mul(factor decimal.Decimal) (Value, error) {
	return New(v.amount.Mul(factor))
}

// Percent returns p% of v. The factor p/100 is computed at four digits with
// round-half-up before multiplying. Non-positive p yields zero: margins at or
// below zero are treated as "no margin", never as a penalty.
func (v Value) Percent(p decimal.Decimal) Value {
	if p.LessThanOrEqual(decimal.Zero) {
		return Zero()
	}
	factor := p.DivRound(oneHundred, percentScale)
	return Value{amount: v.amount.Mul(factor).RoundBank(Scale)}
}

// Cmp compares v and o: -1 when v < o, 0 when equal, 1 when v > o.
func (v Value) Cmp(o Value) int {
	return v.amount.Cmp(o.amount)
}

// Equal reports v == o.
func (v Value) Equal(o Value) bool { return v.amount.Equal(o.amount) }

// LessThan reports v < o.
func (v Value) LessThan(o Value) bool { return v.amount.LessThan(o.amount) }

// LessThanOrEqual reports v <= o.
func (v Value) LessThanOrEqual(o Value) bool { return v.amount.LessThanOrEqual(o.amount) }

// GreaterThan reports v > o.
func (v Value) GreaterThan(o Value) bool { return v.amount.GreaterThan(o.amount) }

// GreaterThanOrEqual reports v >= o.
func (v Value) GreaterThanOrEqual(o Value) bool { return v.amount.GreaterThanOrEqual(o.amount) }

// IsZero reports whether the amount is zero.
func (v Value) IsZero() bool { return v.amount.IsZero() }

// IsPositive reports whether the amount is strictly positive.
func (v Value) IsPositive() bool { return v.amount.IsPositive() }

// Decimal exposes the underlying decimal for persistence.
func (v Value) Decimal() decimal.Decimal {
	return v.amount
}

// String renders the amount with exactly two fractional digits.
func (v Value) String() string {
	return v.amount.StringFixed(Scale)
}

// MarshalJSON renders the amount as a fixed two-digit decimal string.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON accepts either a JSON string or number.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var d decimal.Decimal
		if derr := json.Unmarshal(data, &d); derr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInvalidAmount, derr, "monetary amount must be a decimal string or number")
		}
		parsed, nerr := New(d)
		if nerr != nil {
			return nerr
		}
		*v = parsed
		return nil
	}
	parsed, err := FromString(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
