package money

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Delta is a signed two-digit monetary difference. Manual adjustments are the
// one place a negative monetary quantity is meaningful, so Delta is a
// distinct type rather than a relaxed Value.
type Delta struct {
	amount decimal.Decimal
}

// DeltaBetween returns a - b as a signed difference.
func DeltaBetween(a, b Value) Delta {
	return Delta{amount: a.amount.Sub(b.amount).RoundBank(Scale)}
}

// DeltaFromDecimal rescales a raw decimal into a Delta.
func DeltaFromDecimal(d decimal.Decimal) Delta {
	return Delta{amount: d.RoundBank(Scale)}
}

// IsNegative reports whether the delta reduces the base amount.
func (d Delta) IsNegative() bool { return d.amount.IsNegative() }

// IsZero reports whether the delta is zero.
func (d Delta) IsZero() bool { return d.amount.IsZero() }

// Abs returns the magnitude of the delta as a Value.
func (d Delta) Abs() Value {
	return Value{amount: d.amount.Abs()}
}

// ApplyTo returns base + delta as a Value, failing if the result is negative.
func (d Delta) ApplyTo(base Value) (Value, error) {
	return New(base.amount.Add(d.amount))
}

// Decimal exposes the underlying decimal for persistence.
func (d Delta) Decimal() decimal.Decimal { return d.amount }

// String renders the signed amount with two fractional digits.
func (d Delta) String() string { return d.amount.StringFixed(Scale) }

// MarshalJSON renders the delta as a fixed two-digit decimal string.
func (d Delta) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a decimal string.
func (d *Delta) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return err
	}
	*d = DeltaFromDecimal(parsed)
	return nil
}
