package model

import "encoding/json"

// Value is a computed statistic that may be missing. Missing means
// "insufficient history", is distinct from zero, and is never imputed here;
// imputation is the model component's call.
type Value struct {
	v       float64
	missing bool
}

// Some wraps a concrete float.
func Some(v float64) Value { return Value{v: v} }

// None is the missing sentinel.
func None() Value { return Value{missing: true} }

// IsMissing reports whether the value is the missing sentinel.
func (v Value) IsMissing() bool { return v.missing }

// Float returns the concrete value; it is 0 when missing, so callers that
// care must check IsMissing first.
func (v Value) Float() float64 {
	if v.missing {
		return 0
	}
	return v.v
}

// Or returns the concrete value or def when missing.
func (v Value) Or(def float64) float64 {
	if v.missing {
		return def
	}
	return v.v
}

// MarshalJSON encodes missing as null so exported matrices keep the
// sentinel distinct from zero.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.missing {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON decodes null back into the missing sentinel.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = None()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}
