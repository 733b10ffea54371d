package jsonfusion

import "reflect"

// minimumValidator checks that a numeric value is greater than or equal to
// the bound given by the `minimum` tag rule. Together with `maximum` it forms
// the closed range constraint on numeric fields.
//
// The stored value is widened to float64 for the comparison, which is exact
// for every integer the wire formats can deliver into 53 bits and for all
// float storages.
type minimumValidator struct {
	min float64
}

func (minimumValidator) Keyword() string { return "minimum" }

func (m minimumValidator) Validate(v reflect.Value) *ValidationError {
	n := numericValue(v)
	if n < m.min {
		return NewValidationError("minimum", "number_too_small", "Value should be at least {minimum}", map[string]any{
			"minimum": m.min,
			"value":   n,
		})
	}
	return nil
}
