package jsonfusion

import "reflect"

// maximumValidator checks that a numeric value does not exceed the bound
// given by the `maximum` tag rule.
type maximumValidator struct {
	max float64
}

func (maximumValidator) Keyword() string { return "maximum" }

func (m maximumValidator) Validate(v reflect.Value) *ValidationError {
	n := numericValue(v)
	if n > m.max {
		return NewValidationError("maximum", "number_too_large", "Value should be at most {maximum}", map[string]any{
			"maximum": m.max,
			"value":   n,
		})
	}
	return nil
}
