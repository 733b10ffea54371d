package jsonfusion

import "reflect"

// minLengthValidator checks that a string value is at least min bytes long.
// Length is measured in bytes of the UTF-8 encoding, not in runes; for fixed
// byte-array storage the length runs up to the first NUL.
type minLengthValidator struct {
	min int
}

func (minLengthValidator) Keyword() string { return "minLength" }

func (m minLengthValidator) Validate(v reflect.Value) *ValidationError {
	length := stringBytesLen(v)
	if length < m.min {
		return NewValidationError("minLength", "string_too_short", "Value should be at least {min_length} bytes", map[string]any{
			"min_length": m.min,
			"length":     length,
		})
	}
	return nil
}
