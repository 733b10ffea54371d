package jsonfusion

import "reflect"

// maxLengthValidator checks that a string value is at most max bytes long.
type maxLengthValidator struct {
	max int
}

func (maxLengthValidator) Keyword() string { return "maxLength" }

func (m maxLengthValidator) Validate(v reflect.Value) *ValidationError {
	length := stringBytesLen(v)
	if length > m.max {
		return NewValidationError("maxLength", "string_too_long", "Value should be at most {max_length} bytes", map[string]any{
			"max_length": m.max,
			"length":     length,
		})
	}
	return nil
}
