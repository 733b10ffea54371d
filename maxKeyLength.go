package jsonfusion

import "reflect"

// maxKeyLengthValidator checks that every key of a string-keyed map is at
// most max bytes long.
type maxKeyLengthValidator struct {
	max int
}

func (maxKeyLengthValidator) Keyword() string { return "maxKeyLength" }

func (m maxKeyLengthValidator) Validate(v reflect.Value) *ValidationError {
	for _, key := range v.MapKeys() {
		if len(key.String()) > m.max {
			return NewValidationError("maxKeyLength", "key_too_long", "Key {key} should be at most {max_key_length} bytes", map[string]any{
				"max_key_length": m.max,
				"key":            key.String(),
			})
		}
	}
	return nil
}
