package jsonfusion

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// formatValidator checks a string value against a named well-known format.
// Formats are registered in formatCheckers; `uuid` (RFC 4122) ships by
// default.
type formatValidator struct {
	name  string
	check func(string) bool
}

var formatCheckers = map[string]func(string) bool{
	"uuid": isUUID,
}

func buildFormatValidator(target *Schema, name string) (Validator, error) {
	check, ok := formatCheckers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidTag, name)
	}
	return requireKind("format", target, formatValidator{name: name, check: check}, KindString, KindFixedString)
}

func (f formatValidator) Keyword() string { return "format" }

func (f formatValidator) Validate(v reflect.Value) *ValidationError {
	s := stringValue(v)
	if !f.check(s) {
		return NewValidationError("format", "invalid_format", "Value should be a valid {format}", map[string]any{
			"format": f.name,
			"value":  s,
		})
	}
	return nil
}

// isUUID tells whether the given string is a valid uuid as specified in
// RFC 4122.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
