package jsonfusion

import "reflect"

// maxPropertiesValidator bounds the number of entries in a map. The count
// invariant is checked once parsing of the map has finished.
type maxPropertiesValidator struct {
	max int
}

func (maxPropertiesValidator) Keyword() string { return "maxProperties" }

func (m maxPropertiesValidator) Validate(v reflect.Value) *ValidationError {
	if v.Len() > m.max {
		return NewValidationError("maxProperties", "too_many_properties", "Value should have at most {max_properties} properties", map[string]any{
			"max_properties": m.max,
			"count":          v.Len(),
		})
	}
	return nil
}
