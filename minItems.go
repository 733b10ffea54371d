package jsonfusion

import "reflect"

// minItemsValidator checks that a sequence holds at least min elements. The
// dispatcher runs it when the array frame closes; for fixed-capacity
// sequences it receives a view of the elements actually parsed.
type minItemsValidator struct {
	min int
}

func (minItemsValidator) Keyword() string { return "minItems" }

func (m minItemsValidator) Validate(v reflect.Value) *ValidationError {
	if v.Len() < m.min {
		return NewValidationError("minItems", "too_few_items", "Value should have at least {min_items} items", map[string]any{
			"min_items": m.min,
			"count":     v.Len(),
		})
	}
	return nil
}
