package jsonfusion

import "reflect"

// maxItemsValidator checks that a sequence holds at most max elements.
type maxItemsValidator struct {
	max int
}

func (maxItemsValidator) Keyword() string { return "maxItems" }

func (m maxItemsValidator) Validate(v reflect.Value) *ValidationError {
	if v.Len() > m.max {
		return NewValidationError("maxItems", "too_many_items", "Value should have at most {max_items} items", map[string]any{
			"max_items": m.max,
			"count":     v.Len(),
		})
	}
	return nil
}
