package jsonfusion

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/tucher/jsonfusion/pkg/tagparser"
)

// Validator is a runtime predicate built from one tag rule. Validation is
// idempotent and side-effect-free; a nil result means the value passed.
type Validator interface {
	Keyword() string
	Validate(v reflect.Value) *ValidationError
}

// buildValidators turns the tag rules of one field into validators, checking
// each rule's applicability against the field's schema category.
func buildValidators(s *Schema, rules []tagparser.TagRule) ([]Validator, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	target := s
	if target.Kind == KindOptional {
		target = target.Elem
	}

	var out []Validator
	for _, rule := range rules {
		v, err := buildValidator(target, rule)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func buildValidator(target *Schema, rule tagparser.TagRule) (Validator, error) {
	switch rule.Name {
	case "minimum":
		n, err := ruleFloat(rule)
		if err != nil {
			return nil, err
		}
		return requireKind(rule.Name, target, minimumValidator{min: n}, KindInt, KindUint, KindFloat)
	case "maximum":
		n, err := ruleFloat(rule)
		if err != nil {
			return nil, err
		}
		return requireKind(rule.Name, target, maximumValidator{max: n}, KindInt, KindUint, KindFloat)
	case "minLength":
		n, err := ruleInt(rule)
		if err != nil {
			return nil, err
		}
		return requireKind(rule.Name, target, minLengthValidator{min: n}, KindString, KindBytes, KindFixedString)
	case "maxLength":
		n, err := ruleInt(rule)
		if err != nil {
			return nil, err
		}
		return requireKind(rule.Name, target, maxLengthValidator{max: n}, KindString, KindBytes, KindFixedString)
	case "minItems":
		n, err := ruleInt(rule)
		if err != nil {
			return nil, err
		}
		return requireKind(rule.Name, target, minItemsValidator{min: n}, KindSequence, KindFixedSequence)
	case "maxItems":
		n, err := ruleInt(rule)
		if err != nil {
			return nil, err
		}
		return requireKind(rule.Name, target, maxItemsValidator{max: n}, KindSequence, KindFixedSequence)
	case "maxProperties":
		n, err := ruleInt(rule)
		if err != nil {
			return nil, err
		}
		return requireKind(rule.Name, target, maxPropertiesValidator{max: n}, KindMap)
	case "maxKeyLength":
		n, err := ruleInt(rule)
		if err != nil {
			return nil, err
		}
		if target.Kind != KindMap || target.KeyKind != KindString {
			return nil, fmt.Errorf("%w: maxKeyLength on %s", ErrValidatorTarget, target.Kind)
		}
		return maxKeyLengthValidator{max: n}, nil
	case "enum":
		if len(rule.Params) == 0 {
			return nil, fmt.Errorf("%w: enum needs at least one value", ErrInvalidTag)
		}
		return requireKind(rule.Name, target, enumValidator{values: rule.Params}, KindString, KindFixedString)
	case "format":
		if len(rule.Params) != 1 {
			return nil, fmt.Errorf("%w: format needs one name", ErrInvalidTag)
		}
		return buildFormatValidator(target, rule.Params[0])
	}
	return nil, fmt.Errorf("%w: unknown rule %q", ErrInvalidTag, rule.Name)
}

func requireKind(keyword string, target *Schema, v Validator, kinds ...Kind) (Validator, error) {
	for _, k := range kinds {
		if target.Kind == k {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s on %s", ErrValidatorTarget, keyword, target.Kind)
}

func ruleInt(rule tagparser.TagRule) (int, error) {
	if len(rule.Params) != 1 {
		return 0, fmt.Errorf("%w: %s needs one parameter", ErrInvalidTag, rule.Name)
	}
	n, err := strconv.Atoi(rule.Params[0])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s=%s", ErrInvalidTag, rule.Name, rule.Params[0])
	}
	return n, nil
}

func ruleFloat(rule tagparser.TagRule) (float64, error) {
	if len(rule.Params) != 1 {
		return 0, fmt.Errorf("%w: %s needs one parameter", ErrInvalidTag, rule.Name)
	}
	n, err := strconv.ParseFloat(rule.Params[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%s", ErrInvalidTag, rule.Name, rule.Params[0])
	}
	return n, nil
}

// numericValue widens any numeric storage to float64 for bound checks.
func numericValue(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

// stringBytesLen returns the byte length of any string storage. Fixed byte
// arrays count up to the first NUL.
func stringBytesLen(v reflect.Value) int {
	switch v.Kind() {
	case reflect.String:
		return v.Len()
	case reflect.Slice:
		return v.Len()
	default: // [N]byte
		for i := 0; i < v.Len(); i++ {
			if v.Index(i).Uint() == 0 {
				return i
			}
		}
		return v.Len()
	}
}

// stringValue materializes any string storage as a Go string.
func stringValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Slice:
		return string(v.Bytes())
	default: // [N]byte
		n := stringBytesLen(v)
		b := make([]byte, n)
		for i := 0; i < n; i++ {
			b[i] = byte(v.Index(i).Uint())
		}
		return string(b)
	}
}
