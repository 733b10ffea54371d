package jsonfusion

import (
	"fmt"
	"reflect"

	"github.com/google/jsonschema-go/jsonschema"
)

// ExportJSONSchema renders the compiled schema of t as a JSON Schema
// document describing the type's wire shape, including the constraints its
// validators enforce. Under StrictFields, objects close additionalProperties.
func (c *Compiler) ExportJSONSchema(t reflect.Type) (*jsonschema.Schema, error) {
	compiled, err := c.Compile(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaExport, err)
	}
	visited := make(map[*Schema]bool)
	return c.exportNode(compiled, nil, visited), nil
}

// ExportJSONSchema renders t's wire shape using the default compiler.
func ExportJSONSchema(t reflect.Type) (*jsonschema.Schema, error) {
	return defaultCompiler.ExportJSONSchema(t)
}

// falseSchema rejects everything; used for closed additionalProperties.
func falseSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

// exportNode converts one compiled schema node, applying the validators of
// the field it sits under.
func (c *Compiler) exportNode(s *Schema, validators []Validator, visited map[*Schema]bool) *jsonschema.Schema {
	if visited[s] {
		return &jsonschema.Schema{}
	}
	visited[s] = true
	defer delete(visited, s)

	out := &jsonschema.Schema{}
	switch s.Kind {
	case KindNull:
		out.Type = "null"
	case KindBool:
		out.Type = "boolean"
	case KindInt, KindUint:
		out.Type = "integer"
	case KindFloat:
		out.Type = "number"
	case KindString, KindBytes, KindFixedString:
		out.Type = "string"
	case KindOptional:
		inner := c.exportNode(s.Elem, validators, visited)
		return inner
	case KindSequence:
		out.Type = "array"
		out.Items = c.exportNode(s.Elem, nil, visited)
	case KindFixedSequence:
		out.Type = "array"
		out.Items = c.exportNode(s.Elem, nil, visited)
		maxItems := s.FixedLen
		out.MaxItems = &maxItems
	case KindMap:
		out.Type = "object"
		out.AdditionalProperties = c.exportNode(s.Elem, nil, visited)
	case KindRecord:
		out.Type = "object"
		out.Properties = make(map[string]*jsonschema.Schema, len(s.Fields))
		for i := range s.Fields {
			f := &s.Fields[i]
			if f.Skip {
				continue
			}
			out.Properties[f.Name] = c.exportNode(f.Schema, f.Validators, visited)
			out.PropertyOrder = append(out.PropertyOrder, f.Name)
			if f.Required {
				out.Required = append(out.Required, f.Name)
			}
		}
		if c.StrictFields {
			out.AdditionalProperties = falseSchema()
		}
	case KindSink, KindAny:
		// any document
	}

	applyValidatorKeywords(out, validators)
	return out
}

// applyValidatorKeywords maps the runtime validators onto the matching
// JSON Schema keywords.
func applyValidatorKeywords(out *jsonschema.Schema, validators []Validator) {
	for _, v := range validators {
		switch val := v.(type) {
		case minimumValidator:
			m := val.min
			out.Minimum = &m
		case maximumValidator:
			m := val.max
			out.Maximum = &m
		case minLengthValidator:
			n := val.min
			out.MinLength = &n
		case maxLengthValidator:
			n := val.max
			out.MaxLength = &n
		case minItemsValidator:
			n := val.min
			out.MinItems = &n
		case maxItemsValidator:
			n := val.max
			if out.MaxItems == nil || *out.MaxItems > n {
				out.MaxItems = &n
			}
		case maxPropertiesValidator:
			n := val.max
			out.MaxProperties = &n
		case enumValidator:
			for _, e := range val.values {
				out.Enum = append(out.Enum, e)
			}
		case formatValidator:
			out.Format = val.name
		}
	}
}
