// Package tagparser analyzes struct tags and extracts the wire options and
// validation rules that drive schema compilation. It understands the `json`
// tag for wire-key naming, the `fusion` tag for wire options, and the
// `validate` tag for validation rules.
package tagparser

import (
	"errors"
	"reflect"
	"strings"
)

// ErrMalformedRule is returned when a tag rule cannot be split into a name
// and parameters.
var ErrMalformedRule = errors.New("malformed tag rule")

// TagRule is a single rule parsed from a tag: a name and its parameters,
// e.g. {Name: "minLength", Params: ["2"]} for `validate:"minLength=2"`.
type TagRule struct {
	Name   string
	Params []string
}

// FieldInfo is the parsed tag information for one struct field.
type FieldInfo struct {
	Name     string       // Go field name
	Type     reflect.Type // Go field type
	WireName string       // wire key (json tag or the field name)
	Skipped  bool         // json:"-": field exists only in memory
	Options  []TagRule    // rules from the fusion tag
	Rules    []TagRule    // rules from the validate tag
}

// Parser parses struct tags with configurable tag names.
type Parser struct {
	optionTag   string
	validateTag string
}

// New returns a Parser using the default "fusion" and "validate" tag names.
func New() *Parser {
	return &Parser{optionTag: "fusion", validateTag: "validate"}
}

// NewWithTagNames returns a Parser with custom option and validation tag names.
func NewWithTagNames(optionTag, validateTag string) *Parser {
	return &Parser{optionTag: optionTag, validateTag: validateTag}
}

// ParseStruct parses the tags of every exported field of a struct type.
// Pointer types are dereferenced first. Unexported fields are skipped.
func (p *Parser) ParseStruct(structType reflect.Type) ([]FieldInfo, error) {
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return nil, nil
	}

	var fields []FieldInfo
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}

		info := FieldInfo{
			Name:     field.Name,
			Type:     field.Type,
			WireName: wireFieldName(field),
		}
		if info.WireName == "-" {
			info.Skipped = true
			info.WireName = field.Name
		}

		var err error
		if tag := field.Tag.Get(p.optionTag); tag != "" {
			info.Options, err = p.ParseTagString(tag)
			if err != nil {
				return nil, err
			}
		}
		if tag := field.Tag.Get(p.validateTag); tag != "" {
			info.Rules, err = p.ParseTagString(tag)
			if err != nil {
				return nil, err
			}
		}

		fields = append(fields, info)
	}
	return fields, nil
}

// ParseTagString parses a comma-separated rule list into TagRules.
func (p *Parser) ParseTagString(tag string) ([]TagRule, error) {
	var rules []TagRule
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		rule, err := parseRule(part)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// parseRule splits one "name" or "name=params" part. Parameters of
// space-separated rules (enum) are split on whitespace; colon-separated
// rules (sink capacities) on ':'; everything else is a single parameter.
func parseRule(part string) (TagRule, error) {
	idx := strings.IndexByte(part, '=')
	if idx == -1 {
		return TagRule{Name: part}, nil
	}

	name := strings.TrimSpace(part[:idx])
	paramStr := strings.TrimSpace(part[idx+1:])
	if name == "" || paramStr == "" {
		return TagRule{}, ErrMalformedRule
	}

	var params []string
	switch {
	case needsSpaceSeparation(name):
		params = strings.Fields(paramStr)
	case strings.Contains(paramStr, ":"):
		params = strings.Split(paramStr, ":")
	default:
		params = []string{paramStr}
	}
	return TagRule{Name: name, Params: params}, nil
}

// needsSpaceSeparation reports whether a rule takes a space-separated
// parameter list.
func needsSpaceSeparation(name string) bool {
	return name == "enum"
}

// wireFieldName resolves the wire key of a field from its json tag, falling
// back to the Go field name.
func wireFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}
