package jsonfusion

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/tucher/jsonfusion/pkg/tagparser"
)

// Kind is the schema category of a Go type. Every type the codec handles
// falls into exactly one category.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNull         // struct{}
	KindBool
	KindInt   // int8..int64, int
	KindUint  // uint8..uint64, uint
	KindFloat // float32, float64
	KindString
	KindBytes         // []byte string storage
	KindFixedString   // [N]byte tagged fixedstr, null-terminated
	KindOptional      // *V
	KindSequence      // []V
	KindFixedSequence // [N]V
	KindMap           // map[string]V or integer-keyed
	KindRecord        // struct
	KindSink          // WireSink
	KindAny           // interface{}, parsed into the generic value tree
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt, KindUint, KindFloat:
		return "number"
	case KindString, KindBytes, KindFixedString:
		return "string"
	case KindOptional:
		return "optional"
	case KindSequence, KindFixedSequence:
		return "sequence"
	case KindMap:
		return "map"
	case KindRecord:
		return "record"
	case KindSink:
		return "wire-sink"
	case KindAny:
		return "any"
	}
	return "invalid"
}

// Schema is the compiled descriptor of one Go type. Schemas are pure
// functions of the type (plus the field tags reachable from it), computed
// once and freely shareable.
type Schema struct {
	Kind Kind
	Type reflect.Type

	// Bits is the storage width for numeric kinds.
	Bits int

	// Elem describes the optional's inner value, the sequence element, or
	// the map value.
	Elem *Schema

	// KeyKind and KeyBits describe the map key (KindString, KindInt or
	// KindUint).
	KeyKind Kind
	KeyBits int

	// Fields is the record's ordered field list; serialization follows this
	// order.
	Fields     []Field
	fieldIndex map[string]int

	// FixedLen is the capacity of fixed strings and fixed sequences.
	FixedLen int

	// SinkCap and SinkMax bound a WireSink field's capture buffer.
	SinkCap int
	SinkMax int
}

// Field is the descriptor of one record field: its wire key, its type's
// schema, its options, and its validators.
type Field struct {
	// Name is the wire key (json tag, or the Go field name).
	Name string
	// Index is the struct field index.
	Index int

	Schema *Schema

	// Required is true unless the field is Optional or carries notrequired.
	Required bool
	// NotRequired records the notrequired option; an absent optional field
	// carrying it is omitted from the wire instead of being written as null.
	NotRequired bool
	// Skip marks json:"-" fields that exist only in memory.
	Skip bool
	// AsArray serializes a record-typed field as a heterogeneous array of
	// its field values; mirrored on parse.
	AsArray bool

	Validators []Validator
}

// FieldByWireName returns the field with the given wire key.
func (s *Schema) FieldByWireName(name string) (*Field, bool) {
	i, ok := s.fieldIndex[name]
	if !ok {
		return nil, false
	}
	return &s.Fields[i], true
}

var wireSinkType = reflect.TypeOf(WireSink{})

// compileSchema classifies t and derives its layout. memo breaks recursive
// types: an entry is published before its children compile.
func (c *Compiler) compileSchema(t reflect.Type, memo map[reflect.Type]*Schema) (*Schema, error) {
	if s, ok := memo[t]; ok {
		return s, nil
	}
	s := &Schema{Type: t}
	memo[t] = s

	switch t.Kind() {
	case reflect.Bool:
		s.Kind = KindBool
	case reflect.Int, reflect.Int64:
		s.Kind, s.Bits = KindInt, 64
	case reflect.Int8:
		s.Kind, s.Bits = KindInt, 8
	case reflect.Int16:
		s.Kind, s.Bits = KindInt, 16
	case reflect.Int32:
		s.Kind, s.Bits = KindInt, 32
	case reflect.Uint, reflect.Uint64:
		s.Kind, s.Bits = KindUint, 64
	case reflect.Uint8:
		s.Kind, s.Bits = KindUint, 8
	case reflect.Uint16:
		s.Kind, s.Bits = KindUint, 16
	case reflect.Uint32:
		s.Kind, s.Bits = KindUint, 32
	case reflect.Float32:
		s.Kind, s.Bits = KindFloat, 32
	case reflect.Float64:
		s.Kind, s.Bits = KindFloat, 64
	case reflect.String:
		s.Kind = KindString
	case reflect.Interface:
		if t.NumMethod() != 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
		}
		s.Kind = KindAny
	case reflect.Ptr:
		s.Kind = KindOptional
		elem, err := c.compileSchema(t.Elem(), memo)
		if err != nil {
			return nil, err
		}
		s.Elem = elem
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			s.Kind = KindBytes
			return s, nil
		}
		s.Kind = KindSequence
		elem, err := c.compileSchema(t.Elem(), memo)
		if err != nil {
			return nil, err
		}
		s.Elem = elem
	case reflect.Array:
		s.Kind = KindFixedSequence
		s.FixedLen = t.Len()
		elem, err := c.compileSchema(t.Elem(), memo)
		if err != nil {
			return nil, err
		}
		s.Elem = elem
	case reflect.Map:
		s.Kind = KindMap
		switch t.Key().Kind() {
		case reflect.String:
			s.KeyKind = KindString
		case reflect.Int, reflect.Int64:
			s.KeyKind, s.KeyBits = KindInt, 64
		case reflect.Int8:
			s.KeyKind, s.KeyBits = KindInt, 8
		case reflect.Int16:
			s.KeyKind, s.KeyBits = KindInt, 16
		case reflect.Int32:
			s.KeyKind, s.KeyBits = KindInt, 32
		case reflect.Uint, reflect.Uint64:
			s.KeyKind, s.KeyBits = KindUint, 64
		case reflect.Uint8:
			s.KeyKind, s.KeyBits = KindUint, 8
		case reflect.Uint16:
			s.KeyKind, s.KeyBits = KindUint, 16
		case reflect.Uint32:
			s.KeyKind, s.KeyBits = KindUint, 32
		default:
			return nil, fmt.Errorf("%w: map key %s", ErrUnsupportedType, t.Key())
		}
		elem, err := c.compileSchema(t.Elem(), memo)
		if err != nil {
			return nil, err
		}
		s.Elem = elem
	case reflect.Struct:
		if t == wireSinkType {
			s.Kind = KindSink
			s.SinkCap = defaultSinkCapacity
			s.SinkMax = defaultSinkCapacity
			return s, nil
		}
		if t.NumField() == 0 {
			s.Kind = KindNull
			return s, nil
		}
		s.Kind = KindRecord
		if err := c.compileRecord(t, s, memo); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	return s, nil
}

const defaultSinkCapacity = 4096

// compileRecord derives the field list of a struct type from its tags.
func (c *Compiler) compileRecord(t reflect.Type, s *Schema, memo map[reflect.Type]*Schema) error {
	infos, err := c.tags.ParseStruct(t)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidTag, t, err)
	}

	s.fieldIndex = make(map[string]int, len(infos))
	for _, info := range infos {
		sf, _ := t.FieldByName(info.Name)

		f := Field{
			Name:  info.WireName,
			Index: sf.Index[0],
			Skip:  info.Skipped,
		}

		fixedStr := false
		sinkCap, sinkMax := 0, 0
		for _, opt := range info.Options {
			switch opt.Name {
			case "notrequired":
				// handled after the schema compiles
			case "asarray":
				f.AsArray = true
			case "fixedstr":
				fixedStr = true
			case "sink":
				sinkCap, sinkMax, err = parseSinkCapacity(opt.Params)
				if err != nil {
					return fmt.Errorf("%w: %s.%s: %v", ErrInvalidTag, t, info.Name, err)
				}
			default:
				return fmt.Errorf("%w: %s.%s: unknown option %q", ErrInvalidTag, t, info.Name, opt.Name)
			}
		}

		fs, err := c.compileSchema(info.Type, memo)
		if err != nil {
			return err
		}
		if fixedStr {
			if fs.Kind != KindFixedSequence || info.Type.Elem().Kind() != reflect.Uint8 {
				return fmt.Errorf("%w: %s.%s: fixedstr requires a byte array", ErrInvalidTag, t, info.Name)
			}
			fixed := *fs
			fixed.Kind = KindFixedString
			fixed.Elem = nil
			fs = &fixed
		}
		if sinkCap > 0 {
			if fs.Kind != KindSink {
				return fmt.Errorf("%w: %s.%s: sink option requires a WireSink field", ErrInvalidTag, t, info.Name)
			}
			sized := *fs
			sized.SinkCap, sized.SinkMax = sinkCap, sinkMax
			fs = &sized
		}
		f.Schema = fs

		f.NotRequired = hasOption(info.Options, "notrequired")
		f.Required = fs.Kind != KindOptional && !f.NotRequired

		f.Validators, err = buildValidators(fs, info.Rules)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", t, info.Name, err)
		}

		if f.AsArray {
			inner := fs
			if inner.Kind == KindOptional {
				inner = inner.Elem
			}
			if inner.Kind != KindRecord {
				return fmt.Errorf("%w: %s.%s: asarray requires a record field", ErrInvalidTag, t, info.Name)
			}
		}

		if !f.Skip {
			if _, dup := s.fieldIndex[f.Name]; dup {
				return fmt.Errorf("%w: %s: duplicate wire key %q", ErrInvalidTag, t, f.Name)
			}
			s.fieldIndex[f.Name] = len(s.Fields)
		}
		s.Fields = append(s.Fields, f)
	}
	return nil
}

func hasOption(opts []tagparser.TagRule, name string) bool {
	for _, o := range opts {
		if o.Name == name {
			return true
		}
	}
	return false
}

// parseSinkCapacity parses the sink option parameters: "cap" or "cap:max".
func parseSinkCapacity(params []string) (capacity, maxCapacity int, err error) {
	if len(params) == 0 || len(params) > 2 {
		return 0, 0, fmt.Errorf("sink takes one or two capacities")
	}
	capacity, err = strconv.Atoi(params[0])
	if err != nil || capacity <= 0 {
		return 0, 0, fmt.Errorf("bad sink capacity %q", params[0])
	}
	maxCapacity = capacity
	if len(params) == 2 {
		maxCapacity, err = strconv.Atoi(params[1])
		if err != nil || maxCapacity < capacity {
			return 0, 0, fmt.Errorf("bad sink max capacity %q", params[1])
		}
	}
	return capacity, maxCapacity, nil
}
