package jsonfusion

import (
	"reflect"
	"strconv"
)

// Serialize runs the JSON writer over in and copies the output into buf,
// which is the caller's fixed output range. Overflowing buf fails with
// data-consumer-error.
func Serialize(in any, buf []byte) SerializeResult {
	return defaultCompiler.Serialize(in, buf)
}

// Marshal serializes in to JSON into a freshly allocated buffer.
func Marshal(in any) ([]byte, error) {
	return defaultCompiler.Marshal(in)
}

// SerializeWithWriter runs any wire-format writer over in's schema.
func SerializeWithWriter(w Writer, in any) SerializeResult {
	return defaultCompiler.SerializeWithWriter(w, in)
}

// Serialize runs the JSON writer using this compiler's settings, emitting
// into the caller's fixed output range.
func (c *Compiler) Serialize(in any, buf []byte) SerializeResult {
	w := NewJSONWriter().SetMaxSize(len(buf))
	res := c.SerializeWithWriter(w, in)
	if res.OK() {
		if res.Written > len(buf) {
			return SerializeResult{Code: CodeDataConsumerError}
		}
		copy(buf, w.Bytes())
	}
	return res
}

// Marshal serializes in to JSON into a freshly allocated buffer.
func (c *Compiler) Marshal(in any) ([]byte, error) {
	w := NewJSONWriter()
	res := c.SerializeWithWriter(w, in)
	if err := res.Err(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// SerializeWithWriter walks in's compiled schema against w. Record fields
// are emitted in declaration order.
func (c *Compiler) SerializeWithWriter(w Writer, in any) SerializeResult {
	rv := reflect.ValueOf(in)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		// accept a pointer to the value being serialized
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return SerializeResult{Code: CodeInvalidDestination}
	}
	if !rv.CanAddr() {
		// sink replay needs addressable fields
		tmp := reflect.New(rv.Type())
		tmp.Elem().Set(rv)
		rv = tmp.Elem()
	}
	schema, err := c.Compile(rv.Type())
	if err != nil {
		return SerializeResult{Code: CodeInvalidDestination}
	}

	s := &serializer{w: w, c: c}
	if s.serializeValue(schema, rv) {
		if n, code := w.Finish(); code == NoError {
			return SerializeResult{Written: n}
		}
		s.failFromWriter()
	}
	return SerializeResult{
		Code:       s.code,
		Path:       s.frozen,
		Validation: s.validation,
	}
}

// serializer walks one schema against one writer.
type serializer struct {
	w Writer
	c *Compiler

	path   []PathSegment
	frozen []PathSegment

	code       ErrorCode
	validation *ValidationError
}

func (s *serializer) fail(code ErrorCode) bool {
	if s.code == NoError {
		s.code = code
		s.frozen = append([]PathSegment(nil), s.path...)
	}
	return false
}

func (s *serializer) failFromWriter() bool {
	code := s.w.Err()
	if code == NoError {
		code = CodeDataConsumerError
	}
	return s.fail(code)
}

func (s *serializer) pushField(name string) bool {
	if len(s.path) >= s.c.MaxDepth {
		return s.fail(CodeSkipStackOverflow)
	}
	s.path = append(s.path, PathSegment{Field: name, Index: -1})
	return true
}

func (s *serializer) pushIndex(i int) bool {
	if len(s.path) >= s.c.MaxDepth {
		return s.fail(CodeSkipStackOverflow)
	}
	s.path = append(s.path, PathSegment{Index: i})
	return true
}

func (s *serializer) pop() {
	s.path = s.path[:len(s.path)-1]
}

func (s *serializer) serializeValue(sc *Schema, v reflect.Value) bool {
	switch sc.Kind {
	case KindSink:
		sink := v.Addr().Interface().(*WireSink)
		if !s.w.WriteFromSink(sink) {
			return s.failFromWriter()
		}
		return true

	case KindNull:
		if !s.w.WriteNull() {
			return s.failFromWriter()
		}
		return true

	case KindBool:
		if !s.w.WriteBool(v.Bool()) {
			return s.failFromWriter()
		}
		return true

	case KindInt:
		if !s.w.WriteInt(v.Int()) {
			return s.failFromWriter()
		}
		return true

	case KindUint:
		if !s.w.WriteUint(v.Uint()) {
			return s.failFromWriter()
		}
		return true

	case KindFloat:
		if !s.w.WriteFloat(v.Float(), sc.Bits) {
			return s.failFromWriter()
		}
		return true

	case KindString:
		if !s.w.WriteString(v.String()) {
			return s.failFromWriter()
		}
		return true

	case KindBytes:
		b := v.Bytes()
		if !s.w.WriteStringBegin(len(b)) || !s.w.WriteStringChunk(b) || !s.w.WriteStringEnd() {
			return s.failFromWriter()
		}
		return true

	case KindFixedString:
		b := fixedStringBytes(v)
		if !s.w.WriteStringBegin(len(b)) || !s.w.WriteStringChunk(b) || !s.w.WriteStringEnd() {
			return s.failFromWriter()
		}
		return true

	case KindOptional:
		if v.IsNil() {
			if !s.w.WriteNull() {
				return s.failFromWriter()
			}
			return true
		}
		return s.serializeValue(sc.Elem, v.Elem())

	case KindSequence, KindFixedSequence:
		return s.serializeSequence(sc, v)

	case KindMap:
		return s.serializeMap(sc, v)

	case KindRecord:
		return s.serializeRecord(sc, v)

	case KindAny:
		return s.serializeAny(v)
	}
	return s.fail(CodeInvalidDestination)
}

// fixedStringBytes extracts the bytes of null-terminated fixed storage.
func fixedStringBytes(v reflect.Value) []byte {
	n := stringBytesLen(v)
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = byte(v.Index(i).Uint())
	}
	return b
}

func (s *serializer) serializeSequence(sc *Schema, v reflect.Value) bool {
	n := v.Len()
	var frame ArrayFrame
	if !s.w.WriteArrayBegin(n, &frame) {
		return s.failFromWriter()
	}
	for i := 0; i < n; i++ {
		if i > 0 && !s.w.WriteArrayNext(&frame) {
			return s.failFromWriter()
		}
		if !s.pushIndex(i) {
			return false
		}
		if !s.serializeValue(sc.Elem, v.Index(i)) {
			return false
		}
		s.pop()
	}
	if !s.w.WriteArrayEnd(&frame) {
		return s.failFromWriter()
	}
	return true
}

func (s *serializer) serializeMap(sc *Schema, v reflect.Value) bool {
	n := v.Len()
	var frame MapFrame
	if !s.w.WriteMapBegin(n, &frame) {
		return s.failFromWriter()
	}

	first := true
	iter := v.MapRange()
	for iter.Next() {
		if !first && !s.w.WriteMapNext(&frame) {
			return s.failFromWriter()
		}
		first = false

		key := iter.Key()
		var label string
		if sc.KeyKind == KindString {
			label = key.String()
			if !s.w.WriteString(label) {
				return s.failFromWriter()
			}
		} else {
			var idx int64
			if sc.KeyKind == KindUint {
				idx = int64(key.Uint())
			} else {
				idx = key.Int()
			}
			label = strconv.FormatInt(idx, 10)
			if !s.w.WriteKeyAsIndex(idx) {
				return s.failFromWriter()
			}
		}

		if !s.w.MoveToValue(&frame) {
			return s.failFromWriter()
		}
		if !s.pushField(label) {
			return false
		}
		if !s.serializeValue(sc.Elem, iter.Value()) {
			return false
		}
		s.pop()
	}
	if !s.w.WriteMapEnd(&frame) {
		return s.failFromWriter()
	}
	return true
}

// emitted reports whether a record field appears on the wire for this value.
func emitted(f *Field, v reflect.Value) bool {
	if f.Skip {
		return false
	}
	if f.NotRequired && f.Schema.Kind == KindOptional && v.Field(f.Index).IsNil() {
		return false
	}
	return true
}

func (s *serializer) serializeRecord(sc *Schema, v reflect.Value) bool {
	count := 0
	for i := range sc.Fields {
		if emitted(&sc.Fields[i], v) {
			count++
		}
	}

	var frame MapFrame
	if !s.w.WriteMapBegin(count, &frame) {
		return s.failFromWriter()
	}

	first := true
	for i := range sc.Fields {
		f := &sc.Fields[i]
		if !emitted(f, v) {
			continue
		}
		if !first && !s.w.WriteMapNext(&frame) {
			return s.failFromWriter()
		}
		first = false

		if !s.w.WriteString(f.Name) {
			return s.failFromWriter()
		}
		if !s.w.MoveToValue(&frame) {
			return s.failFromWriter()
		}

		if !s.pushField(f.Name) {
			return false
		}
		if s.c.ValidateOnSerialize && !s.checkValidators(f, v.Field(f.Index)) {
			return false
		}
		if !s.serializeField(f, v.Field(f.Index)) {
			return false
		}
		s.pop()
	}
	if !s.w.WriteMapEnd(&frame) {
		return s.failFromWriter()
	}
	return true
}

// serializeField emits one record field's value, honoring the asarray
// option.
func (s *serializer) serializeField(f *Field, v reflect.Value) bool {
	if !f.AsArray {
		return s.serializeValue(f.Schema, v)
	}

	sc := f.Schema
	if sc.Kind == KindOptional {
		if v.IsNil() {
			if !s.w.WriteNull() {
				return s.failFromWriter()
			}
			return true
		}
		return s.serializeRecordAsArray(sc.Elem, v.Elem())
	}
	return s.serializeRecordAsArray(sc, v)
}

// serializeRecordAsArray destructures a record into a heterogeneous array of
// its field values in declaration order.
func (s *serializer) serializeRecordAsArray(sc *Schema, v reflect.Value) bool {
	count := 0
	for i := range sc.Fields {
		if !sc.Fields[i].Skip {
			count++
		}
	}

	var frame ArrayFrame
	if !s.w.WriteArrayBegin(count, &frame) {
		return s.failFromWriter()
	}
	first := true
	for i := range sc.Fields {
		f := &sc.Fields[i]
		if f.Skip {
			continue
		}
		if !first && !s.w.WriteArrayNext(&frame) {
			return s.failFromWriter()
		}
		first = false
		if !s.pushField(f.Name) {
			return false
		}
		if !s.serializeValue(f.Schema, v.Field(f.Index)) {
			return false
		}
		s.pop()
	}
	if !s.w.WriteArrayEnd(&frame) {
		return s.failFromWriter()
	}
	return true
}

// checkValidators mirrors the parse-side validator run for the serialize
// path.
func (s *serializer) checkValidators(f *Field, v reflect.Value) bool {
	if len(f.Validators) == 0 {
		return true
	}
	target := v
	if f.Schema.Kind == KindOptional {
		if target.IsNil() {
			return true
		}
		target = target.Elem()
	}
	for _, validator := range f.Validators {
		if verr := validator.Validate(target); verr != nil {
			s.validation = verr
			return s.fail(CodeSchemaValidationError)
		}
	}
	return true
}

// serializeAny emits a value of the generic representation.
func (s *serializer) serializeAny(v reflect.Value) bool {
	if v.IsNil() {
		if !s.w.WriteNull() {
			return s.failFromWriter()
		}
		return true
	}

	switch x := v.Interface().(type) {
	case bool:
		if !s.w.WriteBool(x) {
			return s.failFromWriter()
		}
	case float64:
		if !s.w.WriteFloat(x, 64) {
			return s.failFromWriter()
		}
	case float32:
		if !s.w.WriteFloat(float64(x), 32) {
			return s.failFromWriter()
		}
	case int:
		if !s.w.WriteInt(int64(x)) {
			return s.failFromWriter()
		}
	case int64:
		if !s.w.WriteInt(x) {
			return s.failFromWriter()
		}
	case uint64:
		if !s.w.WriteUint(x) {
			return s.failFromWriter()
		}
	case string:
		if !s.w.WriteString(x) {
			return s.failFromWriter()
		}
	case []any:
		var frame ArrayFrame
		if !s.w.WriteArrayBegin(len(x), &frame) {
			return s.failFromWriter()
		}
		for i, elem := range x {
			if i > 0 && !s.w.WriteArrayNext(&frame) {
				return s.failFromWriter()
			}
			if !s.pushIndex(i) {
				return false
			}
			if !s.serializeAny(reflect.ValueOf(&elem).Elem()) {
				return false
			}
			s.pop()
		}
		if !s.w.WriteArrayEnd(&frame) {
			return s.failFromWriter()
		}
	case map[string]any:
		var frame MapFrame
		if !s.w.WriteMapBegin(len(x), &frame) {
			return s.failFromWriter()
		}
		first := true
		for key, elem := range x {
			if !first && !s.w.WriteMapNext(&frame) {
				return s.failFromWriter()
			}
			first = false
			if !s.w.WriteString(key) {
				return s.failFromWriter()
			}
			if !s.w.MoveToValue(&frame) {
				return s.failFromWriter()
			}
			if !s.pushField(key) {
				return false
			}
			e := elem
			if !s.serializeAny(reflect.ValueOf(&e).Elem()) {
				return false
			}
			s.pop()
		}
		if !s.w.WriteMapEnd(&frame) {
			return s.failFromWriter()
		}
	default:
		return s.fail(CodeInvalidDestination)
	}
	return true
}
