package jsonfusion

import (
	"reflect"
	"strconv"
)

// CodeInvalidDestination is reported when the parse destination is not a
// non-nil pointer or its type cannot be compiled into a schema.
const CodeInvalidDestination ErrorCode = "invalid-destination"

// Parse runs the JSON reader over data and fills out, which must be a
// non-nil pointer. The default compiler's settings apply.
func Parse(data []byte, out any) ParseResult {
	return defaultCompiler.Parse(data, out)
}

// ParseWithReader runs any wire-format reader against out's schema.
func ParseWithReader(r Reader, out any) ParseResult {
	return defaultCompiler.ParseWithReader(r, out)
}

// Parse runs the JSON reader over data using this compiler's settings.
func (c *Compiler) Parse(data []byte, out any) ParseResult {
	r := NewJSONReader(data).SetMaxDepth(c.MaxDepth)
	return c.ParseWithReader(r, out)
}

// ParseWithReader walks out's compiled schema against r, filling out and
// verifying the input is fully consumed.
func (c *Compiler) ParseWithReader(r Reader, out any) ParseResult {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return ParseResult{Code: CodeInvalidDestination}
	}
	schema, err := c.Compile(rv.Type().Elem())
	if err != nil {
		return ParseResult{Code: CodeInvalidDestination}
	}

	p := &parser{r: r, c: c}
	if p.parseValue(schema, rv.Elem()) {
		if r.Finish() != StatusOK {
			p.failFromReader()
		}
	}

	if p.code == NoError {
		return ParseResult{}
	}
	return ParseResult{
		Code:       p.code,
		Offset:     r.Offset(),
		Path:       p.frozen,
		Validation: p.validation,
	}
}

// stringChunkSize is the dispatcher's scratch buffer for streamed strings
// and record keys.
const stringChunkSize = 64

// parser walks one schema against one reader. It keeps the diagnostic path
// stack and freezes it at the first error.
type parser struct {
	r Reader
	c *Compiler

	path   []PathSegment
	frozen []PathSegment

	code       ErrorCode
	validation *ValidationError

	// element count of the most recently completed fixed-capacity sequence,
	// consumed by min/max items validators
	fixedCount int

	scratch [stringChunkSize]byte
}

func (p *parser) fail(code ErrorCode) bool {
	if p.code == NoError {
		p.code = code
		p.frozen = append([]PathSegment(nil), p.path...)
	}
	return false
}

// failFromReader adopts the error code the reader recorded.
func (p *parser) failFromReader() bool {
	code := p.r.Err()
	if code == NoError {
		code = CodeUnexpectedEndOfData
	}
	return p.fail(code)
}

func (p *parser) pushField(name string) bool {
	if len(p.path) >= p.c.MaxDepth {
		return p.fail(CodeSkipStackOverflow)
	}
	p.path = append(p.path, PathSegment{Field: name, Index: -1})
	return true
}

func (p *parser) pushIndex(i int) bool {
	if len(p.path) >= p.c.MaxDepth {
		return p.fail(CodeSkipStackOverflow)
	}
	p.path = append(p.path, PathSegment{Index: i})
	return true
}

func (p *parser) pop() {
	p.path = p.path[:len(p.path)-1]
}

// readString streams a whole string value through a chunk buffer, appending
// the decoded bytes to dst. The chunk buffer is local: dst may alias the
// parser's scratch storage.
func (p *parser) readString(dst []byte) ([]byte, Status) {
	var chunk [stringChunkSize]byte
	first := true
	for {
		res := p.r.ReadStringChunk(chunk[:])
		if res.Status != StatusOK {
			if res.Status == StatusNoMatch && !first {
				return dst, StatusError
			}
			return dst, res.Status
		}
		first = false
		dst = append(dst, chunk[:res.N]...)
		if res.Done {
			return dst, StatusOK
		}
	}
}

// parseValue dispatches on the schema category, filling v.
func (p *parser) parseValue(s *Schema, v reflect.Value) bool {
	if s.Kind == KindSink {
		return p.parseSink(s, v)
	}

	switch p.r.StartValueAndTryReadNull() {
	case StatusError:
		return p.failFromReader()
	case StatusOK:
		switch s.Kind {
		case KindOptional, KindAny:
			v.SetZero()
			return true
		case KindNull:
			return true
		}
		return p.fail(CodeNullInNonOptional)
	}

	switch s.Kind {
	case KindNull:
		return p.fail(CodeExpectedNull)

	case KindBool:
		var b bool
		switch p.r.ReadBool(&b) {
		case StatusError:
			return p.failFromReader()
		case StatusNoMatch:
			return p.fail(CodeNonBool)
		}
		v.SetBool(b)
		return true

	case KindInt:
		var i int64
		switch p.r.ReadInt(&i, s.Bits) {
		case StatusError:
			return p.failFromReader()
		case StatusNoMatch:
			return p.fail(CodeWrongJSONForNumber)
		}
		v.SetInt(i)
		return true

	case KindUint:
		var u uint64
		switch p.r.ReadUint(&u, s.Bits) {
		case StatusError:
			return p.failFromReader()
		case StatusNoMatch:
			return p.fail(CodeWrongJSONForNumber)
		}
		v.SetUint(u)
		return true

	case KindFloat:
		var f float64
		switch p.r.ReadFloat(&f, s.Bits) {
		case StatusError:
			return p.failFromReader()
		case StatusNoMatch:
			return p.fail(CodeWrongJSONForNumber)
		}
		v.SetFloat(f)
		return true

	case KindString:
		buf, st := p.readString(nil)
		switch st {
		case StatusError:
			return p.failFromReader()
		case StatusNoMatch:
			return p.fail(CodeNonString)
		}
		v.SetString(string(buf))
		return true

	case KindBytes:
		buf, st := p.readString(nil)
		switch st {
		case StatusError:
			return p.failFromReader()
		case StatusNoMatch:
			return p.fail(CodeNonString)
		}
		v.SetBytes(buf)
		return true

	case KindFixedString:
		return p.parseFixedString(s, v)

	case KindOptional:
		elem := reflect.New(s.Elem.Type)
		if !p.parseValue(s.Elem, elem.Elem()) {
			return false
		}
		v.Set(elem)
		return true

	case KindSequence:
		return p.parseSequence(s, v)

	case KindFixedSequence:
		return p.parseFixedSequence(s, v)

	case KindMap:
		return p.parseMap(s, v)

	case KindRecord:
		return p.parseRecord(s, v)

	case KindAny:
		return p.parseAny(v)
	}
	return p.fail(CodeInvalidDestination)
}

// parseSink captures the next value opaquely. A zero-value sink field is
// sized from the schema's capacities first.
func (p *parser) parseSink(s *Schema, v reflect.Value) bool {
	sink := v.Addr().Interface().(*WireSink)
	if sink.max == 0 && cap(sink.buf) == 0 {
		sink.buf = make([]byte, 0, s.SinkCap)
		sink.cap = s.SinkCap
		sink.max = s.SinkMax
	}
	if p.r.CaptureToSink(sink) != StatusOK {
		return p.failFromReader()
	}
	return true
}

// parseFixedString streams into null-terminated fixed byte storage. The last
// byte is reserved for the terminator; longer values overflow.
func (p *parser) parseFixedString(s *Schema, v reflect.Value) bool {
	limit := s.FixedLen - 1
	n := 0
	first := true
	for {
		space := limit - n
		if space > len(p.scratch) {
			space = len(p.scratch)
		}
		res := p.r.ReadStringChunk(p.scratch[:space])
		if res.Status != StatusOK {
			if res.Status == StatusNoMatch && first {
				return p.fail(CodeNonString)
			}
			return p.failFromReader()
		}
		first = false
		for i := 0; i < res.N; i++ {
			v.Index(n + i).SetUint(uint64(p.scratch[i]))
		}
		n += res.N
		if res.Done {
			break
		}
		if n == limit {
			// value longer than the storage
			return p.fail(CodeFixedContainerOverflow)
		}
	}
	for i := n; i < s.FixedLen; i++ {
		v.Index(i).SetUint(0)
	}
	return true
}

func (p *parser) parseSequence(s *Schema, v reflect.Value) bool {
	var frame ArrayFrame
	switch p.r.ReadArrayBegin(&frame) {
	case StatusError:
		return p.failFromReader()
	case StatusNoMatch:
		return p.fail(CodeNonArray)
	}

	out := reflect.MakeSlice(s.Type, 0, 0)
	for frame.HasValue {
		if !p.pushIndex(frame.Index) {
			return false
		}
		elem := reflect.New(s.Elem.Type).Elem()
		if !p.parseValue(s.Elem, elem) {
			return false
		}
		p.pop()
		out = reflect.Append(out, elem)
		if p.r.ReadArrayNext(&frame) != StatusOK {
			return p.failFromReader()
		}
	}
	v.Set(out)
	return true
}

func (p *parser) parseFixedSequence(s *Schema, v reflect.Value) bool {
	var frame ArrayFrame
	switch p.r.ReadArrayBegin(&frame) {
	case StatusError:
		return p.failFromReader()
	case StatusNoMatch:
		return p.fail(CodeNonArray)
	}

	count := 0
	for frame.HasValue {
		if count >= s.FixedLen {
			return p.fail(CodeFixedContainerOverflow)
		}
		if !p.pushIndex(count) {
			return false
		}
		if !p.parseValue(s.Elem, v.Index(count)) {
			return false
		}
		p.pop()
		count++
		if p.r.ReadArrayNext(&frame) != StatusOK {
			return p.failFromReader()
		}
	}
	for i := count; i < s.FixedLen; i++ {
		v.Index(i).SetZero()
	}
	p.fixedCount = count
	return true
}

func (p *parser) parseMap(s *Schema, v reflect.Value) bool {
	var frame MapFrame
	switch p.r.ReadMapBegin(&frame) {
	case StatusError:
		return p.failFromReader()
	case StatusNoMatch:
		return p.fail(CodeNonObject)
	}

	out := reflect.MakeMap(s.Type)
	for frame.HasValue {
		var key reflect.Value
		var label string

		if s.KeyKind == KindString {
			buf, st := p.readString(p.scratch[:0])
			if st != StatusOK {
				if st == StatusNoMatch {
					return p.fail(CodeIllformedObject)
				}
				return p.failFromReader()
			}
			label = string(buf)
			key = reflect.ValueOf(label).Convert(s.Type.Key())
		} else {
			var idx int64
			if p.r.ReadKeyAsIndex(&idx, s.KeyBits) != StatusOK {
				return p.failFromReader()
			}
			if s.KeyKind == KindUint && idx < 0 {
				return p.fail(CodeNumericOutOfRange)
			}
			label = strconv.FormatInt(idx, 10)
			key = reflect.New(s.Type.Key()).Elem()
			if s.KeyKind == KindUint {
				key.SetUint(uint64(idx))
			} else {
				key.SetInt(idx)
			}
		}

		if out.MapIndex(key).IsValid() {
			return p.fail(CodeDuplicateKey)
		}
		if !p.pushField(label) {
			return false
		}
		if p.r.MoveToValue(&frame) != StatusOK {
			return p.failFromReader()
		}
		elem := reflect.New(s.Elem.Type).Elem()
		if !p.parseValue(s.Elem, elem) {
			return false
		}
		p.pop()
		out.SetMapIndex(key, elem)

		if p.r.ReadMapNext(&frame) != StatusOK {
			return p.failFromReader()
		}
	}
	v.Set(out)
	return true
}

// bitset tracks which record fields have been seen.
type bitset []uint64

func newBitset(n int) bitset { return make(bitset, (n+63)/64) }

func (b bitset) set(i int)      { b[i/64] |= 1 << (i % 64) }
func (b bitset) has(i int) bool { return b[i/64]&(1<<(i%64)) != 0 }

func (p *parser) parseRecord(s *Schema, v reflect.Value) bool {
	var frame MapFrame
	switch p.r.ReadMapBegin(&frame) {
	case StatusError:
		return p.failFromReader()
	case StatusNoMatch:
		return p.fail(CodeNonObject)
	}

	seen := newBitset(len(s.Fields))
	for frame.HasValue {
		buf, st := p.readString(p.scratch[:0])
		if st != StatusOK {
			if st == StatusNoMatch {
				return p.fail(CodeIllformedObject)
			}
			return p.failFromReader()
		}
		key := string(buf)

		if p.r.MoveToValue(&frame) != StatusOK {
			return p.failFromReader()
		}

		idx, known := s.fieldIndex[key]
		if !known {
			if p.c.StrictFields {
				if !p.pushField(key) {
					return false
				}
				return p.fail(CodeExcessField)
			}
			if p.r.SkipValue() != StatusOK {
				return p.failFromReader()
			}
		} else {
			f := &s.Fields[idx]
			if seen.has(idx) {
				if !p.pushField(key) {
					return false
				}
				return p.fail(CodeDuplicateKey)
			}
			seen.set(idx)

			if !p.pushField(key) {
				return false
			}
			if !p.parseField(f, v.Field(f.Index)) {
				return false
			}
			if !p.runValidators(f, v.Field(f.Index)) {
				return false
			}
			p.pop()
		}

		if p.r.ReadMapNext(&frame) != StatusOK {
			return p.failFromReader()
		}
	}

	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Required && !f.Skip && !seen.has(i) {
			if !p.pushField(f.Name) {
				return false
			}
			return p.fail(CodeMissingField)
		}
	}
	return true
}

// parseField parses one record field's value, honoring the asarray option.
func (p *parser) parseField(f *Field, v reflect.Value) bool {
	if !f.AsArray {
		return p.parseValue(f.Schema, v)
	}

	s := f.Schema
	if s.Kind == KindOptional {
		switch p.r.StartValueAndTryReadNull() {
		case StatusError:
			return p.failFromReader()
		case StatusOK:
			v.SetZero()
			return true
		}
		elem := reflect.New(s.Elem.Type)
		if !p.parseRecordFromArray(s.Elem, elem.Elem()) {
			return false
		}
		v.Set(elem)
		return true
	}
	return p.parseRecordFromArray(s, v)
}

// parseRecordFromArray reads a record destructured as a heterogeneous array
// of its field values in declaration order.
func (p *parser) parseRecordFromArray(s *Schema, v reflect.Value) bool {
	var frame ArrayFrame
	switch p.r.ReadArrayBegin(&frame) {
	case StatusError:
		return p.failFromReader()
	case StatusNoMatch:
		return p.fail(CodeNonArray)
	}

	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Skip {
			continue
		}
		if !frame.HasValue {
			if !p.pushField(f.Name) {
				return false
			}
			return p.fail(CodeMissingField)
		}
		if !p.pushField(f.Name) {
			return false
		}
		if !p.parseValue(f.Schema, v.Field(f.Index)) {
			return false
		}
		if !p.runValidators(f, v.Field(f.Index)) {
			return false
		}
		p.pop()
		if p.r.ReadArrayNext(&frame) != StatusOK {
			return p.failFromReader()
		}
	}
	if frame.HasValue {
		return p.fail(CodeExcessField)
	}
	return true
}

// parseAny reads whatever value comes next into the generic representation:
// nil, bool, float64, string, []any, or map[string]any.
func (p *parser) parseAny(v reflect.Value) bool {
	var b bool
	switch p.r.ReadBool(&b) {
	case StatusError:
		return p.failFromReader()
	case StatusOK:
		v.Set(reflect.ValueOf(b))
		return true
	}

	res := p.r.ReadStringChunk(p.scratch[:0])
	if res.Status == StatusError {
		return p.failFromReader()
	}
	if res.Status == StatusOK {
		if res.Done {
			v.Set(reflect.ValueOf(""))
			return true
		}
		buf, st := p.readString(nil)
		if st != StatusOK {
			return p.failFromReader()
		}
		v.Set(reflect.ValueOf(string(buf)))
		return true
	}

	var af ArrayFrame
	switch p.r.ReadArrayBegin(&af) {
	case StatusError:
		return p.failFromReader()
	case StatusOK:
		out := []any{}
		for af.HasValue {
			if !p.pushIndex(af.Index) {
				return false
			}
			elem := reflect.New(anyType).Elem()
			if !p.parseValue(anySchema, elem) {
				return false
			}
			p.pop()
			out = append(out, elem.Interface())
			if p.r.ReadArrayNext(&af) != StatusOK {
				return p.failFromReader()
			}
		}
		v.Set(reflect.ValueOf(out))
		return true
	}

	var mf MapFrame
	switch p.r.ReadMapBegin(&mf) {
	case StatusError:
		return p.failFromReader()
	case StatusOK:
		out := map[string]any{}
		for mf.HasValue {
			buf, st := p.readString(p.scratch[:0])
			if st != StatusOK {
				return p.failFromReader()
			}
			key := string(buf)
			if _, dup := out[key]; dup {
				return p.fail(CodeDuplicateKey)
			}
			if !p.pushField(key) {
				return false
			}
			if p.r.MoveToValue(&mf) != StatusOK {
				return p.failFromReader()
			}
			elem := reflect.New(anyType).Elem()
			if !p.parseValue(anySchema, elem) {
				return false
			}
			p.pop()
			out[key] = elem.Interface()
			if p.r.ReadMapNext(&mf) != StatusOK {
				return p.failFromReader()
			}
		}
		v.Set(reflect.ValueOf(out))
		return true
	}

	var f float64
	switch p.r.ReadFloat(&f, 64) {
	case StatusError:
		return p.failFromReader()
	case StatusOK:
		v.Set(reflect.ValueOf(f))
		return true
	}

	return p.fail(CodeIllformedObject)
}

var (
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
	anySchema = &Schema{Kind: KindAny, Type: anyType}
)

// runValidators applies a field's validators to its freshly stored value.
// Optional fields validate their present value; absent optionals pass.
// Fixed-capacity sequences validate the elements actually parsed.
func (p *parser) runValidators(f *Field, v reflect.Value) bool {
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
	if k := schemaKindOf(f.Schema); k == KindFixedSequence {
		if target.CanAddr() {
			target = target.Slice(0, p.fixedCount)
		}
	}

	for _, validator := range f.Validators {
		if verr := validator.Validate(target); verr != nil {
			p.validation = verr
			return p.fail(CodeSchemaValidationError)
		}
	}
	return true
}

// schemaKindOf unwraps the optional wrapper.
func schemaKindOf(s *Schema) Kind {
	if s.Kind == KindOptional {
		return s.Elem.Kind
	}
	return s.Kind
}
