package jsonfusion

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCategories(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		kind Kind
	}{
		{"bool", reflect.TypeOf(false), KindBool},
		{"int", reflect.TypeOf(int(0)), KindInt},
		{"int8", reflect.TypeOf(int8(0)), KindInt},
		{"uint16", reflect.TypeOf(uint16(0)), KindUint},
		{"float32", reflect.TypeOf(float32(0)), KindFloat},
		{"string", reflect.TypeOf(""), KindString},
		{"bytes", reflect.TypeOf([]byte(nil)), KindBytes},
		{"optional", reflect.TypeOf((*int)(nil)), KindOptional},
		{"sequence", reflect.TypeOf([]string(nil)), KindSequence},
		{"fixed sequence", reflect.TypeOf([4]int{}), KindFixedSequence},
		{"map", reflect.TypeOf(map[string]int(nil)), KindMap},
		{"record", reflect.TypeOf(appInfo{}), KindRecord},
		{"sink", reflect.TypeOf(WireSink{}), KindSink},
		{"null", reflect.TypeOf(struct{}{}), KindNull},
		{"any", reflect.TypeOf((*any)(nil)).Elem(), KindAny},
	}

	c := NewCompiler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := c.Compile(tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, s.Kind)
		})
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	c := NewCompiler()
	first, err := c.Compile(reflect.TypeOf(appInfo{}))
	require.NoError(t, err)
	second, err := c.Compile(reflect.TypeOf(appInfo{}))
	require.NoError(t, err)
	assert.Same(t, first, second, "compiled schemas are cached per type")
}

func TestCompileRecordFields(t *testing.T) {
	type sample struct {
		Plain    string    `json:"plain"`
		Renamed  int       `json:"wire_name"`
		Hidden   int       `json:"-"`
		Opt      *bool     `json:"opt"`
		Loose    int       `json:"loose" fusion:"notrequired"`
		Arr      *appInfo  `json:"arr" fusion:"asarray"`
		Sink     WireSink  `json:"sink" fusion:"sink=128:512"`
		FixedTag [16]byte  `json:"tag" fusion:"fixedstr"`
		Numbers  []float64 `json:"numbers" validate:"minItems=1,maxItems=8"`
	}

	c := NewCompiler()
	s, err := c.Compile(reflect.TypeOf(sample{}))
	require.NoError(t, err)
	require.Equal(t, KindRecord, s.Kind)
	require.Len(t, s.Fields, 9)

	byName := map[string]*Field{}
	for i := range s.Fields {
		byName[s.Fields[i].Name] = &s.Fields[i]
	}

	assert.True(t, byName["plain"].Required)
	assert.Equal(t, "wire_name", s.Fields[1].Name)
	assert.True(t, byName["Hidden"].Skip)
	assert.False(t, byName["opt"].Required, "optional fields are never required")
	assert.False(t, byName["loose"].Required)
	assert.True(t, byName["loose"].NotRequired)
	assert.True(t, byName["arr"].AsArray)
	assert.Equal(t, 128, byName["sink"].Schema.SinkCap)
	assert.Equal(t, 512, byName["sink"].Schema.SinkMax)
	assert.Equal(t, KindFixedString, byName["tag"].Schema.Kind)
	assert.Equal(t, 16, byName["tag"].Schema.FixedLen)
	assert.Len(t, byName["numbers"].Validators, 2)

	f, ok := s.FieldByWireName("wire_name")
	require.True(t, ok)
	assert.Equal(t, "Renamed", reflect.TypeOf(sample{}).Field(f.Index).Name)

	_, ok = s.FieldByWireName("Hidden")
	assert.False(t, ok, "not-json fields have no wire key")
}

func TestCompileRecursiveType(t *testing.T) {
	type node struct {
		Value    int     `json:"value"`
		Children []*node `json:"children" fusion:"notrequired"`
	}

	c := NewCompiler()
	s, err := c.Compile(reflect.TypeOf(node{}))
	require.NoError(t, err)
	assert.Equal(t, KindRecord, s.Kind)

	// the cycle resolves to the same schema node
	children := s.Fields[1].Schema
	require.Equal(t, KindSequence, children.Kind)
	require.Equal(t, KindOptional, children.Elem.Kind)
	assert.Same(t, s, children.Elem.Elem)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{"channel", reflect.TypeOf(make(chan int))},
		{"func", reflect.TypeOf(func() {})},
		{"bad map key", reflect.TypeOf(map[float64]int(nil))},
	}

	c := NewCompiler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(tt.typ)
			assert.ErrorIs(t, err, ErrUnsupportedType)
		})
	}
}

func TestCompileTagErrors(t *testing.T) {
	type badRule struct {
		V string `json:"v" validate:"bogus=1"`
	}
	type badTarget struct {
		V string `json:"v" validate:"minItems=1"`
	}
	type badFixedStr struct {
		V []int `json:"v" fusion:"fixedstr"`
	}
	type dupKeys struct {
		A int `json:"same"`
		B int `json:"same"`
	}

	c := NewCompiler()

	_, err := c.Compile(reflect.TypeOf(badRule{}))
	assert.ErrorIs(t, err, ErrInvalidTag)

	_, err = c.Compile(reflect.TypeOf(badTarget{}))
	assert.ErrorIs(t, err, ErrValidatorTarget)

	_, err = c.Compile(reflect.TypeOf(badFixedStr{}))
	assert.ErrorIs(t, err, ErrInvalidTag)

	_, err = c.Compile(reflect.TypeOf(dupKeys{}))
	assert.ErrorIs(t, err, ErrInvalidTag)
}

func TestCompileValidatorsOnOptional(t *testing.T) {
	type holder struct {
		Name *string `json:"name" validate:"minLength=2"`
	}

	c := NewCompiler()
	_, err := c.Compile(reflect.TypeOf(holder{}))
	require.NoError(t, err, "validators apply to the optional's inner value")

	var v holder
	res := Parse([]byte(`{"name":null}`), &v)
	assert.True(t, res.OK(), "absent optionals skip validation")

	res = Parse([]byte(`{"name":"x"}`), &v)
	require.False(t, res.OK())
	assert.Equal(t, CodeSchemaValidationError, res.Code)
}
