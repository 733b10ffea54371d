package jsonfusion

import (
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseYAML(t *testing.T, doc string, out any) ParseResult {
	t.Helper()
	r, err := NewYAMLReader([]byte(doc))
	require.NoError(t, err)
	return ParseWithReader(r, out)
}

func TestYAMLReaderRecord(t *testing.T) {
	var v appInfo
	res := parseYAML(t, "app: x\nver: 3\n", &v)
	require.True(t, res.OK(), "got %s", res.Code)
	assert.Equal(t, appInfo{App: "x", Ver: 3}, v)
}

func TestYAMLReaderNested(t *testing.T) {
	type motor struct {
		Position []float64 `json:"position"`
	}
	type controller struct {
		Motors []motor `json:"motors"`
		Name   string  `json:"name"`
	}

	doc := `
name: main
motors:
  - position: [0.5, 1.5]
  - position: []
`
	var v controller
	res := parseYAML(t, doc, &v)
	require.True(t, res.OK(), "got %s", res.Code)
	assert.Equal(t, "main", v.Name)
	require.Len(t, v.Motors, 2)
	assert.Equal(t, []float64{0.5, 1.5}, v.Motors[0].Position)
}

func TestYAMLReaderOptionalNull(t *testing.T) {
	type holder struct {
		N *int `json:"n"`
	}

	var v holder
	res := parseYAML(t, "n: null\n", &v)
	require.True(t, res.OK(), "got %s", res.Code)
	assert.Nil(t, v.N)

	res = parseYAML(t, "n: 5\n", &v)
	require.True(t, res.OK())
	require.NotNil(t, v.N)
	assert.Equal(t, 5, *v.N)
}

func TestYAMLReaderIntegerKeys(t *testing.T) {
	var v map[int]string
	res := parseYAML(t, "1: one\n2: two\n", &v)
	require.True(t, res.OK(), "got %s", res.Code)
	assert.Equal(t, map[int]string{1: "one", 2: "two"}, v)
}

func TestYAMLReaderValidators(t *testing.T) {
	type config struct {
		LoopHz float64 `json:"loop_hz" validate:"minimum=10,maximum=10000"`
	}

	var v config
	res := parseYAML(t, "loop_hz: 5\n", &v)
	require.False(t, res.OK())
	assert.Equal(t, CodeSchemaValidationError, res.Code)
	assert.Equal(t, "$.loop_hz", res.JSONPath())
}

func TestYAMLReaderRejectsAlias(t *testing.T) {
	doc := "a: &anchor 1\nb: *anchor\n"
	var v map[string]int
	res := parseYAML(t, doc, &v)
	require.False(t, res.OK())
	assert.Equal(t, CodeNotImplemented, res.Code)
}

func TestYAMLReaderRejectsMultiDocument(t *testing.T) {
	_, err := NewYAMLReader([]byte("a: 1\n---\nb: 2\n"))
	assert.Error(t, err)
}

func TestYAMLWriterRoundTrip(t *testing.T) {
	type nested struct {
		Tags []string `json:"tags"`
	}
	type doc struct {
		App   string  `json:"app"`
		Ver   int     `json:"ver"`
		Ratio float64 `json:"ratio"`
		Inner nested  `json:"inner"`
	}

	in := doc{App: "x", Ver: 3, Ratio: 0.5, Inner: nested{Tags: []string{"a", "b"}}}

	w := NewYAMLWriter()
	res := SerializeWithWriter(w, in)
	require.True(t, res.OK(), "got %s", res.Code)

	var out doc
	pres := parseYAML(t, string(w.Bytes()), &out)
	require.True(t, pres.OK(), "got %s", pres.Code)
	assert.Equal(t, in, out)
}

func TestYAMLWriterFieldOrder(t *testing.T) {
	in := appInfo{App: "x", Ver: 3}

	w := NewYAMLWriter()
	res := SerializeWithWriter(w, in)
	require.True(t, res.OK())

	// declaration order is preserved on the wire
	assert.Equal(t, "app: x\nver: 3\n", string(w.Bytes()))
}

func TestYAMLSinkHandleCapture(t *testing.T) {
	type rec struct {
		Name string   `json:"name"`
		Blob WireSink `json:"blob" fusion:"sink=64"`
	}

	doc := "name: a\nblob:\n  k: [1, 2, 3]\n"
	var v rec
	res := parseYAML(t, doc, &v)
	require.True(t, res.OK(), "got %s", res.Code)
	assert.Equal(t, "a", v.Name)
	require.NotNil(t, v.Blob.Handle, "DOM capture stores a node handle")

	// replay the handle through a fresh reader
	rr, err := NewYAMLReaderFromSink(&v.Blob)
	require.NoError(t, err)
	var blob map[string][]int
	pres := ParseWithReader(rr, &blob)
	require.True(t, pres.OK(), "got %s", pres.Code)
	assert.Equal(t, map[string][]int{"k": {1, 2, 3}}, blob)
}

func TestYAMLSinkReplayThroughWriter(t *testing.T) {
	type rec struct {
		Name string   `json:"name"`
		Blob WireSink `json:"blob" fusion:"sink=64"`
	}

	var v rec
	res := parseYAML(t, "name: a\nblob:\n  k: [1, 2]\n", &v)
	require.True(t, res.OK(), "got %s", res.Code)

	w := NewYAMLWriter()
	sres := SerializeWithWriter(w, v)
	require.True(t, sres.OK(), "got %s", sres.Code)

	var check map[string]any
	require.NoError(t, yaml.Unmarshal(w.Bytes(), &check))
	assert.Equal(t, "a", check["name"])
	assert.NotNil(t, check["blob"])
}

func TestYAMLGenericValue(t *testing.T) {
	doc := "b: true\nn: 1.5\ns: x\na:\n- 1\n- null\n"
	var v any
	res := parseYAML(t, doc, &v)
	require.True(t, res.OK(), "got %s", res.Code)

	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, m["b"])
	assert.Equal(t, 1.5, m["n"])
	assert.Equal(t, "x", m["s"])
}

func TestYAMLFloatInIntegerStorage(t *testing.T) {
	type holder struct {
		N int `json:"n"`
	}

	var v holder
	res := parseYAML(t, "n: 1.5\n", &v)
	require.False(t, res.OK())
	assert.Equal(t, CodeFloatInIntegerStorage, res.Code)
}
