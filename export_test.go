package jsonfusion

import (
	"bytes"
	"reflect"
	"testing"

	gojson "github.com/goccy/go-json"
	santhosh "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exportedConfig struct {
	App    string   `json:"app" validate:"minLength=1,maxLength=32"`
	LoopHz float64  `json:"loop_hz" validate:"minimum=10,maximum=10000"`
	Level  string   `json:"level" validate:"enum=low mid high"`
	Tags   []string `json:"tags" validate:"maxItems=4"`
	Opt    *int     `json:"opt"`
	Mem    int      `json:"-"`
}

func TestExportJSONSchemaShape(t *testing.T) {
	s, err := ExportJSONSchema(reflect.TypeOf(exportedConfig{}))
	require.NoError(t, err)

	assert.Equal(t, "object", s.Type)
	require.Contains(t, s.Properties, "app")
	require.Contains(t, s.Properties, "loop_hz")
	assert.NotContains(t, s.Properties, "Mem", "not-json fields are absent")

	assert.ElementsMatch(t, []string{"app", "loop_hz", "level", "tags"}, s.Required,
		"optional fields are not required")

	app := s.Properties["app"]
	assert.Equal(t, "string", app.Type)
	require.NotNil(t, app.MinLength)
	assert.Equal(t, 1, *app.MinLength)

	hz := s.Properties["loop_hz"]
	assert.Equal(t, "number", hz.Type)
	require.NotNil(t, hz.Minimum)
	assert.Equal(t, 10.0, *hz.Minimum)

	level := s.Properties["level"]
	assert.Len(t, level.Enum, 3)

	tags := s.Properties["tags"]
	assert.Equal(t, "array", tags.Type)
	require.NotNil(t, tags.MaxItems)
	assert.Equal(t, 4, *tags.MaxItems)
}

func TestExportJSONSchemaStrictFields(t *testing.T) {
	c := NewCompiler().SetStrictFields(true)
	s, err := c.ExportJSONSchema(reflect.TypeOf(appInfo{}))
	require.NoError(t, err)
	assert.NotNil(t, s.AdditionalProperties, "strict mode closes the object")
}

// TestExportCrossValidation compiles the exported document with an
// independent JSON Schema implementation and checks it agrees with the
// native validators.
func TestExportCrossValidation(t *testing.T) {
	exported, err := ExportJSONSchema(reflect.TypeOf(exportedConfig{}))
	require.NoError(t, err)

	schemaBytes, err := gojson.Marshal(exported)
	require.NoError(t, err)

	doc, err := santhosh.UnmarshalJSON(bytes.NewReader(schemaBytes))
	require.NoError(t, err)

	compiler := santhosh.NewCompiler()
	require.NoError(t, compiler.AddResource("exported.json", doc))
	schema, err := compiler.Compile("exported.json")
	require.NoError(t, err)

	good := []byte(`{"app":"x","loop_hz":50,"level":"mid","tags":["a"]}`)
	bad := []byte(`{"app":"x","loop_hz":5,"level":"mid","tags":["a"]}`)

	var goodDoc, badDoc any
	require.NoError(t, gojson.Unmarshal(good, &goodDoc))
	require.NoError(t, gojson.Unmarshal(bad, &badDoc))

	assert.NoError(t, schema.Validate(goodDoc))
	assert.Error(t, schema.Validate(badDoc), "the exported minimum constraint rejects what the native validator rejects")

	var v exportedConfig
	assert.True(t, Parse(good, &v).OK())
	res := Parse(bad, &v)
	require.False(t, res.OK())
	assert.Equal(t, CodeSchemaValidationError, res.Code)
}
