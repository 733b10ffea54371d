package jsonfusion

import (
	"reflect"
	"sync"

	"github.com/tucher/jsonfusion/pkg/tagparser"
)

// Compiler turns Go types into compiled Schemas and carries the settings
// shared by every parse and serialize call made through it. Compiled schemas
// are cached per type; a Compiler is safe for concurrent use.
type Compiler struct {
	// StrictFields makes unknown keys in records a parse error instead of
	// being skipped.
	StrictFields bool

	// ValidateOnSerialize runs field validators before writing values.
	ValidateOnSerialize bool

	// MaxDepth bounds the diagnostic path stack. Parse also applies it to
	// the JSON reader's skip/capture nesting limit; a reader passed to
	// ParseWithReader keeps its own limit.
	MaxDepth int

	tags  *tagparser.Parser
	cache sync.Map // reflect.Type -> *Schema
}

const defaultMaxDepth = 32

// NewCompiler creates a Compiler with default settings: unknown keys are
// skipped, serialization does not re-validate, nesting is capped at 32.
func NewCompiler() *Compiler {
	return &Compiler{
		MaxDepth: defaultMaxDepth,
		tags:     tagparser.New(),
	}
}

// SetStrictFields flips unknown-key handling to a hard error.
func (c *Compiler) SetStrictFields(strict bool) *Compiler {
	c.StrictFields = strict
	return c
}

// SetValidateOnSerialize enables running validators on the serialize path.
func (c *Compiler) SetValidateOnSerialize(enabled bool) *Compiler {
	c.ValidateOnSerialize = enabled
	return c
}

// SetMaxDepth bounds value nesting. Values nested deeper than this fail with
// skip-stack-overflow.
func (c *Compiler) SetMaxDepth(depth int) *Compiler {
	if depth > 0 {
		c.MaxDepth = depth
	}
	return c
}

// Compile returns the schema of t, computing and caching it on first use.
// Classifying the same type always yields the same descriptor.
func (c *Compiler) Compile(t reflect.Type) (*Schema, error) {
	if cached, ok := c.cache.Load(t); ok {
		return cached.(*Schema), nil
	}
	s, err := c.compileSchema(t, make(map[reflect.Type]*Schema))
	if err != nil {
		return nil, err
	}
	actual, _ := c.cache.LoadOrStore(t, s)
	return actual.(*Schema), nil
}

// CompileFor is a convenience that compiles the schema of v's dynamic type.
func (c *Compiler) CompileFor(v any) (*Schema, error) {
	return c.Compile(reflect.TypeOf(v))
}

// defaultCompiler backs the package-level Parse/Serialize entry points.
var defaultCompiler = NewCompiler()

// SetDefaultCompiler replaces the compiler used by the package-level entry
// points.
func SetDefaultCompiler(c *Compiler) {
	if c != nil {
		defaultCompiler = c
	}
}

// GetDefaultCompiler returns the compiler used by the package-level entry
// points.
func GetDefaultCompiler() *Compiler {
	return defaultCompiler
}
