package jsonfusion

import (
	"fmt"
	"math"
	"strconv"

	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"
)

// YAMLReader is a DOM-backed reader over a goccy/go-yaml syntax tree. Only
// documents that are also representable in JSON are accepted: anchors,
// aliases, tags and multi-document streams are rejected. Integer map keys
// are accepted when the target map key type is integral.
//
// Sink capture stores the node handle, making capture O(1); replay validity
// is scoped to the lifetime of the tree.
type YAMLReader struct {
	root ast.Node
	cur  ast.Node

	err    ErrorCode
	errPos int

	strActive bool
	strData   []byte
	strOff    int
}

// yamlSeqState is the frame iterator state for sequences.
type yamlSeqState struct {
	values []ast.Node
}

// yamlMapState is the frame iterator state for mappings.
type yamlMapState struct {
	entries []*ast.MappingValueNode
}

// NewYAMLReader parses data into a DOM and returns a reader positioned at
// the document root. Multi-document streams are rejected.
func NewYAMLReader(data []byte) (*YAMLReader, error) {
	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, fmt.Errorf("yaml parse: %w", err)
	}
	if len(file.Docs) > 1 {
		return nil, fmt.Errorf("yaml parse: multi-document streams are not supported")
	}
	var root ast.Node
	if len(file.Docs) == 1 {
		root = file.Docs[0].Body
	}
	return &YAMLReader{root: root, cur: root}, nil
}

// NewYAMLReaderFromSink returns a reader that replays a previously captured
// node handle. The tree that produced the handle must still be alive.
func NewYAMLReaderFromSink(sink *WireSink) (*YAMLReader, error) {
	node, ok := sink.Handle.(ast.Node)
	if !ok {
		return nil, fmt.Errorf("sink does not hold a yaml node handle")
	}
	return &YAMLReader{root: node, cur: node}, nil
}

// Err returns the recorded error code, or NoError.
func (r *YAMLReader) Err() ErrorCode { return r.err }

// Offset returns the source offset of the node the error was recorded at.
func (r *YAMLReader) Offset() int { return r.errPos }

func (r *YAMLReader) fail(code ErrorCode) Status {
	if r.err == NoError {
		r.err = code
		r.errPos = r.curOffset()
	}
	return StatusError
}

func (r *YAMLReader) curOffset() int {
	if r.cur == nil {
		return 0
	}
	if tok := r.cur.GetToken(); tok != nil && tok.Position != nil {
		return tok.Position.Offset
	}
	return 0
}

// resolve unwraps the current node, rejecting the YAML constructs outside
// the JSON-representable subset.
func (r *YAMLReader) resolve(node ast.Node) (ast.Node, Status) {
	switch node.(type) {
	case *ast.AnchorNode, *ast.AliasNode, *ast.TagNode, *ast.MergeKeyNode:
		return nil, r.fail(CodeNotImplemented)
	}
	return node, StatusOK
}

func (r *YAMLReader) StartValueAndTryReadNull() Status {
	if r.err != NoError {
		return StatusError
	}
	if r.cur == nil {
		return StatusOK
	}
	node, st := r.resolve(r.cur)
	if st != StatusOK {
		return st
	}
	if _, ok := node.(*ast.NullNode); ok {
		return StatusOK
	}
	return StatusNoMatch
}

func (r *YAMLReader) ReadBool(out *bool) Status {
	if r.err != NoError {
		return StatusError
	}
	node, st := r.resolve(r.cur)
	if st != StatusOK {
		return st
	}
	if b, ok := node.(*ast.BoolNode); ok {
		*out = b.Value
		return StatusOK
	}
	return StatusNoMatch
}

// integerNodeValue widens goccy's integer node payload.
func integerNodeValue(n *ast.IntegerNode) (int64, uint64, bool) {
	switch v := n.Value.(type) {
	case int:
		return int64(v), uint64(v), v >= 0
	case int64:
		return v, uint64(v), v >= 0
	case uint64:
		return int64(v), v, true
	}
	return 0, 0, false
}

func (r *YAMLReader) ReadInt(out *int64, bitSize int) Status {
	if r.err != NoError {
		return StatusError
	}
	node, st := r.resolve(r.cur)
	if st != StatusOK {
		return st
	}
	switch n := node.(type) {
	case *ast.IntegerNode:
		v, u, nonNeg := integerNodeValue(n)
		if nonNeg {
			if u > uint64(intMax(bitSize)) {
				return r.fail(CodeNumericOutOfRange)
			}
			*out = int64(u)
			return StatusOK
		}
		if v < intMin(bitSize) {
			return r.fail(CodeNumericOutOfRange)
		}
		*out = v
		return StatusOK
	case *ast.FloatNode:
		return r.fail(CodeFloatInIntegerStorage)
	}
	return StatusNoMatch
}

func (r *YAMLReader) ReadUint(out *uint64, bitSize int) Status {
	if r.err != NoError {
		return StatusError
	}
	node, st := r.resolve(r.cur)
	if st != StatusOK {
		return st
	}
	switch n := node.(type) {
	case *ast.IntegerNode:
		_, u, nonNeg := integerNodeValue(n)
		if !nonNeg || u > uintMax(bitSize) {
			return r.fail(CodeNumericOutOfRange)
		}
		*out = u
		return StatusOK
	case *ast.FloatNode:
		return r.fail(CodeFloatInIntegerStorage)
	}
	return StatusNoMatch
}

func (r *YAMLReader) ReadFloat(out *float64, bitSize int) Status {
	if r.err != NoError {
		return StatusError
	}
	node, st := r.resolve(r.cur)
	if st != StatusOK {
		return st
	}
	switch n := node.(type) {
	case *ast.FloatNode:
		if bitSize == 32 && !math.IsInf(n.Value, 0) && math.IsInf(float64(float32(n.Value)), 0) {
			return r.fail(CodeNumericOutOfRange)
		}
		*out = n.Value
		return StatusOK
	case *ast.IntegerNode:
		v, u, nonNeg := integerNodeValue(n)
		if nonNeg {
			*out = float64(u)
		} else {
			*out = float64(v)
		}
		return StatusOK
	case *ast.InfinityNode:
		*out = n.Value
		return StatusOK
	case *ast.NanNode:
		*out = math.NaN()
		return StatusOK
	}
	return StatusNoMatch
}

// stringNodeValue extracts string scalar content.
func stringNodeValue(node ast.Node) (string, bool) {
	switch n := node.(type) {
	case *ast.StringNode:
		return n.Value, true
	case *ast.LiteralNode:
		return n.Value.Value, true
	}
	return "", false
}

func (r *YAMLReader) ReadStringChunk(out []byte) ChunkResult {
	if r.err != NoError {
		return ChunkResult{Status: StatusError}
	}
	if !r.strActive {
		node, st := r.resolve(r.cur)
		if st != StatusOK {
			return ChunkResult{Status: st}
		}
		s, ok := stringNodeValue(node)
		if !ok {
			return ChunkResult{Status: StatusNoMatch}
		}
		r.strActive = true
		r.strData = []byte(s)
		r.strOff = 0
	}

	n := len(out)
	if remaining := len(r.strData) - r.strOff; n > remaining {
		n = remaining
	}
	copy(out, r.strData[r.strOff:r.strOff+n])
	r.strOff += n

	done := r.strOff == len(r.strData)
	if done {
		r.strActive = false
		r.strData = nil
	}
	return ChunkResult{Status: StatusOK, N: n, Done: done}
}

// ReadKeyAsIndex accepts a native integer key, or parses a scalar string key
// as an integer.
func (r *YAMLReader) ReadKeyAsIndex(out *int64, bitSize int) Status {
	if r.err != NoError {
		return StatusError
	}
	node, st := r.resolve(r.cur)
	if st != StatusOK {
		return st
	}
	switch n := node.(type) {
	case *ast.IntegerNode:
		return r.ReadInt(out, bitSize)
	case *ast.StringNode:
		v, err := strconv.ParseInt(n.Value, 10, bitSize)
		if err != nil {
			return r.fail(CodeIllformedNumber)
		}
		*out = v
		return StatusOK
	}
	return r.fail(CodeIllformedObject)
}

func (r *YAMLReader) ReadArrayBegin(f *ArrayFrame) Status {
	if r.err != NoError {
		return StatusError
	}
	node, st := r.resolve(r.cur)
	if st != StatusOK {
		return st
	}
	seq, ok := node.(*ast.SequenceNode)
	if !ok {
		return StatusNoMatch
	}
	state := &yamlSeqState{values: seq.Values}
	*f = ArrayFrame{node: state, HasValue: len(state.values) > 0}
	if f.HasValue {
		r.cur = state.values[0]
	}
	return StatusOK
}

func (r *YAMLReader) ReadArrayNext(f *ArrayFrame) Status {
	if r.err != NoError {
		return StatusError
	}
	state := f.node.(*yamlSeqState)
	f.Index++
	f.HasValue = f.Index < len(state.values)
	if f.HasValue {
		r.cur = state.values[f.Index]
	}
	return StatusOK
}

// mappingEntries normalizes goccy's two mapping shapes: a MappingNode, or a
// bare MappingValueNode for single-pair mappings.
func mappingEntries(node ast.Node) ([]*ast.MappingValueNode, bool) {
	switch n := node.(type) {
	case *ast.MappingNode:
		return n.Values, true
	case *ast.MappingValueNode:
		return []*ast.MappingValueNode{n}, true
	}
	return nil, false
}

func (r *YAMLReader) ReadMapBegin(f *MapFrame) Status {
	if r.err != NoError {
		return StatusError
	}
	node, st := r.resolve(r.cur)
	if st != StatusOK {
		return st
	}
	entries, ok := mappingEntries(node)
	if !ok {
		return StatusNoMatch
	}
	state := &yamlMapState{entries: entries}
	*f = MapFrame{node: state, HasValue: len(entries) > 0}
	if f.HasValue {
		r.cur = entries[0].Key
	}
	return StatusOK
}

func (r *YAMLReader) MoveToValue(f *MapFrame) Status {
	if r.err != NoError {
		return StatusError
	}
	state := f.node.(*yamlMapState)
	r.cur = state.entries[f.Index].Value
	return StatusOK
}

func (r *YAMLReader) ReadMapNext(f *MapFrame) Status {
	if r.err != NoError {
		return StatusError
	}
	state := f.node.(*yamlMapState)
	f.Index++
	f.HasValue = f.Index < len(state.entries)
	if f.HasValue {
		r.cur = state.entries[f.Index].Key
	}
	return StatusOK
}

// SkipValue discards the current node; DOM iteration needs no traversal.
func (r *YAMLReader) SkipValue() Status {
	if r.err != NoError {
		return StatusError
	}
	_, st := r.resolve(r.cur)
	return st
}

// CaptureToSink stores the current node handle, O(1) regardless of the
// sub-document's size.
func (r *YAMLReader) CaptureToSink(sink *WireSink) Status {
	if r.err != NoError {
		return StatusError
	}
	node, st := r.resolve(r.cur)
	if st != StatusOK {
		return st
	}
	sink.Clear()
	sink.Handle = node
	return StatusOK
}

// Finish always succeeds: the DOM holds exactly one document.
func (r *YAMLReader) Finish() Status {
	if r.err != NoError {
		return StatusError
	}
	return StatusOK
}
