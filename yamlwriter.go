package jsonfusion

import (
	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
)

// YAMLWriter is a DOM-backed writer: it assembles a generic value tree
// (ordered maps, slices, scalars) and emits the document through the YAML
// marshaler on Finish.
type YAMLWriter struct {
	stack []*yamlContainer
	root  any

	out []byte

	err    ErrorCode
	errPos int

	strActive bool
	strBuf    []byte

	sink *WireSink
}

// yamlContainer is one container being assembled.
type yamlContainer struct {
	isMap      bool
	seq        []any
	m          yaml.MapSlice
	pendingKey any
	inValue    bool
}

// NewYAMLWriter returns a writer producing one YAML document.
func NewYAMLWriter() *YAMLWriter {
	return &YAMLWriter{}
}

// NewYAMLWriterToSink returns a writer whose finished document bytes are
// stored into sink.
func NewYAMLWriterToSink(sink *WireSink) *YAMLWriter {
	return &YAMLWriter{sink: sink}
}

// Bytes returns the marshaled document after Finish.
func (w *YAMLWriter) Bytes() []byte { return w.out }

// Err returns the recorded error code, or NoError.
func (w *YAMLWriter) Err() ErrorCode { return w.err }

func (w *YAMLWriter) fail(code ErrorCode) bool {
	if w.err == NoError {
		w.err = code
	}
	return false
}

// attach places a finished value: into the enclosing container (as a map
// key, map value, or sequence element), or as the document root.
func (w *YAMLWriter) attach(v any) bool {
	if w.err != NoError {
		return false
	}
	if len(w.stack) == 0 {
		w.root = v
		return true
	}
	top := w.stack[len(w.stack)-1]
	if top.isMap {
		if !top.inValue {
			top.pendingKey = v
			return true
		}
		top.m = append(top.m, yaml.MapItem{Key: top.pendingKey, Value: v})
		top.inValue = false
		return true
	}
	top.seq = append(top.seq, v)
	return true
}

func (w *YAMLWriter) WriteNull() bool { return w.attach(nil) }

func (w *YAMLWriter) WriteBool(v bool) bool { return w.attach(v) }

func (w *YAMLWriter) WriteInt(v int64) bool { return w.attach(v) }

func (w *YAMLWriter) WriteUint(v uint64) bool { return w.attach(v) }

func (w *YAMLWriter) WriteFloat(v float64, bitSize int) bool {
	if bitSize == 32 {
		return w.attach(float32(v))
	}
	return w.attach(v)
}

// WriteStringBegin opens the chunked string form; the DOM backend assembles
// the chunks and attaches one scalar on WriteStringEnd.
func (w *YAMLWriter) WriteStringBegin(sizeHint int) bool {
	if w.err != NoError {
		return false
	}
	w.strActive = true
	w.strBuf = w.strBuf[:0]
	return true
}

func (w *YAMLWriter) WriteStringChunk(data []byte) bool {
	if w.err != NoError {
		return false
	}
	if !w.strActive {
		return w.fail(CodeDataConsumerError)
	}
	w.strBuf = append(w.strBuf, data...)
	return true
}

func (w *YAMLWriter) WriteStringEnd() bool {
	if w.err != NoError {
		return false
	}
	if !w.strActive {
		return w.fail(CodeDataConsumerError)
	}
	w.strActive = false
	return w.attach(string(w.strBuf))
}

func (w *YAMLWriter) WriteString(s string) bool { return w.attach(s) }

// WriteKeyAsIndex attaches a native integer key.
func (w *YAMLWriter) WriteKeyAsIndex(idx int64) bool { return w.attach(idx) }

func (w *YAMLWriter) WriteArrayBegin(size int, f *ArrayFrame) bool {
	if w.err != NoError {
		return false
	}
	*f = ArrayFrame{}
	w.stack = append(w.stack, &yamlContainer{seq: []any{}})
	return true
}

func (w *YAMLWriter) WriteArrayNext(f *ArrayFrame) bool {
	f.Index++
	return w.err == NoError
}

func (w *YAMLWriter) WriteArrayEnd(f *ArrayFrame) bool {
	if w.err != NoError {
		return false
	}
	top := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	return w.attach(top.seq)
}

func (w *YAMLWriter) WriteMapBegin(size int, f *MapFrame) bool {
	if w.err != NoError {
		return false
	}
	*f = MapFrame{}
	w.stack = append(w.stack, &yamlContainer{isMap: true, m: yaml.MapSlice{}})
	return true
}

func (w *YAMLWriter) WriteMapNext(f *MapFrame) bool {
	f.Index++
	return w.err == NoError
}

// MoveToValue switches the enclosing map container from key to value
// position.
func (w *YAMLWriter) MoveToValue(f *MapFrame) bool {
	if w.err != NoError {
		return false
	}
	top := w.stack[len(w.stack)-1]
	top.inValue = true
	return true
}

func (w *YAMLWriter) WriteMapEnd(f *MapFrame) bool {
	if w.err != NoError {
		return false
	}
	top := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	return w.attach(top.m)
}

// WriteFromSink replays a captured node handle by decoding it back into a
// generic value; byte captures are decoded as a YAML document.
func (w *YAMLWriter) WriteFromSink(sink *WireSink) bool {
	if w.err != NoError {
		return false
	}
	if node, ok := sink.Handle.(ast.Node); ok {
		var v any
		if err := yaml.NodeToValue(node, &v); err != nil {
			return w.fail(CodeDataConsumerError)
		}
		return w.attach(v)
	}
	if sink.Len() > 0 {
		var v any
		if err := yaml.Unmarshal(sink.Data(), &v); err != nil {
			return w.fail(CodeDataConsumerError)
		}
		return w.attach(v)
	}
	return w.attach(nil)
}

// Finish marshals the assembled tree into the document bytes.
func (w *YAMLWriter) Finish() (int, ErrorCode) {
	if w.err != NoError {
		return 0, w.err
	}
	out, err := yaml.Marshal(w.root)
	if err != nil {
		w.fail(CodeDataConsumerError)
		return 0, w.err
	}
	w.out = out
	if w.sink != nil {
		w.sink.Clear()
		if !w.sink.Write(out) {
			w.fail(CodeWireSinkOverflow)
			return 0, w.err
		}
	}
	return len(out), NoError
}
