package jsonfusion

import (
	"encoding/binary"
	"math"
)

// CBORWriter encodes RFC 8949 binary data implementing the Writer contract.
// Integer values and container lengths use the smallest of the five argument
// widths; definite-length frames verify their declared counts as they close.
type CBORWriter struct {
	buf []byte
	max int

	err    ErrorCode
	errPos int

	// chunked string state
	strIndefinite bool
	strRemaining  int
	strInProgress bool

	sink *WireSink
}

// NewCBORWriter returns a writer with an unbounded growable buffer.
func NewCBORWriter() *CBORWriter {
	return &CBORWriter{}
}

// NewCBORWriterToSink returns a writer whose finished output is stored into
// sink.
func NewCBORWriterToSink(sink *WireSink) *CBORWriter {
	return &CBORWriter{sink: sink}
}

// SetMaxSize bounds the output; exceeding it fails with data-consumer-error.
func (w *CBORWriter) SetMaxSize(n int) *CBORWriter {
	if n > 0 {
		w.max = n
	}
	return w
}

// Bytes returns the emitted output so far.
func (w *CBORWriter) Bytes() []byte { return w.buf }

// Err returns the recorded error code, or NoError.
func (w *CBORWriter) Err() ErrorCode { return w.err }

func (w *CBORWriter) fail(code ErrorCode) bool {
	if w.err == NoError {
		w.err = code
		w.errPos = len(w.buf)
	}
	return false
}

func (w *CBORWriter) put(data ...byte) bool {
	if w.err != NoError {
		return false
	}
	if w.max > 0 && len(w.buf)+len(data) > w.max {
		return w.fail(CodeDataConsumerError)
	}
	w.buf = append(w.buf, data...)
	return true
}

// putHead encodes an initial byte with the smallest argument width: values
// below 24 ride in the initial byte; otherwise 1, 2, 4 or 8 big-endian bytes
// follow.
func (w *CBORWriter) putHead(major byte, arg uint64) bool {
	switch {
	case arg < 24:
		return w.put(major<<5 | byte(arg))
	case arg <= math.MaxUint8:
		return w.put(major<<5|24, byte(arg))
	case arg <= math.MaxUint16:
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(arg))
		return w.put(major<<5|25) && w.put(b[:]...)
	case arg <= math.MaxUint32:
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(arg))
		return w.put(major<<5|26) && w.put(b[:]...)
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], arg)
	return w.put(major<<5|27) && w.put(b[:]...)
}

func (w *CBORWriter) WriteNull() bool { return w.put(cborNull) }

func (w *CBORWriter) WriteBool(v bool) bool {
	if v {
		return w.put(cborTrue)
	}
	return w.put(cborFalse)
}

func (w *CBORWriter) WriteInt(v int64) bool {
	if v >= 0 {
		return w.putHead(cborMajorUint, uint64(v))
	}
	return w.putHead(cborMajorNegInt, uint64(-(v + 1)))
}

func (w *CBORWriter) WriteUint(v uint64) bool {
	return w.putHead(cborMajorUint, v)
}

// WriteFloat encodes v at the width of its storage type: 32-bit storage as a
// single-precision float, 64-bit as double.
func (w *CBORWriter) WriteFloat(v float64, bitSize int) bool {
	if bitSize == 32 {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], math.Float32bits(float32(v)))
		return w.put(0xFA) && w.put(b[:]...)
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	return w.put(0xFB) && w.put(b[:]...)
}

// WriteStringBegin opens a text string. An exact sizeHint produces a
// definite-length string whose chunks must total the hint; UnknownLength
// produces an indefinite-length string of definite-length chunks terminated
// by a break.
func (w *CBORWriter) WriteStringBegin(sizeHint int) bool {
	if w.err != NoError {
		return false
	}
	w.strInProgress = true
	if sizeHint == UnknownLength {
		w.strIndefinite = true
		return w.put(cborMajorText<<5 | cborAIIndefinite)
	}
	w.strIndefinite = false
	w.strRemaining = sizeHint
	return w.putHead(cborMajorText, uint64(sizeHint))
}

func (w *CBORWriter) WriteStringChunk(data []byte) bool {
	if w.err != NoError {
		return false
	}
	if !w.strInProgress {
		return w.fail(CodeDataConsumerError)
	}
	if w.strIndefinite {
		if len(data) == 0 {
			return true
		}
		return w.putHead(cborMajorText, uint64(len(data))) && w.put(data...)
	}
	if len(data) > w.strRemaining {
		return w.fail(CodeDataConsumerError)
	}
	w.strRemaining -= len(data)
	return w.put(data...)
}

func (w *CBORWriter) WriteStringEnd() bool {
	if w.err != NoError {
		return false
	}
	if !w.strInProgress {
		return w.fail(CodeDataConsumerError)
	}
	w.strInProgress = false
	if w.strIndefinite {
		return w.put(cborBreak)
	}
	if w.strRemaining != 0 {
		return w.fail(CodeDataConsumerError)
	}
	return true
}

func (w *CBORWriter) WriteString(s string) bool {
	return w.putHead(cborMajorText, uint64(len(s))) && w.put([]byte(s)...)
}

// WriteKeyAsIndex emits an integer key natively.
func (w *CBORWriter) WriteKeyAsIndex(idx int64) bool {
	return w.WriteInt(idx)
}

func (w *CBORWriter) WriteArrayBegin(size int, f *ArrayFrame) bool {
	if w.err != NoError {
		return false
	}
	if size == UnknownLength {
		*f = ArrayFrame{Indefinite: true}
		return w.put(cborMajorArray<<5 | cborAIIndefinite)
	}
	*f = ArrayFrame{Remaining: uint64(size)}
	return w.putHead(cborMajorArray, uint64(size))
}

// WriteArrayNext is called between elements; for definite-length frames it
// verifies the declared count is not exceeded.
func (w *CBORWriter) WriteArrayNext(f *ArrayFrame) bool {
	if w.err != NoError {
		return false
	}
	f.Index++
	if !f.Indefinite && uint64(f.Index) >= f.Remaining {
		return w.fail(CodeDataConsumerError)
	}
	return true
}

// WriteArrayEnd closes the frame: indefinite frames emit the break byte,
// definite frames verify the final count matches the declaration.
func (w *CBORWriter) WriteArrayEnd(f *ArrayFrame) bool {
	if w.err != NoError {
		return false
	}
	if f.Indefinite {
		return w.put(cborBreak)
	}
	if f.Remaining > 0 && uint64(f.Index) != f.Remaining-1 {
		return w.fail(CodeDataConsumerError)
	}
	if f.Remaining == 0 && f.Index != 0 {
		return w.fail(CodeDataConsumerError)
	}
	return true
}

func (w *CBORWriter) WriteMapBegin(size int, f *MapFrame) bool {
	if w.err != NoError {
		return false
	}
	if size == UnknownLength {
		*f = MapFrame{Indefinite: true}
		return w.put(cborMajorMap<<5 | cborAIIndefinite)
	}
	*f = MapFrame{Remaining: uint64(size)}
	return w.putHead(cborMajorMap, uint64(size))
}

func (w *CBORWriter) WriteMapNext(f *MapFrame) bool {
	if w.err != NoError {
		return false
	}
	f.Index++
	if !f.Indefinite && uint64(f.Index) >= f.Remaining {
		return w.fail(CodeDataConsumerError)
	}
	return true
}

// MoveToValue is a no-op: CBOR has no key/value separator.
func (w *CBORWriter) MoveToValue(f *MapFrame) bool {
	return w.err == NoError
}

func (w *CBORWriter) WriteMapEnd(f *MapFrame) bool {
	if w.err != NoError {
		return false
	}
	if f.Indefinite {
		return w.put(cborBreak)
	}
	if f.Remaining > 0 && uint64(f.Index) != f.Remaining-1 {
		return w.fail(CodeDataConsumerError)
	}
	if f.Remaining == 0 && f.Index != 0 {
		return w.fail(CodeDataConsumerError)
	}
	return true
}

// WriteFromSink splices the sink's captured encoding verbatim.
func (w *CBORWriter) WriteFromSink(sink *WireSink) bool {
	if w.err != NoError {
		return false
	}
	if sink.Len() == 0 && sink.Handle != nil {
		return w.fail(CodeDataConsumerError)
	}
	if sink.Len() == 0 {
		return w.put(cborNull)
	}
	return w.put(sink.Data()...)
}

// Finish returns the total bytes produced; sink-targeted writers transfer
// their output into the sink here.
func (w *CBORWriter) Finish() (int, ErrorCode) {
	if w.err != NoError {
		return 0, w.err
	}
	if w.sink != nil {
		w.sink.Clear()
		if !w.sink.Write(w.buf) {
			w.fail(CodeWireSinkOverflow)
			return 0, w.err
		}
	}
	return len(w.buf), NoError
}
