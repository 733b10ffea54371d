package jsonfusion

// Status is the tri-state outcome of a reader operation that may decline a
// wire token without consuming it.
type Status int8

const (
	// StatusOK means the token was consumed.
	StatusOK Status = iota
	// StatusNoMatch means the wire token is of a different kind; the cursor
	// is unchanged.
	StatusNoMatch
	// StatusError means the input is malformed; the reader has recorded an
	// error code and offset.
	StatusError
)

// ChunkResult reports one ReadStringChunk call.
type ChunkResult struct {
	Status Status
	// N is the number of decoded bytes placed into the caller's buffer.
	N int
	// Done is true once the closing delimiter has been consumed.
	Done bool
}

// UnknownLength is the size hint passed to WriteStringBegin, WriteArrayBegin
// or WriteMapBegin when the element count is not known up front. Formats with
// definite-length framing switch to their indefinite encoding.
const UnknownLength = -1

// ArrayFrame tracks a reader's or writer's progress through one array. It
// lives on the caller's stack; the backend mutates it.
type ArrayFrame struct {
	// HasValue reports whether another element follows (reader side).
	HasValue bool
	// Remaining holds the declared element count for definite-length framing.
	Remaining uint64
	// Indefinite is set for CBOR indefinite-length framing.
	Indefinite bool
	// Index counts elements visited so far.
	Index int

	node any // DOM-backed iterator state
}

// MapFrame tracks progress through one map or record.
type MapFrame struct {
	HasValue   bool
	Remaining  uint64
	Indefinite bool
	Index      int

	node any
}

// Reader is the contract every wire-format reader satisfies. Methods that
// return Status consume their token only on StatusOK; on StatusError the
// reader records an ErrorCode retrievable through Err.
//
// Readers are single-use, non-owning adapters over caller-owned bytes (or a
// caller-owned DOM) and must not be shared between goroutines.
type Reader interface {
	// StartValueAndTryReadNull positions the cursor at the next value and
	// consumes it if it is null.
	StartValueAndTryReadNull() Status

	ReadBool(out *bool) Status
	// ReadInt reads an integral value range-checked against a signed storage
	// of the given bit size (8, 16, 32 or 64).
	ReadInt(out *int64, bitSize int) Status
	ReadUint(out *uint64, bitSize int) Status
	// ReadFloat reads a numeric value into floating storage of the given bit
	// size (32 or 64).
	ReadFloat(out *float64, bitSize int) Status

	// ReadStringChunk fills out with up to len(out) decoded bytes. The reader
	// keeps internal state across calls so values longer than the buffer are
	// streamed in pieces; escapes and surrogate pairs arrive decoded as UTF-8.
	// A chunk that fills the buffer exactly while the next input byte closes
	// the string reports Done in the same call.
	ReadStringChunk(out []byte) ChunkResult

	// ReadKeyAsIndex reads a map key as an integer, range-checked against a
	// signed storage of the given bit size. Textual formats parse the key
	// string; binary formats read the integer directly.
	ReadKeyAsIndex(out *int64, bitSize int) Status

	// ReadArrayBegin opens an array frame; f.HasValue reports whether a first
	// element exists.
	ReadArrayBegin(f *ArrayFrame) Status
	// ReadArrayNext is called after each element; it updates f.HasValue and
	// consumes the closing delimiter when the array ends.
	ReadArrayNext(f *ArrayFrame) Status

	ReadMapBegin(f *MapFrame) Status
	// MoveToValue is called between a key and its value.
	MoveToValue(f *MapFrame) Status
	ReadMapNext(f *MapFrame) Status

	// SkipValue consumes and discards one arbitrary value, bounded by the
	// reader's nesting limit.
	SkipValue() Status
	// CaptureToSink skips one value while storing its wire representation
	// (raw bytes, or a DOM handle) into sink.
	CaptureToSink(sink *WireSink) Status

	// Finish verifies the input is fully consumed.
	Finish() Status

	// Err returns the recorded error code, or NoError.
	Err() ErrorCode
	// Offset returns the byte offset associated with the recorded error, or
	// the current cursor position.
	Offset() int
}

// Writer is the symmetric contract for wire-format writers. Methods return
// true on success; after a false return the writer's Err is set and further
// calls are no-ops.
type Writer interface {
	WriteNull() bool
	WriteBool(v bool) bool
	WriteInt(v int64) bool
	WriteUint(v uint64) bool
	// WriteFloat emits v using the storage width given by bitSize (32 or 64).
	WriteFloat(v float64, bitSize int) bool

	// WriteStringBegin opens a string value. sizeHint is the exact byte
	// length, or UnknownLength for indefinite encoding.
	WriteStringBegin(sizeHint int) bool
	WriteStringChunk(data []byte) bool
	WriteStringEnd() bool
	// WriteString is the one-call convenience form.
	WriteString(s string) bool

	// WriteKeyAsIndex emits an integer-valued map key in the format's
	// idiomatic form.
	WriteKeyAsIndex(idx int64) bool

	// WriteArrayBegin opens an array of size elements (UnknownLength for
	// indefinite framing).
	WriteArrayBegin(size int, f *ArrayFrame) bool
	// WriteArrayNext is called between elements, not after each one.
	WriteArrayNext(f *ArrayFrame) bool
	WriteArrayEnd(f *ArrayFrame) bool

	WriteMapBegin(size int, f *MapFrame) bool
	WriteMapNext(f *MapFrame) bool
	MoveToValue(f *MapFrame) bool
	WriteMapEnd(f *MapFrame) bool

	// WriteFromSink emits the sink's captured content verbatim as a single
	// value.
	WriteFromSink(sink *WireSink) bool

	// Finish flushes and returns the total number of bytes produced.
	Finish() (int, ErrorCode)

	Err() ErrorCode
}
