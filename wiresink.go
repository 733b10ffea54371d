package jsonfusion

// WireSink is an opaque capture buffer for one sub-document. Byte-oriented
// backends fill it with the raw wire bytes of the skipped value; DOM-backed
// backends store a node handle instead, giving O(1) capture regardless of the
// sub-document's size.
//
// A sink captured from one wire format carries no cross-format semantics: it
// may only be replayed through a writer of the format that produced it.
type WireSink struct {
	buf []byte
	cap int
	max int

	// Handle holds a DOM node for tree-backed captures. Its validity is
	// scoped to the lifetime of the owning DOM.
	Handle any

	cleanup func()
}

// NewWireSink returns a sink with a fixed byte capacity.
func NewWireSink(capacity int) *WireSink {
	return &WireSink{buf: make([]byte, 0, capacity), cap: capacity, max: capacity}
}

// NewGrowableWireSink returns a sink that starts at capacity and may grow up
// to maxCapacity.
func NewGrowableWireSink(capacity, maxCapacity int) *WireSink {
	if maxCapacity < capacity {
		maxCapacity = capacity
	}
	return &WireSink{buf: make([]byte, 0, capacity), cap: capacity, max: maxCapacity}
}

// Clear drops the captured content. The cleanup callback, if any, runs first.
func (s *WireSink) Clear() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
	s.buf = s.buf[:0]
	s.Handle = nil
}

// Write appends n bytes, reporting false on overflow.
func (s *WireSink) Write(data []byte) bool {
	if s.max == 0 && cap(s.buf) == 0 {
		// zero-value sink grows without bound
		s.buf = append(s.buf, data...)
		return true
	}
	if len(s.buf)+len(data) > s.max {
		return false
	}
	s.buf = append(s.buf, data...)
	return true
}

// Read copies up to len(out) bytes starting at offset, reporting false when
// the range is out of bounds.
func (s *WireSink) Read(out []byte, offset int) bool {
	if offset < 0 || offset+len(out) > len(s.buf) {
		return false
	}
	copy(out, s.buf[offset:])
	return true
}

// Data returns the captured bytes. The slice aliases the sink's storage.
func (s *WireSink) Data() []byte { return s.buf }

// Len returns the current captured size in bytes.
func (s *WireSink) Len() int { return len(s.buf) }

// Cap returns the maximum capacity.
func (s *WireSink) Cap() int {
	if s.max == 0 && cap(s.buf) == 0 {
		return int(^uint(0) >> 1)
	}
	return s.max
}

// IsEmpty reports whether the sink holds neither bytes nor a DOM handle.
func (s *WireSink) IsEmpty() bool { return len(s.buf) == 0 && s.Handle == nil }

// SetCleanup registers a callback invoked by Clear and Close. None of the
// package's readers registers one; the YAML capture only stores its handle.
func (s *WireSink) SetCleanup(fn func()) { s.cleanup = fn }

// Close releases the capture. It is safe to call more than once.
func (s *WireSink) Close() { s.Clear() }
