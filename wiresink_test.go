package jsonfusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blobRecord struct {
	Name string   `json:"name"`
	Blob WireSink `json:"blob" fusion:"sink=1024"`
}

func TestWireSinkCapture(t *testing.T) {
	var v blobRecord
	res := Parse([]byte(`{"name":"a","blob":{"k":[1,2,3]}}`), &v)
	require.True(t, res.OK(), "got %s", res.Code)
	assert.Equal(t, "a", v.Name)
	assert.Equal(t, `{"k":[1,2,3]}`, string(v.Blob.Data()))

	out, err := Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"a","blob":{"k":[1,2,3]}}`, string(out))
}

func TestWireSinkCaptureOverflow(t *testing.T) {
	type tiny struct {
		Blob WireSink `json:"blob" fusion:"sink=4"`
	}

	var v tiny
	res := Parse([]byte(`{"blob":{"k":[1,2,3]}}`), &v)
	require.False(t, res.OK())
	assert.Equal(t, CodeWireSinkOverflow, res.Code)
}

func TestWireSinkGrowable(t *testing.T) {
	sink := NewGrowableWireSink(4, 32)
	assert.True(t, sink.Write([]byte("0123456789")))
	assert.Equal(t, 10, sink.Len())
	assert.False(t, sink.Write(make([]byte, 23)))
	assert.Equal(t, 32, sink.Cap())
}

func TestWireSinkReadWindow(t *testing.T) {
	sink := NewWireSink(16)
	require.True(t, sink.Write([]byte("abcdef")))

	out := make([]byte, 3)
	require.True(t, sink.Read(out, 2))
	assert.Equal(t, "cde", string(out))

	assert.False(t, sink.Read(out, 5), "window past the end")
	assert.False(t, sink.Read(out, -1))
}

func TestWireSinkClearRunsCleanup(t *testing.T) {
	sink := NewWireSink(8)
	ran := 0
	sink.SetCleanup(func() { ran++ })
	sink.Handle = struct{}{}

	sink.Clear()
	assert.Equal(t, 1, ran)
	assert.Nil(t, sink.Handle)
	assert.True(t, sink.IsEmpty())

	sink.Close()
	assert.Equal(t, 1, ran, "cleanup runs once")
}

func TestWireSinkRoundTripThroughWriters(t *testing.T) {
	// serialize a value into a sink, then parse it back out of the sink
	sink := NewWireSink(128)
	w := NewJSONWriterToSink(sink)
	res := SerializeWithWriter(w, appInfo{App: "y", Ver: 7})
	require.True(t, res.OK())

	var v appInfo
	pres := ParseWithReader(NewJSONReaderFromSink(sink), &v)
	require.True(t, pres.OK())
	assert.Equal(t, appInfo{App: "y", Ver: 7}, v)
}

func TestWireSinkWhitespaceInsignificant(t *testing.T) {
	var v blobRecord
	res := Parse([]byte("{\"name\":\"a\", \"blob\": {\"k\": [1, 2]}}"), &v)
	require.True(t, res.OK())
	assert.Equal(t, `{"k": [1, 2]}`, string(v.Blob.Data()))
}
