package jsonfusion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCBORWriterIntegerWidths(t *testing.T) {
	tests := []struct {
		name string
		v    int64
		want []byte
	}{
		{"immediate zero", 0, []byte{0x00}},
		{"immediate max", 23, []byte{0x17}},
		{"one byte", 24, []byte{0x18, 0x18}},
		{"one byte max", 255, []byte{0x18, 0xFF}},
		{"two bytes", 1000, []byte{0x19, 0x03, 0xE8}},
		{"four bytes", 1000000, []byte{0x1A, 0x00, 0x0F, 0x42, 0x40}},
		{"eight bytes", 1 << 40, []byte{0x1B, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00}},
		{"minus one", -1, []byte{0x20}},
		{"minus twenty four", -24, []byte{0x37}},
		{"minus five hundred", -500, []byte{0x39, 0x01, 0xF3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewCBORWriter()
			require.True(t, w.WriteInt(tt.v))
			assert.Equal(t, tt.want, w.Bytes())

			var out int64
			r := NewCBORReader(tt.want)
			require.Equal(t, StatusOK, r.ReadInt(&out, 64))
			assert.Equal(t, tt.v, out)
		})
	}
}

func TestCBORHalfFloat(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  float64
	}{
		{"one", []byte{0xF9, 0x3C, 0x00}, 1.0},
		{"one point five", []byte{0xF9, 0x3E, 0x00}, 1.5},
		{"smallest subnormal", []byte{0xF9, 0x00, 0x01}, 5.960464477539063e-08},
		{"negative two", []byte{0xF9, 0xC0, 0x00}, -2.0},
		{"zero", []byte{0xF9, 0x00, 0x00}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewCBORReader(tt.bytes)
			var out float64
			require.Equal(t, StatusOK, r.ReadFloat(&out, 64), "err %s", r.Err())
			assert.Equal(t, tt.want, out)
		})
	}

	r := NewCBORReader([]byte{0xF9, 0x7C, 0x00})
	var out float64
	require.Equal(t, StatusOK, r.ReadFloat(&out, 64))
	assert.True(t, math.IsInf(out, 1))

	r = NewCBORReader([]byte{0xF9, 0x7E, 0x00})
	require.Equal(t, StatusOK, r.ReadFloat(&out, 64))
	assert.True(t, math.IsNaN(out))
}

func TestCBORRecordRoundTrip(t *testing.T) {
	type nested struct {
		Tags  []string       `json:"tags"`
		Count map[string]int `json:"count"`
	}
	type doc struct {
		App   string  `json:"app"`
		Ver   int     `json:"ver"`
		Ratio float64 `json:"ratio"`
		On    bool    `json:"on"`
		Opt   *int    `json:"opt"`
		Inner nested  `json:"inner"`
	}

	five := 5
	in := doc{
		App:   "x",
		Ver:   -3,
		Ratio: 0.25,
		On:    true,
		Opt:   &five,
		Inner: nested{Tags: []string{"a", "b"}, Count: map[string]int{"k": 2}},
	}

	w := NewCBORWriter()
	res := SerializeWithWriter(w, in)
	require.True(t, res.OK(), "got %s", res.Code)

	var out doc
	pres := ParseWithReader(NewCBORReader(w.Bytes()), &out)
	require.True(t, pres.OK(), "got %s", pres.Code)
	assert.Equal(t, in, out)
}

func TestCBORIntegerKeyedMap(t *testing.T) {
	in := map[int8]string{1: "one", -2: "neg"}

	w := NewCBORWriter()
	res := SerializeWithWriter(w, in)
	require.True(t, res.OK())

	var out map[int8]string
	pres := ParseWithReader(NewCBORReader(w.Bytes()), &out)
	require.True(t, pres.OK(), "got %s", pres.Code)
	assert.Equal(t, in, out)
}

func TestCBORIndefiniteArrayRead(t *testing.T) {
	// 9F 01 02 03 FF
	data := []byte{0x9F, 0x01, 0x02, 0x03, 0xFF}
	var v []int
	res := ParseWithReader(NewCBORReader(data), &v)
	require.True(t, res.OK(), "got %s", res.Code)
	assert.Equal(t, []int{1, 2, 3}, v)
}

func TestCBORIndefiniteMapWriteReadSymmetry(t *testing.T) {
	w := NewCBORWriter()
	var f MapFrame
	require.True(t, w.WriteMapBegin(UnknownLength, &f))
	entries := []struct {
		k string
		v int64
	}{{"a", 1}, {"b", 2}, {"c", 3}}
	for i, e := range entries {
		if i > 0 {
			require.True(t, w.WriteMapNext(&f))
		}
		require.True(t, w.WriteString(e.k))
		require.True(t, w.MoveToValue(&f))
		require.True(t, w.WriteInt(e.v))
	}
	require.True(t, w.WriteMapEnd(&f))

	data := w.Bytes()
	assert.Equal(t, byte(0xBF), data[0])
	assert.Equal(t, byte(0xFF), data[len(data)-1])

	var out map[string]int64
	res := ParseWithReader(NewCBORReader(data), &out)
	require.True(t, res.OK(), "got %s", res.Code)
	assert.Equal(t, map[string]int64{"a": 1, "b": 2, "c": 3}, out)
}

func TestCBORIndefiniteStringWrite(t *testing.T) {
	w := NewCBORWriter()
	require.True(t, w.WriteStringBegin(UnknownLength))
	require.True(t, w.WriteStringChunk([]byte("he")))
	require.True(t, w.WriteStringChunk([]byte("llo")))
	require.True(t, w.WriteStringEnd())

	// indefinite text string: chunks with definite lengths, then break
	assert.Equal(t, []byte{0x7F, 0x62, 'h', 'e', 0x63, 'l', 'l', 'o', 0xFF}, w.Bytes())
}

func TestCBORIndefiniteStringReadRejected(t *testing.T) {
	data := []byte{0x7F, 0x62, 'h', 'e', 0xFF}
	var s string
	res := ParseWithReader(NewCBORReader(data), &s)
	require.False(t, res.OK())
	assert.Equal(t, CodeNotImplemented, res.Code)
}

func TestCBORDefiniteLengthCountMismatch(t *testing.T) {
	w := NewCBORWriter()
	var f ArrayFrame
	require.True(t, w.WriteArrayBegin(2, &f))
	require.True(t, w.WriteInt(1))
	// second element never written
	assert.False(t, w.WriteArrayEnd(&f))
	assert.Equal(t, CodeDataConsumerError, w.Err())
}

func TestCBORCaptureEquivalence(t *testing.T) {
	// hand-roll the sub-document {"k": [1, 2]}
	sub := NewCBORWriter()
	var mf MapFrame
	require.True(t, sub.WriteMapBegin(1, &mf))
	require.True(t, sub.WriteString("k"))
	require.True(t, sub.MoveToValue(&mf))
	var af ArrayFrame
	require.True(t, sub.WriteArrayBegin(2, &af))
	require.True(t, sub.WriteInt(1))
	require.True(t, sub.WriteArrayNext(&af))
	require.True(t, sub.WriteInt(2))
	require.True(t, sub.WriteArrayEnd(&af))
	require.True(t, sub.WriteMapEnd(&mf))
	subBytes := sub.Bytes()

	type rec struct {
		Name string   `json:"name"`
		Blob WireSink `json:"blob" fusion:"sink=256"`
		Tail int      `json:"tail"`
	}

	in := rec{Name: "a", Tail: 7}
	require.True(t, in.Blob.Write(subBytes))

	w := NewCBORWriter()
	res := SerializeWithWriter(w, in)
	require.True(t, res.OK(), "got %s", res.Code)

	var out rec
	pres := ParseWithReader(NewCBORReader(w.Bytes()), &out)
	require.True(t, pres.OK(), "got %s", pres.Code)
	assert.Equal(t, "a", out.Name)
	assert.Equal(t, 7, out.Tail)
	assert.Equal(t, subBytes, out.Blob.Data(), "captured bytes equal the original sub-document encoding")
}

func TestCBORFloatWidths(t *testing.T) {
	w := NewCBORWriter()
	require.True(t, w.WriteFloat(1.5, 32))
	assert.Equal(t, []byte{0xFA, 0x3F, 0xC0, 0x00, 0x00}, w.Bytes())

	w = NewCBORWriter()
	require.True(t, w.WriteFloat(1.5, 64))
	assert.Equal(t, []byte{0xFB, 0x3F, 0xF8, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, w.Bytes())
}

func TestCBORNumericRangeChecks(t *testing.T) {
	w := NewCBORWriter()
	require.True(t, w.WriteInt(200))

	var small int64
	r := NewCBORReader(w.Bytes())
	assert.Equal(t, StatusError, r.ReadInt(&small, 8))
	assert.Equal(t, CodeNumericOutOfRange, r.Err())

	// negative into unsigned storage
	w = NewCBORWriter()
	require.True(t, w.WriteInt(-1))
	var u uint64
	r = NewCBORReader(w.Bytes())
	assert.Equal(t, StatusError, r.ReadUint(&u, 64))
	assert.Equal(t, CodeNumericOutOfRange, r.Err())
}

func TestCBORTagRejected(t *testing.T) {
	// tag 0 (datetime) wrapping a string
	data := []byte{0xC0, 0x61, 'x'}
	r := NewCBORReader(data)
	assert.Equal(t, StatusError, r.SkipValue())
	assert.Equal(t, CodeNotImplemented, r.Err())
}

func TestCBORStrictEOF(t *testing.T) {
	var v int
	res := ParseWithReader(NewCBORReader([]byte{0x01, 0x02}), &v)
	require.False(t, res.OK())
	assert.Equal(t, CodeExcessCharacters, res.Code)
}
