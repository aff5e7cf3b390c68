package dicom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halirutan/isis/property"
)

// decodeSingle encodes one element with `build`, then decodes it with `vr`.
func decodeSingle(t *testing.T, r *Reader, enc Encoding, vr string, build func(e *Encoder)) (interface{}, bool) {
	t.Helper()
	buf := encode(t, enc, build)
	c := NewTagCursor(buf, 0, enc)
	require.True(t, c.Valid())
	return r.decodeValue(c, vr, "Test")
}

// ensures that numeric VRs decode to scalars or lists of the documented types
func TestDecodeNumeric(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		vr       string
		build    func(e *Encoder)
		expected interface{}
	}{
		{"US scalar", "US", func(e *Encoder) { e.WriteUint16s(0x00280010, "US", 512) }, uint16(512)},
		{"US list", "US", func(e *Encoder) { e.WriteUint16s(0x00181310, "US", 0, 64, 64, 0) }, []int32{0, 64, 64, 0}},
		{"SS scalar", "SS", func(e *Encoder) { e.WriteUint16s(0x00280106, "SS", 0xFFFE) }, int16(-2)},
		{"SS list", "SS", func(e *Encoder) { e.WriteUint16s(0x00280106, "SS", 0xFFFF, 3) }, []int32{-1, 3}},
		{"UL scalar", "UL", func(e *Encoder) { e.WriteUint32s(0x00020000, "UL", 70000) }, uint32(70000)},
		{"UL list", "UL", func(e *Encoder) { e.WriteUint32s(0x00191028, "UL", 1, 4000000000) }, []uint32{1, 4000000000}},
		{"SL scalar", "SL", func(e *Encoder) { e.WriteUint32s(0x00191029, "SL", 0xFFFFFFFF) }, int32(-1)},
		{"FL scalar", "FL", func(e *Encoder) { e.WriteFloat32s(0x00189098, 1.5) }, float32(1.5)},
		{"FL list", "FL", func(e *Encoder) { e.WriteFloat32s(0x00189098, 1.5, -2) }, []float64{1.5, -2}},
		{"FD scalar", "FD", func(e *Encoder) { e.WriteFloat64s(0x00189087, 1000) }, float64(1000)},
		{"FD list", "FD", func(e *Encoder) { e.WriteFloat64s(0x00189089, 0.5, -0.25, 1) }, []float64{0.5, -0.25, 1}},
	}
	for _, enc := range []Encoding{ExplicitLittleEndian, explicitBigEndian} {
		for _, tc := range cases {
			r, _ := newTestReader()
			v, found := decodeSingle(t, r, enc, tc.vr, tc.build)
			assert.True(t, found, "%s (%s)", tc.name, enc)
			assert.Equal(t, tc.expected, v, "%s (%s)", tc.name, enc)
		}
	}
}

// ensures that trailing bytes of a numeric payload are ignored with a warning
func TestDecodeNumericOddLength(t *testing.T) {
	t.Parallel()
	r, logs := newTestReader()
	v, found := decodeSingle(t, r, ExplicitLittleEndian, "US", func(e *Encoder) {
		e.WriteHeader(0x00280010, "US", 3)
		e.WriteRaw([]byte{0x10, 0x00, 0xFF})
	})
	assert.True(t, found)
	assert.Equal(t, uint16(16), v)
	assert.Equal(t, 1, logs.FilterMessageSnippet("not a multiple").Len())

	v, found = decodeSingle(t, r, ExplicitLittleEndian, "FD", func(e *Encoder) {
		e.WriteHeader(0x00189087, "FD", 0)
	})
	assert.False(t, found)
	assert.Nil(t, v)
}

// ensures that strings are trimmed and split on backslashes
func TestDecodeStrings(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		vr       string
		raw      string
		expected interface{}
		found    bool
	}{
		{"single", "CS", "MONOCHROME2 ", "MONOCHROME2", true},
		{"list", "CS", `ORIGINAL\PRIMARY\M\ND\MOSAIC`, []string{"ORIGINAL", "PRIMARY", "M", "ND", "MOSAIC"}, true},
		{"numbers stay strings", "DS", `0.5\0.5 `, []string{"0.5", "0.5"}, true},
		{"NUL padded UID", "UI", "1.2.3\x00", "1.2.3", true},
		{"empty", "LO", "    ", nil, false},
		{"UT is not split", "UT", `a\b`, `a\b`, true},
	}
	for _, tc := range cases {
		r, _ := newTestReader()
		v, found := decodeSingle(t, r, ExplicitLittleEndian, tc.vr, func(e *Encoder) {
			e.WriteElement(0x00080008, tc.vr, []byte(tc.raw))
		})
		assert.Equal(t, tc.found, found, tc.name)
		assert.Equal(t, tc.expected, v, tc.name)
	}
}

// ensures that dates and times become Date / Timestamp values and that
// unparseable values are kept as strings
func TestDecodeDateTime(t *testing.T) {
	t.Parallel()
	r, logs := newTestReader()

	v, found := decodeSingle(t, r, ExplicitLittleEndian, "DA", func(e *Encoder) {
		e.WriteStrings(0x00080020, "DA", "20190321")
	})
	require.True(t, found)
	assert.Equal(t, property.NewDate(2019, time.March, 21), v)

	v, found = decodeSingle(t, r, ExplicitLittleEndian, "TM", func(e *Encoder) {
		e.WriteStrings(0x00080031, "TM", "101530.500000")
	})
	require.True(t, found)
	assert.Equal(t, property.TimeOfDay(10*time.Hour+15*time.Minute+30*time.Second+500*time.Millisecond), v)

	v, found = decodeSingle(t, r, ExplicitLittleEndian, "DA", func(e *Encoder) {
		e.WriteStrings(0x00080020, "DA", "not a date")
	})
	require.True(t, found)
	assert.Equal(t, "not a date", v)
	assert.Equal(t, 1, logs.FilterMessageSnippet("keeping the string").Len())
}

// ensures that age strings are converted to days
func TestDecodeAge(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw      string
		expected interface{}
		found    bool
		warning  string
	}{
		{"018M", uint16(548), true, ""},
		{"002Y", uint16(730), true, ""},
		{"007D", uint16(7), true, ""},
		{"003W", uint16(21), true, ""},
		{"045y", uint16(16436), true, ""},
		{"12", uint16(12), true, "Missing age-type-letter"},
		{"ABC", nil, false, "Cannot parse age string"},
		{"200Y", nil, false, "does not fit"},
	}
	for _, tc := range cases {
		r, logs := newTestReader()
		v, found := decodeSingle(t, r, ExplicitLittleEndian, "AS", func(e *Encoder) {
			e.WriteStrings(0x00101010, "AS", tc.raw)
		})
		assert.Equal(t, tc.found, found, tc.raw)
		assert.Equal(t, tc.expected, v, tc.raw)
		if tc.warning != "" {
			assert.Equal(t, 1, logs.FilterMessageSnippet(tc.warning).Len(), tc.raw)
		}
	}
}

// ensures that unsupported VRs are logged and yield no value
func TestDecodeUnsupportedVR(t *testing.T) {
	t.Parallel()
	r, logs := newTestReader()
	v, found := decodeSingle(t, r, ExplicitLittleEndian, "AT", func(e *Encoder) {
		e.WriteUint16s(0x00209165, "AT", 0x0020, 0x0032)
	})
	assert.False(t, found)
	assert.Nil(t, v)
	assert.Equal(t, 1, logs.FilterMessageSnippet("Don't know how to parse").Len())
}

// ensures that strings of affected VRs are converted from the active character set
func TestDecodeCharacterSet(t *testing.T) {
	t.Parallel()
	r, _ := newTestReader()
	cs, found := LookupCharacterSet("ISO_IR 100")
	require.True(t, found)
	r.charset = cs
	// "Müller" in ISO 8859-1
	raw := []byte{0x4D, 0xFC, 0x6C, 0x6C, 0x65, 0x72}

	v, found := decodeSingle(t, r, ExplicitLittleEndian, "PN", func(e *Encoder) {
		e.WriteElement(0x00100010, "PN", raw)
	})
	require.True(t, found)
	assert.Equal(t, "Müller", v)

	// CS values are never converted
	v, found = decodeSingle(t, r, ExplicitLittleEndian, "CS", func(e *Encoder) {
		e.WriteElement(0x00080060, "CS", []byte("MR"))
	})
	require.True(t, found)
	assert.Equal(t, "MR", v)
}
