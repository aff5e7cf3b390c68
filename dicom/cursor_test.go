package dicom

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halirutan/isis/core"
)

// ensures that a short explicit header is decoded
func TestTagCursorExplicitShortHeader(t *testing.T) {
	t.Parallel()
	buf := []byte{
		0x28, 0x00, 0x04, 0x00, // (0028,0004)
		0x43, 0x53, // CS
		0x0C, 0x00, // 12
		0x4D, 0x4F, 0x4E, 0x4F, 0x43, 0x48, 0x52, 0x4F, 0x4D, 0x45, 0x32, 0x20, // "MONOCHROME2 "
	}
	c := NewTagCursor(buf, 0, ExplicitLittleEndian)
	require.True(t, c.Valid())
	assert.Equal(t, uint32(0x00280004), c.ID32())
	assert.Equal(t, uint16(0x0028), c.Group())
	assert.Equal(t, uint16(0x0004), c.Element())
	assert.Equal(t, "(0028,0004)", c.IDString())
	assert.Equal(t, "CS", c.VR())
	assert.Equal(t, uint32(12), c.Length())
	assert.Equal(t, 8, c.HeaderLength())
	assert.Equal(t, 8, c.DataOffset())
	assert.True(t, c.Fits())
	data, err := c.Data()
	require.NoError(t, err)
	assert.Equal(t, "MONOCHROME2 ", string(data))
	// stepping past the only tag ends the stream
	assert.False(t, c.Next())
	assert.False(t, c.Valid())
}

// ensures that extended VRs use the 12 byte header
func TestTagCursorExtendedHeader(t *testing.T) {
	t.Parallel()
	buf := []byte{
		0xE0, 0x7F, 0x10, 0x00, // (7FE0,0010)
		0x4F, 0x57, 0x00, 0x00, // OW + reserved
		0x04, 0x00, 0x00, 0x00, // 4
		0x01, 0x00, 0x02, 0x00,
	}
	c := NewTagCursor(buf, 0, ExplicitLittleEndian)
	require.True(t, c.Valid())
	assert.Equal(t, "OW", c.VR())
	assert.Equal(t, 12, c.HeaderLength())
	assert.Equal(t, uint32(4), c.Length())
	assert.Equal(t, 4, c.Remaining())
	data, err := c.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0x02, 0x00}, data)

	// an extended header needs 12 bytes
	assert.False(t, c.Advance(len(buf)-10))
}

// ensures that implicit headers report "--" and a 32 bit length
func TestTagCursorImplicit(t *testing.T) {
	t.Parallel()
	buf := []byte{
		0x10, 0x00, 0x10, 0x00, // (0010,0010)
		0x04, 0x00, 0x00, 0x00, // 4
		0x44, 0x6F, 0x65, 0x20, // "Doe "
		0x10, 0x00, 0x20, 0x00, // (0010,0020)
		0x02, 0x00, 0x00, 0x00, // 2
		0x31, 0x32, // "12"
	}
	c := NewTagCursor(buf, 0, implicitLittleEndian)
	require.True(t, c.Valid())
	assert.Equal(t, ImplicitVR, c.VR())
	assert.Equal(t, uint32(4), c.Length())
	assert.Equal(t, 8, c.HeaderLength())

	require.True(t, c.Next())
	assert.Equal(t, uint32(0x00100020), c.ID32())
	assert.Equal(t, 12, c.Position())
	data, err := c.Data()
	require.NoError(t, err)
	assert.Equal(t, "12", string(data))
}

// ensures that big endian headers are decoded in stream order
func TestTagCursorBigEndian(t *testing.T) {
	t.Parallel()
	buf := []byte{
		0x00, 0x28, 0x00, 0x10, // (0028,0010)
		0x55, 0x53, // US
		0x00, 0x02, // 2
		0x01, 0x00, // 256
	}
	c := NewTagCursor(buf, 0, explicitBigEndian)
	require.True(t, c.Valid())
	assert.Equal(t, uint32(0x00280010), c.ID32())
	assert.Equal(t, uint32(2), c.Length())
	assert.Equal(t, explicitBigEndian, c.Encoding())
	assert.Equal(t, uint16(256), c.ByteOrder().Uint16(buf[8:]))
	assert.Equal(t, hostLittleEndian, c.ByteSwapNeeded())
}

// ensures that FFFE tags use the implicit layout inside explicit streams
func TestTagCursorItemInExplicitStream(t *testing.T) {
	t.Parallel()
	buf := []byte{
		0xFE, 0xFF, 0x00, 0xE0, // (FFFE,E000)
		0xFF, 0xFF, 0xFF, 0xFF, // undefined
		0xFE, 0xFF, 0x0D, 0xE0, // (FFFE,E00D)
		0x00, 0x00, 0x00, 0x00,
	}
	log, logs := observedLogger()
	c := NewTagCursor(buf, 0, ExplicitLittleEndian)
	c.SetLogger(log)
	require.True(t, c.Valid())
	assert.Equal(t, ImplicitVR, c.VR())
	assert.Equal(t, UndefinedLength, c.Length())
	assert.False(t, c.Fits())

	_, err := c.Data()
	var oob *core.OutOfBounds
	assert.True(t, errors.As(err, &oob))

	// stepping over an undefined length is reported and does not land on a tag
	assert.False(t, c.Next())
	assert.Equal(t, 1, logs.FilterMessageSnippet("undefined length").Len())

	require.True(t, c.Advance(8))
	assert.Equal(t, uint32(0xFFFEE00D), c.ID32())
	assert.Equal(t, uint32(0), c.Length())
}

// ensures that truncated headers and payloads are detected
func TestTagCursorBounds(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		buf  []byte
		pos  int
	}{
		{"empty", []byte{}, 0},
		{"seven bytes", []byte{0x08, 0x00, 0x20, 0x00, 0x44, 0x41, 0x08}, 0},
		{"negative position", []byte{0x08, 0x00, 0x20, 0x00, 0x44, 0x41, 0x00, 0x00}, -1},
		{"past the end", []byte{0x08, 0x00, 0x20, 0x00, 0x44, 0x41, 0x00, 0x00}, 4},
	}
	for _, tc := range cases {
		c := NewTagCursor(tc.buf, tc.pos, ExplicitLittleEndian)
		assert.False(t, c.Valid(), tc.name)
	}

	// header fits, payload does not
	buf := []byte{0x08, 0x00, 0x20, 0x00, 0x44, 0x41, 0x08, 0x00, 0x32, 0x30}
	c := NewTagCursor(buf, 0, ExplicitLittleEndian)
	require.True(t, c.Valid())
	assert.False(t, c.Fits())
	_, err := c.Data()
	var oob *core.OutOfBounds
	assert.True(t, errors.As(err, &oob))
}

// ensures that extended VRs are recognised
func TestIsExtendedVR(t *testing.T) {
	t.Parallel()
	for _, vr := range []string{"OB", "OW", "OF", "SQ", "UT", "UN"} {
		assert.True(t, IsExtendedVR(vr), vr)
	}
	for _, vr := range []string{"US", "CS", "DS", "--", ""} {
		assert.False(t, IsExtendedVR(vr), vr)
	}
}
