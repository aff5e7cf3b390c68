package dicom

import (
	"encoding/binary"

	"github.com/b71729/bin"
	"go.uber.org/zap"

	"github.com/halirutan/isis/core"
	"github.com/halirutan/isis/dictionary"
)

// UndefinedLength is the length sentinel of items and sequences without a defined length.
const UndefinedLength uint32 = 0xFFFFFFFF

// ImplicitVR is reported as VR of tags read without an explicit VR.
const ImplicitVR = "--"

var hostLittleEndian = binary.NativeEndian.Uint16([]byte{1, 0}) == 1

// IsExtendedVR reports whether `vr` uses the 12 byte explicit header
// (two reserved bytes followed by a 32 bit length).
func IsExtendedVR(vr string) bool {
	switch vr {
	case "OB", "OW", "OF", "SQ", "UT", "UN":
		return true
	}
	return false
}

// TagCursor points at a tag header inside an immutable buffer and decodes it.
//
// Item, item delimitation and sequence delimitation tags (group FFFE) always
// use the implicit 8 byte layout.
type TagCursor struct {
	buf     []byte
	enc     Encoding
	order   binary.ByteOrder
	log     *zap.SugaredLogger
	pos     int
	id      uint32
	vr      string
	length  uint32
	header  int
	valid   bool
	scratch [2]byte
}

// NewTagCursor returns a cursor reading the header found at `pos`.
func NewTagCursor(buf []byte, pos int, enc Encoding) *TagCursor {
	c := &TagCursor{buf: buf, enc: enc, order: enc.ByteOrder(), log: core.Logger()}
	c.Advance(pos)
	return c
}

// SetLogger replaces the logger used to report stepping over undefined lengths.
func (c *TagCursor) SetLogger(l *zap.SugaredLogger) {
	if l != nil {
		c.log = l
	}
}

// Advance repositions the cursor and decodes the header at `pos`.
// It returns false if no complete header fits into the remaining buffer;
// the cursor state is undefined afterwards.
func (c *TagCursor) Advance(pos int) bool {
	c.valid = c.decode(pos)
	return c.valid
}

// Valid reports whether the last positioning succeeded.
func (c *TagCursor) Valid() bool { return c.valid }

// Fits reports whether the payload of the current tag lies within the buffer.
func (c *TagCursor) Fits() bool {
	return c.length != UndefinedLength && c.DataOffset()+int(c.length) <= len(c.buf)
}

func (c *TagCursor) decode(pos int) bool {
	if pos < 0 || pos+8 > len(c.buf) {
		return false
	}
	end := pos + 12
	if end > len(c.buf) {
		end = len(c.buf)
	}
	br := bin.NewReaderBytes(c.buf[pos:end], c.order)

	var group, element uint16
	if br.ReadUint16(&group) != nil || br.ReadUint16(&element) != nil {
		return false
	}
	c.pos = pos
	c.id = uint32(group)<<16 | uint32(element)

	if c.enc.ImplicitVR || group == 0xFFFE {
		c.vr = ImplicitVR
		c.header = 8
		return br.ReadUint32(&c.length) == nil
	}

	if br.ReadBytes(c.scratch[:]) != nil {
		return false
	}
	c.vr = string(c.scratch[:])
	if IsExtendedVR(c.vr) {
		if end-pos < 12 {
			return false
		}
		c.header = 12
		if br.Discard(2) != nil {
			return false
		}
		return br.ReadUint32(&c.length) == nil
	}
	var length uint16
	if br.ReadUint16(&length) != nil {
		return false
	}
	c.length = uint32(length)
	c.header = 8
	return true
}

// Next advances past the current tag's header and payload.
// Stepping over an undefined length is reported as an error but still attempted.
func (c *TagCursor) Next() bool {
	if c.length == UndefinedLength {
		c.log.Errorf("Doing next on %s at %d with an undefined length", c.IDString(), c.pos)
	}
	return c.Advance(c.pos + c.header + int(c.length))
}

// ID32 returns the tag ID as group<<16 | element.
func (c *TagCursor) ID32() uint32 { return c.id }

// Group returns the group component of the tag.
func (c *TagCursor) Group() uint16 { return uint16(c.id >> 16) }

// Element returns the element component of the tag.
func (c *TagCursor) Element() uint16 { return uint16(c.id) }

// IDString formats the tag as "(gggg,eeee)".
func (c *TagCursor) IDString() string { return dictionary.IDString(c.id) }

// VR returns the two character VR, or "--" for implicit tags.
func (c *TagCursor) VR() string { return c.vr }

// Length returns the payload length (`UndefinedLength` if undefined).
func (c *TagCursor) Length() uint32 { return c.length }

// Position returns the offset of the current header.
func (c *TagCursor) Position() int { return c.pos }

// HeaderLength returns the size of the current header (8 or 12).
func (c *TagCursor) HeaderLength() int { return c.header }

// DataOffset returns the offset of the current payload.
func (c *TagCursor) DataOffset() int { return c.pos + c.header }

// ByteOrder returns the byte order of the stream.
func (c *TagCursor) ByteOrder() binary.ByteOrder { return c.order }

// Encoding returns the encoding the cursor decodes with.
func (c *TagCursor) Encoding() Encoding { return c.enc }

// ByteSwapNeeded reports whether payload byte order differs from the host's.
func (c *TagCursor) ByteSwapNeeded() bool { return c.enc.LittleEndian != hostLittleEndian }

// Data returns the payload of the current tag without copying.
func (c *TagCursor) Data() ([]byte, error) {
	if c.length == UndefinedLength {
		return nil, core.OutOfBoundsError("%s at %d has an undefined length", c.IDString(), c.pos)
	}
	start := c.DataOffset()
	end := start + int(c.length)
	if end > len(c.buf) || end < start {
		return nil, core.OutOfBoundsError("%s at %d: %d bytes of data exceed the buffer of %d bytes", c.IDString(), c.pos, c.length, len(c.buf))
	}
	return c.buf[start:end], nil
}

// Remaining returns the number of bytes after the current header.
func (c *TagCursor) Remaining() int { return len(c.buf) - c.DataOffset() }
