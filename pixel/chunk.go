// Package pixel holds decoded image chunks and turns DICOM pixel data into them.
package pixel

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/halirutan/isis/core"
	"github.com/halirutan/isis/property"
)

// Type is the sample type of a chunk.
type Type int

// Supported sample types. Colour types pack 3 channels per pixel.
const (
	Invalid Type = iota
	Uint8
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Color24
	Color48
)

var typeNames = map[Type]string{
	Invalid: "invalid",
	Uint8:   "u8bit",
	Int8:    "s8bit",
	Uint16:  "u16bit",
	Int16:   "s16bit",
	Uint32:  "u32bit",
	Int32:   "s32bit",
	Color24: "color24",
	Color48: "color48",
}

func (t Type) String() string {
	if name, found := typeNames[t]; found {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Size returns the number of bytes of one pixel.
func (t Type) Size() int {
	switch t {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32:
		return 4
	case Color24:
		return 3
	case Color48:
		return 6
	}
	return 0
}

// SampleSize returns the number of bytes of one channel.
func (t Type) SampleSize() int {
	switch t {
	case Color24:
		return 1
	case Color48:
		return 2
	}
	return t.Size()
}

// Signed reports whether samples are signed integers.
func (t Type) Signed() bool {
	return t == Int8 || t == Int16 || t == Int32
}

// Chunk is a block of pixels with up to 4 dimensions and its properties.
// Samples are stored little endian, x varying fastest.
type Chunk struct {
	Type  Type
	Size  [4]int
	Data  []byte
	Props *property.Tree
}

// NewChunk allocates a zeroed chunk. Dimensions below 1 are treated as 1.
func NewChunk(t Type, x, y, z, tt int) *Chunk {
	c := &Chunk{Type: t, Size: [4]int{x, y, z, tt}, Props: property.New()}
	for i := range c.Size {
		if c.Size[i] < 1 {
			c.Size[i] = 1
		}
	}
	c.Data = make([]byte, c.Volume()*t.Size())
	return c
}

// BytesPerPixel returns the size of one pixel.
func (c *Chunk) BytesPerPixel() int { return c.Type.Size() }

// Volume returns the number of pixels.
func (c *Chunk) Volume() int {
	return c.Size[0] * c.Size[1] * c.Size[2] * c.Size[3]
}

// SizeString formats the size as "XxYxZxT".
func (c *Chunk) SizeString() string {
	return fmt.Sprintf("%dx%dx%dx%d", c.Size[0], c.Size[1], c.Size[2], c.Size[3])
}

func (c *Chunk) index(pos [4]int) (int, bool) {
	idx := 0
	for i := 3; i >= 0; i-- {
		if pos[i] < 0 || pos[i] >= c.Size[i] {
			return 0, false
		}
		idx = idx*c.Size[i] + pos[i]
	}
	return idx, true
}

// Offset returns the byte offset of the pixel at (x,y,z,t), or -1 if it is outside the chunk.
func (c *Chunk) Offset(x, y, z, t int) int {
	idx, ok := c.index([4]int{x, y, z, t})
	if !ok {
		return -1
	}
	return idx * c.BytesPerPixel()
}

// CopyLine copies `length` consecutive pixels from `src` at `from` into `c` at `to`.
// Both runs must lie within one row of their chunk.
func (c *Chunk) CopyLine(src *Chunk, from, to [4]int, length int) error {
	if src.Type != c.Type {
		return core.UnsupportedOperationError("cannot copy %s pixels into a %s chunk", src.Type, c.Type)
	}
	if from[0]+length > src.Size[0] || to[0]+length > c.Size[0] {
		return core.OutOfBoundsError("line of %d pixels from %v to %v exceeds a row (%s -> %s)", length, from, to, src.SizeString(), c.SizeString())
	}
	srcOff := src.Offset(from[0], from[1], from[2], from[3])
	dstOff := c.Offset(to[0], to[1], to[2], to[3])
	if srcOff < 0 || dstOff < 0 {
		return core.OutOfBoundsError("line from %v to %v lies outside the chunks (%s -> %s)", from, to, src.SizeString(), c.SizeString())
	}
	n := length * c.BytesPerPixel()
	copy(c.Data[dstOff:dstOff+n], src.Data[srcOff:srcOff+n])
	return nil
}

// Float64At returns the value at (x,y,z,t); colour pixels yield the mean of their channels.
// Positions outside the chunk yield NaN.
func (c *Chunk) Float64At(x, y, z, t int) float64 {
	off := c.Offset(x, y, z, t)
	if off < 0 {
		return math.NaN()
	}
	b := c.Data[off:]
	switch c.Type {
	case Uint8:
		return float64(b[0])
	case Int8:
		return float64(int8(b[0]))
	case Uint16:
		return float64(binary.LittleEndian.Uint16(b))
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case Uint32:
		return float64(binary.LittleEndian.Uint32(b))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case Color24:
		return (float64(b[0]) + float64(b[1]) + float64(b[2])) / 3
	case Color48:
		sum := 0.0
		for i := 0; i < 3; i++ {
			sum += float64(binary.LittleEndian.Uint16(b[2*i:]))
		}
		return sum / 3
	}
	return math.NaN()
}

// Uint16At returns the value at (x,y,z,t) clamped into the uint16 range.
func (c *Chunk) Uint16At(x, y, z, t int) uint16 {
	v := c.Float64At(x, y, z, t)
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(math.RoundToEven(v))
}

// CloneEmpty returns a zeroed chunk of the same type with the given size and a copy of the properties.
func (c *Chunk) CloneEmpty(x, y, z, t int) *Chunk {
	out := NewChunk(c.Type, x, y, z, t)
	if c.Props != nil {
		out.Props = c.Props.Clone()
	}
	return out
}

// MinMax returns the smallest and largest value in the chunk.
func (c *Chunk) MinMax() (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for i := 0; i < c.Volume(); i++ {
		x := i % c.Size[0]
		y := i / c.Size[0] % c.Size[1]
		z := i / (c.Size[0] * c.Size[1]) % c.Size[2]
		t := i / (c.Size[0] * c.Size[1] * c.Size[2])
		v := c.Float64At(x, y, z, t)
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return
}
