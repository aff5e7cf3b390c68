package pixel

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"

	jpeg2000 "github.com/mrjoshuak/go-jpeg2000"
	"go.uber.org/zap"

	"github.com/halirutan/isis/core"
)

// decodeJ2K decodes a single component JPEG 2000 codestream.
// Precisions above 8 bits yield Uint16, everything else Uint8.
func decodeJ2K(stream []byte, log *zap.SugaredLogger) (*Chunk, error) {
	meta, err := jpeg2000.DecodeMetadata(bytes.NewReader(stream))
	if err != nil {
		return nil, core.CorruptDicomError("failed to read the j2k header: %v", err)
	}
	if meta.NumComponents != 1 {
		return nil, core.UnsupportedDicomError("Only grayscale j2k data supported (found %d components)", meta.NumComponents)
	}
	img, err := jpeg2000.Decode(bytes.NewReader(stream))
	if err != nil {
		return nil, core.CorruptDicomError("failed to decode the j2k image: %v", err)
	}

	typ := Uint8
	if len(meta.BitsPerComponent) > 0 && meta.BitsPerComponent[0] > 8 {
		typ = Uint16
	}
	if len(meta.Signed) > 0 && meta.Signed[0] {
		log.Warnf("Signed j2k samples are read unsigned")
	}

	b := img.Bounds()
	chunk := NewChunk(typ, b.Dx(), b.Dy(), 1, 1)
	w := b.Dx()
	switch im := img.(type) {
	case *image.Gray:
		if typ == Uint8 {
			for y := 0; y < b.Dy(); y++ {
				copy(chunk.Data[y*w:(y+1)*w], im.Pix[y*im.Stride:y*im.Stride+w])
			}
			return chunk, nil
		}
	case *image.Gray16:
		if typ == Uint16 {
			// image.Gray16 is big endian
			for y := 0; y < b.Dy(); y++ {
				row := im.Pix[y*im.Stride:]
				for x := 0; x < w; x++ {
					binary.LittleEndian.PutUint16(chunk.Data[2*(y*w+x):], binary.BigEndian.Uint16(row[2*x:]))
				}
			}
			return chunk, nil
		}
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			if typ == Uint8 {
				chunk.Data[y*w+x] = color.GrayModel.Convert(c).(color.Gray).Y
			} else {
				binary.LittleEndian.PutUint16(chunk.Data[2*(y*w+x):], color.Gray16Model.Convert(c).(color.Gray16).Y)
			}
		}
	}
	return chunk, nil
}
