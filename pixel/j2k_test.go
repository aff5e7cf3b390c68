package pixel

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	jpeg2000 "github.com/mrjoshuak/go-jpeg2000"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halirutan/isis/core"
	"github.com/halirutan/isis/dicom"
	"github.com/halirutan/isis/property"
)

var j2kEncoding = dicom.Encoding{LittleEndian: true, JPEG2000: true}

func encodeJ2K(t *testing.T, img image.Image) []byte {
	t.Helper()
	opts := jpeg2000.DefaultOptions()
	opts.Format = jpeg2000.FormatJ2K
	opts.Lossless = true
	opts.NumResolutions = 2
	buf := bytes.Buffer{}
	require.NoError(t, jpeg2000.Encode(&buf, img, opts))
	return buf.Bytes()
}

// ensures that a lossless greyscale codestream decodes into an 8 bit chunk
func TestAssembleJ2KGray(t *testing.T) {
	t.Parallel()
	img := image.NewGray(image.Rect(0, 0, 8, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	log, _ := observedLogger()
	chunk, err := Assemble([][]byte{encodeJ2K(t, img)}, property.New(), j2kEncoding, log)
	require.NoError(t, err)
	assert.Equal(t, Uint8, chunk.Type)
	assert.Equal(t, [4]int{8, 4, 1, 1}, chunk.Size)
	assert.Equal(t, img.Pix, chunk.Data)
}

// ensures that a 16 bit codestream decodes into an unsigned 16 bit chunk
func TestAssembleJ2KGray16(t *testing.T) {
	t.Parallel()
	img := image.NewGray16(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16(1000*y + x)})
		}
	}
	log, _ := observedLogger()
	chunk, err := Assemble([][]byte{encodeJ2K(t, img)}, property.New(), j2kEncoding, log)
	require.NoError(t, err)
	assert.Equal(t, Uint16, chunk.Type)
	assert.Equal(t, float64(2003), chunk.Float64At(3, 2, 0, 0))
}

// ensures that colour codestreams and garbage are rejected
func TestAssembleJ2KErrors(t *testing.T) {
	t.Parallel()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	log, _ := observedLogger()
	_, err := Assemble([][]byte{encodeJ2K(t, img)}, property.New(), j2kEncoding, log)
	var unsupported *core.UnsupportedDicom
	assert.True(t, errors.As(err, &unsupported))

	_, err = Assemble([][]byte{{0xFF, 0x4F, 0x00}}, property.New(), j2kEncoding, log)
	var corrupt *core.CorruptDicom
	assert.True(t, errors.As(err, &corrupt))
}
