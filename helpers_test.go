package isis

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/halirutan/isis/core"
	"github.com/halirutan/isis/dicom"
	"github.com/halirutan/isis/dictionary"
	"github.com/halirutan/isis/pixel"
	"github.com/halirutan/isis/property"
)

var explicitLittleEndian = dicom.ExplicitLittleEndian

func observedLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	obs, logs := observer.New(zapcore.DebugLevel)
	return zap.New(obs).Sugar(), logs
}

// newTestFormat returns a Format with an empty configuration logging into `logs`.
func newTestFormat() (*Format, *observer.ObservedLogs) {
	log, logs := observedLogger()
	return NewFormat(WithLogger(log), WithConfig(core.Config{OpenFileLimit: 1})), logs
}

// buildFile encodes the dataset written by `build` and wraps it into a DICOM file.
func buildFile(t testing.TB, transferSyntax string, enc dicom.Encoding, build func(e *dicom.Encoder)) []byte {
	t.Helper()
	buf := bytes.Buffer{}
	e := dicom.NewEncoder(&buf, enc)
	build(e)
	require.NoError(t, e.Err())
	file, err := dicom.EncodeFile(transferSyntax, buf.Bytes())
	require.NoError(t, err)
	return file
}

// writeImage writes the image pixel module of an unsigned greyscale image.
func writeImage(e *dicom.Encoder, rows, columns, bits uint16, data []byte) {
	e.WriteStrings(0x00280004, "CS", "MONOCHROME2")
	e.WriteUint16s(0x00280010, "US", rows)
	e.WriteUint16s(0x00280011, "US", columns)
	e.WriteUint16s(0x00280100, "US", bits)
	e.WriteUint16s(0x00280103, "US", 0)
	vr := "OB"
	if bits > 8 {
		vr = "OW"
	}
	e.WriteElement(dictionary.PixelData, vr, data)
}

// newChunk returns an 8 bit chunk with its raw tags set from `tags`.
func newChunk(x, y int, tags map[string]interface{}) *pixel.Chunk {
	chunk := pixel.NewChunk(pixel.Uint8, x, y, 1, 1)
	tree := chunk.Props.MakeBranch(DicomTreeName)
	for name, v := range tags {
		tree.Set(name, v)
	}
	return chunk
}

func vectorOf(t *testing.T, props *property.Tree, name string) property.Vector3 {
	t.Helper()
	v, found := props.Get(name)
	require.True(t, found, "%s is not set", name)
	vec, ok := v.(property.Vector3)
	require.True(t, ok, "%s is a %T", name, v)
	return vec
}
