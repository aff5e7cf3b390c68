package dicom

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/halirutan/isis/dictionary"
	"github.com/halirutan/isis/property"
)

var (
	implicitLittleEndian = Encoding{ImplicitVR: true, LittleEndian: true}
	explicitBigEndian    = Encoding{ImplicitVR: false, LittleEndian: false}
)

// testDict is shared; a Dictionary is immutable after construction
var testDict = dictionary.New()

// observedLogger returns a logger recording every entry at debug level and above.
func observedLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	obs, logs := observer.New(zapcore.DebugLevel)
	return zap.New(obs).Sugar(), logs
}

// encode runs `build` against a fresh Encoder and returns the written bytes.
func encode(t *testing.T, enc Encoding, build func(e *Encoder)) []byte {
	t.Helper()
	buf := bytes.Buffer{}
	e := NewEncoder(&buf, enc)
	build(e)
	require.NoError(t, e.Err())
	return buf.Bytes()
}

// newTestReader returns a non-strict Reader logging into `logs`.
func newTestReader(opts ...ReaderOption) (*Reader, *observer.ObservedLogs) {
	log, logs := observedLogger()
	opts = append([]ReaderOption{WithLogger(log), WithStrictMode(false)}, opts...)
	return NewReader(testDict, opts...), logs
}

// readAll reads the whole of `buf` as a dataset.
func readAll(r *Reader, buf []byte, enc Encoding) *property.Tree {
	return r.ReadStream(NewTagCursor(buf, 0, enc), len(buf))
}
