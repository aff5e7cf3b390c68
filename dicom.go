// Package isis loads DICOM files into sanitised image chunks.
//
// A `Format` walks the tag stream of a DICOM file, decodes the Siemens CSA
// headers, assembles the pixel data and maps the DICOM tags onto a common set
// of properties (see `Sanitise`). Siemens mosaics are split into volumes
// (see `ReadMosaic`).
package isis

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/halirutan/isis/core"
	"github.com/halirutan/isis/dicom"
	"github.com/halirutan/isis/dictionary"
	"github.com/halirutan/isis/pixel"
	"github.com/halirutan/isis/property"
)

// DicomTreeName is the branch holding the DICOM tags of a chunk.
const DicomTreeName = "DICOM"

const (
	// preambleLength is followed by the "DICM" magic
	preambleLength = 128
	// metaHeaderStart is the position of the (0002,0000) group length element
	metaHeaderStart = preambleLength + 4
	// metaStart is the position of the first element counted by the group length
	metaStart = metaHeaderStart + 12
)

// csaBlockFirst and csaBlockLast bound the tags of the Siemens private block
// that may hold CSA headers.
const (
	csaBlockFirst uint32 = 0x00291000
	csaBlockLast  uint32 = 0x002910F0
)

// dicmTestString contains the dicom magic value
var dicmTestString = []byte("DICM")

/*
===============================================================================
    Format
===============================================================================
*/

// Format reads DICOM files. It may be used by several goroutines at once;
// every load works on its own state.
type Format struct {
	dict   *dictionary.Dictionary
	config core.Config
	log    *zap.SugaredLogger
}

// Option configures a Format.
type Option func(*Format)

// WithLogger directs all diagnostics of the format to `l`.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(f *Format) {
		if l != nil {
			f.log = l
		}
	}
}

// WithConfig replaces the configuration read from the environment.
func WithConfig(c core.Config) Option {
	return func(f *Format) { f.config = c }
}

// NewFormat returns a Format using the application configuration and logger
// unless overridden by `opts`.
func NewFormat(opts ...Option) *Format {
	f := &Format{
		dict:   dictionary.New(),
		config: core.GetConfig(),
		log:    core.Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the name of the format.
func (f *Format) Name() string { return "Dicom" }

// Suffixes returns the file suffixes the format is used for.
func (f *Format) Suffixes() []string { return []string{".ima", ".dcm"} }

// Dialects returns the dialects understood by `Load`.
func (f *Format) Dialects() []string {
	return append([]string(nil), core.KnownDialects...)
}

// Write is not supported.
func (f *Format) Write(chunks []*pixel.Chunk, path string, dialects core.Dialects) error {
	return core.UnsupportedOperationError("writing dicom files is not yet supported")
}

// LoadFile reads and loads the file at `path`.
func (f *Format) LoadFile(path string, dialects core.Dialects) ([]*pixel.Chunk, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	chunks, err := f.Load(buf, dialects)
	return chunks, errors.Wrapf(err, "loading %s", path)
}

// LoadReader reads `r` to its end and loads the result.
func (f *Format) LoadReader(r io.Reader, dialects core.Dialects) ([]*pixel.Chunk, error) {
	buf, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return f.Load(buf, dialects)
}

// Load decodes the DICOM file held in `buf`. `dialects` are added to the
// dialects of the configuration.
//
// Missing or malformed tags are logged and skipped. An error is returned for
// a missing DICM magic (*core.NotADicom), an unknown transfer syntax or pixel
// layout (*core.UnsupportedDicom) and for missing pixel data (*core.CorruptDicom).
func (f *Format) Load(buf []byte, dialects core.Dialects) ([]*pixel.Chunk, error) {
	dialects = f.config.Dialects.Union(dialects)

	if len(buf) < metaStart || !bytes.Equal(buf[preambleLength:metaHeaderStart], dicmTestString) {
		return nil, core.NotADicomError("input does not have the \"DICM\" magic at %d", preambleLength)
	}

	metaLength, err := f.metaLength(buf)
	if err != nil {
		return nil, err
	}
	meta := dicom.NewReader(f.dict, dicom.WithLogger(f.log), dicom.WithDialects(dialects), dicom.WithStrictMode(f.config.StrictMode))
	metaTree := meta.ReadStream(dicom.NewTagCursor(buf, metaStart, dicom.ExplicitLittleEndian), metaLength)
	if err := meta.Err(); err != nil {
		return nil, errors.Wrap(err, "reading the file meta information")
	}

	transferSyntax := dicom.DefaultTransferSyntaxUID
	if v, found := metaTree.Get("TransferSyntaxUID"); found {
		transferSyntax = property.AsString(v)
	} else {
		f.log.Warnf("No transfer syntax found in the file meta information, assuming %s", transferSyntax)
	}
	enc, err := dicom.LookupTransferSyntax(transferSyntax)
	if err != nil {
		return nil, errors.Wrap(err, "reading the file meta information")
	}
	f.log.Debugf("Reading the dataset as %s (%s)", enc, transferSyntax)

	reader := dicom.NewReader(f.dict, dicom.WithLogger(f.log), dicom.WithDialects(dialects), dicom.WithStrictMode(f.config.StrictMode))
	tree := reader.ReadStream(dicom.NewTagCursor(buf, metaStart+metaLength, enc), len(buf))
	if err := reader.Err(); err != nil {
		return nil, errors.Wrap(err, "reading the dataset")
	}
	bulk := reader.Bulk()

	if dialects.Has(core.DialectNoCSA) {
		f.log.Debugf("Not parsing CSA headers because of the %s dialect", core.DialectNoCSA)
	} else {
		f.readCSA(reader, tree)
	}

	chunk, err := pixel.Assemble(bulk.Get(dictionary.PixelData), tree, enc, f.log)
	if err != nil {
		return nil, errors.Wrap(err, "assembling the pixel data")
	}
	bulk.Remove(dictionary.PixelData)
	for _, id := range bulk.IDs() {
		f.log.Debugf("Ignoring binary element %s (%s)", f.dict.Name(id), dictionary.IDString(id))
	}

	chunk.Props.MakeBranch(DicomTreeName).Merge(tree)
	Sanitise(chunk, dialects, f.log)

	if chunk, err = f.mosaic(chunk, dialects); err != nil {
		return nil, errors.Wrap(err, "decomposing the mosaic")
	}
	chunk.Props.Rename(DicomTreeName+"/SiemensNumberOfImagesInMosaic", DicomTreeName+"/SliceOrientation")
	return []*pixel.Chunk{chunk}, nil
}

// metaLength returns the length of the file meta information group.
func (f *Format) metaLength(buf []byte) (int, error) {
	c := dicom.NewTagCursor(buf, metaHeaderStart, dicom.ExplicitLittleEndian)
	if !c.Valid() || c.ID32() != dictionary.MetaGroupLength || c.Length() != 4 {
		return 0, core.CorruptDicomError("expected the file meta information group length at %d", metaHeaderStart)
	}
	data, err := c.Data()
	if err != nil {
		return 0, core.CorruptDicomError("file meta information group length is truncated")
	}
	length := int(binary.LittleEndian.Uint32(data))
	if length > len(buf)-metaStart {
		return 0, core.CorruptDicomError("file meta information group of %d bytes exceeds the input", length)
	}
	return length, nil
}

// readCSA parses the CSA headers of the Siemens private block into the
// "SIEMENS CSA HEADER" branch of `tree` and drops them from the bulk data.
func (f *Format) readCSA(reader *dicom.Reader, tree *property.Tree) {
	creator, found := tree.Get(dicom.CSAPrivateCreatorName)
	if !found || property.AsString(creator) != dicom.CSAHeaderName {
		return
	}
	bulk := reader.Bulk()
	csa := property.New()
	for id := csaBlockFirst; id <= csaBlockLast; id += 0x10 {
		for _, blob := range bulk.Get(id) {
			if err := reader.ParseCSA(blob, csa); err != nil {
				f.log.Errorf("Failed to parse the CSA header %s: %v", dictionary.IDString(id), err)
			}
		}
		bulk.Remove(id)
	}
	if csa.Len() > 0 {
		tree.MakeBranch(dicom.CSAHeaderName).Merge(csa)
	}
}

func isMosaic(chunk *pixel.Chunk) bool {
	v, found := chunk.Props.Get(DicomTreeName + "/ImageType")
	if !found {
		return false
	}
	for _, t := range property.AsStrings(v) {
		if t == "MOSAIC" {
			return true
		}
	}
	return false
}

func (f *Format) mosaic(chunk *pixel.Chunk, dialects core.Dialects) (*pixel.Chunk, error) {
	switch {
	case isMosaic(chunk) && dialects.Has(core.DialectKeepMosaic):
		f.log.Infof("The image is a mosaic, but the %s dialect was given, keeping it", core.DialectKeepMosaic)
		return chunk, nil
	case isMosaic(chunk):
		return ReadMosaic(chunk, f.log)
	case dialects.Has(core.DialectForceMosaic):
		f.log.Infof("Decomposing the image as a mosaic because of the %s dialect", core.DialectForceMosaic)
		return ReadMosaic(chunk, f.log)
	}
	return chunk, nil
}
