package pixel

import (
	"strings"

	"go.uber.org/zap"

	"github.com/halirutan/isis/core"
	"github.com/halirutan/isis/dicom"
	"github.com/halirutan/isis/property"
)

// intProperty reads an integer property; `found` is false if it is missing or not numeric.
func intProperty(props *property.Tree, name string) (int64, bool) {
	v, found := props.Get(name)
	if !found {
		return 0, false
	}
	return property.AsInt64(v)
}

// pixelType selects the sample type from the image pixel module.
func pixelType(props *property.Tree, log *zap.SugaredLogger) (Type, error) {
	v, _ := props.Get("PhotometricInterpretation")
	color := strings.TrimSpace(property.AsString(v))
	bits, _ := intProperty(props, "BitsAllocated")
	signed := false
	if repr, found := intProperty(props, "PixelRepresentation"); found {
		signed = repr != 0
	}

	switch color {
	case "COLOR", "RGB":
		if signed {
			log.Errorf("Signed values are not supported for color images, reading them unsigned")
		}
		switch bits {
		case 8:
			return Color24, nil
		case 16:
			return Color48, nil
		}
		return Invalid, core.UnsupportedDicomError("Unsupported bit-depth %d for color image", bits)
	case "MONOCHROME2", "MONOCHROME1":
		switch {
		case bits == 8 && signed:
			return Int8, nil
		case bits == 8:
			return Uint8, nil
		case bits == 16 && signed:
			return Int16, nil
		case bits == 16:
			return Uint16, nil
		case bits == 32 && signed:
			return Int32, nil
		case bits == 32:
			return Uint32, nil
		}
		return Invalid, core.UnsupportedDicomError("Unsupported bit-depth %d for greyscale image", bits)
	}
	log.Errorf("Unsupported photometric interpretation %q", color)
	return Invalid, core.UnsupportedDicomError("bad pixel type")
}

// Assemble builds a 2D chunk from the pixel data fragments read from a dataset.
// `props` is the tree of the dataset (Rows, Columns, PhotometricInterpretation,
// BitsAllocated, PixelRepresentation). Encapsulated JPEG 2000 data is decoded,
// raw data is copied and converted to little endian.
func Assemble(fragments [][]byte, props *property.Tree, enc dicom.Encoding, log *zap.SugaredLogger) (*Chunk, error) {
	if log == nil {
		log = core.Logger()
	}
	if len(fragments) == 0 {
		return nil, core.CorruptDicomError("No image data found")
	}
	if enc.JPEG2000 {
		if len(fragments) > 1 {
			log.Warnf("Only the first of %d j2k fragments is decoded", len(fragments))
		}
		chunk, err := decodeJ2K(fragments[0], log)
		if err != nil {
			return nil, err
		}
		log.Infof("Created %s-Image of type %s from a %d bytes j2k stream", chunk.SizeString(), chunk.Type, len(fragments[0]))
		return chunk, nil
	}

	rows, foundRows := intProperty(props, "Rows")
	columns, foundColumns := intProperty(props, "Columns")
	if !foundRows || !foundColumns || rows <= 0 || columns <= 0 {
		return nil, core.CorruptDicomError("Rows/Columns missing or invalid")
	}
	typ, err := pixelType(props, log)
	if err != nil {
		return nil, err
	}

	data := fragments[0]
	if len(fragments) > 1 {
		log.Infof("Concatenating %d fragments of raw pixel data", len(fragments))
		total := 0
		for _, f := range fragments {
			total += len(f)
		}
		data = make([]byte, 0, total)
		for _, f := range fragments {
			data = append(data, f...)
		}
	}

	size := int(columns) * int(rows) * typ.Size()
	if len(data) < size {
		return nil, core.CorruptDicomError("%d bytes of pixel data are too short for a %dx%d %s image", len(data), columns, rows, typ)
	}
	if len(data) > size {
		log.Debugf("Ignoring %d trailing bytes of pixel data", len(data)-size)
	}
	chunk := NewChunk(typ, int(columns), int(rows), 1, 1)
	copy(chunk.Data, data)
	if !enc.LittleEndian {
		swapSamples(chunk.Data, typ.SampleSize())
	}
	log.Infof("Created %s-Image of type %s from %d bytes of raw data", chunk.SizeString(), chunk.Type, len(data))
	return chunk, nil
}

// swapSamples reverses the byte order of every `size` byte sample in place.
func swapSamples(data []byte, size int) {
	if size < 2 {
		return
	}
	for i := 0; i+size <= len(data); i += size {
		for a, b := i, i+size-1; a < b; a, b = a+1, b-1 {
			data[a], data[b] = data[b], data[a]
		}
	}
}
