package dicom

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/b71729/bin"

	"github.com/halirutan/isis/core"
	"github.com/halirutan/isis/property"
)

// CSAHeaderName is the branch Siemens CSA entries are stored under.
const CSAHeaderName = "SIEMENS CSA HEADER"

// CSAPrivateCreatorName is the property holding the creator of the (0029,10xx) private block.
const CSAPrivateCreatorName = "Private Code for (0029,1000)-(0029,10ff)"

const (
	csaStart       = 0x10
	csaNameLength  = 64
	csaEntryHeader = csaNameLength + 4*4
	csaItemHeader  = 16
)

// protocol dumps are large and only stored with the withExtProtocols dialect
var csaProtocolEntries = map[string]struct{}{
	"MrPhoenixProtocol": {},
	"MrEvaProtocol":     {},
	"MrProtocol":        {},
}

// cString returns `b` up to its first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// ParseCSA decodes a Siemens CSA ("SV10") blob into `dest`.
// An entry without a name is reported as *core.CorruptElement; entries read
// before it are kept.
func (r *Reader) ParseCSA(data []byte, dest *property.Tree) error {
	for pos := csaStart; pos < len(data)-4; {
		n, err := r.parseCSAEntry(data[pos:], pos, dest)
		if err != nil {
			return err
		}
		pos += n
	}
	return nil
}

// parseCSAEntry decodes the entry at the start of `at` and returns its size.
func (r *Reader) parseCSAEntry(at []byte, offset int, dest *property.Tree) (int, error) {
	if len(at) < csaEntryHeader {
		return 0, core.OutOfBoundsError("CSA entry at %d is truncated (%d bytes left)", offset, len(at))
	}
	br := bin.NewReaderBytes(at, binary.LittleEndian)
	var (
		rawName         [csaNameLength]byte
		rawVR           [4]byte
		vm, syngodt, nn uint32
	)
	if err := br.ReadBytes(rawName[:]); err != nil {
		return 0, err
	}
	name := cString(rawName[:])
	if name == "" {
		return 0, core.CorruptElementError("CSA entry at %d has an empty name", offset)
	}
	if err := br.ReadUint32(&vm); err != nil {
		return 0, err
	}
	if err := br.ReadBytes(rawVR[:]); err != nil {
		return 0, err
	}
	vr := strings.TrimSpace(cString(rawVR[:]))
	if err := br.ReadUint32(&syngodt); err != nil {
		return 0, err
	}
	if err := br.ReadUint32(&nn); err != nil {
		return 0, err
	}
	nitems := int32(nn)
	pos := csaEntryHeader

	if nitems <= 0 {
		return pos + 4, nil
	}

	_, external := csaProtocolEntries[name]
	skip := external && !r.dialects.Has(core.DialectExtProtocols)
	if err := br.Discard(4); err != nil {
		return 0, core.OutOfBoundsError("CSA entry %s at %d is truncated", name, offset)
	}
	pos += 4

	values := make([]string, 0, nitems)
	for i := int32(0); i < nitems; i++ {
		var itemLen uint32
		if err := br.ReadUint32(&itemLen); err != nil {
			return 0, core.OutOfBoundsError("CSA entry %s at %d: item %d is truncated", name, offset, i)
		}
		if err := br.Discard(csaItemHeader - 4); err != nil {
			return 0, core.OutOfBoundsError("CSA entry %s at %d: item %d is truncated", name, offset, i)
		}
		pos += csaItemHeader
		if itemLen == 0 {
			continue
		}
		if pos+int(itemLen) > len(at) {
			return 0, core.OutOfBoundsError("CSA entry %s at %d: item %d of %d bytes exceeds the blob", name, offset, i, itemLen)
		}
		text := make([]byte, itemLen)
		if err := br.ReadBytes(text); err != nil {
			return 0, err
		}
		if !skip {
			if s := strings.Trim(cString(text), " \t\f\v\n\r"); s != "" {
				values = append(values, s)
			}
		}
		padded := int(itemLen+3) / 4 * 4
		// the last item may lack its padding
		br.ReadBytes(make([]byte, padded-int(itemLen)))
		pos += padded
	}

	switch {
	case skip:
		r.log.Debugf("Skipping CSA entry %s", name)
	case len(values) == 1:
		r.storeCSAValue(dest, name, vr, values[0])
	case len(values) > 1:
		r.storeCSAValueList(dest, name, vr, values)
	}
	return pos, nil
}

func (r *Reader) storeCSAValue(dest *property.Tree, name, vr, value string) {
	var kind property.Kind
	switch vr {
	case "IS", "SL":
		kind = property.Int32Kind
	case "UL":
		kind = property.Uint32Kind
	case "CS", "LO", "SH", "UN", "ST", "UT", "LT":
		kind = property.StringKind
	case "DS", "FD":
		kind = property.Float64Kind
	case "US":
		kind = property.Uint16Kind
	case "SS":
		kind = property.Int16Kind
	default:
		r.log.Errorf("Don't know how to parse CSA entry %s of type %s", name, vr)
		return
	}
	v, err := property.Convert(value, kind)
	if err != nil {
		r.log.Warnf("Failed to parse value %q of CSA entry %s (%s): %v", value, name, vr, err)
		return
	}
	dest.Set(name, v)
}

func (r *Reader) storeCSAValueList(dest *property.Tree, name, vr string, values []string) {
	var kind property.Kind
	switch vr {
	case "IS", "SL", "US", "SS":
		kind = property.Int32sKind
	case "UL", "CS", "LO", "SH", "UN", "ST":
		kind = property.StringsKind
	case "DS", "FD":
		kind = property.Float64sKind
	default:
		r.log.Errorf("Don't know how to parse CSA entry list %s of type %s", name, vr)
		return
	}
	v, err := property.Convert(values, kind)
	if err != nil {
		r.log.Warnf("Failed to parse values %v of CSA entry %s (%s): %v", values, name, vr, err)
		return
	}
	dest.Set(name, v)
}
