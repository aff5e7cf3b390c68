package dicom

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/b71729/bin"

	"github.com/halirutan/isis/core"
	"github.com/halirutan/isis/dictionary"
)

/*
===============================================================================
    Encoder
===============================================================================
*/

// Encoder writes tag headers and values in a given `Encoding`.
// It covers what is needed to synthesise test inputs and previews; it is not
// a general DICOM writer. The first failure sticks and is returned by `Err`.
type Encoder struct {
	bw  bin.Writer
	enc Encoding
	err error
}

// NewEncoder returns an Encoder writing to `dest`.
func NewEncoder(dest io.Writer, enc Encoding) *Encoder {
	return &Encoder{bw: bin.NewWriter(dest, enc.ByteOrder()), enc: enc}
}

// Err returns the first write error.
func (e *Encoder) Err() error { return e.err }

func (e *Encoder) check(err error) error {
	if e.err == nil {
		e.err = err
	}
	return e.err
}

// WriteHeader writes the header of `id`. `vr` is ignored for implicit streams
// and for the FFFE group.
func (e *Encoder) WriteHeader(id uint32, vr string, length uint32) error {
	if e.err != nil {
		return e.err
	}
	if e.check(e.bw.WriteUint16(uint16(id>>16))) != nil {
		return e.err
	}
	if e.check(e.bw.WriteUint16(uint16(id))) != nil {
		return e.err
	}
	if e.enc.ImplicitVR || id>>16 == 0xFFFE {
		return e.check(e.bw.WriteUint32(length))
	}
	if len(vr) != 2 {
		return e.check(core.UnsupportedOperationError("cannot write VR %q of %s", vr, dictionary.IDString(id)))
	}
	if e.check(e.bw.WriteBytes([]byte(vr))) != nil {
		return e.err
	}
	if IsExtendedVR(vr) {
		if e.check(e.bw.ZeroFill(2)) != nil {
			return e.err
		}
		return e.check(e.bw.WriteUint32(length))
	}
	if length > math.MaxUint16 {
		return e.check(core.OutOfBoundsError("length %d of %s does not fit into a short header", length, dictionary.IDString(id)))
	}
	return e.check(e.bw.WriteUint16(uint16(length)))
}

// WriteElement writes `id` with the raw payload `data`, padded to an even length.
// Character strings are padded with a space, everything else with a NUL.
func (e *Encoder) WriteElement(id uint32, vr string, data []byte) error {
	if len(data)%2 != 0 {
		pad := byte(0x00)
		if IsCharacterStringVR(vr) && vr != "UI" {
			pad = ' '
		}
		data = append(append(make([]byte, 0, len(data)+1), data...), pad)
	}
	if e.WriteHeader(id, vr, uint32(len(data))) != nil {
		return e.err
	}
	return e.WriteRaw(data)
}

// WriteRaw writes `data` as is.
func (e *Encoder) WriteRaw(data []byte) error {
	if e.err != nil {
		return e.err
	}
	return e.check(e.bw.WriteBytes(data))
}

// WriteStrings writes a string element; several values are joined by "\".
func (e *Encoder) WriteStrings(id uint32, vr string, values ...string) error {
	return e.WriteElement(id, vr, []byte(strings.Join(values, `\`)))
}

// WriteUint16s writes a US (or SS) element.
func (e *Encoder) WriteUint16s(id uint32, vr string, values ...uint16) error {
	if e.WriteHeader(id, vr, uint32(2*len(values))) != nil {
		return e.err
	}
	for _, v := range values {
		if e.check(e.bw.WriteUint16(v)) != nil {
			return e.err
		}
	}
	return nil
}

// WriteUint32s writes a UL (or SL) element.
func (e *Encoder) WriteUint32s(id uint32, vr string, values ...uint32) error {
	if e.WriteHeader(id, vr, uint32(4*len(values))) != nil {
		return e.err
	}
	for _, v := range values {
		if e.check(e.bw.WriteUint32(v)) != nil {
			return e.err
		}
	}
	return nil
}

// WriteFloat32s writes an FL element.
func (e *Encoder) WriteFloat32s(id uint32, values ...float32) error {
	if e.WriteHeader(id, "FL", uint32(4*len(values))) != nil {
		return e.err
	}
	for _, v := range values {
		if e.check(e.bw.WriteUint32(math.Float32bits(v))) != nil {
			return e.err
		}
	}
	return nil
}

// WriteFloat64s writes an FD element.
func (e *Encoder) WriteFloat64s(id uint32, values ...float64) error {
	if e.WriteHeader(id, "FD", uint32(8*len(values))) != nil {
		return e.err
	}
	var b [8]byte
	for _, v := range values {
		e.enc.ByteOrder().PutUint64(b[:], math.Float64bits(v))
		if e.WriteRaw(b[:]) != nil {
			return e.err
		}
	}
	return nil
}

// WriteItem writes an item header. Pass `UndefinedLength` for items closed by
// `WriteItemDelimitation`.
func (e *Encoder) WriteItem(length uint32) error {
	return e.WriteHeader(dictionary.ItemTag, ImplicitVR, length)
}

// WriteItemDelimitation closes an item of undefined length.
func (e *Encoder) WriteItemDelimitation() error {
	return e.WriteHeader(dictionary.ItemDelimitationTag, ImplicitVR, 0)
}

// WriteSequenceDelimitation closes a sequence (or fragment list) of undefined length.
func (e *Encoder) WriteSequenceDelimitation() error {
	return e.WriteHeader(dictionary.SequenceDelimitation, ImplicitVR, 0)
}

// WriteSequence writes a sequence holding the already encoded `items`.
// With `undefined` set, the sequence and its items use delimitation tags,
// otherwise explicit lengths.
func (e *Encoder) WriteSequence(id uint32, undefined bool, items ...[]byte) error {
	if undefined {
		if e.WriteHeader(id, "SQ", UndefinedLength) != nil {
			return e.err
		}
		for _, item := range items {
			if e.WriteItem(UndefinedLength) != nil || e.WriteRaw(item) != nil || e.WriteItemDelimitation() != nil {
				return e.err
			}
		}
		return e.WriteSequenceDelimitation()
	}
	length := 0
	for _, item := range items {
		length += 8 + len(item)
	}
	if e.WriteHeader(id, "SQ", uint32(length)) != nil {
		return e.err
	}
	for _, item := range items {
		if e.WriteItem(uint32(len(item))) != nil || e.WriteRaw(item) != nil {
			return e.err
		}
	}
	return nil
}

// WriteFragments writes an encapsulated payload: an empty basic offset table
// followed by one item per fragment.
func (e *Encoder) WriteFragments(id uint32, vr string, fragments ...[]byte) error {
	if e.WriteHeader(id, vr, UndefinedLength) != nil || e.WriteItem(0) != nil {
		return e.err
	}
	for _, fragment := range fragments {
		if len(fragment)%2 != 0 {
			fragment = append(append(make([]byte, 0, len(fragment)+1), fragment...), 0)
		}
		if e.WriteItem(uint32(len(fragment))) != nil || e.WriteRaw(fragment) != nil {
			return e.err
		}
	}
	return e.WriteSequenceDelimitation()
}

// EncodeFile prepends the preamble, the "DICM" magic and a file meta group
// announcing `transferSyntax` to an already encoded `dataset`.
func EncodeFile(transferSyntax string, dataset []byte) ([]byte, error) {
	instanceUID, err := core.NewRandInstanceUID()
	if err != nil {
		return nil, err
	}
	meta := bytes.Buffer{}
	me := NewEncoder(&meta, ExplicitLittleEndian)
	me.WriteElement(0x00020001, "OB", []byte{0x00, 0x01})
	// MR Image Storage
	me.WriteStrings(0x00020002, "UI", "1.2.840.10008.5.1.4.1.1.4")
	me.WriteStrings(0x00020003, "UI", instanceUID)
	me.WriteStrings(dictionary.TransferSyntaxUID, "UI", transferSyntax)
	me.WriteStrings(0x00020012, "UI", core.ImplementationClassUID)
	me.WriteStrings(0x00020013, "SH", fmt.Sprintf("ISIS_%s", core.Version))
	if me.Err() != nil {
		return nil, me.Err()
	}

	out := bytes.Buffer{}
	out.Write(make([]byte, 128))
	out.WriteString("DICM")
	fe := NewEncoder(&out, ExplicitLittleEndian)
	fe.WriteUint32s(dictionary.MetaGroupLength, "UL", uint32(meta.Len()))
	fe.WriteRaw(meta.Bytes())
	fe.WriteRaw(dataset)
	if fe.Err() != nil {
		return nil, fe.Err()
	}
	return out.Bytes(), nil
}

/*
===============================================================================
    CSA
===============================================================================
*/

// CSAEntry is a single named entry of a CSA blob.
type CSAEntry struct {
	Name   string
	VR     string
	Values []string
}

// EncodeCSA builds an "SV10" CSA blob holding `entries`.
func EncodeCSA(entries ...CSAEntry) ([]byte, error) {
	out := bytes.Buffer{}
	bw := bin.NewWriter(&out, binary.LittleEndian)
	var err error
	put := func(f func() error) {
		if err == nil {
			err = f()
		}
	}
	put(func() error { return bw.WriteBytes([]byte{'S', 'V', '1', '0', 0x04, 0x03, 0x02, 0x01}) })
	put(func() error { return bw.WriteUint32(uint32(len(entries))) })
	put(func() error { return bw.WriteUint32(0x4D) })
	for _, entry := range entries {
		if len(entry.Name) >= csaNameLength || len(entry.VR) > 3 {
			return nil, core.UnsupportedOperationError("CSA entry %q (%s) does not fit the header", entry.Name, entry.VR)
		}
		name := make([]byte, csaNameLength)
		copy(name, entry.Name)
		vr := make([]byte, 4)
		copy(vr, entry.VR)
		put(func() error { return bw.WriteBytes(name) })
		put(func() error { return bw.WriteUint32(uint32(len(entry.Values))) })
		put(func() error { return bw.WriteBytes(vr) })
		put(func() error { return bw.WriteUint32(0) })
		put(func() error { return bw.WriteUint32(uint32(len(entry.Values))) })
		put(func() error { return bw.WriteUint32(0x4D) })
		for _, value := range entry.Values {
			text := append([]byte(value), 0)
			for i := 0; i < 4; i++ {
				put(func() error { return bw.WriteUint32(uint32(len(text))) })
			}
			put(func() error { return bw.WriteBytes(text) })
			if pad := (4 - len(text)%4) % 4; pad > 0 {
				put(func() error { return bw.WriteBytes(make([]byte, pad)) })
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
