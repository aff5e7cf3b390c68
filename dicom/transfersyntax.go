package dicom

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/halirutan/isis/core"
)

// Transfer syntax UIDs understood by the loader.
const (
	ImplicitVRLittleEndian   = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian   = "1.2.840.10008.1.2.1"
	ExplicitVRBigEndian      = "1.2.840.10008.1.2.2"
	JPEG2000LosslessOnly     = "1.2.840.10008.1.2.4.90"
	DefaultTransferSyntaxUID = ImplicitVRLittleEndian
)

// Encoding represents the expected encoding of dicom attributes.
type Encoding struct {
	ImplicitVR   bool
	LittleEndian bool
	// JPEG2000 marks encapsulated JPEG 2000 pixel data
	JPEG2000 bool
}

// ExplicitLittleEndian is the encoding of the file meta group.
var ExplicitLittleEndian = Encoding{ImplicitVR: false, LittleEndian: true}

func (e Encoding) String() string {
	var s1 = "ImplicitVR"
	var s2 = "LittleEndian"
	if !e.ImplicitVR {
		s1 = "ExplicitVR"
	}
	if !e.LittleEndian {
		s2 = "BigEndian"
	}
	s := fmt.Sprintf("%s + %s", s1, s2)
	if e.JPEG2000 {
		s += " + JPEG2000"
	}
	return s
}

// ByteOrder returns the binary.ByteOrder matching the encoding.
func (e Encoding) ByteOrder() binary.ByteOrder {
	if e.LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// transferSyntaxToEncodingMap provides a mapping between transfer syntax UID and encoding
var transferSyntaxToEncodingMap = map[string]Encoding{
	ImplicitVRLittleEndian: {ImplicitVR: true, LittleEndian: true},
	ExplicitVRLittleEndian: {ImplicitVR: false, LittleEndian: true},
	ExplicitVRBigEndian:    {ImplicitVR: false, LittleEndian: false},
	JPEG2000LosslessOnly:   {ImplicitVR: false, LittleEndian: true, JPEG2000: true},
}

// LookupTransferSyntax returns the encoding for `uid`.
// Every UID starting with the explicit little endian UID (for example the
// deflated variant) is read as explicit little endian.
func LookupTransferSyntax(uid string) (Encoding, error) {
	uid = strings.TrimRight(uid, " \x00")
	if enc, found := transferSyntaxToEncodingMap[uid]; found {
		return enc, nil
	}
	if strings.HasPrefix(uid, ExplicitVRLittleEndian) {
		return transferSyntaxToEncodingMap[ExplicitVRLittleEndian], nil
	}
	return Encoding{}, core.UnsupportedDicomError("Unsupported transfer syntax %q", uid)
}
