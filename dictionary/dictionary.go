// Package dictionary maps DICOM tag IDs to the VR and property name used
// when a tag is stored in a property tree.
//
// Names come from a fixed table of overrides first, then from the standard
// data dictionary. Tags known to neither are named "UnknownTag/(gggg,eeee)".
package dictionary

import (
	"fmt"
	"strings"
	"sync"

	"github.com/suyashkumar/dicom/dicomtag"
)

// UnknownTagName prefixes the name of tags that are not in the dictionary.
const UnknownTagName = "UnknownTag/"

// Well known IDs.
const (
	ItemTag              uint32 = 0xFFFEE000
	ItemDelimitationTag  uint32 = 0xFFFEE00D
	SequenceDelimitation uint32 = 0xFFFEE0DD
	MetaGroupLength      uint32 = 0x00020000
	TransferSyntaxUID    uint32 = 0x00020010
	SpecificCharacterSet uint32 = 0x00080005
	PixelData            uint32 = 0x7FE00010
	CSAImageHeaderInfo   uint32 = 0x00291010
	CSASeriesHeaderInfo  uint32 = 0x00291020
)

// Entry describes a single tag.
// A VR of "--" means the VR in the stream decides.
type Entry struct {
	VR   string
	Name string
}

// Dictionary is immutable after `New` and may be shared between goroutines.
type Dictionary struct {
	entries map[uint32]Entry
	erased  map[uint32]struct{}
}

var warmup sync.Once

// New builds the dictionary used by the DICOM loader.
func New() *Dictionary {
	// the standard dictionary is built lazily on first lookup
	warmup.Do(func() {
		dicomtag.Find(dicomtag.PixelData)
	})
	d := &Dictionary{
		entries: make(map[uint32]Entry, len(overrides)+0x300+0xF0+1),
		erased:  map[uint32]struct{}{},
	}
	for id, e := range overrides {
		d.entries[id] = e
	}
	// standard dictionaries call this ImageType, which Siemens does not follow
	d.erased[0x00211010] = struct{}{}

	for i := uint32(0x10); i <= 0xFF; i++ {
		d.entries[0x00290000+i] = Entry{
			VR:   "LO",
			Name: fmt.Sprintf("Private Code for %s-%s", IDString(0x00290000|i<<8), IDString(0x00290000|i<<8|0xFF)),
		}
	}
	for i := uint32(0); i <= 0x02FF; i++ {
		d.entries[0x60000000+i] = Entry{VR: "--", Name: fmt.Sprintf("DICOM overlay info/0x%04X", i)}
	}
	d.entries[0x60003000] = Entry{VR: "OW", Name: "DICOM overlay data"}
	return d
}

// IDString formats `id` as "(gggg,eeee)".
func IDString(id uint32) string {
	return fmt.Sprintf("(%04x,%04x)", id>>16, id&0xFFFF)
}

// Lookup returns the entry for `id`. `found` is false for tags neither
// overridden nor part of the standard dictionary.
func (d *Dictionary) Lookup(id uint32) (e Entry, found bool) {
	if e, found = d.entries[id]; found {
		return
	}
	if _, erased := d.erased[id]; erased {
		return Entry{}, false
	}
	info, err := dicomtag.Find(dicomtag.Tag{Group: uint16(id >> 16), Element: uint16(id)})
	if err != nil || info.Name == "" {
		return Entry{}, false
	}
	return Entry{VR: normaliseVR(info.VR), Name: info.Name}, true
}

// Name returns the property name for `id`.
func (d *Dictionary) Name(id uint32) string {
	if e, found := d.Lookup(id); found {
		return e.Name
	}
	return UnknownTagName + IDString(id)
}

// VR returns the dictionary VR for `id`, or "" when unknown or stream defined.
func (d *Dictionary) VR(id uint32) string {
	e, found := d.Lookup(id)
	if !found || e.VR == "--" {
		return ""
	}
	return e.VR
}

// normaliseVR reduces ambiguous dictionary VRs ("US or SS", "OB or OW", "xs")
// to a single VR.
func normaliseVR(vr string) string {
	vr = strings.ToUpper(strings.TrimSpace(vr))
	if fields := strings.Fields(vr); len(fields) > 0 {
		vr = fields[0]
	}
	switch vr {
	case "XS":
		return "US"
	case "OX":
		return "OW"
	}
	if len(vr) != 2 {
		return ""
	}
	return vr
}
