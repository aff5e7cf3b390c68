package dicom

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/b71729/bin"

	"github.com/halirutan/isis/property"
)

// numericSize returns the element size of binary numeric VRs, 0 for everything else.
func numericSize(vr string) int {
	switch vr {
	case "SS", "US":
		return 2
	case "FL", "SL", "UL":
		return 4
	case "FD":
		return 8
	}
	return 0
}

// IsCharacterStringVR returns whether the VR is of character string type
func IsCharacterStringVR(vr string) bool {
	switch vr {
	case "AE", "AS", "CS", "DA", "DS", "DT", "IS", "LO", "LT", "PN", "SH", "ST", "TM", "UI", "UT":
		return true
	default:
		return false
	}
}

// usesCharacterSet reports whether values of `vr` are affected by SpecificCharacterSet.
func usesCharacterSet(vr string) bool {
	switch vr {
	case "SH", "LO", "ST", "PN", "LT", "UT":
		return true
	}
	return false
}

// decodeValue converts the payload at `c` into a property value according to `vr`.
// `found` is false when there is nothing to store; the reason is logged.
func (r *Reader) decodeValue(c *TagCursor, vr, name string) (v interface{}, found bool) {
	data, err := c.Data()
	if err != nil {
		r.log.Errorf("Failed to read %s: %v", name, err)
		return nil, false
	}
	if size := numericSize(vr); size > 0 {
		return r.decodeNumeric(data, vr, size, c.ByteOrder(), name)
	}
	switch vr {
	case "LT", "LO", "UI", "ST", "SH", "CS", "PN", "AE", "IS", "DS", "UT":
		return r.decodeStrings(data, vr, name)
	case "DA", "TM", "DT":
		return r.decodeDateTime(data, vr, name)
	case "AS":
		return r.decodeAge(data, name)
	}
	r.log.Errorf("Don't know how to parse %s (VR %s), skipping it", name, vr)
	return nil, false
}

func (r *Reader) decodeNumeric(data []byte, vr string, size int, order binary.ByteOrder, name string) (interface{}, bool) {
	mult := len(data) / size
	if mult*size != len(data) {
		r.log.Warnf("Length %d of %s is not a multiple of %d, ignoring the trailing bytes", len(data), name, size)
	}
	if mult == 0 {
		return nil, false
	}
	br := bin.NewReaderBytes(data[:mult*size], order)
	var (
		u16 uint16
		u32 uint32
		u64 [8]byte
	)
	read := func() (float64, error) {
		switch vr {
		case "SS":
			err := br.ReadUint16(&u16)
			return float64(int16(u16)), err
		case "US":
			err := br.ReadUint16(&u16)
			return float64(u16), err
		case "SL":
			err := br.ReadUint32(&u32)
			return float64(int32(u32)), err
		case "UL":
			err := br.ReadUint32(&u32)
			return float64(u32), err
		case "FL":
			err := br.ReadUint32(&u32)
			return float64(math.Float32frombits(u32)), err
		}
		err := br.ReadBytes(u64[:])
		return math.Float64frombits(order.Uint64(u64[:])), err
	}

	if mult == 1 {
		f, err := read()
		if err != nil {
			r.log.Errorf("Failed to read %s: %v", name, err)
			return nil, false
		}
		switch vr {
		case "FL":
			return float32(f), true
		case "FD":
			return f, true
		case "SS":
			return int16(f), true
		case "SL":
			return int32(f), true
		case "US":
			return uint16(f), true
		}
		return uint32(f), true
	}

	values := make([]float64, mult)
	for i := range values {
		f, err := read()
		if err != nil {
			r.log.Errorf("Failed to read %s: %v", name, err)
			return nil, false
		}
		values[i] = f
	}
	switch vr {
	case "FL", "FD":
		return values, true
	case "UL":
		out := make([]uint32, mult)
		for i, f := range values {
			out[i] = uint32(f)
		}
		return out, true
	}
	out := make([]int32, mult)
	for i, f := range values {
		out[i] = int32(f)
	}
	return out, true
}

// trimmedString cuts trailing spaces and NULs and applies the active character set.
func (r *Reader) trimmedString(data []byte, vr, name string) string {
	data = bytes.TrimRight(data, " \x00")
	if usesCharacterSet(vr) && r.charset != nil {
		s, err := decodeBytes(data, r.charset)
		if err != nil {
			r.log.Warnf("Failed to decode %s from %s: %v", name, r.charset.Name, err)
		}
		return s
	}
	return string(data)
}

func (r *Reader) decodeStrings(data []byte, vr, name string) (interface{}, bool) {
	s := r.trimmedString(data, vr, name)
	if s == "" {
		return nil, false
	}
	if vr == "UT" {
		return s, true
	}
	if tokens := strings.Split(s, `\`); len(tokens) > 1 {
		return tokens, true
	}
	return s, true
}

func (r *Reader) decodeDateTime(data []byte, vr, name string) (interface{}, bool) {
	v, found := r.decodeStrings(data, vr, name)
	if !found {
		return nil, false
	}
	s, single := v.(string)
	if !single {
		return v, true
	}
	var err error
	switch vr {
	case "DA":
		var d property.Date
		if d, err = property.ParseDate(s); err == nil {
			return d, true
		}
	case "TM":
		var ts property.Timestamp
		if ts, err = property.ParseTime(s); err == nil {
			return ts, true
		}
	default:
		var ts property.Timestamp
		if ts, err = property.ParseDateTime(s); err == nil {
			return ts, true
		}
	}
	r.log.Warnf("Failed to parse %s as %s, keeping the string: %v", name, vr, err)
	return s, true
}

// decodeAge converts an AS value ("018M") into days.
func (r *Reader) decodeAge(data []byte, name string) (interface{}, bool) {
	s := string(bytes.TrimRight(data, " \x00"))
	last := strings.LastIndexAny(s, "0123456789")
	count, err := strconv.ParseUint(s[:last+1], 10, 16)
	if err != nil {
		r.log.Warnf("Cannot parse age string %q in the field %q", s, name)
		return nil, false
	}
	days := float64(count)
	switch s[len(s)-1] {
	case 'D', 'd':
	case 'W', 'w':
		days *= 7
	case 'M', 'm':
		days *= 30.436875 // year/12
	case 'Y', 'y':
		days *= 365.2425 // mean length of a year
	default:
		r.log.Warnf("Missing age-type-letter, assuming days")
	}
	days = math.RoundToEven(days)
	if days > math.MaxUint16 {
		r.log.Warnf("Age %q in the field %q does not fit into days", s, name)
		return nil, false
	}
	r.log.Debugf("Parsed age for %s (%s) as %v days", name, s, days)
	return uint16(days), true
}
