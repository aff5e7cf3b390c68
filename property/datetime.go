package property

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ParseDate parses a DICOM DA value ("YYYYMMDD"). Legacy and free-form
// spellings such as "YYYY.MM.DD" are accepted through dateparse.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("20060102", s); err == nil {
		return Date{t}, nil
	}
	t, err := dateparse.ParseIn(strings.Replace(s, ".", "-", -1), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %v", s, err)
	}
	y, m, d := t.Date()
	return NewDate(y, m, d), nil
}

// ParseTime parses a DICOM TM value ("HHMMSS.FFFFFF", any trailing part may
// be omitted, legacy colons are ignored). The result lies on 1970-01-01 UTC.
func ParseTime(s string) (Timestamp, error) {
	d, err := parseTimeOfDay(s)
	if err != nil {
		return Timestamp{}, err
	}
	return TimeOfDay(d), nil
}

func parseTimeOfDay(s string) (time.Duration, error) {
	s = strings.Replace(strings.TrimSpace(s), ":", "", -1)
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(whole) < 2 || len(whole) > 6 || len(whole)%2 != 0 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	var d time.Duration
	limits := []int{24, 60, 61} // leap second
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	for i := 0; i*2 < len(whole); i++ {
		n, err := strconv.Atoi(whole[i*2 : i*2+2])
		if err != nil || n < 0 || n >= limits[i] {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		d += time.Duration(n) * units[i]
	}
	if frac != "" {
		if len(whole) != 6 || len(frac) > 9 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		n, err := strconv.Atoi(frac)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		for i := len(frac); i < 9; i++ {
			n *= 10
		}
		d += time.Duration(n)
	}
	return d, nil
}

// ParseDateTime parses a DICOM DT value ("YYYYMMDDHHMMSS.FFFFFF&ZZXX").
// The time part and the UTC offset are optional.
func ParseDateTime(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	loc := time.UTC
	if i := strings.LastIndexAny(s, "+-"); i >= 8 && len(s)-i == 5 {
		hh, err1 := strconv.Atoi(s[i+1 : i+3])
		mm, err2 := strconv.Atoi(s[i+3:])
		if err1 == nil && err2 == nil {
			offset := hh*3600 + mm*60
			if s[i] == '-' {
				offset = -offset
			}
			loc = time.FixedZone(s[i:], offset)
			s = s[:i]
		}
	}
	if len(s) >= 8 {
		if t, err := time.ParseInLocation("20060102", s[:8], loc); err == nil {
			if len(s) == 8 {
				return Timestamp{t}, nil
			}
			if d, err := parseTimeOfDay(s[8:]); err == nil {
				return Timestamp{t.Add(d)}, nil
			}
		}
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid date time %q: %v", s, err)
	}
	return Timestamp{t}, nil
}
