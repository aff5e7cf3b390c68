package core

import (
	"sort"
	"strings"
)

// Dialect names understood by the DICOM loader.
const (
	DialectSiemens      = "siemens"
	DialectExtProtocols = "withExtProtocols"
	DialectNoCSA        = "nocsa"
	DialectKeepMosaic   = "keepmosaic"
	DialectForceMosaic  = "forcemosaic"
)

// KnownDialects lists the dialects in the order they are advertised.
var KnownDialects = []string{DialectSiemens, DialectExtProtocols, DialectNoCSA, DialectKeepMosaic, DialectForceMosaic}

// Dialects is a set of behaviour flags passed to a load.
type Dialects map[string]struct{}

// ParseDialects splits `s` on commas and whitespace.
// Unknown names are kept; they simply never match.
func ParseDialects(s string) Dialects {
	d := Dialects{}
	for _, name := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	}) {
		d[name] = struct{}{}
	}
	return d
}

// NewDialects returns a set holding `names`.
func NewDialects(names ...string) Dialects {
	d := make(Dialects, len(names))
	for _, name := range names {
		d[name] = struct{}{}
	}
	return d
}

// Has reports whether `name` is set. Safe on a nil set.
func (d Dialects) Has(name string) bool {
	_, found := d[name]
	return found
}

// Union returns a new set holding the members of both sets.
func (d Dialects) Union(other Dialects) Dialects {
	u := make(Dialects, len(d)+len(other))
	for k := range d {
		u[k] = struct{}{}
	}
	for k := range other {
		u[k] = struct{}{}
	}
	return u
}

func (d Dialects) String() string {
	names := make([]string, 0, len(d))
	for k := range d {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
