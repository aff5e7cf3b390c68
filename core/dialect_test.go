package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDialects(t *testing.T) {
	t.Parallel()
	d := ParseDialects("siemens,nocsa  keepmosaic\tunheardof")
	assert.True(t, d.Has(DialectSiemens))
	assert.True(t, d.Has(DialectNoCSA))
	assert.True(t, d.Has(DialectKeepMosaic))
	assert.True(t, d.Has("unheardof"))
	assert.False(t, d.Has(DialectForceMosaic))
	assert.Equal(t, "keepmosaic,nocsa,siemens,unheardof", d.String())

	assert.Empty(t, ParseDialects(""))
}

// ensures that a nil set can be queried
func TestDialectsNil(t *testing.T) {
	t.Parallel()
	var d Dialects
	assert.False(t, d.Has(DialectSiemens))
	assert.Equal(t, "", d.String())
}

func TestDialectsUnion(t *testing.T) {
	t.Parallel()
	a := NewDialects(DialectSiemens)
	b := NewDialects(DialectForceMosaic)
	u := a.Union(b)
	assert.True(t, u.Has(DialectSiemens))
	assert.True(t, u.Has(DialectForceMosaic))
	// inputs are left untouched
	assert.False(t, a.Has(DialectForceMosaic))
}
