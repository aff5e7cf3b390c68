package dictionary

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "(0019,1015)", IDString(0x00191015))
	assert.Equal(t, "(7fe0,0010)", IDString(PixelData))
	assert.Equal(t, "(fffe,e0dd)", IDString(SequenceDelimitation))
}

func TestOverrides(t *testing.T) {
	t.Parallel()
	d := New()
	testCases := []struct {
		id   uint32
		vr   string
		name string
	}{
		{0x00100010, "PN", "PatientsName"},
		{0x00101010, "AS", "PatientsAge"},
		{0x00080008, "CS", "ImageType"},
		{0x0019100a, "US", "SiemensNumberOfImagesInMosaic"},
		{0x00280010, "US", "Rows"},
		{PixelData, "OW", "PixelData"},
		{0x00290010, "LO", "Private Code for (0029,1000)-(0029,10ff)"},
		{0x002900ff, "LO", "Private Code for (0029,ff00)-(0029,ffff)"},
		{0x60000010, "", "DICOM overlay info/0x0010"},
		{0x600002FF, "", "DICOM overlay info/0x02FF"},
		{0x60003000, "OW", "DICOM overlay data"},
	}
	for _, testCase := range testCases {
		assert.Equal(t, testCase.name, d.Name(testCase.id))
		assert.Equal(t, testCase.vr, d.VR(testCase.id), "VR of %s", IDString(testCase.id))
	}
}

// ensures that tags outside every table get a stable path based on their ID
func TestUnknownTag(t *testing.T) {
	t.Parallel()
	d := New()
	_, found := d.Lookup(0x00191015)
	assert.False(t, found)
	assert.Equal(t, "UnknownTag/(0019,1015)", d.Name(0x00191015))
	assert.Equal(t, "", d.VR(0x00191015))

	// erased on purpose even though standard dictionaries know it
	assert.Equal(t, "UnknownTag/(0021,1010)", d.Name(0x00211010))
}

func TestStandardFallback(t *testing.T) {
	t.Parallel()
	d := New()
	e, found := d.Lookup(0x00081140) // Referenced Image Sequence
	if assert.True(t, found) {
		assert.Equal(t, "SQ", e.VR)
		assert.NotEmpty(t, e.Name)
	}
}

func TestNormaliseVR(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "US", normaliseVR("US or SS"))
	assert.Equal(t, "OB", normaliseVR("OB or OW"))
	assert.Equal(t, "US", normaliseVR("xs"))
	assert.Equal(t, "OW", normaliseVR("ox"))
	assert.Equal(t, "", normaliseVR("NONE"))
	assert.Equal(t, "", normaliseVR(""))
}

// ensures that concurrent lookups are safe
func TestConcurrentLookup(t *testing.T) {
	t.Parallel()
	d := New()
	wg := sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := uint32(0x00080000); id < 0x00080100; id++ {
				d.Name(id)
			}
		}()
	}
	wg.Wait()
}
