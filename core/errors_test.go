package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

// ensures that typed errors survive being wrapped with context
func TestTypedErrorsUnwrap(t *testing.T) {
	t.Parallel()
	err := errors.Wrapf(CorruptDicomError("No image data found"), "loading %s", "a.dcm")
	assert.EqualError(t, err, "loading a.dcm: No image data found")

	var corrupt *CorruptDicom
	assert.True(t, errors.As(err, &corrupt))
	var unsupported *UnsupportedDicom
	assert.False(t, errors.As(err, &unsupported))
}

func TestTypedErrorMessages(t *testing.T) {
	t.Parallel()
	assert.EqualError(t, NotADicomError(`Prefix "DICM" not found`), `Prefix "DICM" not found`)
	assert.EqualError(t, UnsupportedDicomError("Unsupported transfer syntax %s", "1.2.3"), "Unsupported transfer syntax 1.2.3")
	assert.EqualError(t, CorruptElementError("empty name"), "empty name")
	assert.EqualError(t, OutOfBoundsError("offset %d past %d", 10, 8), "offset 10 past 8")
	assert.EqualError(t, UnsupportedOperationError("writing dicom files is not yet supported"), "writing dicom files is not yet supported")
}
