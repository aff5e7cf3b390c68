package core

import "fmt"

// NotADicom is an error representing that the input is not recognised as a valid dicom
type NotADicom struct {
	error
}

// NotADicomError raises a `NotADicom` error
func NotADicomError(format string, a ...interface{}) *NotADicom {
	return &NotADicom{fmt.Errorf(format, a...)}
}

// UnsupportedDicom is an error representing that the input uses a feature which is not supported,
// such as an unknown transfer syntax or pixel layout.
type UnsupportedDicom struct {
	error
}

// UnsupportedDicomError raises an `UnsupportedDicom` error
func UnsupportedDicomError(format string, a ...interface{}) *UnsupportedDicom {
	return &UnsupportedDicom{fmt.Errorf(format, a...)}
}

// CorruptDicom is an error representing that a dicom is corrupt
type CorruptDicom struct {
	error
}

// CorruptDicomError raises a `CorruptDicom` error
func CorruptDicomError(format string, a ...interface{}) *CorruptDicom {
	return &CorruptDicom{fmt.Errorf(format, a...)}
}

// CorruptElement is an error representing that a single element (or private blob) is corrupt
type CorruptElement struct {
	error
}

// CorruptElementError raises a `CorruptElement` error
func CorruptElementError(format string, a ...interface{}) *CorruptElement {
	return &CorruptElement{fmt.Errorf(format, a...)}
}

// OutOfBounds is an error representing an access past the end of a buffer
type OutOfBounds struct {
	error
}

// OutOfBoundsError raises an `OutOfBounds` error
func OutOfBoundsError(format string, a ...interface{}) *OutOfBounds {
	return &OutOfBounds{fmt.Errorf(format, a...)}
}

// UnsupportedOperation is an error representing a request the format cannot serve at all
type UnsupportedOperation struct {
	error
}

// UnsupportedOperationError raises an `UnsupportedOperation` error
func UnsupportedOperationError(format string, a ...interface{}) *UnsupportedOperation {
	return &UnsupportedOperation{fmt.Errorf(format, a...)}
}
