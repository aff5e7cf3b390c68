package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// UIDRoot is the prefix of UIDs derived from a random 128 bit number (ISO/IEC 9834-8).
const UIDRoot = "2.25."

// Version equals the current version of the software.
// It is used in ImplementationVersionName (0002,0013) of files written by the encoder.
const Version = "0.1"

// ImplementationClassUID identifies files synthesised by this module.
const ImplementationClassUID = "2.25.302158771469384127520693371190874816391"

// NewRandInstanceUID generates a random instance UID below `UIDRoot`.
func NewRandInstanceUID() (string, error) {
	max := new(big.Int).Lsh(big.NewInt(1), 128)
	randval, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s", UIDRoot, randval.String()), nil
}
