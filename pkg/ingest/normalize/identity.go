package normalize

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// IDStrategy derives a record identity for reviews that arrive without one.
// The derivation must be deterministic so re-ingesting the same logical
// review maps to the same row.
type IDStrategy interface {
	DeriveID(bankID int64, text string) string
}

// ContentFingerprint is the default strategy: a 64-bit xxh3 hash of the
// review text, scoped by bank. Not collision-proof, but at review-corpus
// scale a 64-bit fingerprint is a practical identity.
type ContentFingerprint struct{}

// DeriveID returns "<bankID>-<hex16>" for the given review text.
func (ContentFingerprint) DeriveID(bankID int64, text string) string {
	sum := xxh3.HashString(text)
	return fmt.Sprintf("%d-%016x", bankID, sum)
}
