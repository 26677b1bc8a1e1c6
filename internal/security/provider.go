package security

import "time"

// CodeProvider is the contract for deriving fresh card verification codes.
// The default implementation is HMAC-SHA256; an HSM-backed implementation is
// available behind the softhsm build tag.
type CodeProvider interface {
	// RotationCode derives a numeric verification code from the card's PAN,
	// its ledger index and the rotation instant. width is 3 or 6 (other
	// values fall back to 6).
	RotationCode(pan string, index uint64, at time.Time, width int) (string, error)
}

// Wipe zeroes key material after use.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
