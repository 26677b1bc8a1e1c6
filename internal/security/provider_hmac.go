package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/alovak/cardledger/internal/cardgen"
)

// HMACProvider derives verification codes with HMAC-SHA256 over the PAN tail,
// the card index and the rotation instant. Codes are one-way: the PAN cannot
// be recovered from a code, and two rotations never repeat.
type HMACProvider struct {
	key []byte
}

func NewHMACProvider(key []byte) (*HMACProvider, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("verification key is required")
	}
	return &HMACProvider{key: key}, nil
}

func (p *HMACProvider) RotationCode(pan string, index uint64, at time.Time, width int) (string, error) {
	pan = cardgen.NormalizePAN(pan)
	if pan == "" || !cardgen.IsDigits(pan) {
		return "", fmt.Errorf("pan must be digits only")
	}
	if width != 3 && width != 6 {
		width = 6
	}

	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], index)
	binary.BigEndian.PutUint64(buf[8:], uint64(at.UnixNano()))

	h := hmac.New(sha256.New, p.key)
	h.Write([]byte(cardgen.LastN(pan, 12)))
	h.Write([]byte("|verify-rotate|"))
	h.Write(buf[:])
	return truncatedDecimal(h.Sum(nil), width), nil
}

// truncatedDecimal reduces a MAC to width decimal digits, zero-padded.
func truncatedDecimal(sum []byte, width int) string {
	mod := uint64(1)
	for i := 0; i < width; i++ {
		mod *= 10
	}
	v := binary.BigEndian.Uint64(sum[:8]) % mod
	return fmt.Sprintf("%0*d", width, v)
}
