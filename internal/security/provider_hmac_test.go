package security

import (
	"testing"
	"time"

	"github.com/alovak/cardledger/internal/cardgen"
	"github.com/stretchr/testify/require"
)

func TestNewHMACProvider_RequiresKey(t *testing.T) {
	_, err := NewHMACProvider(nil)
	require.Error(t, err)
}

func TestRotationCode_Shape(t *testing.T) {
	p, err := NewHMACProvider([]byte("test-key"))
	require.NoError(t, err)

	at := time.Date(2026, time.June, 1, 10, 30, 0, 0, time.UTC)
	code, err := p.RotationCode("4532015112830366", 3, at, 6)
	require.NoError(t, err)
	require.Len(t, code, 6)
	require.True(t, cardgen.IsDigits(code))

	// Width falls back to 6 for unsupported values.
	code, err = p.RotationCode("4532015112830366", 3, at, 5)
	require.NoError(t, err)
	require.Len(t, code, 6)

	code, err = p.RotationCode("4532015112830366", 3, at, 3)
	require.NoError(t, err)
	require.Len(t, code, 3)
}

func TestRotationCode_VariesWithInputs(t *testing.T) {
	p, err := NewHMACProvider([]byte("test-key"))
	require.NoError(t, err)

	at := time.Date(2026, time.June, 1, 10, 30, 0, 0, time.UTC)
	base, err := p.RotationCode("4532015112830366", 3, at, 6)
	require.NoError(t, err)

	same, err := p.RotationCode("4532015112830366", 3, at, 6)
	require.NoError(t, err)
	require.Equal(t, base, same, "same inputs derive the same code")

	later, err := p.RotationCode("4532015112830366", 3, at.Add(time.Nanosecond), 6)
	require.NoError(t, err)
	require.NotEqual(t, base, later, "a later rotation instant derives a new code")

	otherIdx, err := p.RotationCode("4532015112830366", 4, at, 6)
	require.NoError(t, err)
	require.NotEqual(t, base, otherIdx)
}

func TestRotationCode_RejectsBadPAN(t *testing.T) {
	p, err := NewHMACProvider([]byte("test-key"))
	require.NoError(t, err)

	_, err = p.RotationCode("", 0, time.Now(), 6)
	require.Error(t, err)
	_, err = p.RotationCode("4111x", 0, time.Now(), 6)
	require.Error(t, err)
}
