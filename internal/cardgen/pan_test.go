package cardgen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLuhnCheckDigit(t *testing.T) {
	// Classic Luhn vector: 7992739871 -> check digit 3.
	require.Equal(t, "3", luhnCheckDigit("7992739871"))
	// 453201511283036 -> 6 (well-known Visa test PAN 4532015112830366).
	require.Equal(t, "6", luhnCheckDigit("453201511283036"))
}

func TestValidatePAN(t *testing.T) {
	require.NoError(t, ValidatePAN("4532015112830366"))
	require.Error(t, ValidatePAN("4532015112830367"), "wrong check digit")
	require.Error(t, ValidatePAN(""))
	require.Error(t, ValidatePAN("411111111111111a"))
	require.Error(t, ValidatePAN("411111111111"), "too short")
}

func TestMaskPAN(t *testing.T) {
	require.Equal(t, "453201******0366", MaskPAN("4532015112830366"))
	require.Equal(t, "453201******0366", MaskPAN("4532 0151 1283 0366"))
	require.Equal(t, "****1234", MaskPAN("56781234"))
	require.Equal(t, "****", MaskPAN("9871"))
	require.Equal(t, "", MaskPAN(""))
}

func TestNormalizePAN(t *testing.T) {
	require.Equal(t, "4532015112830366", NormalizePAN(" 4532-0151 1283\t0366 "))
}

func TestHashPANHMAC(t *testing.T) {
	key := []byte("test-pepper")
	a := HashPANHMAC("4532015112830366", key)
	b := HashPANHMAC("4532015112830366", key)
	require.Equal(t, a, b)
	require.Len(t, a, 32)
	require.NotEqual(t, a, HashPANHMAC("4532015112830366", []byte("other")))
}
