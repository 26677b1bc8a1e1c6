package cardgen

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestGenerator() *Generator {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	at := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	return NewWithClock(id, func() time.Time { return at })
}

func TestGenerate_Deterministic(t *testing.T) {
	g := newTestGenerator()

	for _, seed := range []uint64{0, 1, 42, 1<<63 - 1} {
		a := g.Generate(seed, 7)
		b := g.Generate(seed, 7)
		require.Equal(t, a, b, "seed %d must reproduce byte-identical cards", seed)

		c := g.Generate(seed, 8)
		require.NotEqual(t, a.PAN, c.PAN, "different index must derive a different PAN")
	}
}

func TestGenerate_LuhnValidPAN(t *testing.T) {
	g := newTestGenerator()

	for seed := uint64(0); seed < 200; seed++ {
		card := g.Generate(seed, seed)
		require.Len(t, card.PAN, panLen)
		require.NoError(t, ValidatePAN(card.PAN), "seed %d pan %s", seed, card.PAN)
	}
}

func TestGenerate_NetworkBySeedParity(t *testing.T) {
	g := newTestGenerator()

	even := g.Generate(2, 0)
	require.Equal(t, "VISA", even.Network)
	require.Equal(t, "US", even.Country)
	require.Equal(t, "Chase Bank", even.Issuer)
	require.Equal(t, "400000-499999", even.BINRange)
	require.Equal(t, byte('4'), even.PAN[0])

	odd := g.Generate(3, 0)
	require.Equal(t, "MASTERCARD", odd.Network)
	require.Equal(t, "Citibank", odd.Issuer)
	require.Equal(t, "510000-559999", odd.BINRange)
	require.Equal(t, "51", odd.PAN[:2])
}

func TestGenerate_CodeShapes(t *testing.T) {
	g := newTestGenerator()

	for seed := uint64(0); seed < 50; seed++ {
		card := g.Generate(seed, 0)
		require.Len(t, card.CVV, 3)
		require.True(t, IsDigits(card.CVV), "cvv %q", card.CVV)
		require.Len(t, card.VerificationCode, 6)
		require.True(t, IsDigits(card.VerificationCode), "code %q", card.VerificationCode)
	}
}

func TestGenerate_ExpiryWindow(t *testing.T) {
	g := newTestGenerator()

	for seed := uint64(0); seed < 100; seed++ {
		card := g.Generate(seed, 0)
		require.Regexp(t, `^(0[1-9]|1[0-2])/20(2[6-9]|30)$`, card.Expiry)
		require.NotZero(t, card.ExpiryTS)
	}
}

func TestGenerateBatch_Bounds(t *testing.T) {
	g := newTestGenerator()

	_, err := g.GenerateBatch(0)
	require.Error(t, err)

	_, err = g.GenerateBatch(BatchMax + 1)
	require.Error(t, err)

	cards, err := g.GenerateBatch(BatchMax)
	require.NoError(t, err)
	require.Len(t, cards, BatchMax)
	for _, card := range cards {
		require.NoError(t, ValidatePAN(card.PAN))
	}
}

func TestGenerateBatch_SeedsVaryPerRecord(t *testing.T) {
	g := newTestGenerator()

	cards, err := g.GenerateBatch(20)
	require.NoError(t, err)

	seen := map[string]struct{}{}
	for _, card := range cards {
		seen[card.PAN] = struct{}{}
	}
	require.Len(t, seen, 20, "batch records must not repeat PANs")
}
