package ledger

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alovak/cardledger/ledger/models"
)

// recordingRouter captures the arguments the engine passes to the DEX.
type recordingRouter struct {
	tokenIn, tokenOut string
	feeTier           uint32
	recipient         string
	deadline          time.Time
	out               uint64
	err               error
	callback          func()
}

func (r *recordingRouter) ExactInputSingle(tokenIn, tokenOut string, feeTier uint32, recipient string, deadline time.Time, amountIn, minAmountOut uint64) (uint64, error) {
	r.tokenIn, r.tokenOut, r.feeTier, r.recipient, r.deadline = tokenIn, tokenOut, feeTier, recipient, deadline
	if r.callback != nil {
		r.callback()
	}
	if r.err != nil {
		return 0, r.err
	}
	return r.out, nil
}

func TestSwapNativeForToken(t *testing.T) {
	t.Run("debits native, credits token with router output", func(t *testing.T) {
		router := &recordingRouter{out: 180}
		f := newTestFixture(t, func(d *Dependencies) { d.Swap = router })
		index := f.newFundedCard(t, 1_000)

		require.NoError(t, f.engine.SwapNativeForToken(operator, index, 100, 150, 3000))

		card, _ := f.engine.Card(index)
		require.Equal(t, uint64(900), card.Balance)
		require.Equal(t, uint64(180), card.TokenBalance)
	})

	t.Run("router receives route, recipient and one-hour deadline", func(t *testing.T) {
		at := time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC)
		router := &recordingRouter{out: 1}
		f := newTestFixture(t, func(d *Dependencies) { d.Swap = router })
		index := f.newFundedCard(t, 10)

		require.NoError(t, f.engine.SwapNativeForToken(operator, index, 10, 0, 500))

		require.Equal(t, "ETH", router.tokenIn)
		require.Equal(t, "USDC", router.tokenOut)
		require.Equal(t, uint32(500), router.feeTier)
		require.Equal(t, "cardledger-treasury", router.recipient)
		require.Equal(t, at.Add(time.Hour), router.deadline)
	})

	t.Run("router failure restores the balance", func(t *testing.T) {
		router := &recordingRouter{err: fmt.Errorf("slippage")}
		f := newTestFixture(t, func(d *Dependencies) { d.Swap = router })
		index := f.newFundedCard(t, 1_000)

		err := f.engine.SwapNativeForToken(operator, index, 100, 150, 3000)
		require.ErrorIs(t, err, ErrTransferFailed)

		card, _ := f.engine.Card(index)
		require.Equal(t, uint64(1_000), card.Balance)
		require.Zero(t, card.TokenBalance)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		f := newTestFixture(t, nil)
		index := f.newFundedCard(t, 50)
		err := f.engine.SwapNativeForToken(operator, index, 51, 0, 3000)
		require.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("unconfigured router", func(t *testing.T) {
		f := newTestFixture(t, func(d *Dependencies) { d.Swap = nil })
		index := f.newFundedCard(t, 50)
		err := f.engine.SwapNativeForToken(operator, index, 10, 0, 3000)
		require.ErrorIs(t, err, ErrUnconfigured)
	})

	t.Run("reentrant call from the router rejected", func(t *testing.T) {
		router := &recordingRouter{out: 1}
		f := newTestFixture(t, func(d *Dependencies) { d.Swap = router })
		index := f.newFundedCard(t, 100)

		var inner error
		router.callback = func() {
			inner = f.engine.SwapNativeForToken(operator, index, 1, 0, 3000)
		}

		require.NoError(t, f.engine.SwapNativeForToken(operator, index, 10, 0, 3000))
		require.ErrorIs(t, inner, ErrReentrant)
	})

	t.Run("emits swap event", func(t *testing.T) {
		router := &recordingRouter{out: 42}
		f := newTestFixture(t, func(d *Dependencies) { d.Swap = router })
		index := f.newFundedCard(t, 100)

		require.NoError(t, f.engine.SwapNativeForToken(operator, index, 20, 0, 3000))

		events := f.journal.Events(index)
		var swap *models.Event
		for i := range events {
			if events[i].Type == models.EventSwapExecuted {
				swap = &events[i]
			}
		}
		require.NotNil(t, swap)
		require.Equal(t, uint64(20), swap.Amount)
		require.Equal(t, uint64(42), swap.AmountOut)
	})
}
