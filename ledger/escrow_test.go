package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alovak/cardledger/ledger/models"
)

func TestRequestTransfer(t *testing.T) {
	f := newTestFixture(t, nil)
	index := f.newFundedCard(t, 1_000)

	require.NoError(t, f.engine.RequestTransfer(operator, index, 400, "merchant-7", "acct-merchant-7"))

	card, _ := f.engine.Card(index)
	require.Equal(t, uint64(600), card.Balance)
	require.Equal(t, uint64(400), card.Reserved)

	t.Run("exceeding balance fails", func(t *testing.T) {
		err := f.engine.RequestTransfer(operator, index, 601, "merchant-7", "acct")
		require.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("unauthorized", func(t *testing.T) {
		err := f.engine.RequestTransfer(stranger, index, 1, "merchant-7", "acct")
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("event carries pan, merchant and destination", func(t *testing.T) {
		events := f.journal.Events(index)
		var req *models.Event
		for i := range events {
			if events[i].Type == models.EventTransferRequested {
				req = &events[i]
			}
		}
		require.NotNil(t, req)
		require.NotEmpty(t, req.PAN)
		require.Equal(t, "merchant-7", req.Merchant)
		require.Equal(t, "acct-merchant-7", req.Account)
		require.False(t, req.At.IsZero())
	})
}

func TestConfirmSettlement(t *testing.T) {
	t.Run("refund restores the pre-request balance", func(t *testing.T) {
		f := newTestFixture(t, nil)
		index := f.newFundedCard(t, 1_000)

		require.NoError(t, f.engine.RequestTransfer(operator, index, 400, "m", "acct"))
		require.NoError(t, f.engine.ConfirmSettlement(operator, index, 400, "m", false))

		card, _ := f.engine.Card(index)
		require.Equal(t, uint64(1_000), card.Balance)
		require.Zero(t, card.Reserved)
	})

	t.Run("settle leaves reserved reduced and balance unaffected", func(t *testing.T) {
		f := newTestFixture(t, nil)
		index := f.newFundedCard(t, 1_000)

		require.NoError(t, f.engine.RequestTransfer(operator, index, 400, "m", "acct"))
		require.NoError(t, f.engine.ConfirmSettlement(operator, index, 400, "m", true))

		card, _ := f.engine.Card(index)
		require.Equal(t, uint64(600), card.Balance)
		require.Zero(t, card.Reserved)
	})

	t.Run("exceeding reserve fails", func(t *testing.T) {
		f := newTestFixture(t, nil)
		index := f.newFundedCard(t, 1_000)

		require.NoError(t, f.engine.RequestTransfer(operator, index, 400, "m", "acct"))
		err := f.engine.ConfirmSettlement(operator, index, 401, "m", true)
		require.ErrorIs(t, err, ErrInsufficientReserve)

		card, _ := f.engine.Card(index)
		require.Equal(t, uint64(400), card.Reserved, "failed confirm mutates nothing")
	})

	t.Run("partial confirms are allowed per request, not per settlement", func(t *testing.T) {
		// Two requests can confirm independently; a single confirm always
		// settles or refunds its full amount.
		f := newTestFixture(t, nil)
		index := f.newFundedCard(t, 1_000)

		require.NoError(t, f.engine.RequestTransfer(operator, index, 300, "m1", "a1"))
		require.NoError(t, f.engine.RequestTransfer(operator, index, 200, "m2", "a2"))
		require.NoError(t, f.engine.ConfirmSettlement(operator, index, 300, "m1", true))
		require.NoError(t, f.engine.ConfirmSettlement(operator, index, 200, "m2", false))

		card, _ := f.engine.Card(index)
		require.Equal(t, uint64(700), card.Balance)
		require.Zero(t, card.Reserved)
	})

	t.Run("confirmation event records the outcome", func(t *testing.T) {
		f := newTestFixture(t, nil)
		index := f.newFundedCard(t, 1_000)

		require.NoError(t, f.engine.RequestTransfer(operator, index, 100, "m", "acct"))
		require.NoError(t, f.engine.ConfirmSettlement(operator, index, 100, "0xmerchant", false))

		events := f.journal.Events(index)
		var conf *models.Event
		for i := range events {
			if events[i].Type == models.EventSettlementConfirmed {
				conf = &events[i]
			}
		}
		require.NotNil(t, conf)
		require.Equal(t, "0xmerchant", conf.Merchant)
		require.False(t, conf.Success)
		require.Equal(t, uint64(100), conf.Amount)
	})
}
