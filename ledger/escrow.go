package ledger

import (
	"fmt"

	"github.com/alovak/cardledger/ledger/models"
)

// RequestTransfer is phase one of the merchant settlement protocol: it moves
// amount from the spendable balance into reserve and announces the pending
// payout.
func (e *Engine) RequestTransfer(caller Caller, index, amount uint64, merchantID, payoutAccount string) error {
	if err := e.authorize(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	card, err := e.cardAt(index)
	if err != nil {
		return err
	}
	if card.Balance < amount {
		return fmt.Errorf("reserve %d exceeds balance %d: %w", amount, card.Balance, ErrInsufficientBalance)
	}
	card.Balance -= amount
	card.Reserved += amount

	e.emit(models.Event{
		Type:      models.EventTransferRequested,
		CardIndex: index,
		Amount:    amount,
		PAN:       card.PAN,
		Merchant:  merchantID,
		Account:   payoutAccount,
	})
	return nil
}

// ConfirmSettlement is phase two. Reserved funds always leave the reserve;
// on failure they return to the spendable balance, on success they are gone.
// There is no partial settlement.
func (e *Engine) ConfirmSettlement(caller Caller, index, amount uint64, merchantAddress string, success bool) error {
	if err := e.authorize(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	card, err := e.cardAt(index)
	if err != nil {
		return err
	}
	if card.Reserved < amount {
		return fmt.Errorf("settle %d exceeds reserved %d: %w", amount, card.Reserved, ErrInsufficientReserve)
	}
	card.Reserved -= amount
	if !success {
		card.Balance += amount
	}

	e.emit(models.Event{
		Type:      models.EventSettlementConfirmed,
		CardIndex: index,
		Amount:    amount,
		Merchant:  merchantAddress,
		Success:   success,
	})
	return nil
}
