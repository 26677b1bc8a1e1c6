package ledger

import (
	"fmt"

	"github.com/alovak/cardledger/ledger/models"
)

// Liquidate seizes min(balance, debt) from the card's collateral and clears
// the debt unconditionally; any shortfall is absorbed as a loss, never
// carried forward.
func (e *Engine) Liquidate(caller Caller, index uint64) error {
	if err := e.authorize(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	card, err := e.cardAt(index)
	if err != nil {
		return err
	}
	if card.Debt == 0 {
		return fmt.Errorf("card %d: %w", index, ErrNoDebt)
	}

	repaid := card.Debt
	if card.Balance < repaid {
		repaid = card.Balance
	}
	card.Balance -= repaid
	card.Debt = 0

	e.emit(models.Event{
		Type:      models.EventLiquidated,
		CardIndex: index,
		Amount:    repaid,
		Balance:   card.Balance,
	})
	return nil
}
