package ledger

import (
	"fmt"
	"time"

	"github.com/alovak/cardledger/ledger/models"
)

// swapDeadline is how far in the future the router deadline is set.
const swapDeadline = time.Hour

// SwapNativeForToken converts part of the native balance into the secondary
// token through the swap router. Like withdrawals it hands control to an
// external system mid-operation, so it runs under the re-entrancy guard with
// the debit applied before the router call.
func (e *Engine) SwapNativeForToken(caller Caller, index, amountIn, minAmountOut uint64, feeTier uint32) error {
	if err := e.authorize(caller); err != nil {
		return err
	}
	if e.swap == nil {
		return fmt.Errorf("swap router: %w", ErrUnconfigured)
	}

	e.mu.Lock()
	if err := e.guard.enter(); err != nil {
		e.mu.Unlock()
		return err
	}
	card, err := e.cardAt(index)
	if err != nil {
		e.guard.exit()
		e.mu.Unlock()
		return err
	}
	if card.Balance < amountIn {
		e.guard.exit()
		e.mu.Unlock()
		return fmt.Errorf("swap %d exceeds balance %d: %w", amountIn, card.Balance, ErrInsufficientBalance)
	}
	card.Balance -= amountIn
	deadline := e.now().Add(swapDeadline)
	e.mu.Unlock()

	out, serr := e.swap.ExactInputSingle(e.cfg.NativeAsset, e.cfg.TokenAsset, feeTier, e.cfg.SelfAccount, deadline, amountIn, minAmountOut)

	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.guard.exit()
	if serr != nil {
		card.Balance += amountIn // roll the debit back, swap never happened
		return fmt.Errorf("swap: %v: %w", serr, ErrTransferFailed)
	}
	card.TokenBalance += out

	e.emit(models.Event{
		Type:      models.EventSwapExecuted,
		CardIndex: index,
		Asset:     e.cfg.TokenAsset,
		Amount:    amountIn,
		AmountOut: out,
	})
	return nil
}
