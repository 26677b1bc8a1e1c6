package ledger

import (
	"fmt"
	"math/big"
	"time"

	"github.com/alovak/cardledger/ledger/models"
)

// Leverage cap constants. The literal arithmetic gives a 1:1 nominal cap,
// not the fractional collateralization the names suggest; kept as-is, see
// DESIGN.md.
const (
	MaxLeverage   = 100_000
	LeverageScale = 100_000
)

// USDDecimals is the fixed-point convention for borrow requests.
const USDDecimals = 18

// Borrow sizes a loan against the card's native balance at the oracle price
// and records the obligation. usdAmount is 18-decimal fixed point. Borrowing
// never moves funds; realizing the obligation is liquidation's job.
func (e *Engine) Borrow(caller Caller, index uint64, usdAmount uint64) error {
	if err := e.authorize(caller); err != nil {
		return err
	}
	if e.oracle == nil {
		return fmt.Errorf("price oracle: %w", ErrUnconfigured)
	}
	price, decimals, err := e.oracle.LatestPrice()
	if err != nil {
		return fmt.Errorf("reading oracle: %v: %w", err, ErrInvalidPrice)
	}
	if price <= 0 {
		return fmt.Errorf("oracle price %d: %w", price, ErrInvalidPrice)
	}

	// borrowed = usdAmount * 10^decimals / price
	borrowedBig := new(big.Int).SetUint64(usdAmount)
	borrowedBig.Mul(borrowedBig, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	borrowedBig.Div(borrowedBig, big.NewInt(price))
	if !borrowedBig.IsUint64() {
		return fmt.Errorf("borrow size overflows: %w", ErrLeverageExceeded)
	}
	borrowed := borrowedBig.Uint64()

	e.mu.Lock()
	defer e.mu.Unlock()
	card, err := e.cardAt(index)
	if err != nil {
		return err
	}

	// balance * MAX_LEVERAGE / LEVERAGE_SCALE >= borrowed
	limit := new(big.Int).SetUint64(card.Balance)
	limit.Mul(limit, big.NewInt(MaxLeverage))
	limit.Div(limit, big.NewInt(LeverageScale))
	if limit.Cmp(new(big.Int).SetUint64(borrowed)) < 0 {
		return fmt.Errorf("borrow %d against balance %d: %w", borrowed, card.Balance, ErrLeverageExceeded)
	}

	now := e.now()
	card.Debt += borrowed
	card.LastBorrowAt = uint64(now.Unix())
	card.RepayDueAt = uint64(now.Add(time.Duration(e.cfg.BorrowTermDays) * 24 * time.Hour).Unix())

	e.emit(models.Event{
		Type:      models.EventBorrow,
		CardIndex: index,
		Asset:     e.cfg.NativeAsset,
		Amount:    borrowed,
		DueAt:     card.RepayDueAt,
	})
	return nil
}
