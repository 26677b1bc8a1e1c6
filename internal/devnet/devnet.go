// Package devnet provides in-process stand-ins for the ledger's external
// collaborators: a token pool, a fixed price oracle and a constant-rate swap
// router. Dev and test wiring only; production deployments plug in real
// adapters.
package devnet

import (
	"fmt"
	"sync"
	"time"
)

// TokenPool is a TokenTransferer that tracks a single external balance per
// account. Transfers into the ledger debit the account; transfers out credit
// it. Accounts start empty; Fund seeds them.
type TokenPool struct {
	mu       sync.Mutex
	balances map[string]uint64
}

func NewTokenPool() *TokenPool {
	return &TokenPool{balances: make(map[string]uint64)}
}

func (p *TokenPool) Fund(account string, amount uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[account] += amount
}

func (p *TokenPool) Balance(account string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[account]
}

func (p *TokenPool) TransferIn(from string, amount uint64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balances[from] < amount {
		return false, nil
	}
	p.balances[from] -= amount
	return true, nil
}

func (p *TokenPool) TransferOut(to string, amount uint64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[to] += amount
	return true, nil
}

func (p *TokenPool) Approve(spender string, amount uint64) (bool, error) {
	return true, nil
}

// FixedOracle quotes one constant price.
type FixedOracle struct {
	Price    int64
	Decimals uint8
}

func (o FixedOracle) LatestPrice() (int64, uint8, error) {
	return o.Price, o.Decimals, nil
}

// ConstantRateRouter swaps at a fixed numerator/denominator rate.
type ConstantRateRouter struct {
	RateNum uint64
	RateDen uint64
	now     func() time.Time
}

func NewConstantRateRouter(num, den uint64) *ConstantRateRouter {
	return &ConstantRateRouter{RateNum: num, RateDen: den, now: time.Now}
}

func (r *ConstantRateRouter) ExactInputSingle(tokenIn, tokenOut string, feeTier uint32, recipient string, deadline time.Time, amountIn, minAmountOut uint64) (uint64, error) {
	if r.RateDen == 0 {
		return 0, fmt.Errorf("rate denominator is zero")
	}
	if !deadline.IsZero() && r.now().After(deadline) {
		return 0, fmt.Errorf("swap deadline passed")
	}
	out := amountIn * r.RateNum / r.RateDen
	if out < minAmountOut {
		return 0, fmt.Errorf("amount out %d below minimum %d", out, minAmountOut)
	}
	return out, nil
}
