package ledger

import "time"

// TokenTransferer moves value between the ledger and the outside world, one
// instance per asset. A false return or an error is an operation failure;
// it is never swallowed.
type TokenTransferer interface {
	TransferIn(from string, amount uint64) (bool, error)
	TransferOut(to string, amount uint64) (bool, error)
	Approve(spender string, amount uint64) (bool, error)
}

// PriceOracle quotes the native asset in USD. Price is signed so a broken
// feed can be detected: non-positive prices are rejected.
type PriceOracle interface {
	LatestPrice() (price int64, decimals uint8, err error)
}

// SwapRouter is the exact-input single-hop swap surface of a DEX.
type SwapRouter interface {
	ExactInputSingle(tokenIn, tokenOut string, feeTier uint32, recipient string, deadline time.Time, amountIn, minAmountOut uint64) (uint64, error)
}
