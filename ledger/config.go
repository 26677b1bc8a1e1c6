package ledger

// Config is a configuration for the ledger application
type Config struct {
	HTTPAddr string
	// NativeAsset and TokenAsset name the two balances a card carries; they
	// are also the swap route endpoints.
	NativeAsset string
	TokenAsset  string
	// SelfAccount is the recipient of swap outputs.
	SelfAccount string
	// BorrowTermDays is the repay window recorded on each borrow.
	BorrowTermDays int
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:       "localhost:9090",
		NativeAsset:    "ETH",
		TokenAsset:     "USDC",
		SelfAccount:    "cardledger-treasury",
		BorrowTermDays: 30,
	}
}
