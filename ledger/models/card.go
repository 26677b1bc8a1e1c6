package models

// Card is a single ledger entry: synthetic payment-card identity fields plus
// the financial balances tracked against it. Identity fields are immutable
// once generated, except VerificationCode which may be rotated.
type Card struct {
	PAN              string `json:"pan"`
	Expiry           string `json:"expiry"` // MM/YYYY card face
	ExpiryTS         uint32 `json:"expiry_ts"`
	CVV              string `json:"-"` // Not serialized
	Network          string `json:"network"`
	Country          string `json:"country"`
	Issuer           string `json:"issuer"`
	BINRange         string `json:"bin_range"`
	Cardholder       string `json:"cardholder"`
	VerificationCode string `json:"-"` // Not serialized

	Balance      uint64 `json:"balance"`
	TokenBalance uint64 `json:"token_balance"`
	Reserved     uint64 `json:"reserved"`
	Debt         uint64 `json:"debt"`
	LastBorrowAt uint64 `json:"last_borrow_at"`
	RepayDueAt   uint64 `json:"repay_due_at"`
}
