package ledger

import "fmt"

// Failure kinds. Configuration failures (ErrUnconfigured, ErrInvalidPrice)
// mean "fix deployment"; the rest mean "fix request". Every operation is
// all-or-nothing: any of these aborts with no partial state mutation.
var (
	ErrUnauthorized        = fmt.Errorf("unauthorized")
	ErrOutOfRange          = fmt.Errorf("out of range")
	ErrInsufficientBalance = fmt.Errorf("insufficient balance")
	ErrInsufficientReserve = fmt.Errorf("insufficient reserve")
	ErrUnconfigured        = fmt.Errorf("not configured")
	ErrInvalidPrice        = fmt.Errorf("invalid price")
	ErrLeverageExceeded    = fmt.Errorf("leverage exceeded")
	ErrNoDebt              = fmt.Errorf("no debt")
	ErrTransferFailed      = fmt.Errorf("transfer failed")
	ErrReentrant           = fmt.Errorf("reentrant call")
)
