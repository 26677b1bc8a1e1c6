package models

import "time"

type EventType string

const (
	EventCardCreated         EventType = "card_created"
	EventDeposit             EventType = "deposit"
	EventBorrow              EventType = "borrow"
	EventTransferRequested   EventType = "transfer_requested"
	EventSettlementConfirmed EventType = "settlement_confirmed"
	EventSwapExecuted        EventType = "swap_executed"
	EventSpendExecuted       EventType = "spend_executed"
	EventLiquidated          EventType = "liquidated"
)

// Event is emitted exactly once per successful ledger operation, never on
// failure. Optional fields are populated per event type.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	CardIndex uint64    `json:"card_index"`
	Asset     string    `json:"asset,omitempty"`
	Amount    uint64    `json:"amount,omitempty"`
	AmountOut uint64    `json:"amount_out,omitempty"`
	PAN       string    `json:"pan,omitempty"`
	Merchant  string    `json:"merchant,omitempty"`
	Account   string    `json:"account,omitempty"`
	Success   bool      `json:"success,omitempty"`
	Balance   uint64    `json:"balance,omitempty"`
	DueAt     uint64    `json:"due_at,omitempty"`
	At        time.Time `json:"at"`
}
