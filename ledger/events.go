package ledger

import (
	"golang.org/x/exp/slog"

	"github.com/alovak/cardledger/internal/cardgen"
	"github.com/alovak/cardledger/ledger/models"
)

// EventSink observes ledger events. The engine emits exactly one event per
// successful operation and none on failure.
type EventSink interface {
	Emit(ev models.Event)
}

// MultiSink fans an event out to several sinks.
type MultiSink []EventSink

func (m MultiSink) Emit(ev models.Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}

// slogSink logs events. PANs are masked before logging; the raw value stays
// inside the event for sinks that store it hashed.
type slogSink struct {
	log *slog.Logger
}

func NewSlogSink(log *slog.Logger) EventSink {
	return slogSink{log: log}
}

func (s slogSink) Emit(ev models.Event) {
	attrs := []any{
		slog.String("event_id", ev.ID),
		slog.String("type", string(ev.Type)),
		slog.Uint64("card_index", ev.CardIndex),
	}
	if ev.Asset != "" {
		attrs = append(attrs, slog.String("asset", ev.Asset))
	}
	if ev.Amount != 0 {
		attrs = append(attrs, slog.Uint64("amount", ev.Amount))
	}
	if ev.AmountOut != 0 {
		attrs = append(attrs, slog.Uint64("amount_out", ev.AmountOut))
	}
	if ev.PAN != "" {
		attrs = append(attrs, slog.String("pan", cardgen.MaskPAN(ev.PAN)))
	}
	if ev.Merchant != "" {
		attrs = append(attrs, slog.String("merchant", ev.Merchant))
	}
	if ev.Account != "" {
		attrs = append(attrs, slog.String("account", ev.Account))
	}
	if ev.Type == models.EventSettlementConfirmed {
		attrs = append(attrs, slog.Bool("success", ev.Success))
	}
	s.log.Info("ledger event", attrs...)
}
