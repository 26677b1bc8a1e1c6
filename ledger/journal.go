package ledger

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"golang.org/x/exp/slog"

	"github.com/alovak/cardledger/internal/cardgen"
	"github.com/alovak/cardledger/ledger/models"
)

// Journal persists ledger events. The memory backend serves tests; the
// Postgres backend is the runtime default. PANs are stored as HMAC hashes,
// never raw.
type Journal struct {
	mu     sync.RWMutex
	events []models.Event

	log     *slog.Logger
	db      *sql.DB
	hashKey []byte
}

func NewJournal(log *slog.Logger) *Journal {
	return &Journal{
		events: make([]models.Event, 0),
		log:    log,
	}
}

// NewPGJournal constructs a db-backed journal.
func NewPGJournal(log *slog.Logger, db *sql.DB, hashKey []byte) *Journal {
	return &Journal{log: log, db: db, hashKey: hashKey}
}

// Emit satisfies EventSink. Journal failures are logged, not propagated: the
// ledger mutation already committed and events are observations, not state.
func (j *Journal) Emit(ev models.Event) {
	if j.db == nil {
		j.mu.Lock()
		defer j.mu.Unlock()
		j.events = append(j.events, ev)
		return
	}

	panHash := ""
	if ev.PAN != "" {
		panHash = hex.EncodeToString(cardgen.HashPANHMAC(cardgen.NormalizePAN(ev.PAN), j.hashKey))
	}
	_, err := j.db.ExecContext(context.Background(), `
        INSERT INTO ledger.events(event_id, event_type, card_index, asset, amount, amount_out, pan_hash, merchant, account, success, balance, due_at, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    `, ev.ID, string(ev.Type), ev.CardIndex, ev.Asset, ev.Amount, ev.AmountOut, panHash, ev.Merchant, ev.Account, ev.Success, ev.Balance, ev.DueAt, ev.At)
	if isUniqueViolation(err) {
		// same event delivered twice, first write wins
		return
	}
	if err != nil {
		j.log.Error("journal insert", "err", err, slog.String("event_id", ev.ID))
	}
}

// Events returns recorded events for a card, memory backend only.
func (j *Journal) Events(cardIndex uint64) []models.Event {
	if j.db != nil {
		return nil
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	var out []models.Event
	for _, ev := range j.events {
		if ev.CardIndex == cardIndex {
			out = append(out, ev)
		}
	}
	return out
}

// EventsByType queries the db backend for events of one type.
func (j *Journal) EventsByType(ctx context.Context, typ models.EventType, limit int) ([]models.Event, error) {
	if j.db == nil {
		j.mu.RLock()
		defer j.mu.RUnlock()
		var out []models.Event
		for _, ev := range j.events {
			if ev.Type == typ {
				out = append(out, ev)
			}
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return out, nil
	}
	rows, err := j.db.QueryContext(ctx, `
        SELECT event_id, event_type, card_index, asset, amount, amount_out, merchant, account, success, balance, due_at, created_at
          FROM ledger.events WHERE event_type=$1 ORDER BY created_at DESC LIMIT $2
    `, string(typ), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Event
	for rows.Next() {
		var ev models.Event
		var typStr string
		if err := rows.Scan(&ev.ID, &typStr, &ev.CardIndex, &ev.Asset, &ev.Amount, &ev.AmountOut, &ev.Merchant, &ev.Account, &ev.Success, &ev.Balance, &ev.DueAt, &ev.At); err != nil {
			return nil, err
		}
		ev.Type = models.EventType(typStr)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Ping returns DB readiness
func (j *Journal) Ping(ctx context.Context) error {
	if j.db == nil {
		return nil
	}
	return j.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == "23505" {
		return true
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		return true
	}
	return false
}
