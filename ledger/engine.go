package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"github.com/alovak/cardledger/internal/cardgen"
	"github.com/alovak/cardledger/internal/security"
	"github.com/alovak/cardledger/ledger/models"
)

const (
	assetNative = "native"
	assetToken  = "token"
)

// Dependencies are the external collaborators the engine calls but does not
// implement. Nil collaborators fail the operations that need them with
// ErrUnconfigured; a nil Access denies every privileged call.
type Dependencies struct {
	Access AccessController
	Native TokenTransferer
	Token  TokenTransferer
	Oracle PriceOracle
	Swap   SwapRouter
	Sink   EventSink
	Codes  security.CodeProvider
	Now    func() time.Time
}

// Engine owns the append-only card store and every operation that mutates it.
// Records are addressed by the index assigned at creation and are never
// deleted; no external actor mutates record fields directly.
type Engine struct {
	mu    sync.Mutex
	cfg   *Config
	log   *slog.Logger
	cards []*models.Card
	gen   *cardgen.Generator
	guard reentryGuard

	access AccessController
	native TokenTransferer
	token  TokenTransferer
	oracle PriceOracle
	swap   SwapRouter
	sink   EventSink
	codes  security.CodeProvider
	now    func() time.Time
}

func NewEngine(logger *slog.Logger, cfg *Config, deps Dependencies) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Sink == nil {
		deps.Sink = NewSlogSink(logger)
	}
	return &Engine{
		cfg:    cfg,
		log:    logger.With(slog.String("component", "ledger")),
		cards:  make([]*models.Card, 0),
		gen:    cardgen.New(),
		access: deps.Access,
		native: deps.Native,
		token:  deps.Token,
		oracle: deps.Oracle,
		swap:   deps.Swap,
		sink:   deps.Sink,
		codes:  deps.Codes,
		now:    deps.Now,
	}
}

// Create appends a card record and returns its index.
func (e *Engine) Create(card models.Card) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createLocked(card), nil
}

// CreateBatch generates count cards from batch entropy and appends each.
// Count above the batch limit fails ErrOutOfRange.
func (e *Engine) CreateBatch(count int) ([]uint64, error) {
	if count < 1 || count > cardgen.BatchMax {
		return nil, fmt.Errorf("batch count must be 1..%d (got %d): %w", cardgen.BatchMax, count, ErrOutOfRange)
	}
	cards, err := e.gen.GenerateBatch(count)
	if err != nil {
		return nil, fmt.Errorf("generating batch: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	indexes := make([]uint64, 0, len(cards))
	for _, card := range cards {
		indexes = append(indexes, e.createLocked(card))
	}
	return indexes, nil
}

func (e *Engine) createLocked(card models.Card) uint64 {
	index := uint64(len(e.cards))
	e.cards = append(e.cards, &card)
	e.emit(models.Event{
		Type:      models.EventCardCreated,
		CardIndex: index,
		PAN:       card.PAN,
	})
	return index
}

// Card returns a copy of the record at index.
func (e *Engine) Card(index uint64) (models.Card, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	card, err := e.cardAt(index)
	if err != nil {
		return models.Card{}, err
	}
	return *card, nil
}

// Len returns the number of records in the store.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cards)
}

// DepositNative pulls amount from the payer and credits the native balance.
func (e *Engine) DepositNative(from string, index uint64, amount uint64) error {
	return e.deposit(from, index, amount, assetNative)
}

// DepositToken pulls amount from the payer and credits the token balance.
func (e *Engine) DepositToken(from string, index uint64, amount uint64) error {
	return e.deposit(from, index, amount, assetToken)
}

func (e *Engine) deposit(from string, index, amount uint64, asset string) error {
	if amount == 0 {
		return fmt.Errorf("deposit amount must be positive: %w", ErrOutOfRange)
	}
	mover := e.transferer(asset)
	if mover == nil {
		return fmt.Errorf("%s transferer: %w", asset, ErrUnconfigured)
	}
	e.mu.Lock()
	if _, err := e.cardAt(index); err != nil {
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	ok, err := mover.TransferIn(from, amount)
	if err != nil {
		return fmt.Errorf("transfer in: %v: %w", err, ErrTransferFailed)
	}
	if !ok {
		return fmt.Errorf("transfer in rejected: %w", ErrTransferFailed)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	card := e.cards[index]
	if asset == assetNative {
		card.Balance += amount
	} else {
		card.TokenBalance += amount
	}
	e.emit(models.Event{
		Type:      models.EventDeposit,
		CardIndex: index,
		Asset:     e.assetName(asset),
		Amount:    amount,
	})
	return nil
}

// WithdrawNative debits the native balance, then performs the external
// transfer. The debit-before-transfer order is mandatory: a re-entrant call
// triggered by the transfer observes the already-debited balance.
func (e *Engine) WithdrawNative(caller Caller, index, amount uint64, to string) error {
	return e.withdraw(caller, index, amount, to, assetNative)
}

// WithdrawToken is WithdrawNative for the token balance.
func (e *Engine) WithdrawToken(caller Caller, index, amount uint64, to string) error {
	return e.withdraw(caller, index, amount, to, assetToken)
}

func (e *Engine) withdraw(caller Caller, index, amount uint64, to, asset string) error {
	if err := e.authorize(caller); err != nil {
		return err
	}
	mover := e.transferer(asset)
	if mover == nil {
		return fmt.Errorf("%s transferer: %w", asset, ErrUnconfigured)
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
	bal := &card.Balance
	if asset == assetToken {
		bal = &card.TokenBalance
	}
	if *bal < amount {
		e.guard.exit()
		e.mu.Unlock()
		return fmt.Errorf("withdraw %d exceeds balance %d: %w", amount, *bal, ErrInsufficientBalance)
	}
	*bal -= amount
	e.mu.Unlock()

	ok, terr := mover.TransferOut(to, amount)

	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.guard.exit()
	if terr != nil || !ok {
		*bal += amount // roll the debit back, nothing left the ledger
		if terr != nil {
			return fmt.Errorf("transfer out: %v: %w", terr, ErrTransferFailed)
		}
		return fmt.Errorf("transfer out rejected: %w", ErrTransferFailed)
	}
	return nil
}

// Spend debits the native balance against a merchant purchase. No external
// transfer happens here; settlement runs through the escrow.
func (e *Engine) Spend(caller Caller, index, amount uint64, merchantTag string) error {
	if err := e.authorize(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	card, err := e.cardAt(index)
	if err != nil {
		return err
	}
	if card.Balance < amount {
		return fmt.Errorf("spend %d exceeds balance %d: %w", amount, card.Balance, ErrInsufficientBalance)
	}
	card.Balance -= amount
	e.emit(models.Event{
		Type:      models.EventSpendExecuted,
		CardIndex: index,
		Asset:     e.cfg.NativeAsset,
		Amount:    amount,
		Merchant:  merchantTag,
	})
	return nil
}

// RotateVerificationCode regenerates the card's 6-digit code from fresh
// entropy (rotation instant, index, domain tag) via the code provider.
func (e *Engine) RotateVerificationCode(caller Caller, index uint64) (string, error) {
	if err := e.authorize(caller); err != nil {
		return "", err
	}
	if e.codes == nil {
		return "", fmt.Errorf("code provider: %w", ErrUnconfigured)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	card, err := e.cardAt(index)
	if err != nil {
		return "", err
	}
	code, err := e.codes.RotationCode(card.PAN, index, e.now(), 6)
	if err != nil {
		return "", fmt.Errorf("rotating verification code: %w", err)
	}
	card.VerificationCode = code
	return code, nil
}

func (e *Engine) authorize(caller Caller) error {
	if e.access == nil || !e.access.Allow(caller, CapOperator) {
		return fmt.Errorf("caller %q lacks %s capability: %w", caller, CapOperator, ErrUnauthorized)
	}
	return nil
}

// cardAt resolves an index; callers hold e.mu.
func (e *Engine) cardAt(index uint64) (*models.Card, error) {
	if index >= uint64(len(e.cards)) {
		return nil, fmt.Errorf("card index %d of %d: %w", index, len(e.cards), ErrOutOfRange)
	}
	return e.cards[index], nil
}

func (e *Engine) transferer(asset string) TokenTransferer {
	if asset == assetToken {
		return e.token
	}
	return e.native
}

func (e *Engine) assetName(asset string) string {
	if asset == assetToken {
		return e.cfg.TokenAsset
	}
	return e.cfg.NativeAsset
}

func (e *Engine) emit(ev models.Event) {
	ev.ID = uuid.New().String()
	ev.At = e.now()
	e.sink.Emit(ev)
}
