package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/alovak/cardledger/internal/cardgen"
	"github.com/alovak/cardledger/ledger/models"
)

// API is the HTTP surface of the ledger engine. The caller identity comes
// from the X-Caller header; authorization itself happens inside the engine.
type API struct {
	engine *Engine
}

func NewAPI(engine *Engine) *API {
	return &API{engine: engine}
}

func (a *API) AppendRoutes(r chi.Router) {
	r.Route("/cards", func(r chi.Router) {
		r.Post("/", a.createBatch)
		r.Route("/{index}", func(r chi.Router) {
			r.Get("/", a.getCard)
			r.Post("/deposits", a.deposit)
			r.Post("/withdrawals", a.withdraw)
			r.Post("/spend", a.spend)
			r.Post("/verification-code", a.rotateCode)
			r.Post("/borrow", a.borrow)
			r.Post("/transfers", a.requestTransfer)
			r.Post("/transfers/confirm", a.confirmSettlement)
			r.Post("/swaps", a.swap)
			r.Post("/liquidations", a.liquidate)
		})
	})
}

type cardResponse struct {
	Index        uint64 `json:"index"`
	PAN          string `json:"pan"` // masked
	Expiry       string `json:"expiry"`
	Network      string `json:"network"`
	Country      string `json:"country"`
	Issuer       string `json:"issuer"`
	BINRange     string `json:"bin_range"`
	Cardholder   string `json:"cardholder"`
	Balance      uint64 `json:"balance"`
	TokenBalance uint64 `json:"token_balance"`
	Reserved     uint64 `json:"reserved"`
	Debt         uint64 `json:"debt"`
	LastBorrowAt uint64 `json:"last_borrow_at"`
	RepayDueAt   uint64 `json:"repay_due_at"`
}

func toCardResponse(index uint64, card models.Card) cardResponse {
	return cardResponse{
		Index:        index,
		PAN:          cardgen.MaskPAN(card.PAN),
		Expiry:       card.Expiry,
		Network:      card.Network,
		Country:      card.Country,
		Issuer:       card.Issuer,
		BINRange:     card.BINRange,
		Cardholder:   card.Cardholder,
		Balance:      card.Balance,
		TokenBalance: card.TokenBalance,
		Reserved:     card.Reserved,
		Debt:         card.Debt,
		LastBorrowAt: card.LastBorrowAt,
		RepayDueAt:   card.RepayDueAt,
	}
}

func (a *API) createBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	indexes, err := a.engine.CreateBatch(body.Count)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(struct {
		Indexes []uint64 `json:"indexes"`
	}{indexes})
}

func (a *API) getCard(w http.ResponseWriter, r *http.Request) {
	index, ok := a.cardIndex(w, r)
	if !ok {
		return
	}
	card, err := a.engine.Card(index)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCardResponse(index, card))
}

func (a *API) deposit(w http.ResponseWriter, r *http.Request) {
	index, ok := a.cardIndex(w, r)
	if !ok {
		return
	}
	var body struct {
		Asset  string `json:"asset"`
		Amount uint64 `json:"amount"`
		From   string `json:"from"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var err error
	switch body.Asset {
	case "", "native":
		err = a.engine.DepositNative(body.From, index, body.Amount)
	case "token":
		err = a.engine.DepositToken(body.From, index, body.Amount)
	default:
		http.Error(w, "asset must be native or token", http.StatusBadRequest)
		return
	}
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) withdraw(w http.ResponseWriter, r *http.Request) {
	index, ok := a.cardIndex(w, r)
	if !ok {
		return
	}
	var body struct {
		Asset  string `json:"asset"`
		Amount uint64 `json:"amount"`
		To     string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var err error
	switch body.Asset {
	case "", "native":
		err = a.engine.WithdrawNative(callerFrom(r), index, body.Amount, body.To)
	case "token":
		err = a.engine.WithdrawToken(callerFrom(r), index, body.Amount, body.To)
	default:
		http.Error(w, "asset must be native or token", http.StatusBadRequest)
		return
	}
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) spend(w http.ResponseWriter, r *http.Request) {
	index, ok := a.cardIndex(w, r)
	if !ok {
		return
	}
	var body struct {
		Amount   uint64 `json:"amount"`
		Merchant string `json:"merchant"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := a.engine.Spend(callerFrom(r), index, body.Amount, body.Merchant); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) rotateCode(w http.ResponseWriter, r *http.Request) {
	index, ok := a.cardIndex(w, r)
	if !ok {
		return
	}
	code, err := a.engine.RotateVerificationCode(callerFrom(r), index)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		VerificationCode string `json:"verification_code"`
	}{code})
}

func (a *API) borrow(w http.ResponseWriter, r *http.Request) {
	index, ok := a.cardIndex(w, r)
	if !ok {
		return
	}
	var body struct {
		USDAmount string `json:"usd_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	usd, err := parseUSDAmount(body.USDAmount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := a.engine.Borrow(callerFrom(r), index, usd); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) requestTransfer(w http.ResponseWriter, r *http.Request) {
	index, ok := a.cardIndex(w, r)
	if !ok {
		return
	}
	var body struct {
		Amount        uint64 `json:"amount"`
		MerchantID    string `json:"merchant_id"`
		PayoutAccount string `json:"payout_account"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := a.engine.RequestTransfer(callerFrom(r), index, body.Amount, body.MerchantID, body.PayoutAccount); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) confirmSettlement(w http.ResponseWriter, r *http.Request) {
	index, ok := a.cardIndex(w, r)
	if !ok {
		return
	}
	var body struct {
		Amount   uint64 `json:"amount"`
		Merchant string `json:"merchant"`
		Success  bool   `json:"success"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := a.engine.ConfirmSettlement(callerFrom(r), index, body.Amount, body.Merchant, body.Success); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) swap(w http.ResponseWriter, r *http.Request) {
	index, ok := a.cardIndex(w, r)
	if !ok {
		return
	}
	var body struct {
		AmountIn     uint64 `json:"amount_in"`
		MinAmountOut uint64 `json:"min_amount_out"`
		FeeTier      uint32 `json:"fee_tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.FeeTier == 0 {
		body.FeeTier = 3000
	}
	if err := a.engine.SwapNativeForToken(callerFrom(r), index, body.AmountIn, body.MinAmountOut, body.FeeTier); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) liquidate(w http.ResponseWriter, r *http.Request) {
	index, ok := a.cardIndex(w, r)
	if !ok {
		return
	}
	if err := a.engine.Liquidate(callerFrom(r), index); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) cardIndex(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 64)
	if err != nil {
		http.Error(w, "card index must be a non-negative integer", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

// statusFor separates configuration failures (operators fix the deployment)
// from caller failures (clients fix the request).
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrInsufficientReserve),
		errors.Is(err, ErrLeverageExceeded),
		errors.Is(err, ErrNoDebt):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrReentrant):
		return http.StatusConflict
	case errors.Is(err, ErrTransferFailed), errors.Is(err, ErrInvalidPrice):
		return http.StatusBadGateway
	case errors.Is(err, ErrUnconfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func callerFrom(r *http.Request) Caller {
	return Caller(r.Header.Get("X-Caller"))
}

// parseUSDAmount converts a decimal USD string ("125.50") into the engine's
// 18-decimal fixed-point convention.
func parseUSDAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, errors.New("usd_amount must not be negative")
	}
	scaled := d.Shift(USDDecimals)
	if !scaled.IsInteger() {
		return 0, errors.New("usd_amount has more than 18 decimal places")
	}
	bi := scaled.BigInt()
	if !bi.IsUint64() {
		return 0, errors.New("usd_amount out of range")
	}
	return bi.Uint64(), nil
}
