package server

import (
	"context"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"

	"github.com/cryptofolio/trading-service/internal/auth"
	"github.com/cryptofolio/trading-service/internal/engine"
	"github.com/cryptofolio/trading-service/internal/ledger"
	"github.com/cryptofolio/trading-service/internal/logger"
	"github.com/cryptofolio/trading-service/internal/valuation"
)

// Handlers is the HTTP layer over the trade engine, valuation service
// and auth service. It parses loose JSON numbers into strict positive
// decimals before anything reaches the core.
type Handlers struct {
	engine    *engine.Engine
	valuation *valuation.Service
	auth      *auth.Service

	corsOrigin string
	logger     logger.Logger
}

func NewHandlers(eng *engine.Engine, val *valuation.Service, authService *auth.Service, corsOrigin string, logger logger.Logger) *Handlers {
	return &Handlers{
		engine:     eng,
		valuation:  val,
		auth:       authService,
		corsOrigin: corsOrigin,
		logger:     logger,
	}
}

// Router wires routes and middleware into a single http.Handler.
func (h *Handlers) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /token", h.token)
	mux.HandleFunc("POST /add-money", h.withAuth(h.addMoney))
	mux.HandleFunc("POST /buy", h.withAuth(h.buy))
	mux.HandleFunc("POST /sell", h.withAuth(h.sell))
	mux.HandleFunc("GET /portfolio", h.withAuth(h.portfolio))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	return h.withLogging(h.withRecovery(h.withCORS(mux)))
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if err := h.auth.Register(req.Username, req.Password); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Successfully created new user."})
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// token implements the password flow the frontend speaks: form-encoded
// username/password in, bearer token out.
func (h *Handlers) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	signed, err := h.auth.Token(r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: signed, TokenType: "bearer"})
}

type addMoneyRequest struct {
	Amount float64 `json:"amount"`
}

type addMoneyResponse struct {
	AvailableMoney  float64 `json:"available_money"`
	TotalAddedMoney float64 `json:"total_added_money"`
}

func (h *Handlers) addMoney(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	var req addMoneyRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	amount := decimal.NewFromFloat(req.Amount)
	if !amount.IsPositive() {
		writeDomainError(w, ledger.ErrInvalidAmount)
		return
	}

	res, err := h.engine.AddMoney(r.Context(), identity, amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, addMoneyResponse{
		AvailableMoney:  res.Balance.InexactFloat64(),
		TotalAddedMoney: res.TotalAdded.InexactFloat64(),
	})
}

type tradeRequest struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
}

type tradeResponse struct {
	AvailableMoney float64 `json:"available_money"`
	Symbol         string  `json:"symbol"`
	Quantity       float64 `json:"quantity"`
}

func (h *Handlers) buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.engine.Buy)
}

func (h *Handlers) sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.engine.Sell)
}

func (h *Handlers) trade(w http.ResponseWriter, r *http.Request, execute func(ctx context.Context, identity, symbol string, qty decimal.Decimal) (engine.TradeResult, error)) {
	identity, _ := IdentityFromContext(r.Context())

	var req tradeRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	qty := decimal.NewFromFloat(req.Quantity)
	if !qty.IsPositive() {
		writeDomainError(w, ledger.ErrInvalidQuantity)
		return
	}

	res, err := execute(r.Context(), identity, req.Symbol, qty)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tradeResponse{
		AvailableMoney: res.Balance.InexactFloat64(),
		Symbol:         res.Symbol,
		Quantity:       res.Quantity.InexactFloat64(),
	})
}

type assetResponse struct {
	Symbol           string  `json:"symbol"`
	Quantity         float64 `json:"quantity"`
	CurrentPrice     float64 `json:"current_price"`
	TotalValue       float64 `json:"total_value"`
	AvgPurchasePrice float64 `json:"avg_purchase_price"`
	PerformanceAbs   float64 `json:"performance_abs"`
	PerformanceRel   float64 `json:"performance_rel"`
	Unpriced         bool    `json:"unpriced,omitempty"`
}

type portfolioResponse struct {
	TotalAddedMoney float64         `json:"total_added_money"`
	AvailableMoney  float64         `json:"available_money"`
	TotalValue      float64         `json:"total_value"`
	PerformanceAbs  float64         `json:"performance_abs"`
	PerformanceRel  float64         `json:"performance_rel"`
	Assets          []assetResponse `json:"assets"`
}

func (h *Handlers) portfolio(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	snapshot, err := h.valuation.Snapshot(r.Context(), identity)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	assets := make([]assetResponse, 0, len(snapshot.Assets))
	for _, a := range snapshot.Assets {
		assets = append(assets, assetResponse{
			Symbol:           a.Symbol,
			Quantity:         a.Quantity.InexactFloat64(),
			CurrentPrice:     a.CurrentPrice.InexactFloat64(),
			TotalValue:       a.Value.InexactFloat64(),
			AvgPurchasePrice: a.AvgPurchasePrice.InexactFloat64(),
			PerformanceAbs:   a.PerformanceAbs.InexactFloat64(),
			PerformanceRel:   a.PerformanceRel.InexactFloat64(),
			Unpriced:         a.Unpriced,
		})
	}

	writeJSON(w, http.StatusOK, portfolioResponse{
		TotalAddedMoney: snapshot.TotalAdded.InexactFloat64(),
		AvailableMoney:  snapshot.AvailableMoney.InexactFloat64(),
		TotalValue:      snapshot.TotalValue.InexactFloat64(),
		PerformanceAbs:  snapshot.PerformanceAbs.InexactFloat64(),
		PerformanceRel:  snapshot.PerformanceRel.InexactFloat64(),
		Assets:          assets,
	})
}
