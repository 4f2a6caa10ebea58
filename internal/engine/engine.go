package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cryptofolio/trading-service/internal/journal"
	"github.com/cryptofolio/trading-service/internal/ledger"
	"github.com/cryptofolio/trading-service/internal/logger"
	"github.com/cryptofolio/trading-service/internal/model"
	"github.com/cryptofolio/trading-service/internal/oracle"
)

// TradeResult is the account state a committed operation left behind.
type TradeResult struct {
	Balance    decimal.Decimal
	TotalAdded decimal.Decimal // only set by AddMoney
	Symbol     string
	Quantity   decimal.Decimal // held quantity after the trade, zero when the position closed
}

// Engine composes oracle quotes with ledger mutations into all-or-
// nothing operations. The price is fetched once per trade, outside the
// account lock; the ledger re-validates funds/assets inside its own
// critical section at commit time.
type Engine struct {
	directory *ledger.Directory
	oracle    oracle.PriceOracle
	journal   journal.Recorder

	logger logger.Logger
}

func NewEngine(directory *ledger.Directory, priceOracle oracle.PriceOracle, recorder journal.Recorder, logger logger.Logger) *Engine {
	return &Engine{
		directory: directory,
		oracle:    priceOracle,
		journal:   recorder,
		logger:    logger,
	}
}

// AddMoney deposits amount into the identity's account, creating the
// account on first use.
func (e *Engine) AddMoney(ctx context.Context, identity string, amount decimal.Decimal) (TradeResult, error) {
	if !amount.IsPositive() {
		return TradeResult{}, ledger.ErrInvalidAmount
	}

	account := e.directory.Resolve(identity)
	balance, totalAdded, err := account.Deposit(amount)
	if err != nil {
		return TradeResult{}, err
	}

	e.record(ctx, model.TradeRecord{
		AccountID: identity,
		Side:      model.SideDeposit,
		Quantity:  amount,
		Balance:   balance,
	})

	return TradeResult{Balance: balance, TotalAdded: totalAdded}, nil
}

// Buy converts cash into qty of symbol at the current oracle price.
// A quantity whose cost exceeds the cash balance is rejected entirely:
// holdings unchanged, cash unchanged.
func (e *Engine) Buy(ctx context.Context, identity, symbol string, qty decimal.Decimal) (TradeResult, error) {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return TradeResult{}, err
	}
	if !qty.IsPositive() {
		return TradeResult{}, ledger.ErrInvalidQuantity
	}

	price, err := e.oracle.Quote(ctx, symbol)
	if err != nil {
		return TradeResult{}, err
	}
	cost := qty.Mul(price)

	account := e.directory.Resolve(identity)
	balance, held, err := account.Buy(symbol, qty, cost)
	if err != nil {
		return TradeResult{}, err
	}

	e.logger.Infof("buy %s %s at %s, cost %s", qty, symbol, price, cost)
	e.record(ctx, model.TradeRecord{
		AccountID: identity,
		Side:      model.SideBuy,
		Symbol:    symbol,
		Quantity:  qty,
		UnitPrice: price,
		Balance:   balance,
	})

	return TradeResult{Balance: balance, Symbol: symbol, Quantity: held}, nil
}

// Sell converts qty of symbol back into cash at the current oracle
// price. A quantity exceeding the held position is rejected entirely:
// cash unchanged, holdings unchanged.
func (e *Engine) Sell(ctx context.Context, identity, symbol string, qty decimal.Decimal) (TradeResult, error) {
	symbol, err := normalizeSymbol(symbol)
	if err != nil {
		return TradeResult{}, err
	}
	if !qty.IsPositive() {
		return TradeResult{}, ledger.ErrInvalidQuantity
	}

	price, err := e.oracle.Quote(ctx, symbol)
	if err != nil {
		return TradeResult{}, err
	}
	proceeds := qty.Mul(price)

	account, err := e.directory.Lookup(identity)
	if err != nil {
		return TradeResult{}, err
	}
	balance, held, err := account.Sell(symbol, qty, proceeds)
	if err != nil {
		return TradeResult{}, err
	}

	e.logger.Infof("sell %s %s at %s, proceeds %s", qty, symbol, price, proceeds)
	e.record(ctx, model.TradeRecord{
		AccountID: identity,
		Side:      model.SideSell,
		Symbol:    symbol,
		Quantity:  qty,
		UnitPrice: price,
		Balance:   balance,
	})

	return TradeResult{Balance: balance, Symbol: symbol, Quantity: held}, nil
}

// record appends a trade record after the mutation committed. The
// journal runs outside the account lock; a failed append loses audit
// data but never rolls back a committed trade.
func (e *Engine) record(ctx context.Context, rec model.TradeRecord) {
	rec.ID = uuid.NewString()
	rec.Timestamp = time.Now().UTC()
	if err := e.journal.Append(ctx, rec); err != nil {
		e.logger.Errorf("%s: can't append trade record for %s", err, rec.AccountID)
	}
}

func normalizeSymbol(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", ledger.ErrInvalidSymbol
	}
	return symbol, nil
}
