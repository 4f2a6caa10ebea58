package valuation

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cryptofolio/trading-service/internal/journal"
	"github.com/cryptofolio/trading-service/internal/ledger"
	"github.com/cryptofolio/trading-service/internal/logger"
	"github.com/cryptofolio/trading-service/internal/model"
	"github.com/cryptofolio/trading-service/internal/oracle"
)

var _hundred = decimal.NewFromInt(100)

// Service derives read-only portfolio snapshots. Prices are fetched
// fresh on every call and never cached across requests.
type Service struct {
	directory *ledger.Directory
	oracle    oracle.PriceOracle
	journal   journal.Recorder

	logger logger.Logger
}

func NewService(directory *ledger.Directory, priceOracle oracle.PriceOracle, recorder journal.Recorder, logger logger.Logger) *Service {
	return &Service{
		directory: directory,
		oracle:    priceOracle,
		journal:   recorder,
		logger:    logger,
	}
}

// Snapshot values the identity's account at current prices. A symbol
// the oracle cannot quote is reported with value zero and Unpriced set
// instead of failing the whole snapshot. Assets come back sorted by
// symbol so responses are stable.
func (s *Service) Snapshot(ctx context.Context, identity string) (model.PortfolioSnapshot, error) {
	account, err := s.directory.Lookup(identity)
	if err != nil {
		return model.PortfolioSnapshot{}, err
	}

	view := account.Snapshot()
	total := view.Balance

	assets := make([]model.AssetValue, 0, len(view.Holdings))
	for symbol, qty := range view.Holdings {
		asset := model.AssetValue{
			Symbol:   symbol,
			Quantity: qty,
		}

		price, err := s.oracle.Quote(ctx, symbol)
		if err != nil {
			s.logger.Warnf("%s: can't quote %s, reporting zero value", err, symbol)
			asset.Unpriced = true
		} else {
			asset.CurrentPrice = price
			asset.Value = qty.Mul(price)
			total = total.Add(asset.Value)
		}

		s.fillPerformance(ctx, identity, &asset)
		assets = append(assets, asset)
	}

	sort.Slice(assets, func(i, j int) bool { return assets[i].Symbol < assets[j].Symbol })

	snapshot := model.PortfolioSnapshot{
		AccountID:      identity,
		TotalAdded:     view.TotalAdded,
		AvailableMoney: view.Balance,
		TotalValue:     total,
		Assets:         assets,
	}
	snapshot.PerformanceAbs = total.Sub(view.TotalAdded)
	if view.TotalAdded.IsPositive() {
		snapshot.PerformanceRel = snapshot.PerformanceAbs.Div(view.TotalAdded).Mul(_hundred)
	}

	return snapshot, nil
}

// fillPerformance derives the average purchase price of the position
// from its buy records and the gain relative to the amount invested in
// the still-held quantity.
func (s *Service) fillPerformance(ctx context.Context, identity string, asset *model.AssetValue) {
	records, err := s.journal.ListByAccount(ctx, identity, asset.Symbol)
	if err != nil {
		s.logger.Warnf("%s: can't read trade records for %s", err, identity)
		return
	}

	var totalCost, totalBought decimal.Decimal
	for _, rec := range records {
		if rec.Side != model.SideBuy {
			continue
		}
		totalCost = totalCost.Add(rec.Quantity.Mul(rec.UnitPrice))
		totalBought = totalBought.Add(rec.Quantity)
	}
	if !totalBought.IsPositive() {
		return
	}

	asset.AvgPurchasePrice = totalCost.Div(totalBought)
	invested := asset.AvgPurchasePrice.Mul(asset.Quantity)
	asset.PerformanceAbs = asset.Value.Sub(invested)
	if invested.IsPositive() {
		asset.PerformanceRel = asset.PerformanceAbs.Div(invested).Mul(_hundred)
	}
}
