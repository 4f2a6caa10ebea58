package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"github.com/cryptofolio/trading-service/internal/config"
	"github.com/cryptofolio/trading-service/internal/ledger"
	"github.com/cryptofolio/trading-service/internal/logger"
)

const _tickerPriceURL = "/api/v3/ticker/price"

// PriceOracle quotes a current unit price per asset symbol.
type PriceOracle interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type tickerErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

// TickerService quotes prices from a Binance-style ticker endpoint.
// Every failure mode (transport, timeout, unknown symbol, garbage
// payload) collapses into ledger.ErrPriceUnavailable so a slow or
// broken oracle can never wedge an account.
type TickerService struct {
	c   *resty.Client
	cfg config.OracleConfig

	rateLimiter ratelimit.Limiter

	logger logger.Logger
}

func NewTickerService(cfg config.OracleConfig, logger logger.Logger) *TickerService {
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.Address).
		SetTimeout(cfg.QuoteTimeout)

	return &TickerService{
		c:           client,
		cfg:         cfg,
		rateLimiter: ratelimit.New(cfg.RatePerMinute, ratelimit.Per(time.Minute)),
		logger:      logger,
	}
}

// Quote fetches the current unit price for symbol, quoted against the
// configured quote currency (e.g. BTC -> BTCUSDT).
func (s *TickerService) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return decimal.Zero, ledger.ErrInvalidSymbol
	}

	s.rateLimiter.Take()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.QuoteTimeout)
	defer cancel()

	req := s.c.R().
		SetQueryParam("symbol", symbol+s.cfg.QuoteCurrency).
		SetResult(&tickerResponse{}).
		SetError(&tickerErrorResponse{}).
		SetContext(ctx)

	resp, err := req.Get(_tickerPriceURL)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ledger.ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	s.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if resp.IsError() {
		response := resp.Error().(*tickerErrorResponse)
		return decimal.Zero, fmt.Errorf("%w: ticker error %d: %s", ledger.ErrPriceUnavailable, response.Code, response.Message)
	}
	if !resp.IsSuccess() {
		return decimal.Zero, fmt.Errorf("%w: unexpected status %s", ledger.ErrPriceUnavailable, resp.Status())
	}

	price, err := decimal.NewFromString(resp.Result().(*tickerResponse).Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: can't parse price", ledger.ErrPriceUnavailable)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive price", ledger.ErrPriceUnavailable)
	}

	return price, nil
}
