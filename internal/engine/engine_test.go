package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cryptofolio/trading-service/internal/journal"
	"github.com/cryptofolio/trading-service/internal/ledger"
	"github.com/cryptofolio/trading-service/internal/logger"
	"github.com/cryptofolio/trading-service/internal/model"
)

type stubOracle struct {
	prices map[string]decimal.Decimal
}

func (o *stubOracle) Quote(_ context.Context, symbol string) (decimal.Decimal, error) {
	price, ok := o.prices[symbol]
	if !ok {
		return decimal.Zero, ledger.ErrPriceUnavailable
	}
	return price, nil
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestEngine(prices map[string]decimal.Decimal) (*Engine, *ledger.Directory, *journal.MemoryStore) {
	directory := ledger.NewDirectory()
	recorder := journal.NewMemoryStore()
	e := NewEngine(directory, &stubOracle{prices: prices}, recorder, logger.NewNopLogger())
	return e, directory, recorder
}

func TestAddMoney(t *testing.T) {
	e, _, recorder := newTestEngine(nil)
	ctx := context.Background()

	res, err := e.AddMoney(ctx, "alice", dec("100"))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Balance.Equal(dec("100")) || !res.TotalAdded.Equal(dec("100")) {
		t.Fatalf("res=%+v", res)
	}

	if _, err := e.AddMoney(ctx, "alice", dec("-1")); !errors.Is(err, ledger.ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}

	records, _ := recorder.ListByAccount(ctx, "alice", "")
	if len(records) != 1 || records[0].Side != model.SideDeposit {
		t.Fatalf("records=%+v", records)
	}
}

func TestBuySellRoundTrip(t *testing.T) {
	e, directory, _ := newTestEngine(map[string]decimal.Decimal{"BTC": dec("10")})
	ctx := context.Background()

	if _, err := e.AddMoney(ctx, "alice", dec("100")); err != nil {
		t.Fatal(err)
	}

	res, err := e.Buy(ctx, "alice", "btc", dec("2"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Symbol != "BTC" {
		t.Fatalf("symbol=%q want upper-cased BTC", res.Symbol)
	}
	if !res.Balance.Equal(dec("80")) || !res.Quantity.Equal(dec("2")) {
		t.Fatalf("after buy: %+v", res)
	}

	res, err = e.Sell(ctx, "alice", "BTC", dec("2"))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Balance.Equal(dec("100")) || !res.Quantity.IsZero() {
		t.Fatalf("after sell: %+v", res)
	}

	account, _ := directory.Lookup("alice")
	if _, ok := account.Snapshot().Holdings["BTC"]; ok {
		t.Fatal("closed position must be removed")
	}
}

func TestBuyInsufficientFunds(t *testing.T) {
	e, directory, recorder := newTestEngine(map[string]decimal.Decimal{"BTC": dec("10")})
	ctx := context.Background()

	if _, err := e.AddMoney(ctx, "alice", dec("15")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Buy(ctx, "alice", "BTC", dec("2")); !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}

	account, _ := directory.Lookup("alice")
	view := account.Snapshot()
	if !view.Balance.Equal(dec("15")) || len(view.Holdings) != 0 {
		t.Fatalf("rejected buy left state: %+v", view)
	}
	records, _ := recorder.ListByAccount(ctx, "alice", "BTC")
	if len(records) != 0 {
		t.Fatalf("rejected buy must not be journaled: %+v", records)
	}
}

func TestSellInsufficientAssets(t *testing.T) {
	e, directory, _ := newTestEngine(map[string]decimal.Decimal{"BTC": dec("10")})
	ctx := context.Background()

	if _, err := e.AddMoney(ctx, "alice", dec("100")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Buy(ctx, "alice", "BTC", dec("1")); err != nil {
		t.Fatal(err)
	}

	if _, err := e.Sell(ctx, "alice", "BTC", dec("2")); !errors.Is(err, ledger.ErrInsufficientAssets) {
		t.Fatalf("want ErrInsufficientAssets, got %v", err)
	}

	account, _ := directory.Lookup("alice")
	view := account.Snapshot()
	if !view.Balance.Equal(dec("90")) || !view.Holdings["BTC"].Equal(dec("1")) {
		t.Fatalf("rejected sell left state: %+v", view)
	}
}

func TestSellUnknownAccount(t *testing.T) {
	e, _, _ := newTestEngine(map[string]decimal.Decimal{"BTC": dec("10")})
	if _, err := e.Sell(context.Background(), "nobody", "BTC", dec("1")); !errors.Is(err, ledger.ErrUnknownAccount) {
		t.Fatalf("want ErrUnknownAccount, got %v", err)
	}
}

func TestTradeValidation(t *testing.T) {
	e, _, _ := newTestEngine(map[string]decimal.Decimal{"BTC": dec("10")})
	ctx := context.Background()

	if _, err := e.Buy(ctx, "alice", "", dec("1")); !errors.Is(err, ledger.ErrInvalidSymbol) {
		t.Fatalf("want ErrInvalidSymbol, got %v", err)
	}
	if _, err := e.Buy(ctx, "alice", "BTC", decimal.Zero); !errors.Is(err, ledger.ErrInvalidQuantity) {
		t.Fatalf("want ErrInvalidQuantity, got %v", err)
	}
	if _, err := e.Sell(ctx, "alice", "BTC", dec("-1")); !errors.Is(err, ledger.ErrInvalidQuantity) {
		t.Fatalf("want ErrInvalidQuantity, got %v", err)
	}
}

func TestPriceUnavailableAbortsTrade(t *testing.T) {
	e, directory, _ := newTestEngine(map[string]decimal.Decimal{})
	ctx := context.Background()

	if _, err := e.AddMoney(ctx, "alice", dec("100")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Buy(ctx, "alice", "DOGE", dec("1")); !errors.Is(err, ledger.ErrPriceUnavailable) {
		t.Fatalf("want ErrPriceUnavailable, got %v", err)
	}

	account, _ := directory.Lookup("alice")
	if got := account.Snapshot().Balance; !got.Equal(dec("100")) {
		t.Fatalf("failed quote changed balance: %s", got)
	}
}

// Concurrent buys against one account must behave like some serial
// order: never overspend, and the books must balance at the end.
func TestConcurrentBuysNeverOverspend(t *testing.T) {
	const workers = 40

	e, directory, _ := newTestEngine(map[string]decimal.Decimal{"BTC": dec("10")})
	ctx := context.Background()

	if _, err := e.AddMoney(ctx, "alice", dec("100")); err != nil {
		t.Fatal(err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		committed int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Buy(ctx, "alice", "BTC", dec("1")); err == nil {
				mu.Lock()
				committed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if committed != 10 {
		t.Fatalf("committed=%d want=10", committed)
	}
	account, _ := directory.Lookup("alice")
	view := account.Snapshot()
	if !view.Balance.IsZero() || !view.Holdings["BTC"].Equal(dec("10")) {
		t.Fatalf("end state: %+v", view)
	}
}

// Operations on different accounts must not interfere with each other.
func TestAccountsAreIndependent(t *testing.T) {
	e, directory, _ := newTestEngine(map[string]decimal.Decimal{"BTC": dec("10")})
	ctx := context.Background()

	identities := []string{"alice", "bob", "carol"}
	var wg sync.WaitGroup
	for _, identity := range identities {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.AddMoney(ctx, identity, dec("50")); err != nil {
				t.Error(err)
				return
			}
			if _, err := e.Buy(ctx, identity, "BTC", dec("3")); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	for _, identity := range identities {
		account, err := directory.Lookup(identity)
		if err != nil {
			t.Fatal(err)
		}
		view := account.Snapshot()
		if !view.Balance.Equal(dec("20")) || !view.Holdings["BTC"].Equal(dec("3")) {
			t.Fatalf("%s: %+v", identity, view)
		}
	}
}

func TestTradesAreJournaled(t *testing.T) {
	e, _, recorder := newTestEngine(map[string]decimal.Decimal{"BTC": dec("10")})
	ctx := context.Background()

	if _, err := e.AddMoney(ctx, "alice", dec("100")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Buy(ctx, "alice", "BTC", dec("2")); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Sell(ctx, "alice", "BTC", dec("1")); err != nil {
		t.Fatal(err)
	}

	records, err := recorder.ListByAccount(ctx, "alice", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("records=%d want=3", len(records))
	}
	sides := []model.Side{model.SideDeposit, model.SideBuy, model.SideSell}
	for i, rec := range records {
		if rec.Side != sides[i] {
			t.Fatalf("record %d side=%s want=%s", i, rec.Side, sides[i])
		}
		if rec.ID == "" || rec.Timestamp.IsZero() {
			t.Fatalf("record %d missing id or timestamp: %+v", i, rec)
		}
	}
	if !records[1].UnitPrice.Equal(dec("10")) || !records[1].Balance.Equal(dec("80")) {
		t.Fatalf("buy record: %+v", records[1])
	}
}
