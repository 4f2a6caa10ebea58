package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideDeposit Side = "deposit"
	SideBuy     Side = "buy"
	SideSell    Side = "sell"
)

// TradeRecord is one committed ledger operation. Append-only.
type TradeRecord struct {
	ID        string          `db:"id"`
	AccountID string          `db:"account_id"`
	Side      Side            `db:"side"`
	Symbol    string          `db:"symbol"` // empty for deposits
	Quantity  decimal.Decimal `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Balance   decimal.Decimal `db:"balance"` // cash balance after commit
	Timestamp time.Time       `db:"ts"`
}
