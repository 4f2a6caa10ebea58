package model

import "github.com/shopspring/decimal"

// AssetValue is one holding priced at snapshot time. Unpriced is set
// when the oracle could not quote the symbol; Value is then zero.
type AssetValue struct {
	Symbol           string
	Quantity         decimal.Decimal
	CurrentPrice     decimal.Decimal
	Value            decimal.Decimal
	AvgPurchasePrice decimal.Decimal
	PerformanceAbs   decimal.Decimal
	PerformanceRel   decimal.Decimal
	Unpriced         bool
}

// PortfolioSnapshot is a read-only valuation of one account. Derived
// fresh on every request, never cached.
type PortfolioSnapshot struct {
	AccountID      string
	TotalAdded     decimal.Decimal
	AvailableMoney decimal.Decimal
	TotalValue     decimal.Decimal
	PerformanceAbs decimal.Decimal
	PerformanceRel decimal.Decimal
	Assets         []AssetValue
}
