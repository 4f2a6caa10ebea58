package ledger

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Account is the authoritative cash+holdings state for one identity.
// Every mutation runs under the account mutex, so two operations racing
// on one account can never interleave partial state. Operations on
// different accounts share nothing and never block each other.
type Account struct {
	id string

	mu         sync.Mutex
	balance    decimal.Decimal
	totalAdded decimal.Decimal
	holdings   map[string]decimal.Decimal
}

func NewAccount(id string) *Account {
	return &Account{
		id:       id,
		holdings: make(map[string]decimal.Decimal),
	}
}

func (a *Account) ID() string {
	return a.id
}

// Deposit increases the cash balance by amount and tracks it in the
// total-added counter used for performance reporting. Returns the new
// balance and the total deposited so far.
func (a *Account) Deposit(amount decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, decimal.Zero, ErrInvalidAmount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance = a.balance.Add(amount)
	a.totalAdded = a.totalAdded.Add(amount)
	return a.balance, a.totalAdded, nil
}

// DebitCash removes amount from the cash balance. The balance never
// goes negative: a debit exceeding it fails with ErrInsufficientFunds
// and leaves the account untouched.
func (a *Account) DebitCash(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.balance.LessThan(amount) {
		return decimal.Zero, ErrInsufficientFunds
	}
	a.balance = a.balance.Sub(amount)
	return a.balance, nil
}

// CreditCash adds the proceeds of a sale to the cash balance.
func (a *Account) CreditCash(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance = a.balance.Add(amount)
	return a.balance, nil
}

// AddHolding credits qty of symbol, creating the holding if absent.
func (a *Account) AddHolding(symbol string, qty decimal.Decimal) (decimal.Decimal, error) {
	if !qty.IsPositive() {
		return decimal.Zero, ErrInvalidQuantity
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	held := a.holdings[symbol].Add(qty)
	a.holdings[symbol] = held
	return held, nil
}

// RemoveHolding debits qty of symbol. A holding that reaches exactly
// zero is deleted, never retained as a zero entry.
func (a *Account) RemoveHolding(symbol string, qty decimal.Decimal) (decimal.Decimal, error) {
	if !qty.IsPositive() {
		return decimal.Zero, ErrInvalidQuantity
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	held, ok := a.holdings[symbol]
	if !ok || held.LessThan(qty) {
		return decimal.Zero, ErrInsufficientAssets
	}
	held = held.Sub(qty)
	if held.IsZero() {
		delete(a.holdings, symbol)
		return decimal.Zero, nil
	}
	a.holdings[symbol] = held
	return held, nil
}

// View is a point-in-time copy of account state.
type View struct {
	ID         string
	Balance    decimal.Decimal
	TotalAdded decimal.Decimal
	Holdings   map[string]decimal.Decimal
}

// Snapshot returns a consistent copy of the account state. Callers own
// the returned map.
func (a *Account) Snapshot() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	holdings := make(map[string]decimal.Decimal, len(a.holdings))
	for sym, qty := range a.holdings {
		holdings[sym] = qty
	}
	return View{
		ID:         a.id,
		Balance:    a.balance,
		TotalAdded: a.totalAdded,
		Holdings:   holdings,
	}
}

// Buy debits cost and credits qty of symbol as one critical section.
// Cash is the hard-capped resource, so it is checked first; once the
// debit guard passes the holding credit cannot fail, and no partial
// state is ever observable.
func (a *Account) Buy(symbol string, qty, cost decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if !qty.IsPositive() {
		return decimal.Zero, decimal.Zero, ErrInvalidQuantity
	}
	if !cost.IsPositive() {
		return decimal.Zero, decimal.Zero, ErrInvalidAmount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.balance.LessThan(cost) {
		return decimal.Zero, decimal.Zero, ErrInsufficientFunds
	}
	a.balance = a.balance.Sub(cost)
	held := a.holdings[symbol].Add(qty)
	a.holdings[symbol] = held
	return a.balance, held, nil
}

// Sell debits qty of symbol and credits proceeds as one critical
// section. The asset is the scarcer resource here, so it is checked
// first; a rejected sell leaves cash untouched.
func (a *Account) Sell(symbol string, qty, proceeds decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if !qty.IsPositive() {
		return decimal.Zero, decimal.Zero, ErrInvalidQuantity
	}
	if !proceeds.IsPositive() {
		return decimal.Zero, decimal.Zero, ErrInvalidAmount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	held, ok := a.holdings[symbol]
	if !ok || held.LessThan(qty) {
		return decimal.Zero, decimal.Zero, ErrInsufficientAssets
	}
	held = held.Sub(qty)
	if held.IsZero() {
		delete(a.holdings, symbol)
	} else {
		a.holdings[symbol] = held
	}
	a.balance = a.balance.Add(proceeds)
	return a.balance, held, nil
}
