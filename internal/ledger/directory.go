package ledger

import "sync"

// Directory maps authenticated identity to its Account. Accounts are
// created lazily on first deposit or trade and live for the lifetime of
// the process.
type Directory struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

func NewDirectory() *Directory {
	return &Directory{
		accounts: make(map[string]*Account),
	}
}

// Resolve returns the account for identity, creating it atomically if
// absent. Two concurrent first-operations for the same identity get the
// same *Account.
func (d *Directory) Resolve(identity string) *Account {
	d.mu.RLock()
	a, ok := d.accounts[identity]
	d.mu.RUnlock()
	if ok {
		return a
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if a, ok := d.accounts[identity]; ok {
		return a
	}
	a = NewAccount(identity)
	d.accounts[identity] = a
	return a
}

// Lookup returns the existing account for identity without creating
// one. Read-only queries before any deposit get ErrUnknownAccount.
func (d *Directory) Lookup(identity string) (*Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.accounts[identity]
	if !ok {
		return nil, ErrUnknownAccount
	}
	return a, nil
}
