package journal

import (
	"context"
	"sync"

	"github.com/cryptofolio/trading-service/internal/model"
)

// Recorder appends committed ledger operations. Records are written
// after the account mutation commits, outside the account lock, and are
// never mutated afterwards.
type Recorder interface {
	Append(ctx context.Context, rec model.TradeRecord) error
	// ListByAccount returns records for one account, oldest first.
	// symbol filters to one asset when non-empty.
	ListByAccount(ctx context.Context, accountID, symbol string) ([]model.TradeRecord, error)
}

// MemoryStore keeps records in process memory. Default backend, and the
// one tests run against.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]model.TradeRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]model.TradeRecord),
	}
}

func (s *MemoryStore) Append(_ context.Context, rec model.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.AccountID] = append(s.records[rec.AccountID], rec)
	return nil
}

func (s *MemoryStore) ListByAccount(_ context.Context, accountID, symbol string) ([]model.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.records[accountID]
	out := make([]model.TradeRecord, 0, len(all))
	for _, rec := range all {
		if symbol != "" && rec.Symbol != symbol {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
