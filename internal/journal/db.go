package journal

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cryptofolio/trading-service/internal/model"
)

const (
	_insertRecord = `INSERT INTO trade_records (
							id,
							account_id,
							side,
							symbol,
							quantity,
							unit_price,
							balance,
							ts
						) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_queryRecords         = `SELECT * FROM trade_records WHERE account_id = $1 ORDER BY ts`
	_queryRecordsBySymbol = `SELECT * FROM trade_records WHERE account_id = $1 AND symbol = $2 ORDER BY ts`
)

// PostgresStore persists trade records to the trade_records table.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, rec model.TradeRecord) error {
	if _, err := s.db.ExecContext(ctx, _insertRecord,
		rec.ID,
		rec.AccountID,
		rec.Side,
		rec.Symbol,
		rec.Quantity,
		rec.UnitPrice,
		rec.Balance,
		rec.Timestamp,
	); err != nil {
		return fmt.Errorf("%w: can't insert trade record", err)
	}
	return nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID, symbol string) ([]model.TradeRecord, error) {
	var (
		records []model.TradeRecord
		err     error
	)
	if symbol == "" {
		err = s.db.SelectContext(ctx, &records, _queryRecords, accountID)
	} else {
		err = s.db.SelectContext(ctx, &records, _queryRecordsBySymbol, accountID, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: can't query trade records", err)
	}
	return records, nil
}
