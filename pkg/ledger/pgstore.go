package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore reads and writes transactions in Postgres.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// ListUserIDs returns every user that has at least one transaction, for
// per-user batch jobs.
func (s *PgStore) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT user_id FROM transactions ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LoadUserTransactions returns a user's transactions on or after since,
// oldest first.
func (s *PgStore) LoadUserTransactions(ctx context.Context, userID string, since time.Time) ([]Transaction, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, date, COALESCE(description, ''), COALESCE(merchant, ''),
		       amount, COALESCE(category_id, ''), COALESCE(category_confidence, 0),
		       COALESCE(aggregator_primary, ''), COALESCE(aggregator_detailed, ''),
		       COALESCE(aggregator_confidence, 0), COALESCE(source, '')
		FROM transactions
		WHERE user_id = $1 AND date >= $2
		ORDER BY date ASC, id ASC`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("load transactions for user %s: %w", userID, err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]Transaction, error) {
	var txs []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.Date, &tx.Description, &tx.Merchant,
			&tx.Amount, &tx.CategoryID, &tx.CategoryConfidence,
			&tx.AggregatorPrimary, &tx.AggregatorDetailed,
			&tx.AggregatorConfidence, &tx.Source,
		); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txs, nil
}
