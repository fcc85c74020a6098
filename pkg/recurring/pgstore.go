package recurring

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore persists detected series in Postgres. Detection output is
// authoritative, so ReplaceUserSeries swaps the user's rows wholesale inside
// one transaction instead of diffing.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) ReplaceUserSeries(ctx context.Context, userID string, series []Series) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace series: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM recurring_series WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear series for user %s: %w", userID, err)
	}

	for _, sr := range series {
		_, err := tx.Exec(ctx, `
			INSERT INTO recurring_series (
				id, user_id, merchant_key, merchant_type, frequency,
				average_amount, amount_variation, day_of_month_consistency,
				confidence, next_due_date, last_observed, occurrences,
				transaction_ids, detection_reason
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			sr.ID, sr.UserID, sr.MerchantKey, string(sr.MerchantType), string(sr.Frequency),
			sr.AverageAmount, sr.AmountVariation, sr.DayOfMonthConsistency,
			sr.Confidence, sr.NextDueDate, sr.LastObserved, sr.Occurrences,
			sr.TransactionIDs, sr.DetectionReason,
		)
		if err != nil {
			return fmt.Errorf("insert series %s: %w", sr.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace series: %w", err)
	}
	return nil
}

// LoadUserSeries returns the stored series for one user ordered by
// descending confidence.
func (s *PgStore) LoadUserSeries(ctx context.Context, userID string) ([]Series, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, merchant_key, merchant_type, frequency,
		       average_amount, amount_variation, day_of_month_consistency,
		       confidence, next_due_date, last_observed, occurrences,
		       transaction_ids, detection_reason
		FROM recurring_series
		WHERE user_id = $1
		ORDER BY confidence DESC, merchant_key ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query series for user %s: %w", userID, err)
	}
	defer rows.Close()
	return scanSeries(rows)
}

// LoadAllSeries returns every stored series, for the missed-payment sweep.
func (s *PgStore) LoadAllSeries(ctx context.Context) ([]Series, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, merchant_key, merchant_type, frequency,
		       average_amount, amount_variation, day_of_month_consistency,
		       confidence, next_due_date, last_observed, occurrences,
		       transaction_ids, detection_reason
		FROM recurring_series
		ORDER BY user_id, confidence DESC`)
	if err != nil {
		return nil, fmt.Errorf("query all series: %w", err)
	}
	defer rows.Close()
	return scanSeries(rows)
}

func scanSeries(rows pgx.Rows) ([]Series, error) {
	var out []Series
	for rows.Next() {
		var sr Series
		var mType, freq string
		if err := rows.Scan(
			&sr.ID, &sr.UserID, &sr.MerchantKey, &mType, &freq,
			&sr.AverageAmount, &sr.AmountVariation, &sr.DayOfMonthConsistency,
			&sr.Confidence, &sr.NextDueDate, &sr.LastObserved, &sr.Occurrences,
			&sr.TransactionIDs, &sr.DetectionReason,
		); err != nil {
			return nil, fmt.Errorf("scan series row: %w", err)
		}
		sr.MerchantType = MerchantType(mType)
		sr.Frequency = Frequency(freq)
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series rows: %w", err)
	}
	return out, nil
}
