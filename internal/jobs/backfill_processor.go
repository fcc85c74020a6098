package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"BudgetHero/internal/logger"
	"BudgetHero/pkg/ledger"
	"BudgetHero/pkg/merchant"
	"BudgetHero/pkg/override"

	"github.com/jackc/pgx/v5/pgxpool"
)

// backfillTargetIDs picks the transactions a category override reaches. The
// merchant column holds whatever the import produced, raw descriptor text or
// an already-normalized key, so each row is normalized before comparing
// against the override's key. Rows already carrying the override's category
// at full confidence are skipped, which makes replaying an override log a
// fixed point.
func backfillTargetIDs(txs []ledger.Transaction, merchantKey, categoryID string) []string {
	var ids []string
	for _, tx := range txs {
		raw := tx.Merchant
		if raw == "" {
			raw = tx.Description
		}
		if merchant.Key(raw) != merchantKey {
			continue
		}
		if tx.CategoryID == categoryID && tx.CategoryConfidence == 1.0 {
			continue
		}
		ids = append(ids, tx.ID)
	}
	return ids
}

// ApplyCategoryOverrideBackfill retroactively applies a recorded category
// override to every historical transaction of that user whose normalized
// merchant matches the override's key. User decisions carry full confidence.
func ApplyCategoryOverrideBackfill(ctx context.Context, db *pgxpool.Pool, ov override.CategoryOverride) (int64, error) {
	txs, err := ledger.NewPgStore(db).LoadUserTransactions(ctx, ov.UserID, time.Time{})
	if err != nil {
		return 0, fmt.Errorf("backfill override for user %s merchant %q: %w", ov.UserID, ov.MerchantKey, err)
	}

	ids := backfillTargetIDs(txs, ov.MerchantKey, ov.CategoryID)
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := db.Exec(ctx, `
		UPDATE transactions
		SET category_id = $1, category_confidence = 1.0
		WHERE id = ANY($2)`,
		ov.CategoryID, ids,
	)
	if err != nil {
		return 0, fmt.Errorf("backfill override for user %s merchant %q: %w", ov.UserID, ov.MerchantKey, err)
	}

	updated := tag.RowsAffected()
	msg := fmt.Sprintf("Override backfill: user %s merchant %q -> category %s (%d transactions updated)",
		ov.UserID, ov.MerchantKey, ov.CategoryID, updated)
	logger.GlobalLogger.LogAudit(msg)
	log.Println(msg)
	return updated, nil
}

// ReplayCategoryOverrides applies every recorded category override to the
// transaction history. The nightly sweep runs it first, so a user's
// correction also reaches rows imported or reclassified after the override
// was recorded. Failures are isolated per override.
func ReplayCategoryOverrides(ctx context.Context, db *pgxpool.Pool) error {
	rows, err := db.Query(ctx, `
		SELECT id, user_id, merchant_key, category_id, confidence, created_at, updated_at
		FROM user_merchant_overrides
		ORDER BY user_id, merchant_key`)
	if err != nil {
		return fmt.Errorf("loading category overrides for replay: %w", err)
	}

	var overrides []override.CategoryOverride
	for rows.Next() {
		var ov override.CategoryOverride
		if err := rows.Scan(&ov.ID, &ov.UserID, &ov.MerchantKey, &ov.CategoryID, &ov.Confidence, &ov.CreatedAt, &ov.UpdatedAt); err != nil {
			rows.Close()
			return fmt.Errorf("scanning category override: %w", err)
		}
		overrides = append(overrides, ov)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating category overrides: %w", err)
	}

	if len(overrides) == 0 {
		return nil
	}

	var totalUpdated int64
	failures := 0
	for _, ov := range overrides {
		updated, err := ApplyCategoryOverrideBackfill(ctx, db, ov)
		if err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Override replay failed for user %s merchant %q: %v", ov.UserID, ov.MerchantKey, err))
			failures++
			continue
		}
		totalUpdated += updated
	}

	summary := fmt.Sprintf("Override replay completed: %d overrides applied, %d transactions updated, %d failures",
		len(overrides)-failures, totalUpdated, failures)
	logger.GlobalLogger.LogAudit(summary)
	log.Println(summary)
	return nil
}
