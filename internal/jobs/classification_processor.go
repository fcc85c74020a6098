package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"BudgetHero/internal/config"
	"BudgetHero/internal/logger"
	"BudgetHero/pkg/categorize"
	"BudgetHero/pkg/ledger"
	"BudgetHero/pkg/merchant"
	"BudgetHero/pkg/override"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// ClassificationConfig holds configuration for the nightly classification
// sweep.
type ClassificationConfig struct {
	Schedule  string // cron schedule
	BatchSize int    // transactions per bulk UPDATE
	TimeZone  string
}

// classificationUpdate is one transaction whose classification the sweep
// improved.
type classificationUpdate struct {
	txnID      string
	merchant   string
	categoryID string
	confidence float64
}

// NewDefaultClassificationConfig builds config from environment variables
// with sane defaults.
func NewDefaultClassificationConfig() *ClassificationConfig {
	schedule := os.Getenv("CLASSIFICATION_SCHEDULE")
	if schedule == "" {
		schedule = config.DefaultClassificationSchedule
	}

	batchSize := config.ClassificationBatchSize
	if bs := os.Getenv("CLASSIFICATION_BATCH_SIZE"); bs != "" {
		if parsed, err := parseInt(bs); err == nil && parsed > 0 {
			batchSize = parsed
		}
	}

	return &ClassificationConfig{
		Schedule:  schedule,
		BatchSize: batchSize,
		TimeZone:  config.DefaultTimeZone,
	}
}

// RunClassificationScheduler starts the cron job for the classification sweep.
func RunClassificationScheduler(cfg *ClassificationConfig, db *pgxpool.Pool) (*cron.Cron, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultClassificationSchedule
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = config.ClassificationBatchSize
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = config.DefaultTimeZone
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Invalid timezone %s, falling back to UTC: %v", cfg.TimeZone, err))
	}

	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(cfg.Schedule, func() {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Starting classification sweep at %s", time.Now().In(loc).Format(time.RFC3339)))
		if err := ProcessUnclassifiedTransactions(db, cfg.BatchSize); err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Classification sweep failed: %v", err))
			log.Printf("ERROR: Classification sweep failed: %v", err)
		} else {
			logger.GlobalLogger.LogAudit("Classification sweep completed successfully")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("unable to schedule classification sweep: %v", err)
	}

	c.Start()
	logger.GlobalLogger.LogAudit(fmt.Sprintf("Classification scheduler started with schedule: %s (timezone: %s)", cfg.Schedule, cfg.TimeZone))
	log.Printf("[AUDIT] Classification scheduler started: %s (%s)", cfg.Schedule, cfg.TimeZone)

	return c, nil
}

// ProcessUnclassifiedTransactions sweeps transactions that are unclassified
// or still carry a generic fallback category, reruns the classification
// cascade over them and bulk-updates the improvements. Transactions the
// cascade cannot improve are left untouched. batchSize controls how many
// transactions go into one bulk UPDATE.
func ProcessUnclassifiedTransactions(db *pgxpool.Pool, batchSize int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	startTime := time.Now()

	// Replay user category overrides before sweeping, so corrections recorded
	// since the last run reach their historical rows and the sweep sees the
	// post-override state. A replay failure does not block the sweep.
	if err := ReplayCategoryOverrides(ctx, db); err != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Category override replay failed: %v", err))
		log.Printf("ERROR: Category override replay failed: %v", err)
	}

	// The bulk UPDATE path wants pq.Array, so open a database/sql handle
	// alongside the pgx pool.
	pgDB := db.Config().ConnConfig.Database
	pgUser := db.Config().ConnConfig.User
	pgPass := db.Config().ConnConfig.Password
	pgHost := db.Config().ConnConfig.Host
	pgPort := db.Config().ConnConfig.Port

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", pgUser, pgPass, pgHost, pgPort, pgDB)
	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to open sql.DB connection: %w", err)
	}
	defer sqlDB.Close()

	var totalCount int
	countQuery := `SELECT COUNT(*) FROM transactions WHERE COALESCE(category_id, '') = '' OR category_confidence < 0.5`
	if err := sqlDB.QueryRowContext(ctx, countQuery).Scan(&totalCount); err != nil {
		return fmt.Errorf("failed to count sweep candidates: %w", err)
	}

	if totalCount == 0 {
		logger.GlobalLogger.LogAudit("No sweep candidates found")
		return nil
	}

	log.Printf("[AUDIT] Total sweep candidates: %d", totalCount)
	logger.GlobalLogger.LogAudit(fmt.Sprintf("Found %d transactions to sweep", totalCount))

	// Load the rule set once for the whole run.
	rs, err := categorize.NewRuleCache(categorize.NewPgRuleSource(db)).Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load classification rules: %w", err)
	}

	overrideStore := override.NewPgStore(db)
	overridesByUser := make(map[string]*override.UserOverrides)

	if batchSize <= 0 {
		batchSize = config.ClassificationBatchSize
	}
	log.Printf("[AUDIT] Starting batch processing (batch size: %d)...", batchSize)

	totalProcessed := 0
	totalClassified := 0
	lastLogTime := time.Now()

	// The bulk UPDATE shrinks the WHERE set while the scan is still running,
	// so candidates are paged with a keyset cursor on id. An OFFSET scan over
	// the same set would skip the rows sliding into the vacated positions.
	fetch := func(lastID string, limit int) ([]ledger.Transaction, error) {
		query := `
			SELECT id, user_id, COALESCE(description, ''), COALESCE(merchant, ''),
			       amount, COALESCE(category_id, ''), COALESCE(category_confidence, 0),
			       COALESCE(aggregator_primary, ''), COALESCE(aggregator_detailed, '')
			FROM transactions
			WHERE (COALESCE(category_id, '') = '' OR category_confidence < 0.5)
			  AND id > $1
			ORDER BY id ASC
			LIMIT $2
		`
		rows, err := sqlDB.QueryContext(ctx, query, lastID, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to query sweep candidates after id %q: %w", lastID, err)
		}
		defer rows.Close()

		var txns []ledger.Transaction
		for rows.Next() {
			var tx ledger.Transaction
			var amount sql.NullFloat64
			if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Description, &tx.Merchant,
				&amount, &tx.CategoryID, &tx.CategoryConfidence,
				&tx.AggregatorPrimary, &tx.AggregatorDetailed); err != nil {
				return nil, fmt.Errorf("failed to scan transaction row: %w", err)
			}
			if amount.Valid {
				tx.Amount = decimal.NewFromFloat(amount.Float64)
			}
			txns = append(txns, tx)
		}
		return txns, rows.Err()
	}

	sweepErr := forEachBatch(fetch, batchSize, func(txns []ledger.Transaction) error {
		log.Printf("[AUDIT] Processing batch: transactions %d-%d of %d", totalProcessed+1, totalProcessed+len(txns), totalCount)

		updates := make([]classificationUpdate, 0, len(txns))
		for _, tx := range txns {
			totalProcessed++

			// Fill in the normalized merchant when the import left it blank.
			if tx.Merchant == "" {
				tx.Merchant, _ = merchant.Normalize(tx.Description)
			}

			overrides, ok := overridesByUser[tx.UserID]
			if !ok {
				overrides, err = overrideStore.LoadUserOverrides(ctx, tx.UserID)
				if err != nil {
					logger.GlobalLogger.LogAudit(fmt.Sprintf("Failed to load overrides for user %s: %v", tx.UserID, err))
					overrides = nil
				}
				overridesByUser[tx.UserID] = overrides
			}

			m := categorize.ClassifyWith(rs, tx, overrides)
			if categorize.ShouldReplace(rs, tx, m) {
				updates = append(updates, classificationUpdate{
					txnID:      tx.ID,
					merchant:   tx.Merchant,
					categoryID: m.CategoryID,
					confidence: m.Confidence,
				})
				totalClassified++
			}

			if totalProcessed%1000 == 0 || time.Since(lastLogTime) > 10*time.Second {
				elapsed := time.Since(startTime)
				rate := float64(totalProcessed) / elapsed.Seconds()
				progress := fmt.Sprintf("Progress: %d/%d processed (%d classified, %.1f txns/sec)",
					totalProcessed, totalCount, totalClassified, rate)
				log.Println(progress)
				logger.GlobalLogger.LogAudit(progress)
				lastLogTime = time.Now()
			}
		}

		if len(updates) > 0 {
			log.Printf("Bulk updating %d classified transactions in this batch...", len(updates))
			if err := bulkUpdateClassifications(ctx, sqlDB, updates); err != nil {
				logger.GlobalLogger.LogAudit(fmt.Sprintf("Bulk update failed for batch ending at %s, falling back to individual updates: %v", txns[len(txns)-1].ID, err))
				for _, u := range updates {
					updateQuery := `UPDATE transactions SET category_id = $1, category_confidence = $2, merchant = $3 WHERE id = $4`
					if _, err := sqlDB.ExecContext(ctx, updateQuery, u.categoryID, u.confidence, u.merchant, u.txnID); err != nil {
						logger.GlobalLogger.LogAudit(fmt.Sprintf("Failed to update transaction %s: %v", u.txnID, err))
					}
				}
			}
		}
		return nil
	})
	if sweepErr != nil {
		return sweepErr
	}

	duration := time.Since(startTime)
	unimproved := totalProcessed - totalClassified
	summary := fmt.Sprintf("Classification sweep completed: %d/%d transactions classified (%.1f%%), %d unimproved (Duration: %v, Avg: %.1f txns/sec)",
		totalClassified, totalProcessed, percentOf(totalClassified, totalProcessed), unimproved, duration, float64(totalProcessed)/duration.Seconds())
	logger.GlobalLogger.LogAudit(summary)
	log.Println(summary)

	return nil
}

// forEachBatch pages through candidates with a keyset cursor: each fetch asks
// for rows with id above the last row of the previous batch. The handler may
// remove rows from the underlying candidate set without affecting which rows
// later fetches return.
func forEachBatch(fetch func(lastID string, limit int) ([]ledger.Transaction, error), limit int, handle func([]ledger.Transaction) error) error {
	lastID := ""
	for {
		txns, err := fetch(lastID, limit)
		if err != nil {
			return err
		}
		if len(txns) == 0 {
			return nil
		}
		if err := handle(txns); err != nil {
			return err
		}
		lastID = txns[len(txns)-1].ID
		if len(txns) < limit {
			return nil
		}
	}
}

// bulkUpdateClassifications performs a single bulk UPDATE using PostgreSQL
// arrays.
func bulkUpdateClassifications(ctx context.Context, db *sql.DB, updates []classificationUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	txnIDs := make([]string, len(updates))
	merchants := make([]string, len(updates))
	categoryIDs := make([]string, len(updates))
	confidences := make([]float64, len(updates))
	for i, u := range updates {
		txnIDs[i] = u.txnID
		merchants[i] = u.merchant
		categoryIDs[i] = u.categoryID
		confidences[i] = u.confidence
	}

	query := `
		UPDATE transactions AS t
		SET category_id = u.category_id,
		    category_confidence = u.confidence,
		    merchant = u.merchant
		FROM (
			SELECT unnest($1::text[]) AS txn_id,
			       unnest($2::text[]) AS category_id,
			       unnest($3::float8[]) AS confidence,
			       unnest($4::text[]) AS merchant
		) AS u
		WHERE t.id = u.txn_id
	`
	_, err := db.ExecContext(ctx, query, pq.Array(txnIDs), pq.Array(categoryIDs), pq.Array(confidences), pq.Array(merchants))
	return err
}

// parseInt is a helper to parse int from string.
func parseInt(s string) (int, error) {
	var result int
	_, err := fmt.Sscanf(s, "%d", &result)
	return result, err
}

func percentOf(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
