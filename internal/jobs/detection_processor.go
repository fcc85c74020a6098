package jobs

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"BudgetHero/internal/config"
	"BudgetHero/internal/logger"
	"BudgetHero/pkg/categorize"
	"BudgetHero/pkg/ledger"
	"BudgetHero/pkg/override"
	"BudgetHero/pkg/recurring"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

// DetectionConfig holds configuration for the nightly recurring-detection
// run and the morning missed-payment scan.
type DetectionConfig struct {
	Schedule       string // recurring detection cron schedule
	MissedSchedule string // missed-payment scan cron schedule
	LookbackMonths int    // how much transaction history detection considers
	ReportDir      string // when set, each detection run writes an XLSX report here
	TimeZone       string
}

// NewDefaultDetectionConfig builds config from environment variables with
// sane defaults.
func NewDefaultDetectionConfig() *DetectionConfig {
	schedule := os.Getenv("DETECTION_SCHEDULE")
	if schedule == "" {
		schedule = config.DefaultDetectionSchedule
	}
	missedSchedule := os.Getenv("MISSED_PAYMENT_SCHEDULE")
	if missedSchedule == "" {
		missedSchedule = config.DefaultMissedSchedule
	}
	lookback := config.DetectionLookbackMonths
	if lb := os.Getenv("DETECTION_LOOKBACK_MONTHS"); lb != "" {
		if parsed, err := parseInt(lb); err == nil && parsed > 0 {
			lookback = parsed
		}
	}
	return &DetectionConfig{
		Schedule:       schedule,
		MissedSchedule: missedSchedule,
		LookbackMonths: lookback,
		ReportDir:      os.Getenv("DETECTION_REPORT_DIR"),
		TimeZone:       config.DefaultTimeZone,
	}
}

// RunDetectionScheduler starts the cron jobs for recurring detection and the
// missed-payment scan.
func RunDetectionScheduler(cfg *DetectionConfig, db *pgxpool.Pool) (*cron.Cron, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultDetectionSchedule
	}
	if cfg.MissedSchedule == "" {
		cfg.MissedSchedule = config.DefaultMissedSchedule
	}
	if cfg.LookbackMonths <= 0 {
		cfg.LookbackMonths = config.DetectionLookbackMonths
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
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Starting recurring detection at %s", time.Now().In(loc).Format(time.RFC3339)))
		if err := ProcessRecurringDetection(db, cfg); err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Recurring detection failed: %v", err))
			log.Printf("ERROR: Recurring detection failed: %v", err)
		} else {
			logger.GlobalLogger.LogAudit("Recurring detection completed successfully")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("unable to schedule recurring detection: %v", err)
	}

	_, err = c.AddFunc(cfg.MissedSchedule, func() {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Starting missed-payment scan at %s", time.Now().In(loc).Format(time.RFC3339)))
		if err := ProcessMissedPayments(db); err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Missed-payment scan failed: %v", err))
			log.Printf("ERROR: Missed-payment scan failed: %v", err)
		} else {
			logger.GlobalLogger.LogAudit("Missed-payment scan completed successfully")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("unable to schedule missed-payment scan: %v", err)
	}

	c.Start()
	logger.GlobalLogger.LogAudit(fmt.Sprintf("Detection scheduler started: detection %s, missed scan %s (timezone: %s)", cfg.Schedule, cfg.MissedSchedule, cfg.TimeZone))
	log.Printf("[AUDIT] Detection scheduler started: detection %s, missed scan %s (%s)", cfg.Schedule, cfg.MissedSchedule, cfg.TimeZone)

	return c, nil
}

// ProcessRecurringDetection recomputes every user's recurring series from
// their transaction history and replaces the stored series wholesale. Per-user
// failures are logged and skipped so one bad user does not sink the run.
func ProcessRecurringDetection(db *pgxpool.Pool, cfg *DetectionConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	startTime := time.Now()

	txStore := ledger.NewPgStore(db)
	seriesStore := recurring.NewPgStore(db)
	overrideStore := override.NewPgStore(db)

	rs, err := categorize.NewRuleCache(categorize.NewPgRuleSource(db)).Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load classification rules: %w", err)
	}
	detector := recurring.NewDetector()
	detector.CategoryName = func(categoryID string) string {
		if cat, ok := rs.Category(categoryID); ok {
			return cat.Name
		}
		return ""
	}

	userIDs, err := txStore.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(userIDs) == 0 {
		logger.GlobalLogger.LogAudit("No users with transactions, nothing to detect")
		return nil
	}

	since := time.Now().AddDate(0, -cfg.LookbackMonths, 0)
	log.Printf("[AUDIT] Running recurring detection for %d users (history since %s)", len(userIDs), since.Format("2006-01-02"))

	totalSeries := 0
	failedUsers := 0
	var allSeries []recurring.Series

	for _, userID := range userIDs {
		txs, err := txStore.LoadUserTransactions(ctx, userID, since)
		if err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Failed to load transactions for user %s: %v", userID, err))
			failedUsers++
			continue
		}
		overrides, err := overrideStore.LoadUserOverrides(ctx, userID)
		if err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Failed to load overrides for user %s: %v", userID, err))
			overrides = nil
		}

		series := detector.Detect(userID, txs, overrides)
		if err := seriesStore.ReplaceUserSeries(ctx, userID, series); err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Failed to store series for user %s: %v", userID, err))
			failedUsers++
			continue
		}
		for _, s := range series {
			// Track how often a user's recurring declaration actually
			// influenced detection.
			if s.Factors.OverrideBonus > 0 {
				if err := overrideStore.IncrementRecurringUse(ctx, userID, s.MerchantKey); err != nil {
					logger.GlobalLogger.LogAudit(fmt.Sprintf("Failed to bump override use count for user %s merchant %q: %v", userID, s.MerchantKey, err))
				}
			}
		}
		totalSeries += len(series)
		allSeries = append(allSeries, series...)
	}

	if cfg.ReportDir != "" {
		if err := writeDetectionReport(cfg.ReportDir, allSeries); err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Failed to write detection report: %v", err))
		}
	}

	duration := time.Since(startTime)
	summary := fmt.Sprintf("Recurring detection completed: %d series across %d users, %d users failed (Duration: %v)",
		totalSeries, len(userIDs), failedUsers, duration)
	logger.GlobalLogger.LogAudit(summary)
	log.Println(summary)

	return nil
}

// ProcessMissedPayments scans all stored series for overdue expected payments
// and records an alert per (series, due date). The insert is idempotent, so
// daily reruns do not duplicate alerts.
func ProcessMissedPayments(db *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	seriesStore := recurring.NewPgStore(db)
	series, err := seriesStore.LoadAllSeries(ctx)
	if err != nil {
		return fmt.Errorf("failed to load series: %w", err)
	}

	missed := recurring.FindMissedAsOf(series, time.Now())
	if len(missed) == 0 {
		logger.GlobalLogger.LogAudit("No missed payments detected")
		return nil
	}

	inserted := 0
	for _, m := range missed {
		tag, err := db.Exec(ctx, `
			INSERT INTO missed_payment_alerts (series_id, user_id, merchant_key, due_date, days_past_due, urgency, expected_amount, detected_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (series_id, due_date) DO UPDATE
			SET days_past_due = EXCLUDED.days_past_due,
			    urgency = EXCLUDED.urgency,
			    detected_at = EXCLUDED.detected_at`,
			m.Series.ID, m.Series.UserID, m.Series.MerchantKey, m.Series.NextDueDate,
			m.DaysPastDue, string(m.Urgency), m.Series.AverageAmount, time.Now(),
		)
		if err != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Failed to record missed-payment alert for series %s: %v", m.Series.ID, err))
			continue
		}
		inserted += int(tag.RowsAffected())
	}

	summary := fmt.Sprintf("Missed-payment scan completed: %d overdue series, %d alerts recorded", len(missed), inserted)
	logger.GlobalLogger.LogAudit(summary)
	log.Println(summary)

	return nil
}

// writeDetectionReport drops an XLSX snapshot of the run's series next to
// the logs, for support and debugging.
func writeDetectionReport(dir string, series []recurring.Series) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	missed := recurring.FindMissedAsOf(series, time.Now())
	f, err := recurring.ExportWorkbook(series, missed)
	if err != nil {
		return err
	}
	name := filepath.Join(dir, fmt.Sprintf("recurring_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := f.SaveAs(name); err != nil {
		return err
	}
	log.Printf("[AUDIT] Detection report written to %s", name)
	return nil
}
