package jobs

import (
	"fmt"
	"log"

	"BudgetHero/internal/logger"
	"BudgetHero/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

// CronService runs the background jobs: the nightly classification sweep,
// recurring detection and the missed-payment scan.
type CronService struct {
	config map[string]interface{}
	db     *pgxpool.Pool
	crons  []*cron.Cron
}

func NewCronService(cfg map[string]interface{}, db *pgxpool.Pool) serviceiface.Service {
	return &CronService{
		config: cfg,
		db:     db,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	classificationConfig := NewDefaultClassificationConfig()
	if s.config != nil {
		if schedule, ok := s.config["classification_schedule"].(string); ok && schedule != "" {
			classificationConfig.Schedule = schedule
		}
		if batchSize, ok := s.config["classification_batch_size"].(int); ok && batchSize > 0 {
			classificationConfig.BatchSize = batchSize
		}
	}

	c, err := RunClassificationScheduler(classificationConfig, s.db)
	if err != nil {
		return fmt.Errorf("failed to start classification scheduler: %v", err)
	}
	s.crons = append(s.crons, c)

	logger.GlobalLogger.LogAudit("Classification scheduler started")
	log.Println("Cron service started — Classification sweep scheduled")

	detectionConfig := NewDefaultDetectionConfig()
	if s.config != nil {
		if schedule, ok := s.config["detection_schedule"].(string); ok && schedule != "" {
			detectionConfig.Schedule = schedule
		}
		if schedule, ok := s.config["missed_schedule"].(string); ok && schedule != "" {
			detectionConfig.MissedSchedule = schedule
		}
		if lookback, ok := s.config["detection_lookback_months"].(int); ok && lookback > 0 {
			detectionConfig.LookbackMonths = lookback
		}
		if dir, ok := s.config["report_dir"].(string); ok && dir != "" {
			detectionConfig.ReportDir = dir
		}
	}

	c, err = RunDetectionScheduler(detectionConfig, s.db)
	if err != nil {
		return fmt.Errorf("failed to start detection scheduler: %v", err)
	}
	s.crons = append(s.crons, c)

	logger.GlobalLogger.LogAudit("Detection scheduler started")
	log.Println("Cron service started — Recurring detection and missed-payment scan scheduled")

	return nil
}

func (s *CronService) Stop() error {
	for _, c := range s.crons {
		ctx := c.Stop()
		<-ctx.Done()
	}
	s.crons = nil
	log.Println("Cron service stopped.")
	return nil
}
