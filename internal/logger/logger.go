// Package logger owns the process log: one rolling file per run, size-based
// rotation, and a daily archive pass that zips logs past the retention
// window. It starts first in the service sequence so the classification and
// detection jobs that follow all write through it.
package logger

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	rotateCheckInterval = 10 * time.Second
	retentionInterval   = 24 * time.Hour
	logFilePrefix       = "budgethero"
)

// LoggerService implements the service interface over a rolling log file.
type LoggerService struct {
	mu     sync.Mutex
	file   *os.File
	active string
	stopCh chan struct{}
	wg     sync.WaitGroup

	dir           string
	maxFileBytes  int64
	retentionDays int
}

// NewLoggerService reads max_file_mb, retention_days and folder_path from the
// service config block. YAML decodes small numbers as int and larger or
// fractional ones as float64, so both are accepted.
func NewLoggerService(config map[string]interface{}) *LoggerService {
	dir, _ := config["folder_path"].(string)
	if dir == "" {
		dir = "./logs"
	}
	return &LoggerService{
		stopCh:        make(chan struct{}),
		dir:           dir,
		maxFileBytes:  int64(configInt(config, "max_file_mb")) << 20,
		retentionDays: configInt(config, "retention_days"),
	}
}

func configInt(config map[string]interface{}, key string) int {
	switch v := config[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func (l *LoggerService) Name() string {
	return "logger"
}

// Start opens the first log file, redirects the standard logger into it and
// launches the rotation/retention worker.
func (l *LoggerService) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("creating log directory %s: %w", l.dir, err)
	}
	if err := l.openFreshFile(); err != nil {
		return err
	}
	log.Println("[logger] started, writing to", l.active)

	l.wg.Add(1)
	go l.run()
	return nil
}

func (l *LoggerService) Stop() error {
	close(l.stopCh)
	l.wg.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	log.Println("[logger] stopping")
	return l.file.Close()
}

// openFreshFile opens a new timestamped log file and points the standard
// logger at it. Callers hold l.mu.
func (l *LoggerService) openFreshFile() error {
	name := filepath.Join(l.dir, fmt.Sprintf("%s_%s.log", logFilePrefix, time.Now().Format("20060102_150405")))
	file, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", name, err)
	}
	l.file = file
	l.active = name
	log.SetOutput(file)
	return nil
}

func (l *LoggerService) run() {
	defer l.wg.Done()
	rotate := time.NewTicker(rotateCheckInterval)
	retain := time.NewTicker(retentionInterval)
	defer rotate.Stop()
	defer retain.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-rotate.C:
			l.rotateIfOversized()
		case <-retain.C:
			l.archiveExpiredLogs()
		}
	}
}

func (l *LoggerService) rotateIfOversized() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil || l.maxFileBytes <= 0 {
		return
	}
	info, err := l.file.Stat()
	if err != nil || info.Size() < l.maxFileBytes {
		return
	}
	l.file.Close()
	if err := l.openFreshFile(); err != nil {
		// stderr is the only place left to report a dead log file
		fmt.Fprintln(os.Stderr, "log rotation failed:", err)
		return
	}
	log.Println("[logger] rotated to", l.active)
}

// archiveExpiredLogs moves rotated-out log files older than the retention
// window into a dated zip and deletes the originals. The active file never
// qualifies: it was opened after any expired cutoff.
func (l *LoggerService) archiveExpiredLogs() {
	if l.retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -l.retentionDays)

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return
	}
	var expired []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".log" {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		expired = append(expired, e.Name())
	}
	if len(expired) == 0 {
		return
	}

	archivePath := filepath.Join(l.dir, fmt.Sprintf("%s_archive_%s.zip", logFilePrefix, time.Now().Format("20060102")))
	archive, err := os.Create(archivePath)
	if err != nil {
		return
	}
	defer archive.Close()
	zw := zip.NewWriter(archive)
	defer zw.Close()

	for _, name := range expired {
		full := filepath.Join(l.dir, name)
		w, err := zw.Create(name)
		if err != nil {
			continue
		}
		src, err := os.Open(full)
		if err != nil {
			continue
		}
		if _, err := io.Copy(w, src); err != nil {
			src.Close()
			continue
		}
		src.Close()
		os.Remove(full)
	}
}

// LogAudit records one line in the job audit trail.
func (l *LoggerService) LogAudit(msg string) {
	log.Printf("[AUDIT] %s", msg)
}

// GlobalLogger is set once at startup by the service registry; every job
// processor logs audit lines through it.
var GlobalLogger *LoggerService

func SetGlobalLogger(l *LoggerService) {
	GlobalLogger = l
}
