package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	errors "github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
)

// logFilePrefix names every file SetupLogger writes; retention never touches anything else.
const logFilePrefix = "dealmate"

const retentionInterval = 24 * time.Hour

// isServiceLogFile reports whether name is dealmate.log or dealmate-YYYYMMDD.log.
func isServiceLogFile(name string) bool {
	if !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, ".log") {
		return false
	}
	stem := strings.TrimSuffix(strings.TrimPrefix(name, logFilePrefix), ".log")
	return stem == "" || strings.HasPrefix(stem, "-")
}

// StartLogRetentionCleaner purges expired service log files from logDir once right away and then
// every 24 hours until ctx is done. retentionDays <= 0 disables it.
func StartLogRetentionCleaner(ctx context.Context, retentionDays int, logDir string) {
	lg := Logger.With(zap.Int("log_retention_days", retentionDays), zap.String("log_dir", logDir))
	if retentionDays <= 0 {
		lg.Debug("log retention disabled")
		return
	}
	if strings.TrimSpace(logDir) == "" {
		lg.Warn("log retention enabled but log directory is empty")
		return
	}

	purge := func() {
		cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
		removed, err := purgeExpiredLogs(logDir, cutoff)
		if err != nil {
			lg.Warn("log retention cleanup failed", zap.Error(err))
			return
		}
		if removed > 0 {
			lg.Info("log retention cleanup done", zap.Int("removed", removed))
		}
	}
	purge()

	go func() {
		ticker := time.NewTicker(retentionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				lg.Info("log retention cleaner stopped", zap.Error(ctx.Err()))
				return
			case <-ticker.C:
				purge()
			}
		}
	}()

	lg.Info("log retention cleaner started")
}

// purgeExpiredLogs deletes service log files in logDir last modified before cutoff and returns
// how many were removed. A missing directory is not an error.
func purgeExpiredLogs(logDir string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(logDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "read log directory")
	}

	var removed int
	for _, entry := range entries {
		if entry.IsDir() || !isServiceLogFile(entry.Name()) {
			continue
		}

		path := filepath.Join(logDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			Logger.Warn("skip log file without metadata", zap.String("log_path", path), zap.Error(err))
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil {
			Logger.Warn("failed to delete expired log file", zap.String("log_path", path), zap.Error(err))
			continue
		}
		removed++
		Logger.Debug("deleted expired log file", zap.String("log_path", path), zap.Time("modified_at", info.ModTime()))
	}

	return removed, nil
}
