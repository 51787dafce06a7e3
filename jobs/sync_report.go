package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"
)

// SyncReportExporter persists synchronizer reports as JSON artifacts and
// prunes artifacts older than the retention window.
type SyncReportExporter struct {
	dir       string
	retention time.Duration
	logger    *slog.Logger
}

// NewSyncReportExporter constructs a SyncReportExporter.
func NewSyncReportExporter(dir string, retention time.Duration, logger *slog.Logger) *SyncReportExporter {
	return &SyncReportExporter{dir: dir, retention: retention, logger: logger}
}

// Handle processes TaskSyncReportExport tasks. Export failures are logged
// and swallowed; a broken report file must never fail the queue.
func (e *SyncReportExporter) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SyncReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		e.logger.Error("sync report mkdir", slog.Any("error", err))
		return nil
	}

	name := "sync-" + payload.RanAt.UTC().Format("20060102T150405Z") + ".json"
	path := filepath.Join(e.dir, name)
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		e.logger.Error("sync report marshal", slog.Any("error", err))
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		e.logger.Error("sync report write", slog.String("path", path), slog.Any("error", err))
		return nil
	}
	e.logger.Info("sync report exported", slog.String("path", path), slog.Int("entries", len(payload.Entries)))

	e.prune()
	return nil
}

func (e *SyncReportExporter) prune() {
	if e.retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-e.retention)
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		e.logger.Warn("sync report prune", slog.Any("error", err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(e.dir, entry.Name())); err != nil {
			e.logger.Warn("sync report prune remove", slog.String("name", entry.Name()), slog.Any("error", err))
		}
	}
}
