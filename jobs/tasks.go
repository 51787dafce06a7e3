package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vantage-admin/vantage-admin/internal/permission"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSyncReportExport writes the synchronizer report to disk.
	TaskSyncReportExport = "permission:sync_report"
	// TaskOrphanPurge hard-deletes soft-deleted API nodes past retention.
	TaskOrphanPurge = "permission:orphan_purge"
)

// SyncReportPayload carries one synchronizer run for export.
type SyncReportPayload struct {
	RanAt   time.Time                `json:"ranAt"`
	Entries []permission.ReportEntry `json:"entries"`
}

// NewSyncReportTask constructs an Asynq task for report export.
func NewSyncReportTask(ranAt time.Time, entries []permission.ReportEntry) (*asynq.Task, error) {
	body, err := json.Marshal(SyncReportPayload{RanAt: ranAt, Entries: entries})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSyncReportExport, body, asynq.Queue(QueueDefault)), nil
}

// OrphanPurgePayload carries the purge cutoff.
type OrphanPurgePayload struct {
	OlderThan time.Duration `json:"olderThan"`
}

// NewOrphanPurgeTask constructs an Asynq task for purging stale API nodes.
func NewOrphanPurgeTask(olderThan time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(OrphanPurgePayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrphanPurge, body, asynq.Queue(QueueDefault)), nil
}
