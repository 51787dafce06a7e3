package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrphanPurger hard-deletes API permission nodes that were soft-deleted
// longer ago than the retention window and are no longer bound to any role.
type OrphanPurger struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewOrphanPurger constructs an OrphanPurger.
func NewOrphanPurger(pool *pgxpool.Pool, logger *slog.Logger) *OrphanPurger {
	return &OrphanPurger{pool: pool, logger: logger}
}

// Handle processes TaskOrphanPurge tasks.
func (p *OrphanPurger) Handle(ctx context.Context, t *asynq.Task) error {
	var payload OrphanPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.OlderThan <= 0 {
		return asynq.SkipRetry
	}

	cutoff := time.Now().UTC().Add(-payload.OlderThan)
	tag, err := p.pool.Exec(ctx, `DELETE FROM permission_nodes
		WHERE kind = 'API'
		  AND deleted_at IS NOT NULL
		  AND deleted_at < $1
		  AND NOT EXISTS (SELECT 1 FROM role_permissions rp WHERE rp.permission_id = permission_nodes.id)`, cutoff)
	if err != nil {
		return err
	}
	if n := tag.RowsAffected(); n > 0 {
		p.logger.Info("purged orphan api nodes", slog.Int64("count", n))
	}
	return nil
}
