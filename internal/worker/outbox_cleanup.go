package worker

import (
	"context"
	"time"

	"github.com/jwalitptl/scheduler-api/internal/repository"
	"github.com/jwalitptl/scheduler-api/pkg/logger"
)

// OutboxCleanup deletes processed outbox events older than the retention
// window so the table stays small.
type OutboxCleanup struct {
	repo      repository.OutboxRepository
	retention time.Duration
	interval  time.Duration
	logger    *logger.Logger
}

func NewOutboxCleanup(repo repository.OutboxRepository, retention, interval time.Duration, logger *logger.Logger) *OutboxCleanup {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &OutboxCleanup{
		repo:      repo,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

func (c *OutboxCleanup) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := c.repo.DeleteProcessedBefore(ctx, time.Now().Add(-c.retention))
			if err != nil {
				c.logger.Error(err, "outbox cleanup failed")
				continue
			}
			if deleted > 0 {
				c.logger.Info("outbox cleanup done", "deleted", deleted)
			}
		}
	}
}
