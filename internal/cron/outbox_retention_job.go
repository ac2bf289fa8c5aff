package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/drivelane/appraisal-backend/pkg/logger"
)

const (
	outboxRetentionDays = 30
	retentionBatchSize  = 1000
)

type outboxRetentionRepo interface {
	DeletePublishedBefore(cutoff time.Time, limit int) (int64, error)
}

// OutboxRetentionJobParams configure the published-event pruning job.
type OutboxRetentionJobParams struct {
	Logger        *logger.Logger
	Repository    outboxRetentionRepo
	RetentionDays int
	BatchSize     int
}

// NewOutboxRetentionJob builds the job that prunes published outbox rows
// older than the retention window. Unpublished and dead-lettered rows are
// never touched.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = outboxRetentionDays
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = retentionBatchSize
	}
	return &outboxRetentionJob{
		logg:      params.Logger,
		repo:      params.Repository,
		retention: retention,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg      *logger.Logger
	repo      outboxRetentionRepo
	retention int
	batchSize int
	now       func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	var deleted int64
	for {
		rows, err := j.repo.DeletePublishedBefore(cutoff, j.batchSize)
		if err != nil {
			return fmt.Errorf("outbox retention: %w", err)
		}
		deleted += rows
		if rows < int64(j.batchSize) {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "outbox retention cleanup complete")
	return nil
}
