package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/drivelane/appraisal-backend/pkg/logger"
)

const expiryBatchSize = 100

type evaluationExpirer interface {
	ExpireOverdue(ctx context.Context, batchSize int) (int, error)
}

// EvaluationExpiryJobParams configure the approval-window sweep.
type EvaluationExpiryJobParams struct {
	Logger      *logger.Logger
	Evaluations evaluationExpirer
	BatchSize   int
}

// NewEvaluationExpiryJob builds the job that expires approved evaluations
// whose validity window has passed.
func NewEvaluationExpiryJob(params EvaluationExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Evaluations == nil {
		return nil, fmt.Errorf("evaluations service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = expiryBatchSize
	}
	return &evaluationExpiryJob{
		logg:        params.Logger,
		evaluations: params.Evaluations,
		batchSize:   batchSize,
	}, nil
}

type evaluationExpiryJob struct {
	logg        *logger.Logger
	evaluations evaluationExpirer
	batchSize   int
}

func (j *evaluationExpiryJob) Name() string { return "evaluation-expiry" }

// Run sweeps in batches until a pass expires nothing, so a backlog larger
// than one batch still drains within a single cycle.
func (j *evaluationExpiryJob) Run(ctx context.Context) error {
	start := time.Now()
	total := 0
	for {
		expired, err := j.evaluations.ExpireOverdue(ctx, j.batchSize)
		if err != nil {
			return fmt.Errorf("expire overdue evaluations: %w", err)
		}
		total += expired
		if expired < j.batchSize {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"expired":     total,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	j.logg.Info(logCtx, "evaluation expiry sweep complete")
	return nil
}
