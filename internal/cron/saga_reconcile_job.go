package cron

import (
	"context"
	"fmt"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/saga"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/metrics"
)

const defaultReconcileBatch = 50

type reconciler interface {
	Reconcile(ctx context.Context, limit int) (saga.ReconcileResult, error)
}

// SagaReconcileJobParams wire the compensation replay job.
type SagaReconcileJobParams struct {
	Logger    *logger.Logger
	Runner    reconciler
	Metrics   *metrics.CronJobMetrics
	BatchSize int
}

// NewSagaReconcileJob builds the job that replays pending compensation records.
func NewSagaReconcileJob(params SagaReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Runner == nil {
		return nil, fmt.Errorf("saga runner required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	return &sagaReconcileJob{logg: params.Logger, runner: params.Runner, metrics: params.Metrics, batch: batch}, nil
}

type sagaReconcileJob struct {
	logg    *logger.Logger
	runner  reconciler
	metrics *metrics.CronJobMetrics
	batch   int
}

func (j *sagaReconcileJob) Name() string { return "saga-reconcile" }

func (j *sagaReconcileJob) Run(ctx context.Context) error {
	result, err := j.runner.Reconcile(ctx, j.batch)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"batch_size": j.batch,
		"resolved":   result.Resolved,
		"failed":     result.Failed,
		"abandoned":  result.Abandoned,
	})
	j.metrics.ObserveCompensations(result.Resolved, result.Failed, result.Abandoned)
	if err != nil {
		return fmt.Errorf("saga reconcile: %w", err)
	}
	if result.Resolved+result.Failed+result.Abandoned > 0 {
		j.logg.Info(logCtx, "saga reconcile pass complete")
	}
	return nil
}
