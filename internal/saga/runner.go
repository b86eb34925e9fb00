// Package saga keeps the compensation log for multi-table order operations
// and replays it.
//
// Order operations touch several tables without a shared transaction. Each
// operation describes its follow-up work as a list of steps; the runner
// executes them and, when one fails, persists the failed step and everything
// after it as a pending record. Reconcile replays pending records until they
// resolve or run out of attempts.
package saga

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/metrics"
)

const defaultMaxAttempts = 10

// Executor applies a single step for an order. Implementations must make
// every action safe to repeat except stock restores, whose progress the
// runner checkpoints.
type Executor interface {
	Execute(ctx context.Context, orderID string, step models.CompensationStep) error
}

// Runner executes step lists and maintains the journal.
type Runner struct {
	journal     Journal
	exec        Executor
	logg        *logger.Logger
	metrics     *metrics.SagaMetrics
	maxAttempts int
}

// Params wires a Runner.
type Params struct {
	Journal     Journal
	Executor    Executor
	Logger      *logger.Logger
	Metrics     *metrics.SagaMetrics
	MaxAttempts int
}

// NewRunner validates dependencies.
func NewRunner(p Params) (*Runner, error) {
	if p.Journal == nil {
		return nil, fmt.Errorf("saga journal required")
	}
	if p.Executor == nil {
		return nil, fmt.Errorf("saga executor required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Runner{
		journal:     p.Journal,
		exec:        p.Executor,
		logg:        p.Logger,
		metrics:     p.Metrics,
		maxAttempts: maxAttempts,
	}, nil
}

// Compensate undoes completed steps of a failed operation, newest first.
// done holds the inverse of each completed step in the order the steps ran.
func (r *Runner) Compensate(ctx context.Context, op enums.SagaOperation, orderID string, done []models.CompensationStep, cause error) error {
	reversed := make([]models.CompensationStep, 0, len(done))
	for i := len(done) - 1; i >= 0; i-- {
		reversed = append(reversed, done[i])
	}
	return r.RollForward(ctx, op, orderID, reversed, cause)
}

// RollForward runs steps in order. On the first failure the failed step and
// the rest are journaled for Reconcile and a persistence error is returned.
func (r *Runner) RollForward(ctx context.Context, op enums.SagaOperation, orderID string, steps []models.CompensationStep, cause error) error {
	ctx = r.logg.WithFields(ctx, map[string]any{
		"saga_operation": string(op),
		"order_id":       orderID,
	})

	for i, step := range steps {
		if err := r.exec.Execute(ctx, orderID, step); err != nil {
			r.metrics.ObserveStep(step.Action.String(), "failed")
			r.logg.Error(r.logg.WithField(ctx, "action", step.Action.String()), "saga step failed; journaling remainder", err)

			reason := err
			if cause != nil {
				reason = multierr.Append(cause, err)
			}
			if jerr := r.journalSteps(ctx, op, orderID, steps[i:], reason); jerr != nil {
				r.logg.Error(ctx, "saga journal write failed; manual repair required", jerr)
				return pkgerrors.Wrap(pkgerrors.CodePersistence, multierr.Append(err, jerr), "compensation incomplete and not journaled")
			}
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "compensation pending reconciliation").
				WithDetails(map[string]any{"pending_steps": len(steps) - i})
		}
		r.metrics.ObserveStep(step.Action.String(), "ok")
	}
	return nil
}

func (r *Runner) journalSteps(ctx context.Context, op enums.SagaOperation, orderID string, steps []models.CompensationStep, reason error) error {
	rec := &models.CompensationRecord{
		Operation: op,
		OrderID:   orderID,
		Status:    enums.CompensationStatusPending,
		Steps:     append([]models.CompensationStep(nil), steps...),
		Cause:     reason.Error(),
	}
	if err := r.journal.Create(ctx, rec); err != nil {
		return err
	}
	r.metrics.IncJournaled(string(op))
	r.logg.Warn(r.logg.WithField(ctx, "compensation_id", rec.ID.String()), "saga steps journaled")
	return nil
}

// ReconcileResult summarises one Reconcile pass.
type ReconcileResult struct {
	Resolved  int
	Failed    int
	Abandoned int
}

// Reconcile replays up to limit pending records, oldest first. Progress is
// checkpointed after every step so a crash never repeats a completed restore.
func (r *Runner) Reconcile(ctx context.Context, limit int) (ReconcileResult, error) {
	var result ReconcileResult
	recs, err := r.journal.ListPending(ctx, limit)
	if err != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list pending compensation records")
	}

	var errs error
	for _, rec := range recs {
		recCtx := r.logg.WithFields(ctx, map[string]any{
			"compensation_id": rec.ID.String(),
			"order_id":        rec.OrderID,
		})
		if stepErr := r.replay(recCtx, rec); stepErr != nil {
			abandon := rec.Attempts+1 >= r.maxAttempts
			if merr := r.journal.MarkFailed(recCtx, rec.ID, stepErr.Error(), abandon); merr != nil {
				errs = multierr.Append(errs, merr)
			}
			if abandon {
				result.Abandoned++
				r.logg.Error(recCtx, "compensation record abandoned", stepErr)
			} else {
				result.Failed++
				r.logg.Warn(recCtx, "compensation replay failed; will retry")
			}
			errs = multierr.Append(errs, fmt.Errorf("compensation %s: %w", rec.ID, stepErr))
			continue
		}
		if err := r.journal.MarkResolved(recCtx, rec.ID); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		result.Resolved++
		r.logg.Info(recCtx, "compensation record resolved")
	}
	return result, errs
}

func (r *Runner) replay(ctx context.Context, rec models.CompensationRecord) error {
	for i, step := range rec.Steps {
		if err := r.exec.Execute(ctx, rec.OrderID, step); err != nil {
			r.metrics.ObserveStep(step.Action.String(), "failed")
			return err
		}
		r.metrics.ObserveStep(step.Action.String(), "ok")
		if err := r.journal.SaveProgress(ctx, rec.ID, rec.Steps[i+1:]); err != nil {
			return fmt.Errorf("checkpoint after %s: %w", step.Action, err)
		}
	}
	return nil
}

// Pending lists compensation records for an order, for detail views.
func (r *Runner) Pending(ctx context.Context, orderID string) ([]models.CompensationRecord, error) {
	recs, err := r.journal.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list compensation records")
	}
	return recs, nil
}
