package saga

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/dbtest"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
)

type recordingExecutor struct {
	mu       sync.Mutex
	executed []enums.CompensationAction
	failOn   map[enums.CompensationAction]int
}

func (e *recordingExecutor) Execute(_ context.Context, _ string, step models.CompensationStep) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failOn[step.Action] > 0 {
		e.failOn[step.Action]--
		return errors.New("step failed: " + string(step.Action))
	}
	e.executed = append(e.executed, step.Action)
	return nil
}

func newRunner(t *testing.T, exec Executor, maxAttempts int) (*Runner, Journal) {
	t.Helper()
	journal := NewJournal(dbtest.Open(t))
	runner, err := NewRunner(Params{
		Journal:     journal,
		Executor:    exec,
		Logger:      logger.New(logger.Options{ServiceName: "saga-test", Output: &bytes.Buffer{}}),
		MaxAttempts: maxAttempts,
	})
	require.NoError(t, err)
	return runner, journal
}

func steps(actions ...enums.CompensationAction) []models.CompensationStep {
	out := make([]models.CompensationStep, 0, len(actions))
	for _, a := range actions {
		out = append(out, models.CompensationStep{Action: a})
	}
	return out
}

func TestNewRunnerRequiresDependencies(t *testing.T) {
	_, err := NewRunner(Params{})
	assert.Error(t, err)
}

func TestCompensateRunsInReverse(t *testing.T) {
	exec := &recordingExecutor{}
	runner, journal := newRunner(t, exec, 3)

	done := steps(enums.CompensationDeleteOrder, enums.CompensationDeleteOrderItems, enums.CompensationRestoreStock)
	err := runner.Compensate(context.Background(), enums.SagaCreateOrder, "ORD1", done, errors.New("shipment insert failed"))
	require.NoError(t, err)

	assert.Equal(t, []enums.CompensationAction{
		enums.CompensationRestoreStock,
		enums.CompensationDeleteOrderItems,
		enums.CompensationDeleteOrder,
	}, exec.executed)

	recs, err := journal.ListByOrderID(context.Background(), "ORD1")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRollForwardJournalsRemainderOnFailure(t *testing.T) {
	exec := &recordingExecutor{failOn: map[enums.CompensationAction]int{enums.CompensationDeleteShipment: 1}}
	runner, journal := newRunner(t, exec, 3)

	err := runner.RollForward(context.Background(), enums.SagaDeleteOrder, "ORD2",
		steps(enums.CompensationDeleteOrderItems, enums.CompensationDeleteShipment, enums.CompensationDeleteOrder), nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence))
	assert.Equal(t, []enums.CompensationAction{enums.CompensationDeleteOrderItems}, exec.executed)

	recs, err := journal.ListPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, enums.SagaDeleteOrder, recs[0].Operation)
	assert.Equal(t, steps(enums.CompensationDeleteShipment, enums.CompensationDeleteOrder), recs[0].Steps)
	assert.Contains(t, recs[0].Cause, "delete_shipment")
}

func TestReconcileResolvesPendingRecords(t *testing.T) {
	exec := &recordingExecutor{failOn: map[enums.CompensationAction]int{enums.CompensationRestoreStock: 1}}
	runner, journal := newRunner(t, exec, 3)
	ctx := context.Background()
	productID := uuid.New()

	restore := []models.CompensationStep{
		{Action: enums.CompensationRestoreStock, ProductID: &productID, Qty: 2},
		{Action: enums.CompensationDeleteOrder},
	}
	require.Error(t, runner.Compensate(ctx, enums.SagaCreateOrder, "ORD3",
		[]models.CompensationStep{restore[1], restore[0]}, errors.New("boom")))

	result, err := runner.Reconcile(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, ReconcileResult{Resolved: 1}, result)
	assert.Equal(t, []enums.CompensationAction{enums.CompensationRestoreStock, enums.CompensationDeleteOrder}, exec.executed)

	recs, err := journal.ListByOrderID(ctx, "ORD3")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, enums.CompensationStatusResolved, recs[0].Status)
	assert.NotNil(t, recs[0].ResolvedAt)

	pending, err := journal.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReconcileCheckpointsAndAbandons(t *testing.T) {
	exec := &recordingExecutor{failOn: map[enums.CompensationAction]int{enums.CompensationDeleteReview: 100}}
	runner, journal := newRunner(t, exec, 2)
	ctx := context.Background()

	rec := &models.CompensationRecord{
		Operation: enums.SagaDeleteOrder,
		OrderID:   "ORD4",
		Status:    enums.CompensationStatusPending,
		Steps:     steps(enums.CompensationDeleteAfterSales, enums.CompensationDeleteReview, enums.CompensationDeleteOrder),
	}
	require.NoError(t, journal.Create(ctx, rec))

	result, err := runner.Reconcile(ctx, 10)
	require.Error(t, err)
	assert.Equal(t, ReconcileResult{Failed: 1}, result)

	recs, err := journal.ListByOrderID(ctx, "ORD4")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].Attempts)
	assert.Equal(t, steps(enums.CompensationDeleteReview, enums.CompensationDeleteOrder), recs[0].Steps)

	result, err = runner.Reconcile(ctx, 10)
	require.Error(t, err)
	assert.Equal(t, ReconcileResult{Abandoned: 1}, result)

	pending, err := journal.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// delete_after_sales ran once; it was checkpointed away before the retry.
	assert.Equal(t, []enums.CompensationAction{enums.CompensationDeleteAfterSales}, exec.executed)
}

func TestPendingListsRecordsForOrder(t *testing.T) {
	exec := &recordingExecutor{failOn: map[enums.CompensationAction]int{enums.CompensationRecordIncome: 1}}
	runner, _ := newRunner(t, exec, 3)

	require.Error(t, runner.RollForward(context.Background(), enums.SagaUpdateOrderStatus, "ORD5", steps(enums.CompensationRecordIncome), nil))
	recs, err := runner.Pending(context.Background(), "ORD5")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
