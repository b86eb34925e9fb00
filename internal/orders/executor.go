package orders

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/ledger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
)

// StepExecutor applies saga steps against the order stores. It is the
// executor the saga runner calls, both inline and during reconciliation.
type StepExecutor struct {
	orders     OrderRepository
	items      ItemRepository
	guard      StockGuard
	shipments  ShipmentStore
	finance    FinancialLedger
	afterSales AfterSalesStore
	reviews    ReviewStore
}

// ExecutorParams wires a StepExecutor.
type ExecutorParams struct {
	Orders     OrderRepository
	Items      ItemRepository
	Guard      StockGuard
	Shipments  ShipmentStore
	Finance    FinancialLedger
	AfterSales AfterSalesStore
	Reviews    ReviewStore
}

// NewStepExecutor validates dependencies.
func NewStepExecutor(p ExecutorParams) (*StepExecutor, error) {
	switch {
	case p.Orders == nil:
		return nil, fmt.Errorf("order repository required")
	case p.Items == nil:
		return nil, fmt.Errorf("order item repository required")
	case p.Guard == nil:
		return nil, fmt.Errorf("stock guard required")
	case p.Shipments == nil:
		return nil, fmt.Errorf("shipment store required")
	case p.Finance == nil:
		return nil, fmt.Errorf("financial ledger required")
	case p.AfterSales == nil:
		return nil, fmt.Errorf("after-sales store required")
	case p.Reviews == nil:
		return nil, fmt.Errorf("review store required")
	}
	return &StepExecutor{
		orders:     p.Orders,
		items:      p.Items,
		guard:      p.Guard,
		shipments:  p.Shipments,
		finance:    p.Finance,
		afterSales: p.AfterSales,
		reviews:    p.Reviews,
	}, nil
}

// Execute runs one step. Deletes are idempotent; record_income checks for an
// existing income entry first.
func (e *StepExecutor) Execute(ctx context.Context, orderID string, step models.CompensationStep) error {
	switch step.Action {
	case enums.CompensationRestoreStock:
		if step.ProductID == nil || step.Qty <= 0 {
			return fmt.Errorf("restore_stock step missing product or quantity")
		}
		ref := orderID
		_, err := e.guard.Increase(ctx, *step.ProductID, step.Qty, enums.StockChangeCancellationRestore, &ref)
		return err
	case enums.CompensationDeleteOrderItems:
		return e.items.DeleteByOrderID(ctx, orderID)
	case enums.CompensationDeleteShipment:
		return e.shipments.DeleteByOrderID(ctx, orderID)
	case enums.CompensationDeleteFinancialEntries:
		return e.finance.DeleteByOrder(ctx, orderID)
	case enums.CompensationDeleteAfterSales:
		claims, err := e.afterSales.FindByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		for _, claim := range claims {
			if err := e.afterSales.Delete(ctx, claim.ID); err != nil {
				return err
			}
		}
		return nil
	case enums.CompensationDeleteReview:
		reviews, err := e.reviews.FindByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		for _, review := range reviews {
			if err := e.reviews.Delete(ctx, review.ID); err != nil {
				return err
			}
		}
		return nil
	case enums.CompensationDeleteOrder:
		return e.orders.Delete(ctx, orderID)
	case enums.CompensationRecordIncome:
		order, err := e.orders.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Deleted since the step was queued; nothing to record against.
				return nil
			}
			return err
		}
		_, _, err = e.finance.RecordIncomeOnce(ctx, incomeFor(order))
		return err
	default:
		return fmt.Errorf("unknown saga action %q", step.Action)
	}
}

func incomeFor(order *models.Order) ledger.RecordEntryInput {
	return ledger.RecordEntryInput{
		OrderID:       order.ID,
		Type:          enums.FinancialEntryIncome,
		Amount:        order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		Status:        enums.FinancialEntryPosted,
	}
}

func restoreSteps(items []models.OrderItem) []models.CompensationStep {
	steps := make([]models.CompensationStep, 0, len(items))
	for _, item := range items {
		productID := item.ProductID
		steps = append(steps, models.CompensationStep{
			Action:    enums.CompensationRestoreStock,
			ProductID: &productID,
			Qty:       item.Quantity,
		})
	}
	return steps
}

func step(action enums.CompensationAction) models.CompensationStep {
	return models.CompensationStep{Action: action}
}
