package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/products"
	pkgdb "github.com/Yuriltlef/ApexFlow-sub001/pkg/db"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/metrics"
)

const defaultAdjustRetries = 5

// ProductStore is the slice of the product repository the guard mutates through.
type ProductStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	IncreaseStock(ctx context.Context, id uuid.UUID, qty int) (products.StockChange, error)
	DecreaseStock(ctx context.Context, id uuid.UUID, qty int) (products.StockChange, error)
	UpdateStock(ctx context.Context, id uuid.UUID, expected, newValue int) (products.StockChange, error)
}

// StockGuard is the only component allowed to change Product.Stock. Every
// successful mutation is paired with exactly one ledger entry.
type StockGuard struct {
	store         ProductStore
	ledger        *StockLedger
	tx            TxStores
	logg          *logger.Logger
	metrics       *metrics.StockMetrics
	adjustRetries int
}

// GuardParams wires a StockGuard. Tx is optional; without it a failed ledger
// write is undone with a compensating stock update.
type GuardParams struct {
	Store         ProductStore
	Ledger        *StockLedger
	Tx            TxStores
	Logger        *logger.Logger
	Metrics       *metrics.StockMetrics
	AdjustRetries int
}

// NewStockGuard validates dependencies and builds the guard.
func NewStockGuard(p GuardParams) (*StockGuard, error) {
	if p.Store == nil {
		return nil, fmt.Errorf("product store required")
	}
	if p.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	retries := p.AdjustRetries
	if retries <= 0 {
		retries = defaultAdjustRetries
	}
	return &StockGuard{
		store:         p.Store,
		ledger:        p.Ledger,
		tx:            p.Tx,
		logg:          p.Logger,
		metrics:       p.Metrics,
		adjustRetries: retries,
	}, nil
}

// stockMutation is one guarded change: apply writes the stock, entryFor
// describes the ledger entry and undo reverses apply when no transaction is
// available.
type stockMutation struct {
	productID  uuid.UUID
	changeType enums.StockChangeType
	apply      func(ctx context.Context, store ProductStore) (products.StockChange, error)
	entryFor   func(change products.StockChange) RecordInput
	undo       func(ctx context.Context, store ProductStore, change products.StockChange) error
}

// mutate applies m and records its entry. Errors from apply are returned
// unchanged; a ledger failure comes back as a persistence error.
func (g *StockGuard) mutate(ctx context.Context, m stockMutation) (*models.StockLedgerEntry, error) {
	if g.tx != nil {
		var entry *models.StockLedgerEntry
		err := g.tx.InTx(ctx, func(store ProductStore, ledgerRepo LedgerRepository) error {
			change, err := m.apply(ctx, store)
			if err != nil {
				return err
			}
			entry, err = g.ledger.recordTo(ctx, ledgerRepo, m.entryFor(change))
			if err != nil {
				g.logg.Error(g.mutationContext(ctx, m), "stock ledger write failed; rolling back mutation", err)
				return ledgerFailure(err, m.productID, change)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return entry, nil
	}

	change, err := m.apply(ctx, g.store)
	if err != nil {
		return nil, err
	}
	entry, err := g.ledger.Record(ctx, m.entryFor(change))
	if err != nil {
		g.revert(ctx, m, change, err)
		return nil, ledgerFailure(err, m.productID, change)
	}
	return entry, nil
}

// Increase adds qty. changeType must be purchase_in or cancellation_restore.
func (g *StockGuard) Increase(ctx context.Context, productID uuid.UUID, qty int, changeType enums.StockChangeType, orderID *string) (*models.StockLedgerEntry, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if !changeType.IsIncrease() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("change type %q cannot increase stock", changeType))
	}

	entry, err := g.mutate(ctx, stockMutation{
		productID:  productID,
		changeType: changeType,
		apply: func(ctx context.Context, store ProductStore) (products.StockChange, error) {
			return store.IncreaseStock(ctx, productID, qty)
		},
		entryFor: func(change products.StockChange) RecordInput {
			return RecordInput{ProductID: productID, ChangeType: changeType, Delta: qty, Before: change.Before, OrderID: orderID}
		},
		undo: func(ctx context.Context, store ProductStore, _ products.StockChange) error {
			_, err := store.DecreaseStock(ctx, productID, qty)
			return err
		},
	})
	if err != nil {
		g.metrics.Observe(changeType.String(), "error")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "increase stock")
	}
	g.metrics.Observe(changeType.String(), "ok")
	return entry, nil
}

// Decrease removes qty only when that much stock is available; the check and
// the write are a single conditional statement.
func (g *StockGuard) Decrease(ctx context.Context, productID uuid.UUID, qty int, orderID *string) (*models.StockLedgerEntry, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	entry, err := g.mutate(ctx, stockMutation{
		productID:  productID,
		changeType: enums.StockChangeSaleOut,
		apply: func(ctx context.Context, store ProductStore) (products.StockChange, error) {
			return store.DecreaseStock(ctx, productID, qty)
		},
		entryFor: func(change products.StockChange) RecordInput {
			return RecordInput{ProductID: productID, ChangeType: enums.StockChangeSaleOut, Delta: -qty, Before: change.Before, OrderID: orderID}
		},
		undo: func(ctx context.Context, store ProductStore, _ products.StockChange) error {
			_, err := store.IncreaseStock(ctx, productID, qty)
			return err
		},
	})
	if err != nil {
		// the stock CHECK is the backstop if a write ever bypasses the conditional update
		if errors.Is(err, products.ErrInsufficientStock) || pkgdb.IsCheckViolation(err, "") {
			return nil, g.explainShortfall(ctx, productID, qty)
		}
		g.metrics.Observe(enums.StockChangeSaleOut.String(), "error")
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "decrease stock")
	}
	g.metrics.Observe(enums.StockChangeSaleOut.String(), "ok")
	return entry, nil
}

// SetAbsolute overwrites stock with newStock and records the difference as an
// adjustment. The write is a compare-and-set against the value just read and
// is retried when a concurrent mutation wins the race.
func (g *StockGuard) SetAbsolute(ctx context.Context, productID uuid.UUID, newStock int, reason string) (*models.StockLedgerEntry, error) {
	if newStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if strings.TrimSpace(reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment reason is required")
	}

	for attempt := 0; attempt < g.adjustRetries; attempt++ {
		product, err := g.store.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load product")
		}

		expected := product.Stock
		entry, err := g.mutate(ctx, stockMutation{
			productID:  productID,
			changeType: enums.StockChangeAdjustment,
			apply: func(ctx context.Context, store ProductStore) (products.StockChange, error) {
				return store.UpdateStock(ctx, productID, expected, newStock)
			},
			entryFor: func(change products.StockChange) RecordInput {
				return RecordInput{
					ProductID:  productID,
					ChangeType: enums.StockChangeAdjustment,
					Delta:      change.After - change.Before,
					Before:     change.Before,
					Reason:     reason,
				}
			},
			undo: func(ctx context.Context, store ProductStore, change products.StockChange) error {
				_, err := store.UpdateStock(ctx, productID, change.After, change.Before)
				return err
			},
		})
		if errors.Is(err, products.ErrStockChanged) {
			continue
		}
		if err != nil {
			g.metrics.Observe(enums.StockChangeAdjustment.String(), "error")
			return nil, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "adjust stock")
		}
		g.metrics.Observe(enums.StockChangeAdjustment.String(), "ok")
		return entry, nil
	}

	g.metrics.Observe(enums.StockChangeAdjustment.String(), "error")
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "stock kept changing during adjustment; retry")
}

func (g *StockGuard) explainShortfall(ctx context.Context, productID uuid.UUID, qty int) error {
	product, err := g.store.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load product")
	}
	g.metrics.Observe(enums.StockChangeSaleOut.String(), "insufficient")
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", product.Name)).
		WithDetails(map[string]any{
			"product_id": productID.String(),
			"requested":  qty,
			"available":  product.Stock,
		})
}

// revert undoes an unledgered mutation so the ledger chain stays continuous.
// A failed revert is logged; the stock then differs from the ledger until an
// operator adjusts it.
func (g *StockGuard) revert(ctx context.Context, m stockMutation, change products.StockChange, cause error) {
	ctx = g.mutationContext(ctx, m)
	g.logg.Error(ctx, "stock ledger write failed; reverting mutation", cause)
	if err := m.undo(ctx, g.store, change); err != nil {
		g.logg.Error(ctx, "stock revert failed; ledger and stock diverge", err)
	}
}

func (g *StockGuard) mutationContext(ctx context.Context, m stockMutation) context.Context {
	return g.logg.WithStockChange(ctx, m.productID.String(), m.changeType.String())
}

func ledgerFailure(cause error, productID uuid.UUID, change products.StockChange) error {
	return pkgerrors.Wrap(pkgerrors.CodePersistence, cause, "record stock ledger entry").
		WithDetails(map[string]any{
			"product_id": productID.String(),
			"before":     change.Before,
			"after":      change.After,
		})
}
