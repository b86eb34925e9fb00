// Package app assembles the repositories, stock guard, saga runner and
// services shared by the api and the cron worker.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/aftersales"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/inventory"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/ledger"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/orders"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/products"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/reviews"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/saga"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/shipments"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/config"
	pkgdb "github.com/Yuriltlef/ApexFlow-sub001/pkg/db"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/metrics"
)

// Components is the wired domain layer.
type Components struct {
	Products   *products.Repository
	StockGuard *inventory.StockGuard
	Inventory  inventory.Service
	Finance    ledger.Service
	Shipments  shipments.Service
	Saga       *saga.Runner
	Orders     orders.Service
}

// Build wires every domain component against db. Metrics register on reg
// when it is non-nil.
func Build(cfg *config.Config, logg *logger.Logger, db *gorm.DB, reg prometheus.Registerer) (*Components, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if db == nil {
		return nil, fmt.Errorf("database required")
	}

	productRepo := products.NewRepository(db)
	stockLedgerRepo := inventory.NewLedgerRepository(db)
	shipmentRepo := shipments.NewRepository(db)
	afterSalesRepo := aftersales.NewRepository(db)
	reviewRepo := reviews.NewRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	itemRepo := orders.NewItemRepository(db)

	stockLedger, err := inventory.NewStockLedger(stockLedgerRepo)
	if err != nil {
		return nil, fmt.Errorf("stock ledger: %w", err)
	}
	stockTx, err := inventory.NewTxStores(pkgdb.NewFromGorm(db), productRepo, stockLedgerRepo)
	if err != nil {
		return nil, fmt.Errorf("stock transactions: %w", err)
	}
	guard, err := inventory.NewStockGuard(inventory.GuardParams{
		Store:         productRepo,
		Ledger:        stockLedger,
		Tx:            stockTx,
		Logger:        logg,
		Metrics:       metrics.NewStockMetrics(reg),
		AdjustRetries: cfg.Inventory.AdjustMaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("stock guard: %w", err)
	}
	inventorySvc, err := inventory.NewService(inventory.ServiceParams{
		Catalog:           productRepo,
		Guard:             guard,
		Ledger:            stockLedger,
		LedgerRepo:        stockLedgerRepo,
		Logger:            logg,
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("inventory service: %w", err)
	}
	finance, err := ledger.NewService(ledger.NewRepository(db))
	if err != nil {
		return nil, fmt.Errorf("financial ledger: %w", err)
	}
	shipmentSvc, err := shipments.NewService(shipmentRepo, logg)
	if err != nil {
		return nil, fmt.Errorf("shipment service: %w", err)
	}

	exec, err := orders.NewStepExecutor(orders.ExecutorParams{
		Orders:     orderRepo,
		Items:      itemRepo,
		Guard:      guard,
		Shipments:  shipmentRepo,
		Finance:    finance,
		AfterSales: afterSalesRepo,
		Reviews:    reviewRepo,
	})
	if err != nil {
		return nil, fmt.Errorf("saga executor: %w", err)
	}
	runner, err := saga.NewRunner(saga.Params{
		Journal:     saga.NewJournal(db),
		Executor:    exec,
		Logger:      logg,
		Metrics:     metrics.NewSagaMetrics(reg),
		MaxAttempts: cfg.Saga.MaxAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("saga runner: %w", err)
	}

	orderSvc, err := orders.NewService(orders.ServiceParams{
		Orders:      orderRepo,
		Items:       itemRepo,
		Products:    productRepo,
		Guard:       guard,
		Shipments:   shipmentRepo,
		Finance:     finance,
		AfterSales:  afterSalesRepo,
		Reviews:     reviewRepo,
		Compensator: runner,
		Logger:      logg,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	return &Components{
		Products:   productRepo,
		StockGuard: guard,
		Inventory:  inventorySvc,
		Finance:    finance,
		Shipments:  shipmentSvc,
		Saga:       runner,
		Orders:     orderSvc,
	}, nil
}
