package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/ledger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

// OrderRepository persists order headers.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	// Update applies updates only while the order is in one of the allowed
	// statuses. It reports whether a row matched.
	Update(ctx context.Context, id string, updates map[string]any, allowed []enums.OrderStatus) (bool, error)
	// UpdateStatus moves from -> to in one conditional statement together
	// with the given timestamp columns. It reports whether a row matched.
	UpdateStatus(ctx context.Context, id string, from, to enums.OrderStatus, stamps map[string]time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, filter ListFilter) (int64, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Order, error)
}

// ItemRepository persists order items.
type ItemRepository interface {
	CreateBatch(ctx context.Context, items []models.OrderItem) error
	FindByOrderID(ctx context.Context, orderID string) ([]models.OrderItem, error)
	FindByOrderIDs(ctx context.Context, orderIDs []string) (map[string][]models.OrderItem, error)
	DeleteByOrderID(ctx context.Context, orderID string) error
	SumSubtotals(ctx context.Context, orderID string) (decimal.Decimal, error)
}

// StockGuard is the only path through which orders change product stock.
type StockGuard interface {
	Decrease(ctx context.Context, productID uuid.UUID, qty int, orderID *string) (*models.StockLedgerEntry, error)
	Increase(ctx context.Context, productID uuid.UUID, qty int, changeType enums.StockChangeType, orderID *string) (*models.StockLedgerEntry, error)
}

// ProductReader loads catalog rows for pricing and the stock pre-check.
type ProductReader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// ShipmentStore is the shipment persistence the coordinator touches.
type ShipmentStore interface {
	Create(ctx context.Context, shipment *models.Shipment) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Shipment, error)
	DeleteByOrderID(ctx context.Context, orderID string) error
}

// FinancialLedger records and removes income/refund entries.
type FinancialLedger interface {
	RecordIncomeOnce(ctx context.Context, input ledger.RecordEntryInput) (*models.FinancialEntry, bool, error)
	ListByOrder(ctx context.Context, orderID string) ([]models.FinancialEntry, error)
	DeleteByOrder(ctx context.Context, orderID string) error
}

// AfterSalesStore exposes the two after-sales operations the cascade needs.
type AfterSalesStore interface {
	FindByOrderID(ctx context.Context, orderID string) ([]models.AfterSalesClaim, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReviewStore exposes the two review operations the cascade needs.
type ReviewStore interface {
	FindByOrderID(ctx context.Context, orderID string) ([]models.Review, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Compensator runs step lists and journals what it cannot finish.
type Compensator interface {
	Compensate(ctx context.Context, op enums.SagaOperation, orderID string, done []models.CompensationStep, cause error) error
	RollForward(ctx context.Context, op enums.SagaOperation, orderID string, steps []models.CompensationStep, cause error) error
	Pending(ctx context.Context, orderID string) ([]models.CompensationRecord, error)
}
