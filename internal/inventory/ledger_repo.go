package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

// LedgerRepository persists stock ledger entries. There is no update or
// delete: entries are append-only.
type LedgerRepository interface {
	WithTx(tx *gorm.DB) LedgerRepository
	Create(ctx context.Context, entry *models.StockLedgerEntry) error
	ListByProductID(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.StockLedgerEntry, int64, error)
	ListByOrderID(ctx context.Context, orderID string) ([]models.StockLedgerEntry, error)
	ListByChangeType(ctx context.Context, changeType string, params pagination.Params) ([]models.StockLedgerEntry, int64, error)
	ChainForProduct(ctx context.Context, productID uuid.UUID) ([]models.StockLedgerEntry, error)
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository returns a ledger repository bound to the provided database.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) WithTx(tx *gorm.DB) LedgerRepository {
	if tx == nil {
		return r
	}
	return &ledgerRepository{db: tx}
}

func (r *ledgerRepository) Create(ctx context.Context, entry *models.StockLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *ledgerRepository) ListByProductID(ctx context.Context, productID uuid.UUID, params pagination.Params) ([]models.StockLedgerEntry, int64, error) {
	return r.page(ctx, r.db.WithContext(ctx).Model(&models.StockLedgerEntry{}).Where("product_id = ?", productID), params)
}

func (r *ledgerRepository) ListByChangeType(ctx context.Context, changeType string, params pagination.Params) ([]models.StockLedgerEntry, int64, error) {
	return r.page(ctx, r.db.WithContext(ctx).Model(&models.StockLedgerEntry{}).Where("change_type = ?", changeType), params)
}

func (r *ledgerRepository) page(_ context.Context, q *gorm.DB, params pagination.Params) ([]models.StockLedgerEntry, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	params = params.Normalize()
	var entries []models.StockLedgerEntry
	if err := q.Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *ledgerRepository) ListByOrderID(ctx context.Context, orderID string) ([]models.StockLedgerEntry, error) {
	var entries []models.StockLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ledgerRepository) ChainForProduct(ctx context.Context, productID uuid.UUID) ([]models.StockLedgerEntry, error) {
	var entries []models.StockLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
