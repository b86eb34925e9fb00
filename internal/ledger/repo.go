package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

// EntryFilter narrows listings. Zero values match everything.
type EntryFilter struct {
	OrderID string
	Type    enums.FinancialEntryType
	Status  enums.FinancialEntryStatus
}

// Repository manages persistence for financial ledger entries.
type Repository interface {
	Create(ctx context.Context, entry *models.FinancialEntry) error
	ListByOrderID(ctx context.Context, orderID string) ([]models.FinancialEntry, error)
	List(ctx context.Context, filter EntryFilter, params pagination.Params) ([]models.FinancialEntry, int64, error)
	Count(ctx context.Context, filter EntryFilter) (int64, error)
	// SumAmount totals the amounts of entries matching filter.
	SumAmount(ctx context.Context, filter EntryFilter) (decimal.Decimal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a financial ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, entry *models.FinancialEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByOrderID(ctx context.Context, orderID string) ([]models.FinancialEntry, error) {
	var entries []models.FinancialEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) List(ctx context.Context, filter EntryFilter, params pagination.Params) ([]models.FinancialEntry, int64, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	var entries []models.FinancialEntry
	if err := r.filtered(ctx, filter).
		Order("transaction_time DESC").
		Order("id ASC").
		Limit(params.Normalize().PageSize).
		Offset(params.Offset()).
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *repository) Count(ctx context.Context, filter EntryFilter) (int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) SumAmount(ctx context.Context, filter EntryFilter) (decimal.Decimal, error) {
	var sum decimal.Decimal
	row := r.filtered(ctx, filter).Select("COALESCE(SUM(amount), 0)").Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.FinancialEntry{}, "id = ?", id).Error
}

func (r *repository) filtered(ctx context.Context, filter EntryFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.FinancialEntry{})
	if filter.OrderID != "" {
		q = q.Where("order_id = ?", filter.OrderID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != 0 {
		q = q.Where("status = ?", filter.Status)
	}
	return q
}
