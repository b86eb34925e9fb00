package shipments

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/repo"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

// Repository persists the single shipment record of an order.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts the shipment. A second shipment for the same order violates
// the unique order index.
func (r *Repository) Create(ctx context.Context, shipment *models.Shipment) error {
	return r.DB(ctx).Create(shipment).Error
}

// FindByOrderID loads the shipment of an order.
func (r *Repository) FindByOrderID(ctx context.Context, orderID string) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.DB(ctx).Where("order_id = ?", orderID).First(&shipment).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

// UpdateShippingInfo sets carrier details. Nil fields are left as they are.
func (r *Repository) UpdateShippingInfo(ctx context.Context, orderID string, carrier, tracking, sender *string) error {
	updates := map[string]any{}
	if carrier != nil {
		updates["carrier"] = *carrier
	}
	if tracking != nil {
		updates["tracking_number"] = *tracking
	}
	if sender != nil {
		updates["sender_address"] = *sender
	}
	if len(updates) == 0 {
		return nil
	}
	return r.updateByOrder(ctx, orderID, updates)
}

// UpdateStatus writes the status together with the timestamp it implies.
func (r *Repository) UpdateStatus(ctx context.Context, orderID string, status enums.ShipmentStatus, at time.Time) error {
	updates := map[string]any{"status": status}
	switch status {
	case enums.ShipmentStatusShipped:
		updates["shipped_at"] = at
	case enums.ShipmentStatusDelivered:
		updates["delivered_at"] = at
	}
	return r.updateByOrder(ctx, orderID, updates)
}

// ListByStatus pages shipments in one status. Pending shipments come oldest
// first; shipped and delivered ones most recently shipped first.
func (r *Repository) ListByStatus(ctx context.Context, status enums.ShipmentStatus, params pagination.Params) ([]models.Shipment, int64, error) {
	q := r.DB(ctx).Model(&models.Shipment{}).Where("status = ?", status)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	order := "created_at ASC"
	if status != enums.ShipmentStatusPending {
		order = "shipped_at DESC"
	}
	params = params.Normalize()
	var rows []models.Shipment
	if err := q.Order(order).Order("order_id ASC").
		Limit(params.PageSize).
		Offset(params.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

type statusCount struct {
	Status enums.ShipmentStatus
	Total  int64
}

// CountByStatus groups shipments by status. Statuses with no shipments are absent.
func (r *Repository) CountByStatus(ctx context.Context) (map[enums.ShipmentStatus]int64, error) {
	var rows []statusCount
	if err := r.DB(ctx).Model(&models.Shipment{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[enums.ShipmentStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

// DeleteByOrderID removes the shipment of an order. Deleting a missing
// shipment is not an error.
func (r *Repository) DeleteByOrderID(ctx context.Context, orderID string) error {
	return r.DB(ctx).Where("order_id = ?", orderID).Delete(&models.Shipment{}).Error
}

func (r *Repository) updateByOrder(ctx context.Context, orderID string, updates map[string]any) error {
	res := r.DB(ctx).Model(&models.Shipment{}).Where("order_id = ?", orderID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
