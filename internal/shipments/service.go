package shipments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/repo"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

type store interface {
	FindByOrderID(ctx context.Context, orderID string) (*models.Shipment, error)
	UpdateShippingInfo(ctx context.Context, orderID string, carrier, tracking, sender *string) error
	UpdateStatus(ctx context.Context, orderID string, status enums.ShipmentStatus, at time.Time) error
	ListByStatus(ctx context.Context, status enums.ShipmentStatus, params pagination.Params) ([]models.Shipment, int64, error)
	CountByStatus(ctx context.Context) (map[enums.ShipmentStatus]int64, error)
}

// Service exposes shipment maintenance for logistics operators.
type Service interface {
	GetByOrder(ctx context.Context, orderID string) (*models.Shipment, error)
	UpdateShippingInfo(ctx context.Context, orderID string, input ShippingInfoInput) (*models.Shipment, error)
	UpdateStatus(ctx context.Context, orderID string, status string) (*models.Shipment, error)
	ListPending(ctx context.Context, params pagination.Params) (pagination.Page[models.Shipment], error)
	ListInTransit(ctx context.Context, params pagination.Params) (pagination.Page[models.Shipment], error)
	Stats(ctx context.Context) (Stats, error)
}

// Stats counts shipments per status.
type Stats struct {
	Pending   int64 `json:"pending"`
	Shipped   int64 `json:"shipped"`
	Delivered int64 `json:"delivered"`
	Total     int64 `json:"total"`
}

// ShippingInfoInput carries the optional carrier fields. Blank values are ignored.
type ShippingInfoInput struct {
	Carrier        *string
	TrackingNumber *string
	SenderAddress  *string
}

type service struct {
	repo store
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the shipment service.
func NewService(repo store, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipment repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) GetByOrder(ctx context.Context, orderID string) (*models.Shipment, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	shipment, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, repo.NotFound(err, "shipment")
	}
	return shipment, nil
}

func (s *service) UpdateShippingInfo(ctx context.Context, orderID string, input ShippingInfoInput) (*models.Shipment, error) {
	if _, err := s.GetByOrder(ctx, orderID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateShippingInfo(ctx, orderID, trimmed(input.Carrier), trimmed(input.TrackingNumber), trimmed(input.SenderAddress)); err != nil {
		return nil, repo.NotFound(err, "shipment")
	}
	s.logg.Info(s.logg.WithOrderID(ctx, orderID), "shipping info updated")
	return s.GetByOrder(ctx, orderID)
}

func (s *service) UpdateStatus(ctx context.Context, orderID string, raw string) (*models.Shipment, error) {
	status, err := enums.ParseShipmentStatus(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipment status")
	}
	if _, err := s.GetByOrder(ctx, orderID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, orderID, status, s.now().UTC()); err != nil {
		return nil, repo.NotFound(err, "shipment")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": orderID, "shipment_status": status.String()})
	s.logg.Info(logCtx, "shipment status updated")
	return s.GetByOrder(ctx, orderID)
}

// ListPending is the queue of shipments waiting to leave the warehouse.
func (s *service) ListPending(ctx context.Context, params pagination.Params) (pagination.Page[models.Shipment], error) {
	return s.listByStatus(ctx, enums.ShipmentStatusPending, params)
}

// ListInTransit lists shipments handed to a carrier but not yet delivered.
func (s *service) ListInTransit(ctx context.Context, params pagination.Params) (pagination.Page[models.Shipment], error) {
	return s.listByStatus(ctx, enums.ShipmentStatusShipped, params)
}

func (s *service) listByStatus(ctx context.Context, status enums.ShipmentStatus, params pagination.Params) (pagination.Page[models.Shipment], error) {
	params = params.Normalize()
	rows, total, err := s.repo.ListByStatus(ctx, status, params)
	if err != nil {
		return pagination.Page[models.Shipment]{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, fmt.Sprintf("list %s shipments", status))
	}
	return pagination.NewPage(rows, params, total), nil
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "count shipments")
	}
	stats := Stats{
		Pending:   counts[enums.ShipmentStatusPending],
		Shipped:   counts[enums.ShipmentStatusShipped],
		Delivered: counts[enums.ShipmentStatusDelivered],
	}
	stats.Total = stats.Pending + stats.Shipped + stats.Delivered
	return stats, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
