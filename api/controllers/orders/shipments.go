package orders

import (
	"context"
	"net/http"

	"github.com/Yuriltlef/ApexFlow-sub001/api/responses"
	"github.com/Yuriltlef/ApexFlow-sub001/api/validators"
	internalorders "github.com/Yuriltlef/ApexFlow-sub001/internal/orders"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/shipments"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

type shippingInfoRequest struct {
	Carrier        *string `json:"carrier" validate:"omitempty,max=64"`
	TrackingNumber *string `json:"tracking_number" validate:"omitempty,max=128"`
	SenderAddress  *string `json:"sender_address" validate:"omitempty,max=255"`
}

type shipmentStatusRequest struct {
	Status string `json:"status" validate:"required,max=16"`
}

// Shipment returns the logistics record created alongside the order.
func Shipment(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := shipmentOrderID(w, r, svc, logg)
		if !ok {
			return
		}
		shipment, err := svc.GetByOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "load shipment"))
			return
		}
		responses.WriteSuccess(w, internalorders.NewShipmentDTO(shipment))
	}
}

// UpdateShipment sets carrier, tracking number or sender address.
func UpdateShipment(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := shipmentOrderID(w, r, svc, logg)
		if !ok {
			return
		}
		var req shippingInfoRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipment, err := svc.UpdateShippingInfo(r.Context(), orderID, shipments.ShippingInfoInput{
			Carrier:        validators.SanitizeOptional(req.Carrier, 64),
			TrackingNumber: validators.SanitizeOptional(req.TrackingNumber, 128),
			SenderAddress:  validators.SanitizeOptional(req.SenderAddress, 255),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "update shipment"))
			return
		}
		responses.WriteSuccess(w, internalorders.NewShipmentDTO(shipment))
	}
}

func UpdateShipmentStatus(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := shipmentOrderID(w, r, svc, logg)
		if !ok {
			return
		}
		var req shipmentStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shipment, err := svc.UpdateStatus(r.Context(), orderID, req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "update shipment status"))
			return
		}
		responses.WriteSuccess(w, internalorders.NewShipmentDTO(shipment))
	}
}

// PendingShipments pages the queue of shipments not yet handed to a carrier.
func PendingShipments(svc shipments.Service, defaultPageSize int, logg *logger.Logger) http.HandlerFunc {
	return shipmentQueue(svc, defaultPageSize, logg, "list pending shipments", shipments.Service.ListPending)
}

// InTransitShipments pages shipments that left the warehouse but are not delivered.
func InTransitShipments(svc shipments.Service, defaultPageSize int, logg *logger.Logger) http.HandlerFunc {
	return shipmentQueue(svc, defaultPageSize, logg, "list in-transit shipments", shipments.Service.ListInTransit)
}

// ShipmentStats counts shipments per status.
func ShipmentStats(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "shipment stats"))
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

type shipmentLister func(svc shipments.Service, ctx context.Context, params pagination.Params) (pagination.Page[models.Shipment], error)

func shipmentQueue(svc shipments.Service, defaultPageSize int, logg *logger.Logger, op string, list shipmentLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
			return
		}
		params, err := validators.ParsePage(r, defaultPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := list(svc, r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, op))
			return
		}
		items := make([]*internalorders.ShipmentDTO, len(page.Items))
		for i := range page.Items {
			items[i] = internalorders.NewShipmentDTO(&page.Items[i])
		}
		responses.WriteSuccess(w, pagination.Page[*internalorders.ShipmentDTO]{
			Items:    items,
			Page:     page.Page,
			PageSize: page.PageSize,
			Total:    page.Total,
		})
	}
}

func shipmentOrderID(w http.ResponseWriter, r *http.Request, svc shipments.Service, logg *logger.Logger) (string, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipment service unavailable"))
		return "", false
	}
	orderID, err := validators.URLParam(r, "orderId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return "", false
	}
	return orderID, true
}
