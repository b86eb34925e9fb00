package orders

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Yuriltlef/ApexFlow-sub001/api/middleware"
	"github.com/Yuriltlef/ApexFlow-sub001/api/responses"
	"github.com/Yuriltlef/ApexFlow-sub001/api/validators"
	internalorders "github.com/Yuriltlef/ApexFlow-sub001/internal/orders"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
)

// statusValue accepts an order status as its name or its numeric code.
type statusValue string

func (s *statusValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*s = statusValue(raw)
		return nil
	}
	var code json.Number
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	*s = statusValue(code.String())
	return nil
}

func (s statusValue) parse() (enums.OrderStatus, error) {
	status, err := enums.ParseOrderStatus(string(s))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status").WithDetails(map[string]any{"status": string(s)})
	}
	return status, nil
}

type createOrderRequest struct {
	OrderID         string              `json:"order_id" validate:"omitempty,max=50"`
	UserID          string              `json:"user_id" validate:"omitempty,max=64"`
	Status          statusValue         `json:"status"`
	PaymentMethod   string              `json:"payment_method" validate:"required,max=32"`
	AddressID       *string             `json:"address_id" validate:"omitempty,max=64"`
	ReceiverAddress *string             `json:"receiver_address" validate:"omitempty,max=255"`
	TotalAmount     *decimal.Decimal    `json:"total_amount" validate:"omitempty,money"`
	Items           []createItemRequest `json:"items" validate:"required,min=1,dive"`
}

type createItemRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Quantity  int              `json:"quantity" validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty,money"`
	Subtotal  *decimal.Decimal `json:"subtotal" validate:"omitempty,money"`
}

func (req createOrderRequest) toInput(callerID string) (internalorders.CreateOrderInput, error) {
	input := internalorders.CreateOrderInput{
		OrderID:         validators.SanitizeString(req.OrderID, 50),
		UserID:          validators.SanitizeString(req.UserID, 64),
		PaymentMethod:   validators.SanitizeString(req.PaymentMethod, 32),
		AddressID:       validators.SanitizeOptional(req.AddressID, 64),
		ReceiverAddress: validators.SanitizeOptional(req.ReceiverAddress, 255),
		TotalAmount:     req.TotalAmount,
		Items:           make([]internalorders.CreateItemInput, 0, len(req.Items)),
	}
	if input.UserID == "" {
		input.UserID = callerID
	}
	if strings.TrimSpace(string(req.Status)) != "" {
		status, err := req.Status.parse()
		if err != nil {
			return input, err
		}
		input.Status = status
	}
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		input.Items = append(input.Items, internalorders.CreateItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	return input, nil
}

type updateOrderRequest struct {
	AddressID     *string `json:"address_id" validate:"omitempty,max=64"`
	PaymentMethod *string `json:"payment_method" validate:"omitempty,min=1,max=32"`
}

type updateStatusRequest struct {
	Status statusValue `json:"status" validate:"required"`
}

type orderTotalResponse struct {
	OrderID     string          `json:"order_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Create places a new order. The caller becomes the owner unless user_id is set.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "create order"))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

// List returns a page of orders, optionally narrowed by user_id and status.
func List(svc internalorders.Service, defaultPageSize int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		params, err := validators.ParsePage(r, defaultPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := parseListFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListOrders(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "list orders"))
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func parseListFilter(r *http.Request) (internalorders.ListFilter, error) {
	query := r.URL.Query()
	filter := internalorders.ListFilter{
		UserID:       validators.SanitizeString(query.Get("user_id"), 64),
		IncludeItems: strings.EqualFold(strings.TrimSpace(query.Get("include_items")), "true"),
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := statusValue(raw).parse()
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	return filter, nil
}

// Detail returns the order with its items, shipment, financial entries,
// after-sales claims, reviews and any pending compensations.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := orderIDParam(w, r, svc, logg)
		if !ok {
			return
		}
		detail, err := svc.GetOrderDetail(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "load order"))
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// Update edits the address or payment method of an unshipped order.
func Update(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := orderIDParam(w, r, svc, logg)
		if !ok {
			return
		}
		var req updateOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.AddressID == nil && req.PaymentMethod == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update"))
			return
		}

		order, err := svc.UpdateOrder(r.Context(), orderID, internalorders.UpdateOrderInput{
			AddressID:     req.AddressID,
			PaymentMethod: req.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "update order"))
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// UpdateStatus drives the order through the state machine.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := orderIDParam(w, r, svc, logg)
		if !ok {
			return
		}
		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := req.Status.parse()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateOrderStatus(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "update order status"))
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Delete removes an order and everything hanging off it, restoring stock
// when the order never shipped.
func Delete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := orderIDParam(w, r, svc, logg)
		if !ok {
			return
		}
		if err := svc.DeleteOrder(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "delete order"))
			return
		}
		responses.WriteNoContent(w)
	}
}

func Total(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, ok := orderIDParam(w, r, svc, logg)
		if !ok {
			return
		}
		total, err := svc.CalculateOrderTotal(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "calculate order total"))
			return
		}
		responses.WriteSuccess(w, orderTotalResponse{OrderID: orderID, TotalAmount: total})
	}
}

func orderIDParam(w http.ResponseWriter, r *http.Request, svc internalorders.Service, logg *logger.Logger) (string, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
		return "", false
	}
	orderID, err := validators.URLParam(r, "orderId")
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return "", false
	}
	return orderID, true
}
