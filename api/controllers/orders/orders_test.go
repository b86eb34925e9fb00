package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Yuriltlef/ApexFlow-sub001/api/middleware"
	internalorders "github.com/Yuriltlef/ApexFlow-sub001/internal/orders"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/shipments"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

type stubOrderService struct {
	create       func(ctx context.Context, input internalorders.CreateOrderInput) (*internalorders.OrderDetail, error)
	detail       func(ctx context.Context, orderID string) (*internalorders.OrderDetail, error)
	list         func(ctx context.Context, filter internalorders.ListFilter, params pagination.Params) (pagination.Page[internalorders.OrderDTO], error)
	update       func(ctx context.Context, orderID string, input internalorders.UpdateOrderInput) (*internalorders.OrderDTO, error)
	updateStatus func(ctx context.Context, orderID string, status enums.OrderStatus) (*internalorders.OrderDTO, error)
	remove       func(ctx context.Context, orderID string) error
	total        func(ctx context.Context, orderID string) (decimal.Decimal, error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, input internalorders.CreateOrderInput) (*internalorders.OrderDetail, error) {
	return s.create(ctx, input)
}

func (s *stubOrderService) GetOrderDetail(ctx context.Context, orderID string) (*internalorders.OrderDetail, error) {
	return s.detail(ctx, orderID)
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter internalorders.ListFilter, params pagination.Params) (pagination.Page[internalorders.OrderDTO], error) {
	return s.list(ctx, filter, params)
}

func (s *stubOrderService) UpdateOrder(ctx context.Context, orderID string, input internalorders.UpdateOrderInput) (*internalorders.OrderDTO, error) {
	return s.update(ctx, orderID, input)
}

func (s *stubOrderService) UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus) (*internalorders.OrderDTO, error) {
	return s.updateStatus(ctx, orderID, status)
}

func (s *stubOrderService) DeleteOrder(ctx context.Context, orderID string) error {
	return s.remove(ctx, orderID)
}

func (s *stubOrderService) CalculateOrderTotal(ctx context.Context, orderID string) (decimal.Decimal, error) {
	return s.total(ctx, orderID)
}

type stubShipmentService struct {
	get        func(ctx context.Context, orderID string) (*models.Shipment, error)
	updateInfo func(ctx context.Context, orderID string, input shipments.ShippingInfoInput) (*models.Shipment, error)
	status     func(ctx context.Context, orderID string, status string) (*models.Shipment, error)
	pending    func(ctx context.Context, params pagination.Params) (pagination.Page[models.Shipment], error)
	transit    func(ctx context.Context, params pagination.Params) (pagination.Page[models.Shipment], error)
	stats      func(ctx context.Context) (shipments.Stats, error)
}

func (s *stubShipmentService) GetByOrder(ctx context.Context, orderID string) (*models.Shipment, error) {
	return s.get(ctx, orderID)
}

func (s *stubShipmentService) UpdateShippingInfo(ctx context.Context, orderID string, input shipments.ShippingInfoInput) (*models.Shipment, error) {
	return s.updateInfo(ctx, orderID, input)
}

func (s *stubShipmentService) UpdateStatus(ctx context.Context, orderID string, status string) (*models.Shipment, error) {
	return s.status(ctx, orderID, status)
}

func (s *stubShipmentService) ListPending(ctx context.Context, params pagination.Params) (pagination.Page[models.Shipment], error) {
	return s.pending(ctx, params)
}

func (s *stubShipmentService) ListInTransit(ctx context.Context, params pagination.Params) (pagination.Page[models.Shipment], error) {
	return s.transit(ctx, params)
}

func (s *stubShipmentService) Stats(ctx context.Context) (shipments.Stats, error) {
	return s.stats(ctx)
}

func newRequest(method, target, body string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithPrincipal(ctx, "op-1", "ops", []enums.Permission{enums.PermissionOrderManage})
	return req.WithContext(ctx)
}

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body
}

func TestCreateMapsRequest(t *testing.T) {
	productID := uuid.New()
	var captured internalorders.CreateOrderInput
	svc := &stubOrderService{
		create: func(_ context.Context, input internalorders.CreateOrderInput) (*internalorders.OrderDetail, error) {
			captured = input
			return &internalorders.OrderDetail{Order: internalorders.OrderDTO{ID: "ORD-1"}}, nil
		},
	}
	body := `{"payment_method":" alipay ","status":"paid","total_amount":"19.98","items":[{"product_id":"` + productID.String() + `","quantity":2,"unit_price":"9.99"}]}`

	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/orders", body, nil))

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, "op-1", captured.UserID)
	require.Equal(t, "alipay", captured.PaymentMethod)
	require.Equal(t, enums.OrderStatusPaid, captured.Status)
	require.True(t, captured.TotalAmount.Equal(decimal.RequireFromString("19.98")))
	require.Len(t, captured.Items, 1)
	require.Equal(t, productID, captured.Items[0].ProductID)
	require.Equal(t, 2, captured.Items[0].Quantity)
	require.Nil(t, captured.Items[0].Subtotal)
}

func TestCreateValidation(t *testing.T) {
	svc := &stubOrderService{
		create: func(context.Context, internalorders.CreateOrderInput) (*internalorders.OrderDetail, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	cases := map[string]string{
		"no items":        `{"payment_method":"card","items":[]}`,
		"zero quantity":   `{"payment_method":"card","items":[{"product_id":"` + uuid.NewString() + `","quantity":0}]}`,
		"bad product":     `{"payment_method":"card","items":[{"product_id":"nope","quantity":1}]}`,
		"three decimals":  `{"payment_method":"card","total_amount":"1.005","items":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`,
		"unknown status":  `{"payment_method":"card","status":"lost","items":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`,
		"unknown field":   `{"payment_method":"card","coupon":"X","items":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`,
		"missing payment": `{"items":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			Create(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/orders", body, nil))
			require.Equal(t, http.StatusBadRequest, resp.Code)
			require.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, resp).Error.Code)
		})
	}
}

func TestCreateInsufficientStock(t *testing.T) {
	svc := &stubOrderService{
		create: func(context.Context, internalorders.CreateOrderInput) (*internalorders.OrderDetail, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").WithDetails(map[string]any{"available": 1})
		},
	}
	body := `{"payment_method":"card","items":[{"product_id":"` + uuid.NewString() + `","quantity":5}]}`
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/orders", body, nil))

	require.Equal(t, http.StatusConflict, resp.Code)
	require.Equal(t, string(pkgerrors.CodeInsufficientStock), decodeError(t, resp).Error.Code)
}

func TestListParsesFilters(t *testing.T) {
	var gotFilter internalorders.ListFilter
	var gotParams pagination.Params
	svc := &stubOrderService{
		list: func(_ context.Context, filter internalorders.ListFilter, params pagination.Params) (pagination.Page[internalorders.OrderDTO], error) {
			gotFilter, gotParams = filter, params
			return pagination.NewPage([]internalorders.OrderDTO{}, params, 0), nil
		},
	}
	resp := httptest.NewRecorder()
	List(svc, 20, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/orders?page=2&user_id=u-9&status=3&include_items=true", "", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "u-9", gotFilter.UserID)
	require.NotNil(t, gotFilter.Status)
	require.Equal(t, enums.OrderStatusShipped, *gotFilter.Status)
	require.True(t, gotFilter.IncludeItems)
	require.Equal(t, pagination.Params{Page: 2, PageSize: 20}, gotParams)

	resp = httptest.NewRecorder()
	List(svc, 20, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/orders?page_size=500", "", nil))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateStatusAcceptsCodeOrName(t *testing.T) {
	var got []enums.OrderStatus
	svc := &stubOrderService{
		updateStatus: func(_ context.Context, orderID string, status enums.OrderStatus) (*internalorders.OrderDTO, error) {
			require.Equal(t, "ORD-7", orderID)
			got = append(got, status)
			return &internalorders.OrderDTO{ID: orderID, Status: status.String(), StatusCode: int(status)}, nil
		},
	}
	params := map[string]string{"orderId": "ORD-7"}
	for _, body := range []string{`{"status":2}`, `{"status":"cancelled"}`} {
		resp := httptest.NewRecorder()
		UpdateStatus(svc, nil).ServeHTTP(resp, newRequest(http.MethodPut, "/api/v1/orders/ORD-7/status", body, params))
		require.Equal(t, http.StatusOK, resp.Code)
	}
	require.Equal(t, []enums.OrderStatus{enums.OrderStatusPaid, enums.OrderStatusCancelled}, got)

	resp := httptest.NewRecorder()
	UpdateStatus(svc, nil).ServeHTTP(resp, newRequest(http.MethodPut, "/api/v1/orders/ORD-7/status", `{"status":9}`, params))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateStatusRejectedTransition(t *testing.T) {
	svc := &stubOrderService{
		updateStatus: func(context.Context, string, enums.OrderStatus) (*internalorders.OrderDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "cannot move from completed to paid")
		},
	}
	resp := httptest.NewRecorder()
	UpdateStatus(svc, nil).ServeHTTP(resp, newRequest(http.MethodPut, "/", `{"status":"paid"}`, map[string]string{"orderId": "ORD-1"}))

	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	body := decodeError(t, resp)
	require.Equal(t, string(pkgerrors.CodeInvalidTransition), body.Error.Code)
	require.Equal(t, "cannot move from completed to paid", body.Error.Message)
}

func TestUpdateRequiresAField(t *testing.T) {
	called := false
	svc := &stubOrderService{
		update: func(_ context.Context, _ string, input internalorders.UpdateOrderInput) (*internalorders.OrderDTO, error) {
			called = true
			require.Equal(t, "wechat", *input.PaymentMethod)
			return &internalorders.OrderDTO{ID: "ORD-1"}, nil
		},
	}
	params := map[string]string{"orderId": "ORD-1"}

	resp := httptest.NewRecorder()
	Update(svc, nil).ServeHTTP(resp, newRequest(http.MethodPatch, "/", `{}`, params))
	require.Equal(t, http.StatusBadRequest, resp.Code)
	require.False(t, called)

	resp = httptest.NewRecorder()
	Update(svc, nil).ServeHTTP(resp, newRequest(http.MethodPatch, "/", `{"payment_method":"wechat"}`, params))
	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, called)
}

func TestDeleteAndTotal(t *testing.T) {
	svc := &stubOrderService{
		remove: func(_ context.Context, orderID string) error {
			if orderID == "ORD-LOCKED" {
				return pkgerrors.New(pkgerrors.CodeOrderLocked, "order has shipped")
			}
			return nil
		},
		total: func(context.Context, string) (decimal.Decimal, error) {
			return decimal.RequireFromString("42.50"), nil
		},
	}

	resp := httptest.NewRecorder()
	Delete(svc, nil).ServeHTTP(resp, newRequest(http.MethodDelete, "/", "", map[string]string{"orderId": "ORD-1"}))
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = httptest.NewRecorder()
	Delete(svc, nil).ServeHTTP(resp, newRequest(http.MethodDelete, "/", "", map[string]string{"orderId": "ORD-LOCKED"}))
	require.Equal(t, http.StatusConflict, resp.Code)
	require.Equal(t, string(pkgerrors.CodeOrderLocked), decodeError(t, resp).Error.Code)

	resp = httptest.NewRecorder()
	Total(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/", "", map[string]string{"orderId": "ORD-1"}))
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"data":{"order_id":"ORD-1","total_amount":"42.5"}}`, resp.Body.String())
}

func TestDetailHidesUntypedErrors(t *testing.T) {
	svc := &stubOrderService{
		detail: func(context.Context, string) (*internalorders.OrderDetail, error) {
			return nil, errors.New("dial tcp 10.0.0.3:5432: connection refused")
		},
	}
	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/", "", map[string]string{"orderId": "ORD-1"}))

	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	require.NotContains(t, resp.Body.String(), "10.0.0.3")
}

func TestShipmentHandlers(t *testing.T) {
	carrier := "SF"
	svc := &stubShipmentService{
		get: func(_ context.Context, orderID string) (*models.Shipment, error) {
			if orderID == "missing" {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return &models.Shipment{OrderID: orderID, Status: enums.ShipmentStatusPending}, nil
		},
		updateInfo: func(_ context.Context, orderID string, input shipments.ShippingInfoInput) (*models.Shipment, error) {
			require.Equal(t, "SF", *input.Carrier)
			require.Nil(t, input.SenderAddress)
			return &models.Shipment{OrderID: orderID, Carrier: input.Carrier, Status: enums.ShipmentStatusPending}, nil
		},
		status: func(_ context.Context, orderID string, status string) (*models.Shipment, error) {
			require.Equal(t, "shipped", status)
			return &models.Shipment{OrderID: orderID, Carrier: &carrier, Status: enums.ShipmentStatusShipped}, nil
		},
	}

	resp := httptest.NewRecorder()
	Shipment(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/", "", map[string]string{"orderId": "missing"}))
	require.Equal(t, http.StatusNotFound, resp.Code)

	resp = httptest.NewRecorder()
	UpdateShipment(svc, nil).ServeHTTP(resp, newRequest(http.MethodPut, "/", `{"carrier":" SF ","sender_address":"  "}`, map[string]string{"orderId": "ORD-1"}))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	UpdateShipmentStatus(svc, nil).ServeHTTP(resp, newRequest(http.MethodPut, "/", `{"status":"shipped"}`, map[string]string{"orderId": "ORD-1"}))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"status":"shipped"`)
}

func TestShipmentQueueHandlers(t *testing.T) {
	svc := &stubShipmentService{
		pending: func(_ context.Context, params pagination.Params) (pagination.Page[models.Shipment], error) {
			require.Equal(t, 2, params.Page)
			require.Equal(t, 5, params.PageSize)
			return pagination.NewPage([]models.Shipment{{OrderID: "ORD-7", Status: enums.ShipmentStatusPending}}, params, 6), nil
		},
		transit: func(context.Context, pagination.Params) (pagination.Page[models.Shipment], error) {
			return pagination.Page[models.Shipment]{}, errors.New("db down")
		},
		stats: func(context.Context) (shipments.Stats, error) {
			return shipments.Stats{Pending: 1, Shipped: 2, Total: 3}, nil
		},
	}

	resp := httptest.NewRecorder()
	PendingShipments(svc, 20, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/?page=2&page_size=5", "", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"order_id":"ORD-7"`)
	require.Contains(t, resp.Body.String(), `"total":6`)

	resp = httptest.NewRecorder()
	InTransitShipments(svc, 20, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/", "", nil))
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)

	resp = httptest.NewRecorder()
	ShipmentStats(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/", "", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"shipped":2`)

	resp = httptest.NewRecorder()
	PendingShipments(nil, 20, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/", "", nil))
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}
