package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/repo"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

// Service coordinates the order lifecycle across orders, items, stock,
// shipments and financial entries. Each step is a separate write; failures
// are repaired through the compensator.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDetail, error)
	GetOrderDetail(ctx context.Context, orderID string) (*OrderDetail, error)
	ListOrders(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[OrderDTO], error)
	UpdateOrder(ctx context.Context, orderID string, input UpdateOrderInput) (*OrderDTO, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus) (*OrderDTO, error)
	DeleteOrder(ctx context.Context, orderID string) error
	CalculateOrderTotal(ctx context.Context, orderID string) (decimal.Decimal, error)
}

// ServiceParams wires the coordinator.
type ServiceParams struct {
	Orders      OrderRepository
	Items       ItemRepository
	Products    ProductReader
	Guard       StockGuard
	Shipments   ShipmentStore
	Finance     FinancialLedger
	AfterSales  AfterSalesStore
	Reviews     ReviewStore
	Compensator Compensator
	Logger      *logger.Logger
}

type service struct {
	orders      OrderRepository
	items       ItemRepository
	products    ProductReader
	guard       StockGuard
	shipments   ShipmentStore
	finance     FinancialLedger
	afterSales  AfterSalesStore
	reviews     ReviewStore
	compensator Compensator
	logg        *logger.Logger
	now         func() time.Time
	newSuffix   func() string
}

// NewService builds the order coordinator with the required dependencies.
func NewService(p ServiceParams) (Service, error) {
	switch {
	case p.Orders == nil:
		return nil, fmt.Errorf("order repository required")
	case p.Items == nil:
		return nil, fmt.Errorf("order item repository required")
	case p.Products == nil:
		return nil, fmt.Errorf("product reader required")
	case p.Guard == nil:
		return nil, fmt.Errorf("stock guard required")
	case p.Shipments == nil:
		return nil, fmt.Errorf("shipment store required")
	case p.Finance == nil:
		return nil, fmt.Errorf("financial ledger required")
	case p.AfterSales == nil:
		return nil, fmt.Errorf("after-sales store required")
	case p.Reviews == nil:
		return nil, fmt.Errorf("review store required")
	case p.Compensator == nil:
		return nil, fmt.Errorf("compensator required")
	case p.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		orders:      p.Orders,
		items:       p.Items,
		products:    p.Products,
		guard:       p.Guard,
		shipments:   p.Shipments,
		finance:     p.Finance,
		afterSales:  p.AfterSales,
		reviews:     p.Reviews,
		compensator: p.Compensator,
		logg:        p.Logger,
		now:         time.Now,
		newSuffix:   randomSuffix,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDetail, error) {
	if err := validateCreate(&input); err != nil {
		return nil, err
	}

	catalog, err := s.products.FindByIDs(ctx, productIDs(input.Items))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load products")
	}
	items, total, err := priceItems(input, catalog)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if input.OrderID == "" {
		input.OrderID = "ORD" + now.Format("20060102150405") + s.newSuffix()
	}
	order := &models.Order{
		ID:            input.OrderID,
		UserID:        input.UserID,
		TotalAmount:   total,
		Status:        input.Status,
		PaymentMethod: input.PaymentMethod,
		AddressID:     input.AddressID,
	}
	if order.Status == enums.OrderStatusPaid {
		order.PaidAt = &now
	}

	ctx = s.logg.WithOrderOperation(ctx, order.ID, string(enums.SagaCreateOrder))
	s.logg.Info(ctx, "creating order")

	if err := s.orders.Create(ctx, order); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order id already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create order")
	}
	done := []models.CompensationStep{step(enums.CompensationDeleteOrder)}

	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := s.items.CreateBatch(ctx, items); err != nil {
		return nil, s.abortCreate(ctx, order.ID, done, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create order items"))
	}
	done = append(done, step(enums.CompensationDeleteOrderItems))

	ref := order.ID
	for _, item := range items {
		if _, err := s.guard.Decrease(ctx, item.ProductID, item.Quantity, &ref); err != nil {
			return nil, s.abortCreate(ctx, order.ID, done, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "decrease stock"))
		}
		done = append(done, restoreSteps([]models.OrderItem{item})...)
	}

	shipment := &models.Shipment{
		OrderID:         order.ID,
		Status:          enums.ShipmentStatusPending,
		ReceiverAddress: input.ReceiverAddress,
	}
	if err := s.shipments.Create(ctx, shipment); err != nil {
		return nil, s.abortCreate(ctx, order.ID, done, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create shipment"))
	}
	done = append(done, step(enums.CompensationDeleteShipment))

	var entries []models.FinancialEntry
	if order.Status == enums.OrderStatusPaid {
		entry, _, err := s.finance.RecordIncomeOnce(ctx, incomeFor(order))
		if err != nil {
			return nil, s.abortCreate(ctx, order.ID, done, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "record income"))
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
	}

	s.logg.Info(ctx, "order created")
	return newDetail(order, items, shipment, entries, nil, nil, nil), nil
}

// abortCreate undoes the completed steps of a failed creation and returns the
// original failure.
func (s *service) abortCreate(ctx context.Context, orderID string, done []models.CompensationStep, cause error) error {
	s.logg.Error(ctx, "order creation failed; compensating", cause)
	if err := s.compensator.Compensate(ctx, enums.SagaCreateOrder, orderID, done, cause); err != nil {
		s.logg.Error(ctx, "order creation compensation incomplete", err)
	}
	return cause
}

func (s *service) GetOrderDetail(ctx context.Context, orderID string) (*OrderDetail, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.items.FindByOrderID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load order items")
	}
	shipment, err := s.shipments.FindByOrderID(ctx, order.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load shipment")
		}
		shipment = nil
	}
	entries, err := s.finance.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "load financial entries")
	}
	claims, err := s.afterSales.FindByOrderID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load after-sales claims")
	}
	reviews, err := s.reviews.FindByOrderID(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load reviews")
	}
	pending, err := s.compensator.Pending(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return newDetail(order, items, shipment, entries, claims, reviews, pending), nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter, params pagination.Params) (pagination.Page[OrderDTO], error) {
	params = params.Normalize()
	filter.UserID = strings.TrimSpace(filter.UserID)
	if filter.Status != nil && !filter.Status.IsValid() {
		return pagination.Page[OrderDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}

	total, err := s.orders.Count(ctx, filter)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "count orders")
	}
	rows, err := s.orders.List(ctx, filter, params)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list orders")
	}

	var itemsByOrder map[string][]models.OrderItem
	if filter.IncludeItems && len(rows) > 0 {
		ids := make([]string, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
		}
		itemsByOrder, err = s.items.FindByOrderIDs(ctx, ids)
		if err != nil {
			return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load order items")
		}
	}

	out := make([]OrderDTO, len(rows))
	for i := range rows {
		var items []models.OrderItem
		if filter.IncludeItems {
			items = itemsByOrder[rows[i].ID]
			if items == nil {
				items = []models.OrderItem{}
			}
		}
		out[i] = NewOrderDTO(&rows[i], items)
	}
	return pagination.NewPage(out, params, total), nil
}

func (s *service) UpdateOrder(ctx context.Context, orderID string, input UpdateOrderInput) (*OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !Mutable(order.Status) {
		return nil, lockedError(order)
	}

	updates := map[string]any{}
	if input.AddressID != nil {
		// blank clears the reference
		if addr := strings.TrimSpace(*input.AddressID); addr != "" {
			updates["address_id"] = addr
		} else {
			updates["address_id"] = nil
		}
	}
	if input.PaymentMethod != nil {
		method := strings.TrimSpace(*input.PaymentMethod)
		if method == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method cannot be blank")
		}
		updates["payment_method"] = method
	}
	if len(updates) == 0 {
		dto := NewOrderDTO(order, nil)
		return &dto, nil
	}

	ok, err := s.orders.Update(ctx, order.ID, updates, []enums.OrderStatus{enums.OrderStatusPendingPayment, enums.OrderStatusPaid})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update order")
	}
	updated, err := s.loadOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, lockedError(updated)
	}
	s.logg.Info(s.logg.WithOrderID(ctx, order.ID), "order updated")
	dto := NewOrderDTO(updated, nil)
	return &dto, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID string, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %d", int(status)))
	}
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	plan, err := Plan(order.Status, status)
	if err != nil {
		return nil, err
	}
	if plan.NoOp {
		dto := NewOrderDTO(order, nil)
		return &dto, nil
	}

	ctx = s.logg.WithOperation(s.logg.WithOrderID(ctx, order.ID), string(enums.SagaUpdateOrderStatus))
	ctx = s.logg.WithTransition(ctx, plan.From.String(), plan.To.String())

	var effectSteps []models.CompensationStep
	switch plan.Effect {
	case EffectRecordIncome:
		effectSteps = []models.CompensationStep{step(enums.CompensationRecordIncome)}
	case EffectRestoreStock:
		items, err := s.items.FindByOrderID(ctx, order.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load order items")
		}
		effectSteps = restoreSteps(items)
	}

	stamps := map[string]time.Time{}
	if plan.StampColumn != "" {
		stamps[plan.StampColumn] = s.now().UTC()
	}
	ok, err := s.orders.UpdateStatus(ctx, order.ID, plan.From, plan.To, stamps)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update order status")
	}
	if !ok {
		current, err := s.loadOrder(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		if current.Status == plan.To {
			dto := NewOrderDTO(current, nil)
			return &dto, nil
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently").
			WithDetails(map[string]any{"status": current.Status.String()})
	}
	s.logg.Info(ctx, "order status updated")

	if len(effectSteps) > 0 {
		if err := s.compensator.RollForward(ctx, enums.SagaUpdateOrderStatus, order.ID, effectSteps, nil); err != nil {
			s.logg.Error(ctx, "status side effect incomplete", err)
			return nil, err
		}
	}

	updated, err := s.loadOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	dto := NewOrderDTO(updated, nil)
	return &dto, nil
}

func (s *service) DeleteOrder(ctx context.Context, orderID string) error {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !Deletable(order.Status) {
		return lockedError(order)
	}

	ctx = s.logg.WithOrderOperation(ctx, order.ID, string(enums.SagaDeleteOrder))

	restore, err := s.claimForDelete(ctx, order)
	if err != nil {
		return err
	}

	var steps []models.CompensationStep
	if restore {
		items, err := s.items.FindByOrderID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load order items")
		}
		steps = append(steps, restoreSteps(items)...)
	}
	steps = append(steps,
		step(enums.CompensationDeleteOrderItems),
		step(enums.CompensationDeleteShipment),
		step(enums.CompensationDeleteFinancialEntries),
		step(enums.CompensationDeleteAfterSales),
		step(enums.CompensationDeleteReview),
		step(enums.CompensationDeleteOrder),
	)

	if err := s.compensator.RollForward(ctx, enums.SagaDeleteOrder, order.ID, steps, nil); err != nil {
		s.logg.Error(ctx, "order deletion incomplete", err)
		return err
	}
	s.logg.Info(ctx, "order deleted")
	return nil
}

// claimForDelete moves a paid order to cancelled before its stock is
// restored, so a concurrent cancel cannot restore the same items twice. It
// reports whether the caller owns the restore.
func (s *service) claimForDelete(ctx context.Context, order *models.Order) (bool, error) {
	if order.Status != enums.OrderStatusPaid {
		return false, nil
	}
	ok, err := s.orders.UpdateStatus(ctx, order.ID, enums.OrderStatusPaid, enums.OrderStatusCancelled, nil)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "claim order for deletion")
	}
	if ok {
		return true, nil
	}
	current, err := s.loadOrder(ctx, order.ID)
	if err != nil {
		return false, err
	}
	if !Deletable(current.Status) {
		return false, lockedError(current)
	}
	s.logg.Warn(ctx, fmt.Sprintf("order moved to %s before deletion; skipping stock restore", current.Status))
	return false, nil
}

func (s *service) CalculateOrderTotal(ctx context.Context, orderID string) (decimal.Decimal, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	total, err := s.items.SumSubtotals(ctx, order.ID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "sum order items")
	}
	return total, nil
}

func (s *service) loadOrder(ctx context.Context, orderID string) (*models.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, repo.NotFound(err, "order")
	}
	return order, nil
}

func lockedError(order *models.Order) error {
	return pkgerrors.New(pkgerrors.CodeOrderLocked, fmt.Sprintf("order is %s", order.Status)).
		WithDetails(map[string]any{"order_id": order.ID, "status": order.Status.String()})
}

func validateCreate(input *CreateOrderInput) error {
	input.OrderID = strings.TrimSpace(input.OrderID)
	input.UserID = strings.TrimSpace(input.UserID)
	input.PaymentMethod = strings.TrimSpace(input.PaymentMethod)
	if input.AddressID != nil {
		if addr := strings.TrimSpace(*input.AddressID); addr != "" {
			input.AddressID = &addr
		} else {
			input.AddressID = nil
		}
	}

	if input.UserID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(input.OrderID) > 50 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is too long")
	}
	if input.Status == 0 {
		input.Status = enums.OrderStatusPendingPayment
	}
	if input.Status != enums.OrderStatusPendingPayment && input.Status != enums.OrderStatusPaid {
		return pkgerrors.New(pkgerrors.CodeValidation, "new orders must be pending payment or paid")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	if input.TotalAmount != nil && input.TotalAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "total amount cannot be negative")
	}
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: product id is required", i))
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be positive", i))
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: unit price cannot be negative", i))
		}
		if item.Subtotal != nil && item.Subtotal.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: subtotal cannot be negative", i))
		}
	}
	return nil
}

// priceItems prices every line from the catalog and runs the advisory stock
// pre-check. Requested quantities are summed per product before comparing.
func priceItems(input CreateOrderInput, catalog map[uuid.UUID]models.Product) ([]models.OrderItem, decimal.Decimal, error) {
	requested := map[uuid.UUID]int{}
	items := make([]models.OrderItem, 0, len(input.Items))
	total := decimal.Zero

	for i, in := range input.Items {
		product, ok := catalog[in.ProductID]
		if !ok {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: product not found", i)).
				WithDetails(map[string]any{"product_id": in.ProductID.String()})
		}
		if product.Status != enums.ProductStatusListed {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: product is not listed", i)).
				WithDetails(map[string]any{"product_id": in.ProductID.String()})
		}
		if in.UnitPrice != nil && !in.UnitPrice.Equal(product.Price) {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: unit price does not match catalog price", i)).
				WithDetails(map[string]any{"product_id": in.ProductID.String(), "catalog_price": product.Price.StringFixed(2)})
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(in.Quantity)))
		if in.Subtotal != nil && !in.Subtotal.Equal(subtotal) {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: subtotal does not match price times quantity", i)).
				WithDetails(map[string]any{"product_id": in.ProductID.String(), "expected": subtotal.StringFixed(2)})
		}
		requested[in.ProductID] += in.Quantity
		total = total.Add(subtotal)
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    in.Quantity,
			UnitPrice:   product.Price,
			Subtotal:    subtotal,
		})
	}

	if input.TotalAmount != nil && !input.TotalAmount.Equal(total) {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "total amount does not match item subtotals").
			WithDetails(map[string]any{"expected": total.StringFixed(2)})
	}

	short := make([]uuid.UUID, 0)
	for id, qty := range requested {
		if catalog[id].Stock < qty {
			short = append(short, id)
		}
	}
	if len(short) > 0 {
		sort.Slice(short, func(i, j int) bool { return short[i].String() < short[j].String() })
		id := short[0]
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{
				"product_id": id.String(),
				"requested":  requested[id],
				"available":  catalog[id].Stock,
			})
	}
	return items, total, nil
}

func productIDs(items []CreateItemInput) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func randomSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
