package orders

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/ledger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

type stubOrdersRepo struct {
	orders       map[string]*models.Order
	created      int
	createFn     func(ctx context.Context, order *models.Order) error
	updateStatus func(ctx context.Context, id string, from, to enums.OrderStatus) (bool, error)
}

func newStubOrdersRepo(orders ...*models.Order) *stubOrdersRepo {
	s := &stubOrdersRepo{orders: map[string]*models.Order{}}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	if s.createFn != nil {
		if err := s.createFn(ctx, order); err != nil {
			return err
		}
	}
	s.created++
	cp := *order
	s.orders[order.ID] = &cp
	return nil
}

func (s *stubOrdersRepo) FindByID(_ context.Context, id string) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *stubOrdersRepo) Update(_ context.Context, id string, updates map[string]any, allowed []enums.OrderStatus) (bool, error) {
	o, ok := s.orders[id]
	if !ok {
		return false, nil
	}
	match := false
	for _, st := range allowed {
		if o.Status == st {
			match = true
		}
	}
	if !match {
		return false, nil
	}
	if v, ok := updates["payment_method"].(string); ok {
		o.PaymentMethod = v
	}
	if v, ok := updates["address_id"]; ok {
		if addr, isString := v.(string); isString {
			o.AddressID = &addr
		} else {
			o.AddressID = nil
		}
	}
	return true, nil
}

func (s *stubOrdersRepo) UpdateStatus(ctx context.Context, id string, from, to enums.OrderStatus, stamps map[string]time.Time) (bool, error) {
	if s.updateStatus != nil {
		return s.updateStatus(ctx, id, from, to)
	}
	o, ok := s.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	for col, at := range stamps {
		at := at
		switch col {
		case "paid_at":
			o.PaidAt = &at
		case "shipped_at":
			o.ShippedAt = &at
		case "completed_at":
			o.CompletedAt = &at
		}
	}
	return true, nil
}

func (s *stubOrdersRepo) Delete(_ context.Context, id string) error {
	delete(s.orders, id)
	return nil
}

func (s *stubOrdersRepo) Count(context.Context, ListFilter) (int64, error) {
	return int64(len(s.orders)), nil
}

func (s *stubOrdersRepo) List(context.Context, ListFilter, pagination.Params) ([]models.Order, error) {
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

type stubItemsRepo struct {
	items    map[string][]models.OrderItem
	createFn func(ctx context.Context, items []models.OrderItem) error
}

func (s *stubItemsRepo) CreateBatch(ctx context.Context, items []models.OrderItem) error {
	if s.createFn != nil {
		return s.createFn(ctx, items)
	}
	if s.items == nil {
		s.items = map[string][]models.OrderItem{}
	}
	for _, item := range items {
		s.items[item.OrderID] = append(s.items[item.OrderID], item)
	}
	return nil
}

func (s *stubItemsRepo) FindByOrderID(_ context.Context, orderID string) ([]models.OrderItem, error) {
	return s.items[orderID], nil
}

func (s *stubItemsRepo) FindByOrderIDs(_ context.Context, ids []string) (map[string][]models.OrderItem, error) {
	out := map[string][]models.OrderItem{}
	for _, id := range ids {
		out[id] = s.items[id]
	}
	return out, nil
}

func (s *stubItemsRepo) DeleteByOrderID(_ context.Context, orderID string) error {
	delete(s.items, orderID)
	return nil
}

func (s *stubItemsRepo) SumSubtotals(_ context.Context, orderID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range s.items[orderID] {
		total = total.Add(item.Subtotal)
	}
	return total, nil
}

type stubProducts map[uuid.UUID]models.Product

func (s stubProducts) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := map[uuid.UUID]models.Product{}
	for _, id := range ids {
		if p, ok := s[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type guardCall struct {
	productID uuid.UUID
	qty       int
	increase  bool
}

type stubGuard struct {
	calls      []guardCall
	decreaseFn func(productID uuid.UUID, qty int) error
}

func (g *stubGuard) Decrease(_ context.Context, productID uuid.UUID, qty int, _ *string) (*models.StockLedgerEntry, error) {
	if g.decreaseFn != nil {
		if err := g.decreaseFn(productID, qty); err != nil {
			return nil, err
		}
	}
	g.calls = append(g.calls, guardCall{productID: productID, qty: qty})
	return &models.StockLedgerEntry{ProductID: productID, Delta: -qty}, nil
}

func (g *stubGuard) Increase(_ context.Context, productID uuid.UUID, qty int, _ enums.StockChangeType, _ *string) (*models.StockLedgerEntry, error) {
	g.calls = append(g.calls, guardCall{productID: productID, qty: qty, increase: true})
	return &models.StockLedgerEntry{ProductID: productID, Delta: qty}, nil
}

type stubShipments struct {
	created  []*models.Shipment
	createFn func(ctx context.Context, shipment *models.Shipment) error
}

func (s *stubShipments) Create(ctx context.Context, shipment *models.Shipment) error {
	if s.createFn != nil {
		return s.createFn(ctx, shipment)
	}
	s.created = append(s.created, shipment)
	return nil
}

func (s *stubShipments) FindByOrderID(_ context.Context, orderID string) (*models.Shipment, error) {
	for _, sh := range s.created {
		if sh.OrderID == orderID {
			return sh, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubShipments) DeleteByOrderID(context.Context, string) error { return nil }

type stubFinance struct {
	entries []models.FinancialEntry
}

func (f *stubFinance) RecordIncomeOnce(_ context.Context, in ledger.RecordEntryInput) (*models.FinancialEntry, bool, error) {
	for i := range f.entries {
		if f.entries[i].OrderID == in.OrderID && f.entries[i].Type == enums.FinancialEntryIncome {
			return &f.entries[i], false, nil
		}
	}
	f.entries = append(f.entries, models.FinancialEntry{
		ID:      uuid.New(),
		OrderID: in.OrderID,
		Type:    enums.FinancialEntryIncome,
		Amount:  in.Amount,
		Status:  enums.FinancialEntryPosted,
	})
	return &f.entries[len(f.entries)-1], true, nil
}

func (f *stubFinance) ListByOrder(_ context.Context, orderID string) ([]models.FinancialEntry, error) {
	var out []models.FinancialEntry
	for _, e := range f.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *stubFinance) DeleteByOrder(context.Context, string) error { return nil }

type stubAfterSales struct{}

func (stubAfterSales) FindByOrderID(context.Context, string) ([]models.AfterSalesClaim, error) {
	return nil, nil
}

func (stubAfterSales) Delete(context.Context, uuid.UUID) error { return nil }

type stubReviews struct{}

func (stubReviews) FindByOrderID(context.Context, string) ([]models.Review, error) { return nil, nil }

func (stubReviews) Delete(context.Context, uuid.UUID) error { return nil }

type compensatorCall struct {
	op      enums.SagaOperation
	orderID string
	steps   []models.CompensationStep
	cause   error
	reverse bool
}

type stubCompensator struct {
	calls []compensatorCall
	err   error
}

func (c *stubCompensator) Compensate(_ context.Context, op enums.SagaOperation, orderID string, done []models.CompensationStep, cause error) error {
	c.calls = append(c.calls, compensatorCall{op: op, orderID: orderID, steps: done, cause: cause, reverse: true})
	return c.err
}

func (c *stubCompensator) RollForward(_ context.Context, op enums.SagaOperation, orderID string, steps []models.CompensationStep, cause error) error {
	c.calls = append(c.calls, compensatorCall{op: op, orderID: orderID, steps: steps, cause: cause})
	return c.err
}

func (c *stubCompensator) Pending(context.Context, string) ([]models.CompensationRecord, error) {
	return nil, nil
}

type stubDeps struct {
	orders      *stubOrdersRepo
	items       *stubItemsRepo
	products    stubProducts
	guard       *stubGuard
	shipments   *stubShipments
	finance     *stubFinance
	compensator *stubCompensator
}

func newStubService(t *testing.T, deps *stubDeps) *service {
	t.Helper()
	if deps.orders == nil {
		deps.orders = newStubOrdersRepo()
	}
	if deps.items == nil {
		deps.items = &stubItemsRepo{}
	}
	if deps.products == nil {
		deps.products = stubProducts{}
	}
	if deps.guard == nil {
		deps.guard = &stubGuard{}
	}
	if deps.shipments == nil {
		deps.shipments = &stubShipments{}
	}
	if deps.finance == nil {
		deps.finance = &stubFinance{}
	}
	if deps.compensator == nil {
		deps.compensator = &stubCompensator{}
	}
	svc, err := NewService(ServiceParams{
		Orders:      deps.orders,
		Items:       deps.items,
		Products:    deps.products,
		Guard:       deps.guard,
		Shipments:   deps.shipments,
		Finance:     deps.finance,
		AfterSales:  stubAfterSales{},
		Reviews:     stubReviews{},
		Compensator: deps.compensator,
		Logger:      logger.New(logger.Options{ServiceName: "orders-test", Output: &bytes.Buffer{}}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	impl := svc.(*service)
	impl.now = func() time.Time { return time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC) }
	impl.newSuffix = func() string { return "ABCDEF01" }
	return impl
}

func listedProduct(price string, stock int) models.Product {
	return models.Product{
		ID:     uuid.New(),
		Name:   "widget",
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Status: enums.ProductStatusListed,
	}
}
