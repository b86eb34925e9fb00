package orders

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/aftersales"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/inventory"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/ledger"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/products"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/reviews"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/saga"
	"github.com/Yuriltlef/ApexFlow-sub001/internal/shipments"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/dbtest"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

type lifecycle struct {
	db         *gorm.DB
	svc        Service
	products   *products.Repository
	guard      *inventory.StockGuard
	stockLog   inventory.LedgerRepository
	finance    ledger.Service
	shipments  *shipments.Repository
	afterSales *aftersales.Repository
	reviews    *reviews.Repository
	journal    saga.Journal
	runner     *saga.Runner
}

// flakyGuard fails the Nth Decrease call, counting from 1.
type flakyGuard struct {
	StockGuard
	mu     sync.Mutex
	calls  int
	failOn int
}

func (g *flakyGuard) Decrease(ctx context.Context, productID uuid.UUID, qty int, orderID *string) (*models.StockLedgerEntry, error) {
	g.mu.Lock()
	g.calls++
	fail := g.calls == g.failOn
	g.mu.Unlock()
	if fail {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock")
	}
	return g.StockGuard.Decrease(ctx, productID, qty, orderID)
}

func newLifecycle(t *testing.T, wrap func(StockGuard) StockGuard) *lifecycle {
	t.Helper()
	return newLifecycleWith(t, wrap, nil)
}

func newLifecycleWith(t *testing.T, wrap func(StockGuard) StockGuard, wrapOrders func(OrderRepository) OrderRepository) *lifecycle {
	t.Helper()
	db := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "orders-lifecycle-test", Output: &bytes.Buffer{}})

	l := &lifecycle{
		db:         db,
		products:   products.NewRepository(db),
		stockLog:   inventory.NewLedgerRepository(db),
		shipments:  shipments.NewRepository(db),
		afterSales: aftersales.NewRepository(db),
		reviews:    reviews.NewRepository(db),
		journal:    saga.NewJournal(db),
	}
	stockLedger, err := inventory.NewStockLedger(l.stockLog)
	require.NoError(t, err)
	l.guard, err = inventory.NewStockGuard(inventory.GuardParams{Store: l.products, Ledger: stockLedger, Logger: logg})
	require.NoError(t, err)
	l.finance, err = ledger.NewService(ledger.NewRepository(db))
	require.NoError(t, err)

	var guard StockGuard = l.guard
	if wrap != nil {
		guard = wrap(guard)
	}
	var orderRepo OrderRepository = NewOrderRepository(db)
	if wrapOrders != nil {
		orderRepo = wrapOrders(orderRepo)
	}
	itemRepo := NewItemRepository(db)

	exec, err := NewStepExecutor(ExecutorParams{
		Orders:     orderRepo,
		Items:      itemRepo,
		Guard:      l.guard,
		Shipments:  l.shipments,
		Finance:    l.finance,
		AfterSales: l.afterSales,
		Reviews:    l.reviews,
	})
	require.NoError(t, err)
	l.runner, err = saga.NewRunner(saga.Params{Journal: l.journal, Executor: exec, Logger: logg})
	require.NoError(t, err)

	l.svc, err = NewService(ServiceParams{
		Orders:      orderRepo,
		Items:       itemRepo,
		Products:    l.products,
		Guard:       guard,
		Shipments:   l.shipments,
		Finance:     l.finance,
		AfterSales:  l.afterSales,
		Reviews:     l.reviews,
		Compensator: l.runner,
		Logger:      logg,
	})
	require.NoError(t, err)
	return l
}

func (l *lifecycle) seedProduct(t *testing.T, price string, stock int) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	p, err := l.products.Create(ctx, &models.Product{
		Name:     "product-" + uuid.NewString()[:6],
		Category: "general",
		Price:    decimal.RequireFromString(price),
		Status:   enums.ProductStatusListed,
	})
	require.NoError(t, err)
	if stock > 0 {
		_, err = l.guard.Increase(ctx, p.ID, stock, enums.StockChangePurchaseIn, nil)
		require.NoError(t, err)
	}
	return p.ID
}

func (l *lifecycle) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := l.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (l *lifecycle) countRows(t *testing.T, model any, orderID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, l.db.Model(model).Where("order_id = ?", orderID).Count(&n).Error)
	return n
}

func TestLifecycleCancelRestoresStockExactly(t *testing.T) {
	l := newLifecycle(t, nil)
	ctx := context.Background()
	productA := l.seedProduct(t, "4.00", 7)

	detail, err := l.svc.CreateOrder(ctx, CreateOrderInput{
		UserID: "u-1",
		Status: enums.OrderStatusPaid,
		Items:  []CreateItemInput{{ProductID: productA, Quantity: 3}},
	})
	require.NoError(t, err)
	orderID := detail.Order.ID
	assert.Equal(t, 4, l.stock(t, productA))

	_, err = l.svc.UpdateOrderStatus(ctx, orderID, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 7, l.stock(t, productA))

	entries, err := l.stockLog.ListByOrderID(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	var restore *models.StockLedgerEntry
	for i := range entries {
		e := entries[i]
		assert.Equal(t, e.AfterStock-e.BeforeStock, e.Delta)
		if e.ChangeType == enums.StockChangeCancellationRestore {
			restore = &entries[i]
		}
	}
	require.NotNil(t, restore)
	assert.Equal(t, 3, restore.Delta)
	assert.Equal(t, 4, restore.BeforeStock)
	assert.Equal(t, 7, restore.AfterStock)

	_, err = l.svc.UpdateOrderStatus(ctx, orderID, enums.OrderStatusPaid)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition))
}

func TestLifecyclePrecheckPersistsNothing(t *testing.T) {
	l := newLifecycle(t, nil)
	ctx := context.Background()
	product := l.seedProduct(t, "1.00", 5)

	_, err := l.svc.CreateOrder(ctx, CreateOrderInput{
		OrderID: "ORD-PRECHECK",
		UserID:  "u-1",
		Items:   []CreateItemInput{{ProductID: product, Quantity: 10}},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	_, err = l.svc.GetOrderDetail(ctx, "ORD-PRECHECK")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Equal(t, 5, l.stock(t, product))
}

func TestLifecyclePaidTwiceRecordsIncomeOnce(t *testing.T) {
	l := newLifecycle(t, nil)
	ctx := context.Background()
	product := l.seedProduct(t, "2.50", 10)

	detail, err := l.svc.CreateOrder(ctx, CreateOrderInput{UserID: "u-1", PaymentMethod: "card", Items: []CreateItemInput{{ProductID: product, Quantity: 2}}})
	require.NoError(t, err)
	orderID := detail.Order.ID

	for i := 0; i < 2; i++ {
		dto, err := l.svc.UpdateOrderStatus(ctx, orderID, enums.OrderStatusPaid)
		require.NoError(t, err)
		assert.Equal(t, "paid", dto.Status)
	}

	entries, err := l.finance.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.FinancialEntryIncome, entries[0].Type)
	assert.True(t, decimal.RequireFromString("5.00").Equal(entries[0].Amount))
	assert.Equal(t, "card", entries[0].PaymentMethod)

	_, err = l.svc.UpdateOrderStatus(ctx, orderID, enums.OrderStatusShipped)
	require.NoError(t, err)
	dto, err := l.svc.UpdateOrderStatus(ctx, orderID, enums.OrderStatusCompleted)
	require.NoError(t, err)
	assert.NotNil(t, dto.PaidAt)
	assert.NotNil(t, dto.ShippedAt)
	assert.NotNil(t, dto.CompletedAt)
}

func TestLifecycleDeleteGuardAndCascade(t *testing.T) {
	l := newLifecycle(t, nil)
	ctx := context.Background()
	product := l.seedProduct(t, "3.00", 20)

	shipped, err := l.svc.CreateOrder(ctx, CreateOrderInput{UserID: "u-1", Status: enums.OrderStatusPaid, Items: []CreateItemInput{{ProductID: product, Quantity: 1}}})
	require.NoError(t, err)
	_, err = l.svc.UpdateOrderStatus(ctx, shipped.Order.ID, enums.OrderStatusShipped)
	require.NoError(t, err)
	err = l.svc.DeleteOrder(ctx, shipped.Order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOrderLocked))

	for _, status := range []enums.OrderStatus{enums.OrderStatusPendingPayment, enums.OrderStatusCancelled} {
		detail, err := l.svc.CreateOrder(ctx, CreateOrderInput{UserID: "u-2", Items: []CreateItemInput{{ProductID: product, Quantity: 2}}})
		require.NoError(t, err)
		orderID := detail.Order.ID
		if status == enums.OrderStatusCancelled {
			_, err = l.svc.UpdateOrderStatus(ctx, orderID, enums.OrderStatusCancelled)
			require.NoError(t, err)
		}
		require.NoError(t, l.afterSales.Create(ctx, &models.AfterSalesClaim{OrderID: orderID, Type: "return"}))
		require.NoError(t, l.reviews.Create(ctx, &models.Review{OrderID: orderID, ProductID: product, UserID: "u-2", Rating: 4}))
		_, err = l.finance.RecordEntry(ctx, ledger.RecordEntryInput{OrderID: orderID, Type: enums.FinancialEntryRefund, Amount: decimal.NewFromInt(1)})
		require.NoError(t, err)

		require.NoError(t, l.svc.DeleteOrder(ctx, orderID))

		_, err = l.svc.GetOrderDetail(ctx, orderID)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
		assert.Zero(t, l.countRows(t, &models.OrderItem{}, orderID))
		assert.Zero(t, l.countRows(t, &models.Shipment{}, orderID))
		assert.Zero(t, l.countRows(t, &models.FinancialEntry{}, orderID))
		assert.Zero(t, l.countRows(t, &models.AfterSalesClaim{}, orderID))
		assert.Zero(t, l.countRows(t, &models.Review{}, orderID))
	}
}

func TestLifecycleDeletePaidRestoresStock(t *testing.T) {
	l := newLifecycle(t, nil)
	ctx := context.Background()
	product := l.seedProduct(t, "3.00", 9)

	detail, err := l.svc.CreateOrder(ctx, CreateOrderInput{UserID: "u-1", Status: enums.OrderStatusPaid, Items: []CreateItemInput{{ProductID: product, Quantity: 4}}})
	require.NoError(t, err)
	assert.Equal(t, 5, l.stock(t, product))

	require.NoError(t, l.svc.DeleteOrder(ctx, detail.Order.ID))
	assert.Equal(t, 9, l.stock(t, product))
}

// interleavedOrders runs hook once, right after the next FindByID returns.
type interleavedOrders struct {
	OrderRepository
	mu   sync.Mutex
	hook func()
}

func (o *interleavedOrders) arm(hook func()) {
	o.mu.Lock()
	o.hook = hook
	o.mu.Unlock()
}

func (o *interleavedOrders) FindByID(ctx context.Context, id string) (*models.Order, error) {
	order, err := o.OrderRepository.FindByID(ctx, id)
	o.mu.Lock()
	hook := o.hook
	o.hook = nil
	o.mu.Unlock()
	if hook != nil {
		hook()
	}
	return order, err
}

func TestLifecycleDeleteAfterConcurrentCancelRestoresOnce(t *testing.T) {
	var orders *interleavedOrders
	l := newLifecycleWith(t, nil, func(r OrderRepository) OrderRepository {
		orders = &interleavedOrders{OrderRepository: r}
		return orders
	})
	ctx := context.Background()
	product := l.seedProduct(t, "2.00", 7)

	detail, err := l.svc.CreateOrder(ctx, CreateOrderInput{UserID: "u-1", Status: enums.OrderStatusPaid, Items: []CreateItemInput{{ProductID: product, Quantity: 3}}})
	require.NoError(t, err)
	orderID := detail.Order.ID
	require.Equal(t, 4, l.stock(t, product))

	orders.arm(func() {
		_, err := l.svc.UpdateOrderStatus(ctx, orderID, enums.OrderStatusCancelled)
		require.NoError(t, err)
	})
	require.NoError(t, l.svc.DeleteOrder(ctx, orderID))

	assert.Equal(t, 7, l.stock(t, product))
	var restores int64
	require.NoError(t, l.db.Model(&models.StockLedgerEntry{}).
		Where("order_id = ? AND change_type = ?", orderID, enums.StockChangeCancellationRestore).
		Count(&restores).Error)
	assert.Equal(t, int64(1), restores)
	_, err = l.svc.GetOrderDetail(ctx, orderID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestLifecycleCreateCompensatesMidwayFailure(t *testing.T) {
	var flaky *flakyGuard
	l := newLifecycle(t, func(g StockGuard) StockGuard {
		flaky = &flakyGuard{StockGuard: g, failOn: 2}
		return flaky
	})
	ctx := context.Background()
	first := l.seedProduct(t, "1.00", 6)
	second := l.seedProduct(t, "1.00", 6)

	_, err := l.svc.CreateOrder(ctx, CreateOrderInput{
		OrderID: "ORD-HALF",
		UserID:  "u-1",
		Items: []CreateItemInput{
			{ProductID: first, Quantity: 2},
			{ProductID: second, Quantity: 2},
		},
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))

	assert.Equal(t, 6, l.stock(t, first))
	assert.Equal(t, 6, l.stock(t, second))
	_, err = l.svc.GetOrderDetail(ctx, "ORD-HALF")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Zero(t, l.countRows(t, &models.OrderItem{}, "ORD-HALF"))

	entries, err := l.stockLog.ListByOrderID(ctx, "ORD-HALF")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, enums.StockChangeSaleOut, entries[0].ChangeType)
	assert.Equal(t, enums.StockChangeCancellationRestore, entries[1].ChangeType)

	pending, err := l.journal.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLifecycleConcurrentOrdersForLastUnit(t *testing.T) {
	l := newLifecycle(t, nil)
	ctx := context.Background()
	product := l.seedProduct(t, "9.99", 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.svc.CreateOrder(ctx, CreateOrderInput{UserID: "racer", Items: []CreateItemInput{{ProductID: product, Quantity: 1}}})
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock), "unexpected error %v", err)
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 0, l.stock(t, product))
}

func TestLifecycleDetailAndListing(t *testing.T) {
	l := newLifecycle(t, nil)
	ctx := context.Background()
	product := l.seedProduct(t, "1.25", 50)

	receiver := "221B Baker Street"
	created, err := l.svc.CreateOrder(ctx, CreateOrderInput{
		UserID:          "alice",
		Status:          enums.OrderStatusPaid,
		ReceiverAddress: &receiver,
		Items:           []CreateItemInput{{ProductID: product, Quantity: 4}},
	})
	require.NoError(t, err)
	_, err = l.svc.CreateOrder(ctx, CreateOrderInput{OrderID: "ORD-BOB", UserID: "bob", Items: []CreateItemInput{{ProductID: product, Quantity: 1}}})
	require.NoError(t, err)

	detail, err := l.svc.GetOrderDetail(ctx, created.Order.ID)
	require.NoError(t, err)
	require.Len(t, detail.Order.Items, 1)
	require.NotNil(t, detail.Shipment)
	assert.Equal(t, receiver, *detail.Shipment.ReceiverAddress)
	assert.Len(t, detail.FinancialEntries, 1)
	assert.Empty(t, detail.AfterSales)
	assert.Empty(t, detail.Compensations)

	total, err := l.svc.CalculateOrderTotal(ctx, created.Order.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("5.00").Equal(total))

	page, err := l.svc.ListOrders(ctx, ListFilter{UserID: "alice", IncludeItems: true}, paginationFirstPage())
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Len(t, page.Items[0].Items, 1)

	paid := enums.OrderStatusPaid
	page, err = l.svc.ListOrders(ctx, ListFilter{Status: &paid}, paginationFirstPage())
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Nil(t, page.Items[0].Items)

	page, err = l.svc.ListOrders(ctx, ListFilter{}, paginationFirstPage())
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
}

func TestReconcileReplaysJournaledIncome(t *testing.T) {
	l := newLifecycle(t, nil)
	ctx := context.Background()
	product := l.seedProduct(t, "10.00", 3)

	detail, err := l.svc.CreateOrder(ctx, CreateOrderInput{UserID: "u", Items: []CreateItemInput{{ProductID: product, Quantity: 1}}})
	require.NoError(t, err)
	orderID := detail.Order.ID

	// Simulate a crash between the status write and the income entry.
	require.NoError(t, l.db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", enums.OrderStatusPaid).Error)
	require.NoError(t, l.journal.Create(ctx, &models.CompensationRecord{
		Operation: enums.SagaUpdateOrderStatus,
		OrderID:   orderID,
		Status:    enums.CompensationStatusPending,
		Steps:     []models.CompensationStep{{Action: enums.CompensationRecordIncome}},
	}))

	got, err := l.svc.GetOrderDetail(ctx, orderID)
	require.NoError(t, err)
	assert.Len(t, got.Compensations, 1)

	result, err := l.runner.Reconcile(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Resolved)

	has, err := l.finance.HasEntry(ctx, orderID, enums.FinancialEntryIncome)
	require.NoError(t, err)
	assert.True(t, has)
}

func paginationFirstPage() pagination.Params {
	return pagination.Params{Page: 1, PageSize: 10}
}

func TestLifecycleBlankAddressStoresNull(t *testing.T) {
	l := newLifecycle(t, nil)
	ctx := context.Background()
	product := l.seedProduct(t, "1.50", 3)

	addr := "addr-7"
	detail, err := l.svc.CreateOrder(ctx, CreateOrderInput{UserID: "u-1", AddressID: &addr, Items: []CreateItemInput{{ProductID: product, Quantity: 1}}})
	require.NoError(t, err)
	require.NotNil(t, detail.Order.AddressID)

	blank := " "
	_, err = l.svc.UpdateOrder(ctx, detail.Order.ID, UpdateOrderInput{AddressID: &blank})
	require.NoError(t, err)

	var nulls int64
	require.NoError(t, l.db.Model(&models.Order{}).Where("id = ? AND address_id IS NULL", detail.Order.ID).Count(&nulls).Error)
	assert.Equal(t, int64(1), nulls)
}
