package inventory

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/products"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

type memoryStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
	// raceOnce, when set, bumps stock once right before the next UpdateStock.
	raceOnce int
}

func newMemoryStore(stock map[uuid.UUID]int) *memoryStore {
	s := &memoryStore{products: map[uuid.UUID]*models.Product{}}
	for id, qty := range stock {
		s.products[id] = &models.Product{ID: id, Name: "p-" + id.String()[:4], Stock: qty}
	}
	return s
}

func (s *memoryStore) stock(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memoryStore) IncreaseStock(_ context.Context, id uuid.UUID, qty int) (products.StockChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return products.StockChange{}, gorm.ErrRecordNotFound
	}
	before := p.Stock
	p.Stock += qty
	return products.StockChange{Before: before, After: p.Stock}, nil
}

func (s *memoryStore) DecreaseStock(_ context.Context, id uuid.UUID, qty int) (products.StockChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.Stock < qty {
		return products.StockChange{}, products.ErrInsufficientStock
	}
	before := p.Stock
	p.Stock -= qty
	return products.StockChange{Before: before, After: p.Stock}, nil
}

func (s *memoryStore) UpdateStock(_ context.Context, id uuid.UUID, expected, newValue int) (products.StockChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return products.StockChange{}, gorm.ErrRecordNotFound
	}
	if s.raceOnce != 0 {
		p.Stock += s.raceOnce
		s.raceOnce = 0
	}
	if p.Stock != expected {
		return products.StockChange{}, products.ErrStockChanged
	}
	p.Stock = newValue
	return products.StockChange{Before: expected, After: newValue}, nil
}

type memoryLedger struct {
	mu      sync.Mutex
	entries []models.StockLedgerEntry
	failErr error
}

func (l *memoryLedger) WithTx(*gorm.DB) LedgerRepository { return l }

func (l *memoryLedger) Create(_ context.Context, entry *models.StockLedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failErr != nil {
		return l.failErr
	}
	entry.ID = uuid.New()
	l.entries = append(l.entries, *entry)
	return nil
}

func (l *memoryLedger) all() []models.StockLedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.StockLedgerEntry(nil), l.entries...)
}

func (l *memoryLedger) ListByProductID(_ context.Context, productID uuid.UUID, _ pagination.Params) ([]models.StockLedgerEntry, int64, error) {
	rows, _ := l.ChainForProduct(context.Background(), productID)
	return rows, int64(len(rows)), nil
}

func (l *memoryLedger) ListByOrderID(_ context.Context, orderID string) ([]models.StockLedgerEntry, error) {
	var out []models.StockLedgerEntry
	for _, e := range l.all() {
		if e.OrderID != nil && *e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *memoryLedger) ListByChangeType(_ context.Context, changeType string, _ pagination.Params) ([]models.StockLedgerEntry, int64, error) {
	var out []models.StockLedgerEntry
	for _, e := range l.all() {
		if string(e.ChangeType) == changeType {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (l *memoryLedger) ChainForProduct(_ context.Context, productID uuid.UUID) ([]models.StockLedgerEntry, error) {
	var out []models.StockLedgerEntry
	for _, e := range l.all() {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "inventory-test", Output: &bytes.Buffer{}})
}

func newTestGuard(t *testing.T, store ProductStore, ledgerRepo LedgerRepository) *StockGuard {
	t.Helper()
	ledger, err := NewStockLedger(ledgerRepo)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	guard, err := NewStockGuard(GuardParams{Store: store, Ledger: ledger, Logger: newTestLogger()})
	if err != nil {
		t.Fatalf("guard: %v", err)
	}
	return guard
}
