package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/internal/products"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
	pkgerrors "github.com/Yuriltlef/ApexFlow-sub001/pkg/errors"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/logger"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

// Catalog is the non-stock side of the product repository.
type Catalog interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.ProductStatus) error
	UpdateDetails(ctx context.Context, id uuid.UUID, details products.Details) error
	List(ctx context.Context, filter products.ListFilter, params pagination.Params) ([]models.Product, int64, error)
	ListLowStock(ctx context.Context, threshold int) ([]models.Product, error)
}

// Service exposes catalog and stock maintenance for operators.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, filter products.ListFilter, params pagination.Params) (pagination.Page[models.Product], error)
	SearchProducts(ctx context.Context, keyword string, params pagination.Params) (pagination.Page[models.Product], error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error)
	SetListed(ctx context.Context, id uuid.UUID, listed bool) error
	Restock(ctx context.Context, id uuid.UUID, qty int) (*models.StockLedgerEntry, error)
	Adjust(ctx context.Context, id uuid.UUID, newStock int, reason string) (*models.StockLedgerEntry, error)
	ListLedger(ctx context.Context, id uuid.UUID, params pagination.Params) (pagination.Page[models.StockLedgerEntry], error)
	ListLedgerByChangeType(ctx context.Context, changeType enums.StockChangeType, params pagination.Params) (pagination.Page[models.StockLedgerEntry], error)
	ListLedgerByOrder(ctx context.Context, orderID string) ([]models.StockLedgerEntry, error)
	VerifyLedger(ctx context.Context, id uuid.UUID) ([]ChainGap, error)
	LowStock(ctx context.Context, threshold int) ([]models.Product, error)
}

// CreateProductInput is the payload for a new catalog entry.
type CreateProductInput struct {
	Name         string
	Category     string
	Price        decimal.Decimal
	InitialStock int
	ImageURL     *string
}

// UpdateProductInput edits catalog fields. Nil fields are unchanged; stock
// only moves through Restock and Adjust.
type UpdateProductInput struct {
	Name     *string
	Category *string
	Price    *decimal.Decimal
	ImageURL *string
}

type service struct {
	catalog          Catalog
	guard            *StockGuard
	ledger           *StockLedger
	ledgerRepo       LedgerRepository
	logg             *logger.Logger
	defaultThreshold int
}

// ServiceParams wires the inventory service.
type ServiceParams struct {
	Catalog           Catalog
	Guard             *StockGuard
	Ledger            *StockLedger
	LedgerRepo        LedgerRepository
	Logger            *logger.Logger
	LowStockThreshold int
}

// NewService validates dependencies and builds the inventory service.
func NewService(p ServiceParams) (Service, error) {
	if p.Catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if p.Guard == nil {
		return nil, fmt.Errorf("stock guard required")
	}
	if p.Ledger == nil || p.LedgerRepo == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	threshold := p.LowStockThreshold
	if threshold <= 0 {
		threshold = 10
	}
	return &service{
		catalog:          p.Catalog,
		guard:            p.Guard,
		ledger:           p.Ledger,
		ledgerRepo:       p.LedgerRepo,
		logg:             p.Logger,
		defaultThreshold: threshold,
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.InitialStock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initial stock cannot be negative")
	}

	product, err := s.catalog.Create(ctx, &models.Product{
		Name:     name,
		Category: strings.TrimSpace(input.Category),
		Price:    input.Price.Round(2),
		Status:   enums.ProductStatusListed,
		ImageURL: input.ImageURL,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create product")
	}

	if input.InitialStock > 0 {
		entry, err := s.guard.Increase(ctx, product.ID, input.InitialStock, enums.StockChangePurchaseIn, nil)
		if err != nil {
			ctx = s.logg.WithProductID(ctx, product.ID.String())
			s.logg.Error(ctx, "initial stock not applied", err)
			return nil, err
		}
		product.Stock = entry.AfterStock
	}
	return product, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.catalog.FindByID(ctx, id)
	if err != nil {
		return nil, productLookupError(err)
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, filter products.ListFilter, params pagination.Params) (pagination.Page[models.Product], error) {
	rows, total, err := s.catalog.List(ctx, filter, params)
	if err != nil {
		return pagination.Page[models.Product]{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list products")
	}
	return pagination.NewPage(rows, params, total), nil
}

// SearchProducts pages products whose name contains keyword.
func (s *service) SearchProducts(ctx context.Context, keyword string, params pagination.Params) (pagination.Page[models.Product], error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return pagination.Page[models.Product]{}, pkgerrors.New(pkgerrors.CodeValidation, "search keyword is required")
	}
	return s.ListProducts(ctx, products.ListFilter{Keyword: keyword}, params)
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	details := products.Details{Category: input.Category, ImageURL: input.ImageURL}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		details.Name = &name
	}
	if details.Category != nil {
		category := strings.TrimSpace(*details.Category)
		details.Category = &category
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		price := input.Price.Round(2)
		details.Price = &price
	}
	if details.Name == nil && details.Category == nil && details.Price == nil && details.ImageURL == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no product fields to update")
	}
	if err := s.catalog.UpdateDetails(ctx, id, details); err != nil {
		return nil, productLookupError(err)
	}
	s.logg.Info(s.logg.WithProductID(ctx, id.String()), "product details updated")
	return s.GetProduct(ctx, id)
}

func (s *service) SetListed(ctx context.Context, id uuid.UUID, listed bool) error {
	status := enums.ProductStatusDelisted
	if listed {
		status = enums.ProductStatusListed
	}
	if err := s.catalog.UpdateStatus(ctx, id, status); err != nil {
		return productLookupError(err)
	}
	return nil
}

func (s *service) Restock(ctx context.Context, id uuid.UUID, qty int) (*models.StockLedgerEntry, error) {
	return s.guard.Increase(ctx, id, qty, enums.StockChangePurchaseIn, nil)
}

func (s *service) Adjust(ctx context.Context, id uuid.UUID, newStock int, reason string) (*models.StockLedgerEntry, error) {
	return s.guard.SetAbsolute(ctx, id, newStock, reason)
}

func (s *service) ListLedger(ctx context.Context, id uuid.UUID, params pagination.Params) (pagination.Page[models.StockLedgerEntry], error) {
	rows, total, err := s.ledgerRepo.ListByProductID(ctx, id, params)
	if err != nil {
		return pagination.Page[models.StockLedgerEntry]{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list stock ledger")
	}
	return pagination.NewPage(rows, params, total), nil
}

func (s *service) ListLedgerByChangeType(ctx context.Context, changeType enums.StockChangeType, params pagination.Params) (pagination.Page[models.StockLedgerEntry], error) {
	if !changeType.IsValid() {
		return pagination.Page[models.StockLedgerEntry]{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid change type %q", changeType))
	}
	rows, total, err := s.ledgerRepo.ListByChangeType(ctx, changeType.String(), params)
	if err != nil {
		return pagination.Page[models.StockLedgerEntry]{}, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list stock ledger")
	}
	return pagination.NewPage(rows, params, total), nil
}

func (s *service) ListLedgerByOrder(ctx context.Context, orderID string) ([]models.StockLedgerEntry, error) {
	rows, err := s.ledgerRepo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list stock ledger")
	}
	return rows, nil
}

func (s *service) VerifyLedger(ctx context.Context, id uuid.UUID) ([]ChainGap, error) {
	return s.ledger.Verify(ctx, id)
}

func (s *service) LowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	if threshold <= 0 {
		threshold = s.defaultThreshold
	}
	rows, err := s.catalog.ListLowStock(ctx, threshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list low stock products")
	}
	return rows, nil
}

func productLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load product")
}
