package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/db/models"
	"github.com/Yuriltlef/ApexFlow-sub001/pkg/pagination"
)

type productResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Status    string          `json:"status"`
	ImageURL  *string         `json:"image_url,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ledgerEntryResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	ChangeType  string    `json:"change_type"`
	Delta       int       `json:"delta"`
	BeforeStock int       `json:"before_stock"`
	AfterStock  int       `json:"after_stock"`
	OrderID     *string   `json:"order_id,omitempty"`
	Reason      *string   `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func newProductResponse(p *models.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price,
		Stock:     p.Stock,
		Status:    p.Status.String(),
		ImageURL:  p.ImageURL,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func newLedgerEntryResponse(e *models.StockLedgerEntry) ledgerEntryResponse {
	return ledgerEntryResponse{
		ID:          e.ID,
		ProductID:   e.ProductID,
		ChangeType:  e.ChangeType.String(),
		Delta:       e.Delta,
		BeforeStock: e.BeforeStock,
		AfterStock:  e.AfterStock,
		OrderID:     e.OrderID,
		Reason:      e.Reason,
		CreatedAt:   e.CreatedAt,
	}
}

func productList(rows []models.Product) []productResponse {
	out := make([]productResponse, len(rows))
	for i := range rows {
		out[i] = newProductResponse(&rows[i])
	}
	return out
}

func ledgerList(rows []models.StockLedgerEntry) []ledgerEntryResponse {
	out := make([]ledgerEntryResponse, len(rows))
	for i := range rows {
		out[i] = newLedgerEntryResponse(&rows[i])
	}
	return out
}

func productPage(page pagination.Page[models.Product]) pagination.Page[productResponse] {
	return pagination.Page[productResponse]{
		Items:    productList(page.Items),
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
	}
}

func ledgerPage(page pagination.Page[models.StockLedgerEntry]) pagination.Page[ledgerEntryResponse] {
	return pagination.Page[ledgerEntryResponse]{
		Items:    ledgerList(page.Items),
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
	}
}
