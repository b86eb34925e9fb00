package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
)

// CompensationStep is one pending repair action. Product and Qty are only set
// for stock restores.
type CompensationStep struct {
	Action    enums.CompensationAction `json:"action"`
	ProductID *uuid.UUID               `json:"product_id,omitempty"`
	Qty       int                      `json:"qty,omitempty"`
}

// CompensationRecord is a saga log row: the steps an operation could not
// complete or undo, kept for the reconciliation pass.
type CompensationRecord struct {
	ID         uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	Operation  enums.SagaOperation      `gorm:"column:operation;type:varchar(32);not null"`
	OrderID    string                   `gorm:"column:order_id;type:varchar(50);not null;index"`
	Status     enums.CompensationStatus `gorm:"column:status;type:varchar(16);not null;index"`
	Steps      []CompensationStep       `gorm:"column:steps;type:jsonb;serializer:json;not null"`
	Cause      string                   `gorm:"column:cause"`
	LastError  *string                  `gorm:"column:last_error"`
	Attempts   int                      `gorm:"column:attempts;not null;default:0"`
	ResolvedAt *time.Time               `gorm:"column:resolved_at"`
	CreatedAt  time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *CompensationRecord) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// All lists every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Product{},
		&Order{},
		&OrderItem{},
		&StockLedgerEntry{},
		&Shipment{},
		&FinancialEntry{},
		&AfterSalesClaim{},
		&Review{},
		&CompensationRecord{},
	}
}
