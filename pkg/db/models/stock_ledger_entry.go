package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
)

// StockLedgerEntry is an append-only record of a single stock mutation.
type StockLedgerEntry struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID             `gorm:"column:product_id;type:uuid;not null;index:idx_stock_ledger_product_created,priority:1"`
	ChangeType  enums.StockChangeType `gorm:"column:change_type;type:varchar(32);not null"`
	Delta       int                   `gorm:"column:delta;not null"`
	BeforeStock int                   `gorm:"column:before_stock;not null"`
	AfterStock  int                   `gorm:"column:after_stock;not null"`
	OrderID     *string               `gorm:"column:order_id;type:varchar(50);index"`
	Reason      *string               `gorm:"column:reason"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime;index:idx_stock_ledger_product_created,priority:2"`
}

func (StockLedgerEntry) TableName() string {
	return "stock_ledger_entries"
}

func (e *StockLedgerEntry) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return e.Check()
}

// Check enforces after = before + delta and a non-negative result.
func (e *StockLedgerEntry) Check() error {
	if e.AfterStock != e.BeforeStock+e.Delta {
		return fmt.Errorf("ledger entry inconsistent: before %d + delta %d != after %d", e.BeforeStock, e.Delta, e.AfterStock)
	}
	if e.AfterStock < 0 {
		return fmt.Errorf("ledger entry after stock %d is negative", e.AfterStock)
	}
	return nil
}

// BeforeUpdate rejects any attempt to rewrite history.
func (e *StockLedgerEntry) BeforeUpdate(*gorm.DB) error {
	return fmt.Errorf("stock ledger entries are immutable")
}
