package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
)

// FinancialEntry records money received for, or refunded against, an order.
type FinancialEntry struct {
	ID              uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         string                     `gorm:"column:order_id;type:varchar(50);not null;index"`
	Type            enums.FinancialEntryType   `gorm:"column:type;type:varchar(16);not null"`
	Amount          decimal.Decimal            `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentMethod   string                     `gorm:"column:payment_method;type:varchar(32)"`
	Status          enums.FinancialEntryStatus `gorm:"column:status;type:smallint;not null"`
	TransactionTime time.Time                  `gorm:"column:transaction_time;not null"`
	Remark          *string                    `gorm:"column:remark"`
	CreatedAt       time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

func (e *FinancialEntry) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
