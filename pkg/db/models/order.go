package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
)

// Order is the order header. Items, shipment and financial entries live in
// their own tables keyed by OrderID.
type Order struct {
	ID            string            `gorm:"column:id;type:varchar(50);primaryKey"`
	UserID        string            `gorm:"column:user_id;type:varchar(64);not null;index"`
	TotalAmount   decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status        enums.OrderStatus `gorm:"column:status;type:smallint;not null;index"`
	PaymentMethod string            `gorm:"column:payment_method;type:varchar(32)"`
	AddressID     *string           `gorm:"column:address_id;type:varchar(64)"`
	PaidAt        *time.Time        `gorm:"column:paid_at"`
	ShippedAt     *time.Time        `gorm:"column:shipped_at"`
	CompletedAt   *time.Time        `gorm:"column:completed_at"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is a priced line of an order. Never mutated after creation.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     string          `gorm:"column:order_id;type:varchar(50);not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
