package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AfterSalesClaim is a return/exchange/repair request raised against an order.
type AfterSalesClaim struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       string          `gorm:"column:order_id;type:varchar(50);not null;index"`
	Type          string          `gorm:"column:type;type:varchar(16);not null"`
	Reason        string          `gorm:"column:reason"`
	Status        int             `gorm:"column:status;type:smallint;not null;default:1"`
	RefundAmount  decimal.Decimal `gorm:"column:refund_amount;type:numeric(12,2);not null;default:0"`
	AppliedAt     time.Time       `gorm:"column:applied_at;autoCreateTime"`
	ProcessedAt   *time.Time      `gorm:"column:processed_at"`
	ProcessRemark *string         `gorm:"column:process_remark"`
}

func (c *AfterSalesClaim) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Review is a customer rating of a product bought through an order.
type Review struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   string    `gorm:"column:order_id;type:varchar(50);not null;index"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);not null"`
	Rating    int       `gorm:"column:rating;not null"`
	Content   string    `gorm:"column:content"`
	Anonymous bool      `gorm:"column:is_anonymous;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
