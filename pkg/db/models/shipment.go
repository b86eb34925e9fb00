package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Yuriltlef/ApexFlow-sub001/pkg/enums"
)

// Shipment is the single logistics record of an order.
type Shipment struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         string               `gorm:"column:order_id;type:varchar(50);not null;uniqueIndex"`
	Carrier         *string              `gorm:"column:carrier;type:varchar(64)"`
	TrackingNumber  *string              `gorm:"column:tracking_number;type:varchar(128)"`
	Status          enums.ShipmentStatus `gorm:"column:status;type:varchar(16);not null;default:'pending'"`
	SenderAddress   *string              `gorm:"column:sender_address"`
	ReceiverAddress *string              `gorm:"column:receiver_address"`
	ShippedAt       *time.Time           `gorm:"column:shipped_at"`
	DeliveredAt     *time.Time           `gorm:"column:delivered_at"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Shipment) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
