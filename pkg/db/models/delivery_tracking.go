package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
)

// DeliveryTracking holds the courier-facing state of a shipped order.
// One row per order, created when the vendor marks the order shipped.
type DeliveryTracking struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex:uq_delivery_tracking_order_id"`
	Status         enums.DeliveryStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	TrackingNumber string               `gorm:"column:tracking_number;not null;default:''"`
	Carrier        string               `gorm:"column:carrier;not null;default:''"`
	Notes          string               `gorm:"column:notes;not null;default:''"`
	DeliveredAt    *time.Time           `gorm:"column:delivered_at"`

	Order     *Order    `gorm:"foreignKey:OrderID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the singular table used by the migrations.
func (DeliveryTracking) TableName() string {
	return "delivery_tracking"
}
