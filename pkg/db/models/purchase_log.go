package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
)

// PurchaseLog is the append-only audit trail for settlement activity.
// Rows are never updated or deleted.
type PurchaseLog struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseID    uuid.UUID            `gorm:"column:purchase_id;type:uuid;not null;index"`
	OrderID       uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	Action        enums.PurchaseAction `gorm:"column:action;type:text;not null"`
	Amount        decimal.Decimal      `gorm:"column:amount;type:numeric(12,2);not null"`
	TransactionID string               `gorm:"column:transaction_id;not null"`
	Note          string               `gorm:"column:note;not null;default:''"`
	ActorID       *uuid.UUID           `gorm:"column:actor_id;type:uuid"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
