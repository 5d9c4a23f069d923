package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
)

// Order captures a customer's purchase intent and its delivery/payment
// selections. Orders are never hard-deleted; cancellation is a status.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID        uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	Subtotal          decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryCost      decimal.Decimal     `gorm:"column:delivery_cost;type:numeric(12,2);not null"`
	TaxRate           decimal.Decimal     `gorm:"column:tax_rate;type:numeric(5,4);not null"`
	TaxAmount         decimal.Decimal     `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	Total             decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	Status            enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	DeliveryAddress   string              `gorm:"column:delivery_address;not null;default:''"`
	Phone             string              `gorm:"column:phone;not null;default:''"`
	DeliveryLatitude  *decimal.Decimal    `gorm:"column:delivery_latitude;type:numeric(9,6)"`
	DeliveryLongitude *decimal.Decimal    `gorm:"column:delivery_longitude;type:numeric(9,6)"`
	DeliveryOption    enums.DeliveryOption `gorm:"column:delivery_option;type:text;not null;default:'standard'"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'mock'"`
	StripeSessionID   *string             `gorm:"column:stripe_session_id"`

	VendorConfirmed       bool       `gorm:"column:vendor_confirmed;not null;default:false"`
	VendorConfirmedByID   *uuid.UUID `gorm:"column:vendor_confirmed_by;type:uuid"`
	VendorConfirmedAt     *time.Time `gorm:"column:vendor_confirmed_at"`
	VendorRejectionReason *string    `gorm:"column:vendor_rejection_reason"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Customer  *User       `gorm:"foreignKey:CustomerID"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}
