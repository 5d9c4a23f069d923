package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
)

// Purchase is the per-item settlement record created when a payment is
// reconciled. The composite unique index on (transaction_id, product_id)
// is the authoritative guard against replayed confirmations: a second
// attempt for the same transaction and product fails at the database no
// matter how it raced past the existence pre-check.
type Purchase struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_purchases_transaction_product"`
	BuyerID       uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null"`
	VendorID      uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index"`
	TransactionID string              `gorm:"column:transaction_id;not null;uniqueIndex:uq_purchases_transaction_product"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Quantity      int                 `gorm:"column:quantity;not null"`
	UnitPrice     decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Refunded      bool                `gorm:"column:refunded;not null;default:false"`
	RefundedAt    *time.Time          `gorm:"column:refunded_at"`

	Order     *Order    `gorm:"foreignKey:OrderID"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// UniqueTransactionProductConstraint is the index name reported by the
// database on a duplicate (transaction_id, product_id) insert.
const UniqueTransactionProductConstraint = "uq_purchases_transaction_product"
