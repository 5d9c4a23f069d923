package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
)

// Product represents a vendor listing. The stock counter is mutated only
// through the inventory repository so concurrent orders cannot lose updates.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID    uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null"`
	Name        string              `gorm:"column:name;not null"`
	Description *string             `gorm:"column:description"`
	Unit        string              `gorm:"column:unit;not null;default:'piece'"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int                 `gorm:"column:stock;not null;default:0"`
	Status      enums.ProductStatus `gorm:"column:status;type:text;not null;default:'active'"`
	ImageURLs   pq.StringArray      `gorm:"column:image_urls;type:text[]"`
	Vendor      *User               `gorm:"foreignKey:VendorID"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
