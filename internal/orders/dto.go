package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
)

// LineInput is one (product, quantity) pair requested at checkout.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateOrderInput captures everything the builder needs to persist a
// pending order.
type CreateOrderInput struct {
	CustomerID        uuid.UUID
	Lines             []LineInput
	DeliveryAddress   string
	Phone             string
	DeliveryLatitude  *decimal.Decimal
	DeliveryLongitude *decimal.Decimal
	DeliveryOption    enums.DeliveryOption
	PaymentMethod     enums.PaymentMethod
}

// VendorDecisionInput carries a vendor's confirm/reject action on an
// order awaiting confirmation.
type VendorDecisionInput struct {
	OrderID  uuid.UUID
	VendorID uuid.UUID
	Confirm  bool
	Reason   string
}

// TransitionInput carries a status change requested by staff or a flow.
type TransitionInput struct {
	OrderID uuid.UUID
	Target  enums.OrderStatus
	ActorID uuid.UUID
}

// OrderSummary exposes the aggregated fields returned in order lists.
type OrderSummary struct {
	ID             uuid.UUID            `json:"id"`
	Status         enums.OrderStatus    `json:"status"`
	PaymentMethod  enums.PaymentMethod  `json:"payment_method"`
	DeliveryOption enums.DeliveryOption `json:"delivery_option"`
	Total          decimal.Decimal      `json:"total"`
	TotalItems     int                  `json:"total_items"`
	CreatedAt      time.Time            `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
