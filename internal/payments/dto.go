package payments

import (
	"github.com/google/uuid"

	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
)

// ReconcileInput identifies one settlement attempt for an order.
type ReconcileInput struct {
	OrderID       uuid.UUID
	TransactionID string
	Method        enums.PaymentMethod
	ActorID       *uuid.UUID
	Note          string
}

// ReconcileResult reports what settlement produced. Duplicate means the
// transaction had already been reconciled and nothing was written.
type ReconcileResult struct {
	Order     *models.Order     `json:"order"`
	Purchases []models.Purchase `json:"purchases"`
	Duplicate bool              `json:"duplicate"`
}

// MockPayInput triggers the simulated payment path for a pending order.
type MockPayInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
}

// RefundInput identifies one purchase to refund.
type RefundInput struct {
	PurchaseID uuid.UUID
	ActorID    uuid.UUID
	Reason     string
}

// RefundResult wraps the refunded purchase. AlreadyRefunded means a prior
// refund had won and this call changed nothing.
type RefundResult struct {
	Purchase        *models.Purchase `json:"purchase"`
	AlreadyRefunded bool             `json:"already_refunded"`
}

// CheckoutSessionResult carries the hosted checkout handoff back to the client.
type CheckoutSessionResult struct {
	SessionID string    `json:"session_id"`
	URL       string    `json:"url"`
	OrderID   uuid.UUID `json:"order_id"`
}
