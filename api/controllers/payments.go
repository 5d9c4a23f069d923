package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inkingiwoods/sokohub-backend/api/middleware"
	"github.com/inkingiwoods/sokohub-backend/api/responses"
	"github.com/inkingiwoods/sokohub-backend/api/validators"
	ordersvc "github.com/inkingiwoods/sokohub-backend/internal/orders"
	"github.com/inkingiwoods/sokohub-backend/internal/payments"
	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	pkgerrors "github.com/inkingiwoods/sokohub-backend/pkg/errors"
	"github.com/inkingiwoods/sokohub-backend/pkg/logger"
)

type purchaseResponse struct {
	ID            uuid.UUID       `json:"id"`
	OrderID       uuid.UUID       `json:"order_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	VendorID      uuid.UUID       `json:"vendor_id"`
	TransactionID string          `json:"transaction_id"`
	PaymentMethod string          `json:"payment_method"`
	Quantity      int             `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
	Refunded      bool            `json:"refunded,omitempty"`
	RefundedAt    *time.Time      `json:"refunded_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type reconcileResponse struct {
	OrderID   uuid.UUID          `json:"order_id"`
	Status    string             `json:"status,omitempty"`
	Duplicate bool               `json:"duplicate"`
	Purchases []purchaseResponse `json:"purchases"`
}

// CheckoutStart requests a hosted Stripe Checkout session for a pending
// order and returns the redirect URL.
func CheckoutStart(svc payments.CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		result, err := svc.StartStripeCheckout(r.Context(), orderID, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// MockPay settles a mock-method order for the owning customer.
func MockPay(engine payments.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment engine unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		result, err := engine.MockPay(r.Context(), payments.MockPayInput{
			OrderID: orderID,
			ActorID: middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newReconcileResponse(result))
	}
}

type confirmPaymentRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	Note          string `json:"note"`
}

// PaymentConfirm records a manually verified bank or mobile-money
// payment against an order. Staff only; the transaction reference comes
// from the payment provider's statement.
func PaymentConfirm(engine payments.Engine, orders ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil || orders == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment engine unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload confirmPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := orders.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !order.PaymentMethod.RequiresVendorConfirmation() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not a manual payment method"))
			return
		}

		actorID := middleware.UserIDFromContext(r.Context())
		note := payload.Note
		if note == "" {
			note = "manual payment confirmation"
		}

		result, err := engine.Reconcile(r.Context(), payments.ReconcileInput{
			OrderID:       orderID,
			TransactionID: payload.TransactionID,
			Method:        order.PaymentMethod,
			ActorID:       &actorID,
			Note:          note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newReconcileResponse(result))
	}
}

type purchaseLogResponse struct {
	ID         uuid.UUID  `json:"id"`
	PurchaseID uuid.UUID  `json:"purchase_id"`
	OrderID    uuid.UUID  `json:"order_id"`
	Action     string     `json:"action"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	Note       string     `json:"note,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// OrderPaymentAudit lists the purchase log entries for an order, newest
// first.
func OrderPaymentAudit(engine payments.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment engine unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		logs, err := engine.OrderAudit(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]purchaseLogResponse, 0, len(logs))
		for _, entry := range logs {
			out = append(out, newPurchaseLogResponse(entry))
		}
		responses.WriteSuccess(w, out)
	}
}

func newReconcileResponse(result *payments.ReconcileResult) reconcileResponse {
	if result == nil {
		return reconcileResponse{}
	}
	resp := reconcileResponse{
		Duplicate: result.Duplicate,
		Purchases: make([]purchaseResponse, 0, len(result.Purchases)),
	}
	if result.Order != nil {
		resp.OrderID = result.Order.ID
		resp.Status = string(result.Order.Status)
	}
	for _, purchase := range result.Purchases {
		resp.Purchases = append(resp.Purchases, newPurchaseResponse(purchase))
	}
	return resp
}

func newPurchaseResponse(purchase models.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:            purchase.ID,
		OrderID:       purchase.OrderID,
		ProductID:     purchase.ProductID,
		VendorID:      purchase.VendorID,
		TransactionID: purchase.TransactionID,
		PaymentMethod: string(purchase.PaymentMethod),
		Quantity:      purchase.Quantity,
		Amount:        purchase.Amount,
		Refunded:      purchase.Refunded,
		RefundedAt:    purchase.RefundedAt,
		CreatedAt:     purchase.CreatedAt,
	}
}

func newPurchaseLogResponse(entry models.PurchaseLog) purchaseLogResponse {
	return purchaseLogResponse{
		ID:         entry.ID,
		PurchaseID: entry.PurchaseID,
		OrderID:    entry.OrderID,
		Action:     string(entry.Action),
		ActorID:    entry.ActorID,
		Note:       entry.Note,
		CreatedAt:  entry.CreatedAt,
	}
}
