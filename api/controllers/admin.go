package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkingiwoods/sokohub-backend/api/middleware"
	"github.com/inkingiwoods/sokohub-backend/api/responses"
	"github.com/inkingiwoods/sokohub-backend/api/validators"
	ordersvc "github.com/inkingiwoods/sokohub-backend/internal/orders"
	"github.com/inkingiwoods/sokohub-backend/internal/payments"
	"github.com/inkingiwoods/sokohub-backend/internal/webhooks"
	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
	pkgerrors "github.com/inkingiwoods/sokohub-backend/pkg/errors"
	"github.com/inkingiwoods/sokohub-backend/pkg/logger"
)

type refundRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type refundResponse struct {
	Purchase        purchaseResponse `json:"purchase"`
	AlreadyRefunded bool             `json:"already_refunded"`
}

// AdminRefund refunds one purchase, restocking its quantity. Repeated
// calls are no-ops.
func AdminRefund(engine payments.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment engine unavailable"))
			return
		}

		purchaseID, err := uuid.Parse(chi.URLParam(r, "purchaseId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase id"))
			return
		}

		var payload refundRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := engine.Refund(r.Context(), payments.RefundInput{
			PurchaseID: purchaseID,
			ActorID:    middleware.UserIDFromContext(r.Context()),
			Reason:     payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := refundResponse{AlreadyRefunded: result.AlreadyRefunded}
		if result.Purchase != nil {
			resp.Purchase = newPurchaseResponse(*result.Purchase)
		}
		responses.WriteSuccess(w, resp)
	}
}

type statusOverrideRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrderStatusOverride force-transitions an order, still validated
// against the status machine.
func AdminOrderStatusOverride(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload statusOverrideRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.Transition(r.Context(), ordersvc.TransitionInput{
			OrderID: orderID,
			Target:  target,
			ActorID: middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type webhookEventResponse struct {
	ID             uuid.UUID  `json:"id"`
	StripeEventID  string     `json:"stripe_event_id"`
	EventType      string     `json:"event_type"`
	Processed      bool       `json:"processed"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
	ProcessingNote string     `json:"processing_note,omitempty"`
	OrderID        *uuid.UUID `json:"order_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AdminWebhookEvents lists stored webhook deliveries, newest first. Use
// unprocessed=true to preview candidates for reprocessing.
func AdminWebhookEvents(svc webhooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		unprocessed, err := validators.ParseQueryBool(r, "unprocessed", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := svc.ListEvents(r.Context(), unprocessed, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]webhookEventResponse, 0, len(events))
		for _, event := range events {
			out = append(out, newWebhookEventResponse(event))
		}
		responses.WriteSuccess(w, out)
	}
}

type reprocessRequest struct {
	EventIDs []uuid.UUID `json:"event_ids" validate:"required,min=1"`
	Confirm  bool        `json:"confirm"`
}

// AdminReprocessWebhooks re-runs reconciliation for stored webhook
// events. Without confirm=true the request is rejected so the caller
// reviews the event list first.
func AdminReprocessWebhooks(svc webhooks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		var payload reprocessRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !payload.Confirm {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "confirm must be true to reprocess"))
			return
		}

		result, err := svc.Reprocess(r.Context(), webhooks.ReprocessInput{
			EventIDs: payload.EventIDs,
			ActorID:  middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func newWebhookEventResponse(event models.StripeWebhookEvent) webhookEventResponse {
	return webhookEventResponse{
		ID:             event.ID,
		StripeEventID:  event.StripeEventID,
		EventType:      event.EventType,
		Processed:      event.Processed,
		ProcessedAt:    event.ProcessedAt,
		ProcessingNote: event.ProcessingNote,
		OrderID:        event.OrderID,
		CreatedAt:      event.CreatedAt,
	}
}
