package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkingiwoods/sokohub-backend/api/middleware"
	"github.com/inkingiwoods/sokohub-backend/api/responses"
	"github.com/inkingiwoods/sokohub-backend/api/validators"
	deliverysvc "github.com/inkingiwoods/sokohub-backend/internal/delivery"
	ordersvc "github.com/inkingiwoods/sokohub-backend/internal/orders"
	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
	pkgerrors "github.com/inkingiwoods/sokohub-backend/pkg/errors"
	"github.com/inkingiwoods/sokohub-backend/pkg/logger"
)

type deliveryResponse struct {
	OrderID        uuid.UUID  `json:"order_id"`
	Status         string     `json:"status"`
	Carrier        string     `json:"carrier,omitempty"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// DeliveryDetail returns the tracking record for an order. Customers
// see only their own orders.
func DeliveryDetail(svc deliverysvc.Service, orders ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || orders == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		ctx := r.Context()
		if !middleware.IsStaffFromContext(ctx) {
			order, err := orders.Get(ctx, orderID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if order.CustomerID != middleware.UserIDFromContext(ctx) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
				return
			}
		}

		tracking, err := svc.GetByOrder(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDeliveryResponse(tracking))
	}
}

type updateDeliveryRequest struct {
	Status         string `json:"status" validate:"required"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	Notes          string `json:"notes"`
}

// DeliveryUpdate advances the courier status chain. Staff only.
func DeliveryUpdate(svc deliverysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload updateDeliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseDeliveryStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery status"))
			return
		}

		tracking, err := svc.UpdateStatus(r.Context(), deliverysvc.UpdateStatusInput{
			OrderID:        orderID,
			Target:         target,
			Carrier:        payload.Carrier,
			TrackingNumber: payload.TrackingNumber,
			Notes:          payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newDeliveryResponse(tracking))
	}
}

func newDeliveryResponse(tracking *models.DeliveryTracking) deliveryResponse {
	if tracking == nil {
		return deliveryResponse{}
	}
	return deliveryResponse{
		OrderID:        tracking.OrderID,
		Status:         string(tracking.Status),
		Carrier:        tracking.Carrier,
		TrackingNumber: tracking.TrackingNumber,
		Notes:          tracking.Notes,
		DeliveredAt:    tracking.DeliveredAt,
		UpdatedAt:      tracking.UpdatedAt,
	}
}
