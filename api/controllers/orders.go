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
	cartsvc "github.com/inkingiwoods/sokohub-backend/internal/cart"
	ordersvc "github.com/inkingiwoods/sokohub-backend/internal/orders"
	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
	pkgerrors "github.com/inkingiwoods/sokohub-backend/pkg/errors"
	"github.com/inkingiwoods/sokohub-backend/pkg/logger"
	"github.com/inkingiwoods/sokohub-backend/pkg/pagination"
)

const maxOrderPageSize = 100

type orderLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type createOrderRequest struct {
	Items             []orderLineRequest `json:"items"`
	FromCart          bool               `json:"from_cart"`
	DeliveryAddress   string             `json:"delivery_address" validate:"required"`
	Phone             string             `json:"phone" validate:"required"`
	DeliveryLatitude  *decimal.Decimal   `json:"delivery_latitude"`
	DeliveryLongitude *decimal.Decimal   `json:"delivery_longitude"`
	DeliveryOption    string             `json:"delivery_option" validate:"required"`
	PaymentMethod     string             `json:"payment_method" validate:"required"`
}

type orderItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	Status          string              `json:"status"`
	PaymentMethod   string              `json:"payment_method"`
	DeliveryOption  string              `json:"delivery_option"`
	DeliveryAddress string              `json:"delivery_address"`
	Phone           string              `json:"phone,omitempty"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	DeliveryCost    decimal.Decimal     `json:"delivery_cost"`
	TaxAmount       decimal.Decimal     `json:"tax_amount"`
	Total           decimal.Decimal     `json:"total"`
	VendorConfirmed bool                `json:"vendor_confirmed,omitempty"`
	Items           []orderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
}

// OrderCreate persists a pending order from explicit lines or from the
// customer's cart. A cart-sourced order clears the cart on success.
func OrderCreate(svc ordersvc.Service, carts cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.FromCart {
			if carts == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
				return
			}
			cart, err := carts.Get(r.Context(), input.CustomerID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if len(cart.Items) == 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"))
				return
			}
			for _, item := range cart.Items {
				input.Lines = append(input.Lines, ordersvc.LineInput{ProductID: item.ProductID, Quantity: item.Quantity})
			}
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.FromCart {
			if err := carts.Clear(r.Context(), input.CustomerID); err != nil && logg != nil {
				logg.Warn(logg.WithOrderID(r.Context(), order.ID.String()), "cart not cleared after order creation")
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// OrderDetail returns one order. Customers see only their own orders;
// staff see any.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if !middleware.IsStaffFromContext(ctx) && order.CustomerID != middleware.UserIDFromContext(ctx) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

// OrderList returns the customer's own orders, newest first.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListCustomerOrders(r.Context(), middleware.UserIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// VendorOrderList returns orders containing the vendor's products.
func VendorOrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		params, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListVendorOrders(r.Context(), middleware.UserIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// OrderCancel cancels a non-terminal order owned by the caller.
func OrderCancel(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.Cancel(r.Context(), orderID, middleware.UserIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

type vendorDecisionRequest struct {
	Confirm bool   `json:"confirm"`
	Reason  string `json:"reason"`
}

// VendorOrderDecision records the vendor's confirm/reject on an order
// awaiting confirmation.
func VendorOrderDecision(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload vendorDecisionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.VendorDecision(r.Context(), ordersvc.VendorDecisionInput{
			OrderID:  orderID,
			VendorID: middleware.UserIDFromContext(r.Context()),
			Confirm:  payload.Confirm,
			Reason:   payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

func (p createOrderRequest) toInput(customerID uuid.UUID) (ordersvc.CreateOrderInput, error) {
	option, err := enums.ParseDeliveryOption(p.DeliveryOption)
	if err != nil {
		return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery option")
	}
	method, err := enums.ParsePaymentMethod(p.PaymentMethod)
	if err != nil {
		return ordersvc.CreateOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	if !p.FromCart && len(p.Items) == 0 {
		return ordersvc.CreateOrderInput{}, pkgerrors.New(pkgerrors.CodeValidation, "items or from_cart required")
	}

	lines := make([]ordersvc.LineInput, 0, len(p.Items))
	for _, item := range p.Items {
		lines = append(lines, ordersvc.LineInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	return ordersvc.CreateOrderInput{
		CustomerID:        customerID,
		Lines:             lines,
		DeliveryAddress:   p.DeliveryAddress,
		Phone:             p.Phone,
		DeliveryLatitude:  p.DeliveryLatitude,
		DeliveryLongitude: p.DeliveryLongitude,
		DeliveryOption:    option,
		PaymentMethod:     method,
	}, nil
}

func listParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 20, 1, maxOrderPageSize)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")}, nil
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		resp := orderItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal(),
		}
		if item.Product != nil {
			resp.Name = item.Product.Name
		}
		items = append(items, resp)
	}
	return orderResponse{
		ID:              order.ID,
		Status:          string(order.Status),
		PaymentMethod:   string(order.PaymentMethod),
		DeliveryOption:  string(order.DeliveryOption),
		DeliveryAddress: order.DeliveryAddress,
		Phone:           order.Phone,
		Subtotal:        order.Subtotal,
		DeliveryCost:    order.DeliveryCost,
		TaxAmount:       order.TaxAmount,
		Total:           order.Total,
		VendorConfirmed: order.VendorConfirmed,
		Items:           items,
		CreatedAt:       order.CreatedAt,
	}
}
