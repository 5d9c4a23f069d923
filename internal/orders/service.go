package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/inkingiwoods/sokohub-backend/pkg/config"
	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
	pkgerrors "github.com/inkingiwoods/sokohub-backend/pkg/errors"
	"github.com/inkingiwoods/sokohub-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// productFinder resolves products during order validation. Satisfied by
// the inventory repository.
type productFinder interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// userFinder resolves the buying customer. Satisfied by the users
// repository.
type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// DeliveryTracker creates the courier record when an order ships.
type DeliveryTracker interface {
	CreateForOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

// Service defines the order builder and lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	Cancel(ctx context.Context, orderID, actorID uuid.UUID) error
	VendorDecision(ctx context.Context, input VendorDecisionInput) error
	ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error)
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*OrderList, error)
}

type service struct {
	repo     Repository
	products productFinder
	users    userFinder
	tx       txRunner
	tracker  DeliveryTracker
	checkout config.CheckoutConfig
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, products productFinder, users userFinder, tx txRunner, tracker DeliveryTracker, checkout config.CheckoutConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("delivery tracker required")
	}
	return &service{
		repo:     repo,
		products: products,
		users:    users,
		tx:       tx,
		tracker:  tracker,
		checkout: checkout,
	}, nil
}

// Create validates the requested lines and persists a pending order with
// priced items. Stock is not reserved here: reservation happens when the
// payment settles.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one line")
	}
	if !input.DeliveryOption.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery option")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	customer, err := s.users.FindByID(ctx, input.CustomerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if customer.UserType != enums.UserTypeCustomer {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customer accounts can place orders")
	}

	seen := map[uuid.UUID]bool{}
	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
		if seen[line.ProductID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product line").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		seen[line.ProductID] = true

		product, err := s.products.FindProduct(ctx, line.ProductID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": line.ProductID})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product.Status != enums.ProductStatusActive {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available").
				WithDetails(map[string]any{"product_id": product.ID})
		}
		if line.Quantity > product.Stock {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "requested quantity exceeds stock").
				WithDetails(map[string]any{"product_id": product.ID, "stock": product.Stock})
		}

		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	totals := ComputeTotals(subtotal, input.DeliveryOption, s.checkout)

	order := &models.Order{
		ID:                uuid.New(),
		CustomerID:        input.CustomerID,
		Subtotal:          totals.Subtotal,
		DeliveryCost:      totals.DeliveryCost,
		TaxRate:           totals.TaxRate,
		TaxAmount:         totals.TaxAmount,
		Total:             totals.Total,
		Status:            enums.OrderStatusPending,
		DeliveryAddress:   input.DeliveryAddress,
		Phone:             input.Phone,
		DeliveryLatitude:  input.DeliveryLatitude,
		DeliveryLongitude: input.DeliveryLongitude,
		DeliveryOption:    input.DeliveryOption,
		PaymentMethod:     input.PaymentMethod,
		Items:             items,
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// Transition moves an order along the state machine. Moving to shipped
// also creates the delivery tracking record in the same transaction.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == input.Target {
			result = order
			return nil
		}
		if !CanTransition(order.Status, input.Target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{"from": order.Status, "to": input.Target})
		}

		if err := repo.UpdateStatus(ctx, order.ID, input.Target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		order.Status = input.Target

		if input.Target == enums.OrderStatusShipped {
			if err := s.tracker.CreateForOrder(ctx, tx, order); err != nil {
				return err
			}
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Cancel(ctx context.Context, orderID, actorID uuid.UUID) error {
	_, err := s.Transition(ctx, TransitionInput{
		OrderID: orderID,
		Target:  enums.OrderStatusCancelled,
		ActorID: actorID,
	})
	return err
}

// VendorDecision records a vendor's confirmation or rejection of a
// manually paid order. Confirmation only flips the bookkeeping fields;
// the payment engine advances the status when it settles the payment.
// Rejection cancels the order.
func (s *service) VendorDecision(ctx context.Context, input VendorDecisionInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.VendorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "vendor identity missing")
	}
	if !input.Confirm && input.Reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !orderContainsVendor(order, input.VendorID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not contain this vendor's products")
		}
		if order.Status != enums.OrderStatusAwaitingConfirmation {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting confirmation")
		}
		if order.VendorConfirmed {
			return nil
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"vendor_confirmed_by": input.VendorID,
			"vendor_confirmed_at": now,
		}
		if input.Confirm {
			updates["vendor_confirmed"] = true
		} else {
			updates["vendor_rejection_reason"] = input.Reason
			updates["status"] = enums.OrderStatusCancelled
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record vendor decision")
		}
		return nil
	})
}

func (s *service) ListCustomerOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	rows, next, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return buildOrderList(rows, next), nil
}

func (s *service) ListVendorOrders(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "vendor identity missing")
	}
	rows, next, err := s.repo.ListByVendor(ctx, vendorID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor orders")
	}
	return buildOrderList(rows, next), nil
}

func buildOrderList(rows []models.Order, next string) *OrderList {
	list := &OrderList{
		Orders:     make([]OrderSummary, 0, len(rows)),
		NextCursor: next,
	}
	for _, order := range rows {
		totalItems := 0
		for _, item := range order.Items {
			totalItems += item.Quantity
		}
		list.Orders = append(list.Orders, OrderSummary{
			ID:             order.ID,
			Status:         order.Status,
			PaymentMethod:  order.PaymentMethod,
			DeliveryOption: order.DeliveryOption,
			Total:          order.Total,
			TotalItems:     totalItems,
			CreatedAt:      order.CreatedAt,
		})
	}
	return list
}

func orderContainsVendor(order *models.Order, vendorID uuid.UUID) bool {
	for _, item := range order.Items {
		if item.Product != nil && item.Product.VendorID == vendorID {
			return true
		}
	}
	return false
}
