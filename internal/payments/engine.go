package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkingiwoods/sokohub-backend/internal/inventory"
	"github.com/inkingiwoods/sokohub-backend/internal/orders"
	"github.com/inkingiwoods/sokohub-backend/pkg/db"
	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
	pkgerrors "github.com/inkingiwoods/sokohub-backend/pkg/errors"
	"github.com/inkingiwoods/sokohub-backend/pkg/logger"
	"github.com/inkingiwoods/sokohub-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Notifier delivers post-commit messages about settlement activity.
// Implementations never block reconciliation: delivery failures are
// theirs to log and swallow.
type Notifier interface {
	OrderPaid(ctx context.Context, order *models.Order, purchases []models.Purchase)
	PurchaseRefunded(ctx context.Context, purchase *models.Purchase, reason string)
}

// Engine settles payments against orders: it turns a confirmed payment
// into purchase records, stock movements, and an order status advance,
// all inside one transaction, and absorbs replays as no-ops.
type Engine interface {
	Reconcile(ctx context.Context, input ReconcileInput) (*ReconcileResult, error)
	MockPay(ctx context.Context, input MockPayInput) (*ReconcileResult, error)
	Refund(ctx context.Context, input RefundInput) (*RefundResult, error)
	OrderAudit(ctx context.Context, orderID uuid.UUID) ([]models.PurchaseLog, error)
}

type engine struct {
	purchases Repository
	logs      LogRepository
	orders    orders.Repository
	stock     inventory.Service
	tx        txRunner
	notifier  Notifier
	metrics   *metrics.PaymentMetrics
	logg      *logger.Logger
}

// errDuplicateTransaction aborts the settlement transaction when the
// database reports the composite unique index; the caller translates it
// into a no-op success.
var errDuplicateTransaction = errors.New("transaction already reconciled")

// NewEngine wires the reconciliation engine. The metrics collector may be
// nil; everything else is required.
func NewEngine(
	purchases Repository,
	logs LogRepository,
	orderRepo orders.Repository,
	stock inventory.Service,
	tx txRunner,
	notifier Notifier,
	payMetrics *metrics.PaymentMetrics,
	logg *logger.Logger,
) (Engine, error) {
	if purchases == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if logs == nil {
		return nil, fmt.Errorf("purchase log repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &engine{
		purchases: purchases,
		logs:      logs,
		orders:    orderRepo,
		stock:     stock,
		tx:        tx,
		notifier:  notifier,
		metrics:   payMetrics,
		logg:      logg,
	}, nil
}

// Reconcile settles one transaction against an order. Per line item it
// reserves stock, creates a purchase, and appends a purchase log entry;
// the order then advances to processing. A transaction id seen before
// returns a duplicate no-op, whether it is caught by the existence
// pre-check or by the composite unique index inside the transaction.
func (e *engine) Reconcile(ctx context.Context, input ReconcileInput) (*ReconcileResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	ctx = e.logg.WithTransactionID(e.logg.WithOrderID(ctx, input.OrderID.String()), input.TransactionID)

	exists, err := e.purchases.ExistsForTransaction(ctx, input.TransactionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check transaction")
	}
	if exists {
		return e.duplicateResult(ctx, input)
	}

	start := time.Now()
	var (
		order     *models.Order
		purchases []models.Purchase
	)
	err = e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := e.orders.WithTx(tx)
		purchaseRepo := e.purchases.WithTx(tx)
		logRepo := e.logs.WithTx(tx)

		loaded, err := orderRepo.FindByID(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !orders.CanTransition(loaded.Status, enums.OrderStatusProcessing) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot settle from its current status").
				WithDetails(map[string]any{"status": loaded.Status})
		}
		if len(loaded.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no line items")
		}

		for _, item := range loaded.Items {
			if item.Product == nil {
				return pkgerrors.New(pkgerrors.CodeDependency, "order item product missing").
					WithDetails(map[string]any{"product_id": item.ProductID})
			}
			if err := e.stock.Reserve(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}

			purchase := models.Purchase{
				ID:            uuid.New(),
				OrderID:       loaded.ID,
				ProductID:     item.ProductID,
				BuyerID:       loaded.CustomerID,
				VendorID:      item.Product.VendorID,
				TransactionID: input.TransactionID,
				PaymentMethod: input.Method,
				Quantity:      item.Quantity,
				UnitPrice:     item.UnitPrice,
				Amount:        item.LineTotal(),
			}
			if err := purchaseRepo.Create(ctx, &purchase); err != nil {
				if db.IsUniqueViolation(err, models.UniqueTransactionProductConstraint) {
					return errDuplicateTransaction
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist purchase")
			}

			entry := models.PurchaseLog{
				ID:            uuid.New(),
				PurchaseID:    purchase.ID,
				OrderID:       loaded.ID,
				Action:        enums.PurchaseActionPurchase,
				Amount:        purchase.Amount,
				TransactionID: input.TransactionID,
				Note:          input.Note,
				ActorID:       input.ActorID,
			}
			if err := logRepo.Create(ctx, &entry); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist purchase log")
			}
			purchases = append(purchases, purchase)
		}

		if err := orderRepo.UpdateStatus(ctx, loaded.ID, enums.OrderStatusProcessing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance order status")
		}
		loaded.Status = enums.OrderStatusProcessing
		order = loaded
		return nil
	})
	if err != nil {
		if errors.Is(err, errDuplicateTransaction) {
			return e.duplicateResult(ctx, input)
		}
		e.metrics.IncFailure(input.Method.String())
		e.logg.Error(ctx, "payment reconciliation failed", err)
		return nil, err
	}

	e.metrics.IncReconciled(input.Method.String())
	e.metrics.ObserveReconciliation(input.Method.String(), time.Since(start))
	e.logg.Info(ctx, "payment reconciled")
	e.notifier.OrderPaid(ctx, order, purchases)

	return &ReconcileResult{Order: order, Purchases: purchases}, nil
}

// MockPay settles a pending mock-payment order with a synthesized
// transaction id. Only the order's own customer can trigger it.
func (e *engine) MockPay(ctx context.Context, input MockPayInput) (*ReconcileResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}

	order, err := e.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.CustomerID != input.ActorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	if order.PaymentMethod != enums.PaymentMethodMock {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not a mock payment order").
			WithDetails(map[string]any{"payment_method": order.PaymentMethod})
	}

	actorID := input.ActorID
	return e.Reconcile(ctx, ReconcileInput{
		OrderID:       order.ID,
		TransactionID: "mock_" + uuid.NewString(),
		Method:        enums.PaymentMethodMock,
		ActorID:       &actorID,
		Note:          "mock payment",
	})
}

// Refund reverses one purchase: restores its stock and appends a refund
// log entry. A purchase already refunded reports AlreadyRefunded without
// touching anything, so retries and racing admins converge.
func (e *engine) Refund(ctx context.Context, input RefundInput) (*RefundResult, error) {
	if input.PurchaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund reason required")
	}

	var (
		purchase *models.Purchase
		already  bool
	)
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		purchaseRepo := e.purchases.WithTx(tx)
		logRepo := e.logs.WithTx(tx)

		loaded, err := purchaseRepo.FindByID(ctx, input.PurchaseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
		}

		now := time.Now().UTC()
		won, err := purchaseRepo.MarkRefunded(ctx, loaded.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark purchase refunded")
		}
		if !won {
			purchase = loaded
			already = true
			return nil
		}

		if err := e.stock.Restock(ctx, tx, loaded.ProductID, loaded.Quantity); err != nil {
			return err
		}

		actorID := input.ActorID
		entry := models.PurchaseLog{
			ID:            uuid.New(),
			PurchaseID:    loaded.ID,
			OrderID:       loaded.OrderID,
			Action:        enums.PurchaseActionRefund,
			Amount:        loaded.Amount,
			TransactionID: loaded.TransactionID,
			Note:          input.Reason,
			ActorID:       &actorID,
		}
		if err := logRepo.Create(ctx, &entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist refund log")
		}

		loaded.Refunded = true
		loaded.RefundedAt = &now
		purchase = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !already {
		e.metrics.IncRefund(purchase.PaymentMethod.String())
		e.logg.Info(e.logg.WithTransactionID(ctx, purchase.TransactionID), "purchase refunded")
		e.notifier.PurchaseRefunded(ctx, purchase, input.Reason)
	}
	return &RefundResult{Purchase: purchase, AlreadyRefunded: already}, nil
}

// OrderAudit returns the settlement trail for one order, newest first.
func (e *engine) OrderAudit(ctx context.Context, orderID uuid.UUID) ([]models.PurchaseLog, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	rows, err := e.logs.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase logs")
	}
	return rows, nil
}

// duplicateResult reports a replayed transaction as a no-op success with
// whatever the first settlement produced.
func (e *engine) duplicateResult(ctx context.Context, input ReconcileInput) (*ReconcileResult, error) {
	purchases, err := e.purchases.ListByTransaction(ctx, input.TransactionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing purchases")
	}
	order, err := e.orders.FindByID(ctx, input.OrderID)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	e.metrics.IncDuplicate(input.Method.String())
	e.logg.Info(ctx, "duplicate transaction ignored")
	return &ReconcileResult{Order: order, Purchases: purchases, Duplicate: true}, nil
}
