package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/inkingiwoods/sokohub-backend/internal/orders"
	"github.com/inkingiwoods/sokohub-backend/pkg/config"
	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
	pkgerrors "github.com/inkingiwoods/sokohub-backend/pkg/errors"
	"github.com/inkingiwoods/sokohub-backend/pkg/logger"
)

// CheckoutService hands a pending Stripe order off to the hosted checkout
// page.
type CheckoutService interface {
	StartStripeCheckout(ctx context.Context, orderID, actorID uuid.UUID) (*CheckoutSessionResult, error)
}

type checkoutService struct {
	orders    orders.Repository
	client    StripeCheckoutClient
	stripeCfg config.StripeConfig
	checkout  config.CheckoutConfig
	logg      *logger.Logger
}

// NewCheckoutService wires the Stripe checkout service. A nil client is a
// valid state meaning Stripe is not configured; StartStripeCheckout then
// reports not implemented.
func NewCheckoutService(
	orderRepo orders.Repository,
	client StripeCheckoutClient,
	stripeCfg config.StripeConfig,
	checkout config.CheckoutConfig,
	logg *logger.Logger,
) (CheckoutService, error) {
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &checkoutService{
		orders:    orderRepo,
		client:    client,
		stripeCfg: stripeCfg,
		checkout:  checkout,
		logg:      logg,
	}, nil
}

// StartStripeCheckout creates the hosted checkout session for a pending
// order, tagging the session with the order id so the webhook can
// reconcile the payment later. If session creation fails the pending
// order is deleted rather than left orphaned.
func (s *checkoutService) StartStripeCheckout(ctx context.Context, orderID, actorID uuid.UUID) (*CheckoutSessionResult, error) {
	if s.client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotImplemented, "Stripe is not configured")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.CustomerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	if order.PaymentMethod != enums.PaymentMethodStripe {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not a Stripe order").
			WithDetails(map[string]any{"payment_method": order.PaymentMethod})
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer pending").
			WithDetails(map[string]any{"status": order.Status})
	}

	successURL := strings.TrimSpace(s.stripeCfg.SuccessURL)
	cancelURL := strings.TrimSpace(s.stripeCfg.CancelURL)
	if successURL == "" || cancelURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "Stripe redirect URLs not configured")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems:  s.buildLineItems(order),
	}
	params.AddMetadata("order_id", order.ID.String())

	sess, err := s.client.CreateCheckoutSession(ctx, params)
	if err != nil {
		ctx = s.logg.WithOrderID(ctx, order.ID.String())
		if delErr := s.orders.Delete(ctx, order.ID); delErr != nil {
			s.logg.Error(ctx, "delete pending order after checkout failure", delErr)
		}
		s.logg.Error(ctx, "create checkout session", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}

	if err := s.orders.Update(ctx, order.ID, map[string]any{"stripe_session_id": sess.ID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record checkout session")
	}

	return &CheckoutSessionResult{
		SessionID: sess.ID,
		URL:       sess.URL,
		OrderID:   order.ID,
	}, nil
}

func (s *checkoutService) buildLineItems(order *models.Order) []*stripe.CheckoutSessionLineItemParams {
	currency := s.checkout.Currency
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items)+1)
	for _, item := range order.Items {
		name := "Item"
		if item.Product != nil {
			name = item.Product.Name
		}
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(minorUnits(item.UnitPrice, currency)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
			},
		})
	}

	surcharge := order.DeliveryCost.Add(order.TaxAmount)
	if surcharge.IsPositive() {
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(minorUnits(surcharge, currency)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Delivery & tax"),
				},
			},
		})
	}
	return items
}

// Currencies Stripe treats as having no minor unit.
var zeroDecimalCurrencies = map[string]bool{
	"rwf": true,
	"jpy": true,
	"ugx": true,
	"krw": true,
	"vnd": true,
}

func minorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[currency] {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
