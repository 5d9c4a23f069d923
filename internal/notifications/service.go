package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/logger"
)

// userFinder resolves buyers and vendors for addressing. Satisfied by the
// users repository.
type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service fans settlement events out as emails. Every method is
// fire-and-forget: lookups and delivery failures are logged and
// swallowed, never returned, so notification outages cannot disturb
// committed business state.
type Service interface {
	OrderPaid(ctx context.Context, order *models.Order, purchases []models.Purchase)
	PurchaseRefunded(ctx context.Context, purchase *models.Purchase, reason string)
}

type service struct {
	mailer Mailer
	users  userFinder
	logg   *logger.Logger
}

// NewService wires the notification fan-out.
func NewService(mailer Mailer, users userFinder, logg *logger.Logger) (Service, error) {
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{mailer: mailer, users: users, logg: logg}, nil
}

func (s *service) OrderPaid(ctx context.Context, order *models.Order, purchases []models.Purchase) {
	if order == nil {
		return
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	if buyer := s.lookup(ctx, order.CustomerID); buyer != nil {
		s.deliver(ctx, Message{
			To:      buyer.Email,
			Subject: fmt.Sprintf("Payment received for order %s", shortID(order.ID)),
			Body: fmt.Sprintf("Hi %s,\n\nWe received your payment of %s for order %s. Your order is now being processed.\n",
				buyer.Username, order.Total.StringFixed(2), order.ID),
		})
	}

	// one email per vendor, not per purchase
	notified := map[uuid.UUID]bool{}
	for _, purchase := range purchases {
		if notified[purchase.VendorID] {
			continue
		}
		notified[purchase.VendorID] = true

		vendor := s.lookup(ctx, purchase.VendorID)
		if vendor == nil {
			continue
		}
		s.deliver(ctx, Message{
			To:      vendor.Email,
			Subject: fmt.Sprintf("New sale on order %s", shortID(order.ID)),
			Body: fmt.Sprintf("Hi %s,\n\nYour products were purchased on order %s. Review the order and confirm fulfilment.\n",
				vendor.Username, order.ID),
		})
	}
}

func (s *service) PurchaseRefunded(ctx context.Context, purchase *models.Purchase, reason string) {
	if purchase == nil {
		return
	}
	ctx = s.logg.WithOrderID(ctx, purchase.OrderID.String())

	if buyer := s.lookup(ctx, purchase.BuyerID); buyer != nil {
		s.deliver(ctx, Message{
			To:      buyer.Email,
			Subject: fmt.Sprintf("Refund issued for order %s", shortID(purchase.OrderID)),
			Body: fmt.Sprintf("Hi %s,\n\nA refund of %s was issued for your purchase. Reason: %s\n",
				buyer.Username, purchase.Amount.StringFixed(2), reason),
		})
	}
	if vendor := s.lookup(ctx, purchase.VendorID); vendor != nil {
		s.deliver(ctx, Message{
			To:      vendor.Email,
			Subject: fmt.Sprintf("Purchase refunded on order %s", shortID(purchase.OrderID)),
			Body: fmt.Sprintf("Hi %s,\n\nA purchase of your product was refunded and its stock restored. Reason: %s\n",
				vendor.Username, reason),
		})
	}
}

func (s *service) lookup(ctx context.Context, id uuid.UUID) *models.User {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("notification recipient %s not resolved: %v", id, err))
		return nil
	}
	return user
}

func (s *service) deliver(ctx context.Context, msg Message) {
	outcome := s.mailer.Send(ctx, msg)
	switch {
	case outcome.Err != nil:
		s.logg.Warn(ctx, fmt.Sprintf("notification to %s failed: %v", outcome.Recipient, outcome.Err))
	case outcome.Skipped:
	default:
		s.logg.Info(ctx, fmt.Sprintf("notification sent to %s", outcome.Recipient))
	}
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
