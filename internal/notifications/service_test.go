package notifications

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkingiwoods/sokohub-backend/pkg/config"
	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/logger"
)

type stubMailer struct {
	sent []Message
	err  error
}

func (s *stubMailer) Send(_ context.Context, msg Message) Outcome {
	s.sent = append(s.sent, msg)
	if s.err != nil {
		return Outcome{Recipient: msg.To, Err: s.err}
	}
	return Outcome{Recipient: msg.To, Sent: true}
}

type stubUsers struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, errors.New("record not found")
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestOrderPaidNotifiesBuyerAndVendorsOnce(t *testing.T) {
	buyer := &models.User{ID: uuid.New(), Username: "buyer", Email: "buyer@example.com"}
	vendor := &models.User{ID: uuid.New(), Username: "vendor", Email: "vendor@example.com"}

	mailer := &stubMailer{}
	svc, err := NewService(mailer, &stubUsers{users: map[uuid.UUID]*models.User{
		buyer.ID:  buyer,
		vendor.ID: vendor,
	}}, testLogger())
	require.NoError(t, err)

	order := &models.Order{ID: uuid.New(), CustomerID: buyer.ID, Total: decimal.NewFromInt(300)}
	purchases := []models.Purchase{
		{ID: uuid.New(), OrderID: order.ID, BuyerID: buyer.ID, VendorID: vendor.ID, Amount: decimal.NewFromInt(100)},
		{ID: uuid.New(), OrderID: order.ID, BuyerID: buyer.ID, VendorID: vendor.ID, Amount: decimal.NewFromInt(200)},
	}

	svc.OrderPaid(context.Background(), order, purchases)

	// two purchases from the same vendor collapse into one vendor email
	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "buyer@example.com", mailer.sent[0].To)
	assert.Equal(t, "vendor@example.com", mailer.sent[1].To)
}

func TestOrderPaidSwallowsFailures(t *testing.T) {
	buyer := &models.User{ID: uuid.New(), Username: "buyer", Email: "buyer@example.com"}

	mailer := &stubMailer{err: errors.New("smtp down")}
	svc, err := NewService(mailer, &stubUsers{users: map[uuid.UUID]*models.User{buyer.ID: buyer}}, testLogger())
	require.NoError(t, err)

	order := &models.Order{ID: uuid.New(), CustomerID: buyer.ID, Total: decimal.NewFromInt(100)}
	// unknown vendor id: lookup fails, no panic, no error escapes
	purchases := []models.Purchase{{ID: uuid.New(), OrderID: order.ID, BuyerID: buyer.ID, VendorID: uuid.New()}}

	svc.OrderPaid(context.Background(), order, purchases)
	require.Len(t, mailer.sent, 1)
}

func TestPurchaseRefundedNotifiesBothParties(t *testing.T) {
	buyer := &models.User{ID: uuid.New(), Username: "buyer", Email: "buyer@example.com"}
	vendor := &models.User{ID: uuid.New(), Username: "vendor", Email: "vendor@example.com"}

	mailer := &stubMailer{}
	svc, err := NewService(mailer, &stubUsers{users: map[uuid.UUID]*models.User{
		buyer.ID:  buyer,
		vendor.ID: vendor,
	}}, testLogger())
	require.NoError(t, err)

	purchase := &models.Purchase{
		ID:       uuid.New(),
		OrderID:  uuid.New(),
		BuyerID:  buyer.ID,
		VendorID: vendor.ID,
		Amount:   decimal.NewFromInt(150),
	}
	svc.PurchaseRefunded(context.Background(), purchase, "damaged in transit")

	require.Len(t, mailer.sent, 2)
	assert.Contains(t, mailer.sent[0].Body, "damaged in transit")
}

func TestNewMailerReturnsNoopWhenDisabled(t *testing.T) {
	mailer := NewMailer(config.MailConfig{})
	outcome := mailer.Send(context.Background(), Message{To: "someone@example.com"})
	assert.True(t, outcome.Skipped)
	assert.False(t, outcome.Sent)
	assert.NoError(t, outcome.Err)
}
