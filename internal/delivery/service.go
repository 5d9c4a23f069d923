package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
	pkgerrors "github.com/inkingiwoods/sokohub-backend/pkg/errors"
)

// UpdateStatusInput moves one order's courier record along its state
// machine, optionally attaching carrier details.
type UpdateStatusInput struct {
	OrderID        uuid.UUID
	Target         enums.DeliveryStatus
	Carrier        string
	TrackingNumber string
	Notes          string
}

// Service manages the courier leg of shipped orders. CreateForOrder is
// called by the order lifecycle inside its shipping transaction.
type Service interface {
	CreateForOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error
	GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.DeliveryTracking, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.DeliveryTracking, error)
}

type service struct {
	repo Repository
}

// NewService wires a delivery service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("delivery repository required")
	}
	return &service{repo: repo}, nil
}

// CreateForOrder seeds the pending courier record for a freshly shipped
// order, in the caller's transaction.
func (s *service) CreateForOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	tracking := &models.DeliveryTracking{
		ID:      uuid.New(),
		OrderID: order.ID,
		Status:  enums.DeliveryStatusPending,
	}
	if err := s.repo.WithTx(tx).Create(ctx, tracking); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery tracking")
	}
	return nil
}

func (s *service) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.DeliveryTracking, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	tracking, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery tracking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery tracking")
	}
	return tracking, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.DeliveryTracking, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery status")
	}

	tracking, err := s.GetByOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if tracking.Status == input.Target {
		return tracking, nil
	}
	if !CanTransition(tracking.Status, input.Target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "delivery status transition not allowed").
			WithDetails(map[string]any{"from": tracking.Status, "to": input.Target})
	}

	updates := map[string]any{"status": input.Target}
	if input.Carrier != "" {
		updates["carrier"] = input.Carrier
	}
	if input.TrackingNumber != "" {
		updates["tracking_number"] = input.TrackingNumber
	}
	if input.Notes != "" {
		updates["notes"] = input.Notes
	}
	if input.Target == enums.DeliveryStatusDelivered {
		now := time.Now().UTC()
		updates["delivered_at"] = now
		tracking.DeliveredAt = &now
	}

	if err := s.repo.Update(ctx, tracking.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery tracking")
	}
	tracking.Status = input.Target
	if input.Carrier != "" {
		tracking.Carrier = input.Carrier
	}
	if input.TrackingNumber != "" {
		tracking.TrackingNumber = input.TrackingNumber
	}
	if input.Notes != "" {
		tracking.Notes = input.Notes
	}
	return tracking, nil
}
