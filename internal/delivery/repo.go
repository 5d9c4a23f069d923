package delivery

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
)

// Repository manages persistence for delivery tracking rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, tracking *models.DeliveryTracking) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.DeliveryTracking, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a delivery tracking repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, tracking *models.DeliveryTracking) error {
	return r.db.WithContext(ctx).Create(tracking).Error
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.DeliveryTracking, error) {
	var tracking models.DeliveryTracking
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&tracking).Error
	if err != nil {
		return nil, err
	}
	return &tracking, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.DeliveryTracking{}).
		Where("id = ?", id).
		Updates(updates).Error
}
