package webhooks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
)

// Repository manages persistence for inbound webhook events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.StripeWebhookEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.StripeWebhookEvent, error)
	FindByEventID(ctx context.Context, stripeEventID string) (*models.StripeWebhookEvent, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListRecent(ctx context.Context, limit int) ([]models.StripeWebhookEvent, error)
	ListUnprocessed(ctx context.Context, limit int) ([]models.StripeWebhookEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a webhook event repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.StripeWebhookEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StripeWebhookEvent, error) {
	var event models.StripeWebhookEvent
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) FindByEventID(ctx context.Context, stripeEventID string) (*models.StripeWebhookEvent, error) {
	var event models.StripeWebhookEvent
	err := r.db.WithContext(ctx).
		Where("stripe_event_id = ?", stripeEventID).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.StripeWebhookEvent{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListRecent(ctx context.Context, limit int) ([]models.StripeWebhookEvent, error) {
	return r.list(ctx, r.db, limit)
}

func (r *repository) ListUnprocessed(ctx context.Context, limit int) ([]models.StripeWebhookEvent, error) {
	return r.list(ctx, r.db.Where("processed = ?", false), limit)
}

func (r *repository) list(ctx context.Context, query *gorm.DB, limit int) ([]models.StripeWebhookEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	var rows []models.StripeWebhookEvent
	err := query.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
