package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
)

// LogRepository appends and reads the purchase audit trail. There is no
// update or delete: log rows are immutable once written.
type LogRepository interface {
	WithTx(tx *gorm.DB) LogRepository
	Create(ctx context.Context, entry *models.PurchaseLog) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PurchaseLog, error)
	ListByPurchase(ctx context.Context, purchaseID uuid.UUID) ([]models.PurchaseLog, error)
}

type logRepository struct {
	db *gorm.DB
}

// NewLogRepository builds a purchase log repository bound to the provided DB.
func NewLogRepository(db *gorm.DB) LogRepository {
	return &logRepository{db: db}
}

func (r *logRepository) WithTx(tx *gorm.DB) LogRepository {
	if tx == nil {
		return r
	}
	return &logRepository{db: tx}
}

func (r *logRepository) Create(ctx context.Context, entry *models.PurchaseLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *logRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PurchaseLog, error) {
	var rows []models.PurchaseLog
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *logRepository) ListByPurchase(ctx context.Context, purchaseID uuid.UUID) ([]models.PurchaseLog, error) {
	var rows []models.PurchaseLog
	err := r.db.WithContext(ctx).
		Where("purchase_id = ?", purchaseID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
