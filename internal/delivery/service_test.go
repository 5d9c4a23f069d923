package delivery

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
	pkgerrors "github.com/inkingiwoods/sokohub-backend/pkg/errors"
)

func setupDeliveryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS delivery_tracking (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending',
  tracking_number TEXT NOT NULL DEFAULT '',
  carrier TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func newDeliveryService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func TestCreateForOrderSeedsPendingRecord(t *testing.T) {
	db := setupDeliveryTestDB(t)
	svc := newDeliveryService(t, db)
	ctx := context.Background()

	order := &models.Order{ID: uuid.New()}
	require.NoError(t, svc.CreateForOrder(ctx, db, order))

	tracking, err := svc.GetByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusPending, tracking.Status)
	assert.Nil(t, tracking.DeliveredAt)
}

func TestUpdateStatusWalksTheChain(t *testing.T) {
	db := setupDeliveryTestDB(t)
	svc := newDeliveryService(t, db)
	ctx := context.Background()

	order := &models.Order{ID: uuid.New()}
	require.NoError(t, svc.CreateForOrder(ctx, db, order))

	for _, target := range []enums.DeliveryStatus{
		enums.DeliveryStatusPickedUp,
		enums.DeliveryStatusInTransit,
		enums.DeliveryStatusOutForDelivery,
	} {
		tracking, err := svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: target})
		require.NoError(t, err)
		require.Equal(t, target, tracking.Status)
	}

	tracking, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		OrderID: order.ID,
		Target:  enums.DeliveryStatusDelivered,
		Carrier: "DHL",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.DeliveryStatusDelivered, tracking.Status)
	assert.Equal(t, "DHL", tracking.Carrier)
	require.NotNil(t, tracking.DeliveredAt)
}

func TestUpdateStatusRejectsSkips(t *testing.T) {
	db := setupDeliveryTestDB(t)
	svc := newDeliveryService(t, db)
	ctx := context.Background()

	order := &models.Order{ID: uuid.New()}
	require.NoError(t, svc.CreateForOrder(ctx, db, order))

	_, err := svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: enums.DeliveryStatusDelivered})
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: "bogus"})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateStatusFailedIsReachableButTerminal(t *testing.T) {
	db := setupDeliveryTestDB(t)
	svc := newDeliveryService(t, db)
	ctx := context.Background()

	order := &models.Order{ID: uuid.New()}
	require.NoError(t, svc.CreateForOrder(ctx, db, order))

	tracking, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		OrderID: order.ID,
		Target:  enums.DeliveryStatusFailed,
		Notes:   "address unreachable",
	})
	require.NoError(t, err)
	assert.Equal(t, "address unreachable", tracking.Notes)

	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{OrderID: order.ID, Target: enums.DeliveryStatusPickedUp})
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestGetByOrderMissing(t *testing.T) {
	db := setupDeliveryTestDB(t)
	svc := newDeliveryService(t, db)

	_, err := svc.GetByOrder(context.Background(), uuid.New())
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
