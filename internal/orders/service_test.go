package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
	pkgerrors "github.com/inkingiwoods/sokohub-backend/pkg/errors"
	"github.com/inkingiwoods/sokohub-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  user_type TEXT NOT NULL DEFAULT 'customer',
  is_staff INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  unit TEXT NOT NULL DEFAULT 'piece',
  price NUMERIC NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  image_urls TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME,
  updated_at DATETIME
);`
	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  subtotal NUMERIC NOT NULL,
  delivery_cost NUMERIC NOT NULL,
  tax_rate NUMERIC NOT NULL,
  tax_amount NUMERIC NOT NULL,
  total NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  delivery_address TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  delivery_latitude NUMERIC,
  delivery_longitude NUMERIC,
  delivery_option TEXT NOT NULL DEFAULT 'standard',
  payment_method TEXT NOT NULL DEFAULT 'mock',
  stripe_session_id TEXT,
  vendor_confirmed INTEGER NOT NULL DEFAULT 0,
  vendor_confirmed_by TEXT,
  vendor_confirmed_at DATETIME,
  vendor_rejection_reason TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(products).Error)
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubProductFinder struct {
	db *gorm.DB
}

func (f stubProductFinder) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := f.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

type stubUserFinder struct {
	db *gorm.DB
}

func (f stubUserFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := f.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type stubTracker struct {
	created []uuid.UUID
}

func (s *stubTracker) CreateForOrder(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	s.created = append(s.created, order.ID)
	return nil
}

func newOrdersService(t *testing.T, db *gorm.DB, tracker *stubTracker) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(db),
		stubProductFinder{db: db},
		stubUserFinder{db: db},
		gormTxRunner{db: db},
		tracker,
		testCheckoutConfig(),
	)
	require.NoError(t, err)
	return svc
}

func newUser(t *testing.T, db *gorm.DB, userType enums.UserType) *models.User {
	t.Helper()
	user := &models.User{
		ID:       uuid.New(),
		Username: "user-" + uuid.NewString()[:8],
		Email:    "user@example.com",
		UserType: userType,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newActiveProduct(t *testing.T, db *gorm.DB, vendorID uuid.UUID, price int64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:        uuid.New(),
		VendorID:  vendorID,
		Name:      "Test Product",
		Unit:      "piece",
		Price:     decimal.NewFromInt(price),
		Stock:     stock,
		Status:    enums.ProductStatusActive,
		ImageURLs: pq.StringArray{},
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestServiceCreate_pricesAndPersistsPendingOrder(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db, &stubTracker{})
	ctx := context.Background()

	customer := newUser(t, db, enums.UserTypeCustomer)
	vendor := newUser(t, db, enums.UserTypeVendor)
	product := newActiveProduct(t, db, vendor.ID, 100, 10)

	order, err := svc.Create(ctx, CreateOrderInput{
		CustomerID:     customer.ID,
		Lines:          []LineInput{{ProductID: product.ID, Quantity: 2}},
		DeliveryOption: enums.DeliveryOptionPickup,
		PaymentMethod:  enums.PaymentMethodMock,
	})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(200)), "subtotal %s", order.Subtotal)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(236)), "total %s", order.Total)

	loaded, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 2, loaded.Items[0].Quantity)
	assert.True(t, loaded.Items[0].UnitPrice.Equal(decimal.NewFromInt(100)))

	// creating the order must not touch stock
	reloaded, err := stubProductFinder{db: db}.FindProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.Stock)
}

func TestServiceCreate_rejectsVendorsAndStaff(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db, &stubTracker{})
	ctx := context.Background()

	vendor := newUser(t, db, enums.UserTypeVendor)
	product := newActiveProduct(t, db, vendor.ID, 100, 10)

	for _, userType := range []enums.UserType{enums.UserTypeVendor, enums.UserTypeStaff} {
		actor := newUser(t, db, userType)
		_, err := svc.Create(ctx, CreateOrderInput{
			CustomerID:     actor.ID,
			Lines:          []LineInput{{ProductID: product.ID, Quantity: 1}},
			DeliveryOption: enums.DeliveryOptionPickup,
			PaymentMethod:  enums.PaymentMethodMock,
		})
		require.Error(t, err)
		require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	}
}

func TestServiceCreate_validatesLines(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db, &stubTracker{})
	ctx := context.Background()

	customer := newUser(t, db, enums.UserTypeCustomer)
	vendor := newUser(t, db, enums.UserTypeVendor)
	product := newActiveProduct(t, db, vendor.ID, 100, 3)

	// no lines
	_, err := svc.Create(ctx, CreateOrderInput{
		CustomerID:     customer.ID,
		DeliveryOption: enums.DeliveryOptionPickup,
		PaymentMethod:  enums.PaymentMethodMock,
	})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	// zero quantity
	_, err = svc.Create(ctx, CreateOrderInput{
		CustomerID:     customer.ID,
		Lines:          []LineInput{{ProductID: product.ID, Quantity: 0}},
		DeliveryOption: enums.DeliveryOptionPickup,
		PaymentMethod:  enums.PaymentMethodMock,
	})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	// quantity above stock
	_, err = svc.Create(ctx, CreateOrderInput{
		CustomerID:     customer.ID,
		Lines:          []LineInput{{ProductID: product.ID, Quantity: 4}},
		DeliveryOption: enums.DeliveryOptionPickup,
		PaymentMethod:  enums.PaymentMethodMock,
	})
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestServiceCreate_rejectsInactiveProduct(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db, &stubTracker{})
	ctx := context.Background()

	customer := newUser(t, db, enums.UserTypeCustomer)
	vendor := newUser(t, db, enums.UserTypeVendor)
	product := newActiveProduct(t, db, vendor.ID, 100, 10)
	require.NoError(t, db.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Update("status", enums.ProductStatusInactive).Error)

	_, err := svc.Create(ctx, CreateOrderInput{
		CustomerID:     customer.ID,
		Lines:          []LineInput{{ProductID: product.ID, Quantity: 1}},
		DeliveryOption: enums.DeliveryOptionPickup,
		PaymentMethod:  enums.PaymentMethodMock,
	})
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestServiceTransition_shippedCreatesTracking(t *testing.T) {
	db := setupOrdersTestDB(t)
	tracker := &stubTracker{}
	svc := newOrdersService(t, db, tracker)
	ctx := context.Background()

	customer := newUser(t, db, enums.UserTypeCustomer)
	vendor := newUser(t, db, enums.UserTypeVendor)
	product := newActiveProduct(t, db, vendor.ID, 100, 10)

	order, err := svc.Create(ctx, CreateOrderInput{
		CustomerID:     customer.ID,
		Lines:          []LineInput{{ProductID: product.ID, Quantity: 1}},
		DeliveryOption: enums.DeliveryOptionStandard,
		PaymentMethod:  enums.PaymentMethodMock,
	})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, TransitionInput{OrderID: order.ID, Target: enums.OrderStatusProcessing})
	require.NoError(t, err)

	updated, err := svc.Transition(ctx, TransitionInput{OrderID: order.ID, Target: enums.OrderStatusShipped})
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusShipped, updated.Status)
	require.Equal(t, []uuid.UUID{order.ID}, tracker.created)
}

func TestServiceTransition_rejectsInvalidMove(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db, &stubTracker{})
	ctx := context.Background()

	customer := newUser(t, db, enums.UserTypeCustomer)
	vendor := newUser(t, db, enums.UserTypeVendor)
	product := newActiveProduct(t, db, vendor.ID, 100, 10)

	order, err := svc.Create(ctx, CreateOrderInput{
		CustomerID:     customer.ID,
		Lines:          []LineInput{{ProductID: product.ID, Quantity: 1}},
		DeliveryOption: enums.DeliveryOptionStandard,
		PaymentMethod:  enums.PaymentMethodMock,
	})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, TransitionInput{OrderID: order.ID, Target: enums.OrderStatusCompleted})
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = svc.Transition(ctx, TransitionInput{OrderID: order.ID, Target: "bogus"})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestServiceCancel_cancelledIsDeadEnd(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db, &stubTracker{})
	ctx := context.Background()

	customer := newUser(t, db, enums.UserTypeCustomer)
	vendor := newUser(t, db, enums.UserTypeVendor)
	product := newActiveProduct(t, db, vendor.ID, 100, 10)

	order, err := svc.Create(ctx, CreateOrderInput{
		CustomerID:     customer.ID,
		Lines:          []LineInput{{ProductID: product.ID, Quantity: 1}},
		DeliveryOption: enums.DeliveryOptionStandard,
		PaymentMethod:  enums.PaymentMethodMock,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, order.ID, customer.ID))

	_, err = svc.Transition(ctx, TransitionInput{OrderID: order.ID, Target: enums.OrderStatusProcessing})
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestServiceVendorDecision(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db, &stubTracker{})
	ctx := context.Background()

	customer := newUser(t, db, enums.UserTypeCustomer)
	vendor := newUser(t, db, enums.UserTypeVendor)
	other := newUser(t, db, enums.UserTypeVendor)
	product := newActiveProduct(t, db, vendor.ID, 100, 10)

	order, err := svc.Create(ctx, CreateOrderInput{
		CustomerID:     customer.ID,
		Lines:          []LineInput{{ProductID: product.ID, Quantity: 1}},
		DeliveryOption: enums.DeliveryOptionStandard,
		PaymentMethod:  enums.PaymentMethodBank,
	})
	require.NoError(t, err)

	// vendor decision requires awaiting_confirmation
	err = svc.VendorDecision(ctx, VendorDecisionInput{OrderID: order.ID, VendorID: vendor.ID, Confirm: true})
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	_, err = svc.Transition(ctx, TransitionInput{OrderID: order.ID, Target: enums.OrderStatusAwaitingConfirmation})
	require.NoError(t, err)

	// an unrelated vendor cannot decide
	err = svc.VendorDecision(ctx, VendorDecisionInput{OrderID: order.ID, VendorID: other.ID, Confirm: true})
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	require.NoError(t, svc.VendorDecision(ctx, VendorDecisionInput{OrderID: order.ID, VendorID: vendor.ID, Confirm: true}))

	loaded, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, loaded.VendorConfirmed)
	require.NotNil(t, loaded.VendorConfirmedByID)
	assert.Equal(t, vendor.ID, *loaded.VendorConfirmedByID)
	// confirmation leaves the status for the payment engine
	assert.Equal(t, enums.OrderStatusAwaitingConfirmation, loaded.Status)
}

func TestServiceVendorDecision_rejectCancels(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db, &stubTracker{})
	ctx := context.Background()

	customer := newUser(t, db, enums.UserTypeCustomer)
	vendor := newUser(t, db, enums.UserTypeVendor)
	product := newActiveProduct(t, db, vendor.ID, 100, 10)

	order, err := svc.Create(ctx, CreateOrderInput{
		CustomerID:     customer.ID,
		Lines:          []LineInput{{ProductID: product.ID, Quantity: 1}},
		DeliveryOption: enums.DeliveryOptionStandard,
		PaymentMethod:  enums.PaymentMethodMomo,
	})
	require.NoError(t, err)
	_, err = svc.Transition(ctx, TransitionInput{OrderID: order.ID, Target: enums.OrderStatusAwaitingConfirmation})
	require.NoError(t, err)

	// rejection requires a reason
	err = svc.VendorDecision(ctx, VendorDecisionInput{OrderID: order.ID, VendorID: vendor.ID, Confirm: false})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	require.NoError(t, svc.VendorDecision(ctx, VendorDecisionInput{
		OrderID:  order.ID,
		VendorID: vendor.ID,
		Confirm:  false,
		Reason:   "payment reference not found",
	}))

	loaded, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, loaded.Status)
	require.NotNil(t, loaded.VendorRejectionReason)
	assert.Equal(t, "payment reference not found", *loaded.VendorRejectionReason)
}

func TestRepositoryListByCustomer_pagination(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db, &stubTracker{})
	ctx := context.Background()

	customer := newUser(t, db, enums.UserTypeCustomer)
	vendor := newUser(t, db, enums.UserTypeVendor)
	product := newActiveProduct(t, db, vendor.ID, 100, 1000)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, CreateOrderInput{
			CustomerID:     customer.ID,
			Lines:          []LineInput{{ProductID: product.ID, Quantity: 1}},
			DeliveryOption: enums.DeliveryOptionPickup,
			PaymentMethod:  enums.PaymentMethodMock,
		})
		require.NoError(t, err)
	}

	list, err := svc.ListCustomerOrders(ctx, customer.ID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list.Orders, 2)
	require.NotEmpty(t, list.NextCursor)

	rest, err := svc.ListCustomerOrders(ctx, customer.ID, pagination.Params{Limit: 2, Cursor: list.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Orders, 1)
	require.Empty(t, rest.NextCursor)
}

func TestRepositoryListByVendor_filtersToVendorProducts(t *testing.T) {
	db := setupOrdersTestDB(t)
	svc := newOrdersService(t, db, &stubTracker{})
	ctx := context.Background()

	customer := newUser(t, db, enums.UserTypeCustomer)
	vendorA := newUser(t, db, enums.UserTypeVendor)
	vendorB := newUser(t, db, enums.UserTypeVendor)
	productA := newActiveProduct(t, db, vendorA.ID, 100, 100)
	productB := newActiveProduct(t, db, vendorB.ID, 50, 100)

	orderA, err := svc.Create(ctx, CreateOrderInput{
		CustomerID:     customer.ID,
		Lines:          []LineInput{{ProductID: productA.ID, Quantity: 1}},
		DeliveryOption: enums.DeliveryOptionPickup,
		PaymentMethod:  enums.PaymentMethodMock,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateOrderInput{
		CustomerID:     customer.ID,
		Lines:          []LineInput{{ProductID: productB.ID, Quantity: 1}},
		DeliveryOption: enums.DeliveryOptionPickup,
		PaymentMethod:  enums.PaymentMethodMock,
	})
	require.NoError(t, err)

	list, err := svc.ListVendorOrders(ctx, vendorA.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
	require.Equal(t, orderA.ID, list.Orders[0].ID)
}
