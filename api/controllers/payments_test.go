package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/inkingiwoods/sokohub-backend/api/middleware"
	"github.com/inkingiwoods/sokohub-backend/internal/payments"
	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
	pkgerrors "github.com/inkingiwoods/sokohub-backend/pkg/errors"
)

func TestMockPay_rejectsInvalidOrderID(t *testing.T) {
	engine := &stubEngine{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/nope/pay", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), uuid.New(), enums.UserTypeCustomer, false))
	req = withURLParam(req, "orderId", "nope")
	rec := httptest.NewRecorder()
	MockPay(engine, testLogger())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMockPay_returnsSettlement(t *testing.T) {
	order := &models.Order{ID: uuid.New(), Status: enums.OrderStatusProcessing}
	engine := &stubEngine{reconcile: &payments.ReconcileResult{
		Order: order,
		Purchases: []models.Purchase{{
			ID:            uuid.New(),
			OrderID:       order.ID,
			TransactionID: "mock_abc",
			PaymentMethod: enums.PaymentMethodMock,
			Quantity:      2,
			Amount:        decimal.NewFromInt(200),
		}},
	}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/x/pay", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), uuid.New(), enums.UserTypeCustomer, false))
	req = withURLParam(req, "orderId", order.ID.String())
	rec := httptest.NewRecorder()
	MockPay(engine, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var parsed struct {
		Data reconcileResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	require.Equal(t, order.ID, parsed.Data.OrderID)
	require.Equal(t, "processing", parsed.Data.Status)
	require.False(t, parsed.Data.Duplicate)
	require.Len(t, parsed.Data.Purchases, 1)
	require.Equal(t, "mock_abc", parsed.Data.Purchases[0].TransactionID)
}

func TestMockPay_mapsStateConflict(t *testing.T) {
	engine := &stubEngine{err: pkgerrors.New(pkgerrors.CodeStateConflict, "order is not payable")}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/x/pay", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), uuid.New(), enums.UserTypeCustomer, false))
	req = withURLParam(req, "orderId", uuid.NewString())
	rec := httptest.NewRecorder()
	MockPay(engine, testLogger())(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
