package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/inkingiwoods/sokohub-backend/api/middleware"
	"github.com/inkingiwoods/sokohub-backend/internal/payments"
	"github.com/inkingiwoods/sokohub-backend/internal/webhooks"
	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
)

type stubWebhookService struct {
	events    []models.StripeWebhookEvent
	reprocess *webhooks.ReprocessResult

	reprocessCalls []webhooks.ReprocessInput
}

func (s *stubWebhookService) HandleStripe(context.Context, []byte, http.Header, string) (*webhooks.Result, error) {
	return nil, nil
}

func (s *stubWebhookService) Reprocess(_ context.Context, input webhooks.ReprocessInput) (*webhooks.ReprocessResult, error) {
	s.reprocessCalls = append(s.reprocessCalls, input)
	return s.reprocess, nil
}

func (s *stubWebhookService) ListEvents(context.Context, bool, int) ([]models.StripeWebhookEvent, error) {
	return s.events, nil
}

type stubEngine struct {
	reconcile *payments.ReconcileResult
	refund    *payments.RefundResult
	err       error

	refundCalls []payments.RefundInput
}

func (s *stubEngine) Reconcile(context.Context, payments.ReconcileInput) (*payments.ReconcileResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.reconcile, nil
}

func (s *stubEngine) MockPay(context.Context, payments.MockPayInput) (*payments.ReconcileResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.reconcile, nil
}

func (s *stubEngine) Refund(_ context.Context, input payments.RefundInput) (*payments.RefundResult, error) {
	s.refundCalls = append(s.refundCalls, input)
	if s.err != nil {
		return nil, s.err
	}
	return s.refund, nil
}

func (s *stubEngine) OrderAudit(context.Context, uuid.UUID) ([]models.PurchaseLog, error) {
	return nil, s.err
}

func staffRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.WithIdentity(req.Context(), uuid.New(), enums.UserTypeStaff, true))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestAdminReprocessWebhooks_requiresConfirm(t *testing.T) {
	svc := &stubWebhookService{reprocess: &webhooks.ReprocessResult{Processed: 1}}

	body := `{"event_ids":["` + uuid.NewString() + `"]}`
	req := staffRequest(http.MethodPost, "/api/admin/v1/webhook-events/reprocess", body)
	rec := httptest.NewRecorder()
	AdminReprocessWebhooks(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, svc.reprocessCalls)
}

func TestAdminReprocessWebhooks_confirmedBatch(t *testing.T) {
	svc := &stubWebhookService{reprocess: &webhooks.ReprocessResult{Processed: 2, Skipped: 1}}
	eventID := uuid.New()

	body := `{"event_ids":["` + eventID.String() + `"],"confirm":true}`
	req := staffRequest(http.MethodPost, "/api/admin/v1/webhook-events/reprocess", body)
	rec := httptest.NewRecorder()
	AdminReprocessWebhooks(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.reprocessCalls, 1)
	require.Equal(t, []uuid.UUID{eventID}, svc.reprocessCalls[0].EventIDs)
	require.NotEqual(t, uuid.Nil, svc.reprocessCalls[0].ActorID)

	var parsed struct {
		Data webhooks.ReprocessResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	require.Equal(t, 2, parsed.Data.Processed)
	require.Equal(t, 1, parsed.Data.Skipped)
}

func TestAdminRefund_requiresReason(t *testing.T) {
	engine := &stubEngine{}

	req := staffRequest(http.MethodPost, "/api/admin/v1/purchases/x/refund", `{}`)
	req = withURLParam(req, "purchaseId", uuid.NewString())
	rec := httptest.NewRecorder()
	AdminRefund(engine, testLogger())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, engine.refundCalls)
}

func TestAdminRefund_passesActorAndReason(t *testing.T) {
	purchase := &models.Purchase{ID: uuid.New(), Refunded: true}
	engine := &stubEngine{refund: &payments.RefundResult{Purchase: purchase}}

	req := staffRequest(http.MethodPost, "/api/admin/v1/purchases/x/refund", `{"reason":"damaged on arrival"}`)
	req = withURLParam(req, "purchaseId", purchase.ID.String())
	rec := httptest.NewRecorder()
	AdminRefund(engine, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, engine.refundCalls, 1)
	require.Equal(t, purchase.ID, engine.refundCalls[0].PurchaseID)
	require.Equal(t, "damaged on arrival", engine.refundCalls[0].Reason)
	require.NotEqual(t, uuid.Nil, engine.refundCalls[0].ActorID)

	var parsed struct {
		Data refundResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	require.True(t, parsed.Data.Purchase.Refunded)
}

func TestAdminWebhookEvents_list(t *testing.T) {
	svc := &stubWebhookService{events: []models.StripeWebhookEvent{
		{ID: uuid.New(), StripeEventID: "evt_1", EventType: "checkout.session.completed", Processed: true},
		{ID: uuid.New(), StripeEventID: "evt_2", EventType: "checkout.session.completed"},
	}}

	req := staffRequest(http.MethodGet, "/api/admin/v1/webhook-events?limit=10", "")
	rec := httptest.NewRecorder()
	AdminWebhookEvents(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var parsed struct {
		Data []webhookEventResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	require.Len(t, parsed.Data, 2)
	require.Equal(t, "evt_1", parsed.Data[0].StripeEventID)
}
