package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
	"go.uber.org/multierr"

	"github.com/inkingiwoods/sokohub-backend/internal/payments"
	"github.com/inkingiwoods/sokohub-backend/pkg/db"
	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
	pkgerrors "github.com/inkingiwoods/sokohub-backend/pkg/errors"
	"github.com/inkingiwoods/sokohub-backend/pkg/logger"
	"github.com/inkingiwoods/sokohub-backend/pkg/metrics"
	"github.com/inkingiwoods/sokohub-backend/pkg/security"
	pkgstripe "github.com/inkingiwoods/sokohub-backend/pkg/stripe"
)

const (
	checkoutCompletedEvent = "checkout.session.completed"

	// replay guard scope and retention in redis
	replayScope = "stripe-webhook"
	replayTTL   = 48 * time.Hour

	// cap per-item error detail in batch reprocess output
	maxReprocessErrors = 10
)

// Verifier checks a webhook signature and decodes the event.
// Production uses stripe-go's ConstructEvent; tests substitute a stub.
type Verifier func(payload []byte, sigHeader, secret string) (stripe.Event, error)

// replayGuard is the redis fast path for already-seen event ids.
type replayGuard interface {
	MarkProcessed(ctx context.Context, scope, id string, ttl time.Duration) (bool, error)
}

// reconciler is the slice of the payment engine the webhook needs.
type reconciler interface {
	Reconcile(ctx context.Context, input payments.ReconcileInput) (*payments.ReconcileResult, error)
}

// Result describes how one webhook delivery was handled.
type Result struct {
	EventID     string     `json:"event_id"`
	EventType   string     `json:"event_type"`
	Disposition string     `json:"disposition"`
	OrderID     *uuid.UUID `json:"order_id,omitempty"`
}

// ReprocessInput names persisted events to run through reconciliation
// again, typically after a transient failure.
type ReprocessInput struct {
	EventIDs []uuid.UUID
	ActorID  uuid.UUID
}

// ReprocessResult summarizes a reprocess batch.
type ReprocessResult struct {
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Detail    string `json:"detail,omitempty"`
}

// Dispositions reported in results and webhook metrics.
const (
	DispositionProcessed = "processed"
	DispositionDuplicate = "duplicate"
	DispositionIgnored   = "ignored"
	DispositionFailed    = "failed"
)

// Service handles inbound Stripe webhooks and their admin reprocessing.
type Service interface {
	HandleStripe(ctx context.Context, payload []byte, headers http.Header, signature string) (*Result, error)
	Reprocess(ctx context.Context, input ReprocessInput) (*ReprocessResult, error)
	ListEvents(ctx context.Context, unprocessedOnly bool, limit int) ([]models.StripeWebhookEvent, error)
}

type service struct {
	repo    Repository
	engine  reconciler
	api     *pkgstripe.Client
	guard   replayGuard
	verify  Verifier
	metrics *metrics.PaymentMetrics
	logg    *logger.Logger
}

// NewService wires the webhook pipeline. The Stripe client and replay
// guard may be nil: without a client the endpoint reports not
// implemented, and without a guard the database unique index alone
// absorbs replays. A nil verifier defaults to Stripe signature checking.
func NewService(
	repo Repository,
	engine reconciler,
	api *pkgstripe.Client,
	guard replayGuard,
	verify Verifier,
	payMetrics *metrics.PaymentMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("webhook repository required")
	}
	if engine == nil {
		return nil, fmt.Errorf("payment engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if verify == nil {
		verify = func(payload []byte, sigHeader, secret string) (stripe.Event, error) {
			return webhook.ConstructEvent(payload, sigHeader, secret)
		}
	}
	return &service{
		repo:    repo,
		engine:  engine,
		api:     api,
		guard:   guard,
		verify:  verify,
		metrics: payMetrics,
		logg:    logg,
	}, nil
}

// HandleStripe verifies, persists, and dispatches one webhook delivery.
// Replays are acknowledged without side effects; the raw payload and a
// redacted header snapshot are kept for audit whatever the outcome.
func (s *service) HandleStripe(ctx context.Context, payload []byte, headers http.Header, signature string) (*Result, error) {
	if s.api == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotImplemented, "Stripe is not configured")
	}

	event, err := s.verify(payload, signature, s.api.SigningSecret())
	if err != nil {
		s.metrics.IncWebhook(DispositionFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "webhook signature verification failed")
	}

	if s.guard != nil {
		first, guardErr := s.guard.MarkProcessed(ctx, replayScope, event.ID, replayTTL)
		if guardErr != nil {
			s.logg.Warn(ctx, fmt.Sprintf("webhook replay guard unavailable: %v", guardErr))
		} else if !first {
			s.metrics.IncWebhook(DispositionDuplicate)
			return &Result{EventID: event.ID, EventType: string(event.Type), Disposition: DispositionDuplicate}, nil
		}
	}

	row, created, err := s.persistEvent(ctx, event, payload, headers)
	if err != nil {
		return nil, err
	}
	if !created && row.Processed {
		s.metrics.IncWebhook(DispositionDuplicate)
		return &Result{
			EventID:     event.ID,
			EventType:   string(event.Type),
			Disposition: DispositionDuplicate,
			OrderID:     row.OrderID,
		}, nil
	}

	return s.dispatch(ctx, event, row, nil)
}

// Reprocess runs persisted events through dispatch again. Failures are
// aggregated; already-processed events count as skipped.
func (s *service) Reprocess(ctx context.Context, input ReprocessInput) (*ReprocessResult, error) {
	if len(input.EventIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event ids required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	result := &ReprocessResult{}
	var errs error
	for _, id := range input.EventIDs {
		row, err := s.repo.FindByID(ctx, id)
		if err != nil {
			result.Failed++
			errs = multierr.Append(errs, fmt.Errorf("event %s: %w", id, err))
			continue
		}
		if row.Processed {
			result.Skipped++
			continue
		}

		var event stripe.Event
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			result.Failed++
			errs = multierr.Append(errs, fmt.Errorf("event %s: decode payload: %w", id, err))
			continue
		}

		actorID := input.ActorID
		if _, err := s.dispatch(ctx, event, row, &actorID); err != nil {
			result.Failed++
			errs = multierr.Append(errs, fmt.Errorf("event %s: %w", id, err))
			continue
		}
		result.Processed++
	}

	result.Detail = summarizeErrors(errs)
	return result, nil
}

func (s *service) ListEvents(ctx context.Context, unprocessedOnly bool, limit int) ([]models.StripeWebhookEvent, error) {
	var (
		rows []models.StripeWebhookEvent
		err  error
	)
	if unprocessedOnly {
		rows, err = s.repo.ListUnprocessed(ctx, limit)
	} else {
		rows, err = s.repo.ListRecent(ctx, limit)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list webhook events")
	}
	return rows, nil
}

// persistEvent stores the delivery, or loads the existing row when the
// event id was seen before. The bool reports whether a new row was
// created.
func (s *service) persistEvent(ctx context.Context, event stripe.Event, payload []byte, headers http.Header) (*models.StripeWebhookEvent, bool, error) {
	redacted, err := json.Marshal(security.RedactHeaders(headers))
	if err != nil {
		redacted = []byte("{}")
	}

	row := &models.StripeWebhookEvent{
		ID:              uuid.New(),
		StripeEventID:   event.ID,
		EventType:       string(event.Type),
		Payload:         payload,
		RedactedHeaders: redacted,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if db.IsUniqueViolation(err, models.UniqueStripeEventConstraint) {
			existing, findErr := s.repo.FindByEventID(ctx, event.ID)
			if findErr != nil {
				return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load webhook event")
			}
			return existing, false, nil
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist webhook event")
	}
	return row, true, nil
}

// dispatch routes one verified event. Only checkout.session.completed
// with resolvable order metadata reaches the payment engine; everything
// else is marked processed and acknowledged as a no-op.
func (s *service) dispatch(ctx context.Context, event stripe.Event, row *models.StripeWebhookEvent, actorID *uuid.UUID) (*Result, error) {
	result := &Result{EventID: event.ID, EventType: string(event.Type)}

	if string(event.Type) != checkoutCompletedEvent {
		if err := s.markProcessed(ctx, row, "event type ignored", nil); err != nil {
			return nil, err
		}
		s.metrics.IncWebhook(DispositionIgnored)
		result.Disposition = DispositionIgnored
		return result, nil
	}

	var session struct {
		ID       string            `json:"id"`
		Metadata map[string]string `json:"metadata"`
	}
	if event.Data != nil {
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
		}
	}
	if session.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session id missing")
	}

	orderID, err := uuid.Parse(session.Metadata["order_id"])
	if err != nil {
		if err := s.markProcessed(ctx, row, "order_id metadata missing or invalid", nil); err != nil {
			return nil, err
		}
		s.metrics.IncWebhook(DispositionIgnored)
		result.Disposition = DispositionIgnored
		return result, nil
	}

	outcome, err := s.engine.Reconcile(ctx, payments.ReconcileInput{
		OrderID:       orderID,
		TransactionID: session.ID,
		Method:        enums.PaymentMethodStripe,
		ActorID:       actorID,
		Note:          "stripe webhook " + event.ID,
	})
	if err != nil {
		if pkgerrors.As(err).Code() == pkgerrors.CodeNotFound {
			// unknown order: acknowledge so Stripe stops retrying
			if markErr := s.markProcessed(ctx, row, "order not found", nil); markErr != nil {
				return nil, markErr
			}
			s.metrics.IncWebhook(DispositionIgnored)
			result.Disposition = DispositionIgnored
			return result, nil
		}
		s.metrics.IncWebhook(DispositionFailed)
		if noteErr := s.repo.Update(ctx, row.ID, map[string]any{
			"processing_note": fmt.Sprintf("reconciliation failed: %v", err),
		}); noteErr != nil {
			s.logg.Error(ctx, "record webhook failure note", noteErr)
		}
		return nil, err
	}

	note := "reconciled"
	disposition := DispositionProcessed
	if outcome.Duplicate {
		note = "duplicate transaction"
		disposition = DispositionDuplicate
	}
	if err := s.markProcessed(ctx, row, note, &orderID); err != nil {
		return nil, err
	}

	s.metrics.IncWebhook(disposition)
	result.Disposition = disposition
	result.OrderID = &orderID
	return result, nil
}

func (s *service) markProcessed(ctx context.Context, row *models.StripeWebhookEvent, note string, orderID *uuid.UUID) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"processed":       true,
		"processed_at":    now,
		"processing_note": note,
	}
	if orderID != nil {
		updates["order_id"] = *orderID
	}
	if err := s.repo.Update(ctx, row.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark webhook processed")
	}
	row.Processed = true
	row.ProcessedAt = &now
	row.ProcessingNote = note
	if orderID != nil {
		row.OrderID = orderID
	}
	return nil
}

// summarizeErrors flattens a multierr into a capped detail string.
func summarizeErrors(errs error) string {
	all := multierr.Errors(errs)
	if len(all) == 0 {
		return ""
	}
	detail := ""
	for i, err := range all {
		if i == maxReprocessErrors {
			detail += fmt.Sprintf("; and %d more", len(all)-maxReprocessErrors)
			break
		}
		if i > 0 {
			detail += "; "
		}
		detail += err.Error()
	}
	return detail
}
