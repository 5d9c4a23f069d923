package models

import (
	"time"

	"github.com/google/uuid"
)

// StripeWebhookEvent persists every webhook delivery after signature
// verification, whether or not reconciliation acted on it. Headers are
// stored redacted; the raw payload is kept verbatim for reprocessing.
type StripeWebhookEvent struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StripeEventID   string     `gorm:"column:stripe_event_id;not null;uniqueIndex:uq_stripe_webhook_events_event_id"`
	EventType       string     `gorm:"column:event_type;not null;index"`
	Payload         []byte     `gorm:"column:payload;type:jsonb;not null"`
	RedactedHeaders []byte     `gorm:"column:redacted_headers;type:jsonb;not null"`
	Processed       bool       `gorm:"column:processed;not null;default:false"`
	ProcessedAt     *time.Time `gorm:"column:processed_at"`
	ProcessingNote  string     `gorm:"column:processing_note;not null;default:''"`
	OrderID         *uuid.UUID `gorm:"column:order_id;type:uuid;index"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// UniqueStripeEventConstraint is the index name reported on a duplicate
// stripe_event_id insert.
const UniqueStripeEventConstraint = "uq_stripe_webhook_events_event_id"
