package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance. They are
	// written fail-closed and retained long term.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// AuditEvent names an auditable action.
type AuditEvent string

const (
	EventVerificationCompleted AuditEvent = "verification_completed"
	EventFlagCreated           AuditEvent = "flag_created"
	EventFlagStatusChanged     AuditEvent = "flag_status_changed"
	EventFlagResolved          AuditEvent = "flag_resolved"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventVerificationCompleted: CategoryCompliance,
	EventFlagCreated:           CategoryCompliance,
	EventFlagStatusChanged:     CategoryCompliance,
	EventFlagResolved:          CategoryCompliance,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. It stays
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	// Subject is the aggregate the event is about (verification or flag id).
	Subject string
	Action  AuditEvent
	// Decision is the outcome, e.g. a verification or flag status.
	Decision string
	Reason   string
	// SubjectIDHash is a keyed fingerprint of the identity evaluated, for
	// traceability without storing raw identity numbers.
	SubjectIDHash string
	RequestID     string
	ActorID       string
	ClientIP      string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
