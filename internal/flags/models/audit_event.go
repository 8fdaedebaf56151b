package models

import (
	"time"

	"kycgate/pkg/domain"
)

// AuditAction names a change recorded in a flag's history.
type AuditAction string

const (
	ActionCreated       AuditAction = "created"
	ActionStatusChanged AuditAction = "status_changed"
	ActionResolved      AuditAction = "resolved"
)

// FlagAuditEvent is one append-only entry in a flag's history, written in the
// same unit of work as the change it records.
type FlagAuditEvent struct {
	ID         domain.AuditEventID
	FlagID     domain.FlagID
	Action     AuditAction
	FromStatus domain.FlagStatus
	ToStatus   domain.FlagStatus
	Actor      string
	Notes      string
	CreatedAt  time.Time
}
