// Package models holds compliance flags, their state transitions and the
// per-flag audit trail.
package models

import (
	"encoding/json"
	"strings"
	"time"

	"kycgate/pkg/domain"
	dErrors "kycgate/pkg/domain-errors"
)

// Flag is a compliance concern raised against an account or transaction.
//
// Invariant: ResolvedAt is set if and only if Status is resolved or closed.
type Flag struct {
	ID              domain.FlagID
	EntityType      domain.EntityType
	EntityID        string
	Network         domain.Network
	Type            domain.FlagType
	Severity        domain.Severity
	Reason          string
	Data            json.RawMessage
	RiskScore       *float64
	CountryCode     string
	Region          string
	Status          domain.FlagStatus
	Disposition     domain.Disposition
	ResolvedBy      string
	ResolutionNotes string
	ResolutionData  json.RawMessage
	ResolvedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewFlagParams are the validated inputs of a new flag.
type NewFlagParams struct {
	EntityType  domain.EntityType
	EntityID    string
	Network     domain.Network
	Type        domain.FlagType
	Severity    domain.Severity
	Reason      string
	Data        json.RawMessage
	RiskScore   *float64
	CountryCode string
	Region      string
}

// NewFlag creates an active flag stamped at now.
func NewFlag(id domain.FlagID, p NewFlagParams, now time.Time) (*Flag, error) {
	if strings.TrimSpace(p.EntityID) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "entity id cannot be empty")
	}
	if strings.TrimSpace(p.Reason) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "reason cannot be empty")
	}
	if !p.EntityType.IsValid() || !p.Network.IsValid() || !p.Type.IsValid() || !p.Severity.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "flag classification is invalid")
	}
	if p.RiskScore != nil && (*p.RiskScore < 0 || *p.RiskScore > 100) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "risk score must be between 0 and 100")
	}
	return &Flag{
		ID:          id,
		EntityType:  p.EntityType,
		EntityID:    p.EntityID,
		Network:     p.Network,
		Type:        p.Type,
		Severity:    p.Severity,
		Reason:      p.Reason,
		Data:        p.Data,
		RiskScore:   p.RiskScore,
		CountryCode: p.CountryCode,
		Region:      p.Region,
		Status:      domain.FlagStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsResolved reports whether resolution fields are populated.
func (f *Flag) IsResolved() bool {
	return f.Status.IsResolution()
}

// Transition is a requested status change.
type Transition struct {
	To              domain.FlagStatus
	ResolvedBy      string
	ResolutionNotes string
	ResolutionData  json.RawMessage
	Disposition     domain.Disposition
}

// Validate checks the request independently of the flag's current state.
// Resolution targets require resolvedBy and resolutionNotes; a disposition
// is only meaningful when resolving or closing.
func (t Transition) Validate() error {
	if !t.To.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid flag status: "+string(t.To))
	}
	if t.To.IsResolution() {
		if strings.TrimSpace(t.ResolvedBy) == "" {
			return dErrors.New(dErrors.CodeValidation, "resolvedBy is required when resolving or closing a flag")
		}
		if strings.TrimSpace(t.ResolutionNotes) == "" {
			return dErrors.New(dErrors.CodeValidation, "resolutionNotes is required when resolving or closing a flag")
		}
		return nil
	}
	if t.Disposition != "" {
		return dErrors.New(dErrors.CodeValidation, "disposition is only allowed when resolving or closing a flag")
	}
	if len(t.ResolutionData) > 0 {
		return dErrors.New(dErrors.CodeValidation, "resolutionData is only allowed when resolving or closing a flag")
	}
	return nil
}

// CanTransition checks the state machine.
// Use with ApplyTransition in Execute callbacks.
func (f *Flag) CanTransition(t Transition) error {
	if !f.Status.CanTransitionTo(t.To) {
		return dErrors.New(dErrors.CodeInvariantViolation,
			"cannot transition flag from "+f.Status.String()+" to "+t.To.String())
	}
	return nil
}

// ApplyTransition moves the flag to t.To and returns the audit entry for the
// change. Resolution fields are only written for resolved and closed targets.
// Call CanTransition first.
func (f *Flag) ApplyTransition(t Transition, actor string, now time.Time) FlagAuditEvent {
	from := f.Status
	f.Status = t.To
	f.UpdatedAt = now

	if t.To.IsResolution() {
		resolvedAt := now
		f.ResolvedAt = &resolvedAt
		f.ResolvedBy = t.ResolvedBy
		f.ResolutionNotes = t.ResolutionNotes
		f.Disposition = t.Disposition
		if len(t.ResolutionData) > 0 {
			f.ResolutionData = t.ResolutionData
		}
		if actor == "" {
			actor = t.ResolvedBy
		}
	}

	action := ActionStatusChanged
	if t.To == domain.FlagStatusResolved {
		action = ActionResolved
	}
	return FlagAuditEvent{
		ID:         domain.NewAuditEventID(),
		FlagID:     f.ID,
		Action:     action,
		FromStatus: from,
		ToStatus:   t.To,
		Actor:      actor,
		Notes:      t.ResolutionNotes,
		CreatedAt:  now,
	}
}

// CreatedEvent returns the first audit entry of a new flag.
func (f *Flag) CreatedEvent(actor string) FlagAuditEvent {
	return FlagAuditEvent{
		ID:        domain.NewAuditEventID(),
		FlagID:    f.ID,
		Action:    ActionCreated,
		ToStatus:  f.Status,
		Actor:     actor,
		Notes:     f.Reason,
		CreatedAt: f.CreatedAt,
	}
}
