// Package models holds the KYC verification record and its list queries.
package models

import (
	"time"

	"kycgate/internal/identity"
	"kycgate/pkg/domain"
)

// ExpiryFor returns when a verification made at verifiedAt lapses: the same
// calendar instant one year later.
func ExpiryFor(verifiedAt time.Time) time.Time {
	return verifiedAt.AddDate(1, 0, 0)
}

// Verification is one KYC verification attempt. Records are written once and
// never updated.
//
// Invariant: VerifiedAt and ExpiresAt are set if and only if Status is verified.
type Verification struct {
	ID               domain.VerificationID
	AccountID        string
	Network          domain.Network
	Type             domain.VerificationType
	Subject          identity.Subject
	SubjectHash      string
	Status           domain.VerificationStatus
	Provider         string
	Score            *float64
	RiskLevel        domain.RiskLevel
	Notes            string
	ScreeningDetails []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	VerifiedAt       *time.Time
	ExpiresAt        *time.Time
}

// Outcome is the decision part of a new verification.
type Outcome struct {
	Status           domain.VerificationStatus
	Provider         string
	Score            float64
	RiskLevel        domain.RiskLevel
	Notes            string
	ScreeningDetails []string
}

// NewVerification builds a record stamped at now. Verified outcomes get
// VerifiedAt and a one-year ExpiresAt.
func NewVerification(
	id domain.VerificationID,
	accountID string,
	network domain.Network,
	vType domain.VerificationType,
	subject identity.Subject,
	subjectHash string,
	outcome Outcome,
	now time.Time,
) *Verification {
	score := outcome.Score
	v := &Verification{
		ID:               id,
		AccountID:        accountID,
		Network:          network,
		Type:             vType,
		Subject:          subject,
		SubjectHash:      subjectHash,
		Status:           outcome.Status,
		Provider:         outcome.Provider,
		Score:            &score,
		RiskLevel:        outcome.RiskLevel,
		Notes:            outcome.Notes,
		ScreeningDetails: outcome.ScreeningDetails,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if v.ScreeningDetails == nil {
		v.ScreeningDetails = []string{}
	}
	if outcome.Status == domain.VerificationStatusVerified {
		verifiedAt := now
		expiresAt := ExpiryFor(now)
		v.VerifiedAt = &verifiedAt
		v.ExpiresAt = &expiresAt
	}
	return v
}

// IsVerified reports whether the verification succeeded.
func (v *Verification) IsVerified() bool {
	return v.Status == domain.VerificationStatusVerified
}

// Filter narrows a verification listing. Zero values match everything.
type Filter struct {
	AccountID string
	Status    domain.VerificationStatus
	Type      domain.VerificationType
	Network   domain.Network
}

// ListQuery is a filtered, paginated listing request.
type ListQuery struct {
	Filter Filter
	Limit  int
	Offset int
}

// ListResult is one page of verifications, newest first.
type ListResult struct {
	Items  []*Verification
	Total  int
	Limit  int
	Offset int
}

// HasMore reports whether records exist past this page.
func (r ListResult) HasMore() bool {
	// Offset and Total are non-negative, so the subtraction cannot overflow.
	return r.Total-r.Offset > r.Limit
}
