package risk

import (
	"kycgate/internal/identity"
	"kycgate/pkg/domain"
)

const (
	// ReviewThreshold is the lowest score that requires manual review.
	ReviewThreshold = 40
	// RejectThreshold is the lowest score that is rejected outright.
	RejectThreshold = 70
)

// Resolve maps document validity and a risk score to a verification status.
// Invalid documents are rejected regardless of score.
// This is pure domain logic - no I/O, no side effects.
func Resolve(score float64, validation identity.Result) domain.VerificationStatus {
	if !validation.Valid {
		return domain.VerificationStatusRejected
	}
	switch {
	case score >= RejectThreshold:
		return domain.VerificationStatusRejected
	case score >= ReviewThreshold:
		return domain.VerificationStatusPending
	default:
		return domain.VerificationStatusVerified
	}
}

// LevelFor classifies a score independently of the verification status.
func LevelFor(score float64) domain.RiskLevel {
	switch {
	case score >= RejectThreshold:
		return domain.RiskLevelHigh
	case score >= ReviewThreshold:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelLow
	}
}
