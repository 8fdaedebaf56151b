package domain

// VerificationType is the kind of subject being verified.
type VerificationType string

const (
	VerificationTypeIndividual VerificationType = "individual"
	VerificationTypeBusiness   VerificationType = "business"
	VerificationTypeNGO        VerificationType = "ngo"
)

var validVerificationTypes = map[VerificationType]bool{
	VerificationTypeIndividual: true,
	VerificationTypeBusiness:   true,
	VerificationTypeNGO:        true,
}

// ParseVerificationType constructs a VerificationType from external input.
func ParseVerificationType(s string) (VerificationType, error) {
	return parseEnum(s, validVerificationTypes, "verification type")
}

func (t VerificationType) IsValid() bool  { return validVerificationTypes[t] }
func (t VerificationType) String() string { return string(t) }

// VerificationStatus is the outcome of a KYC verification.
//
// Invariant: verified implies a passing document check and a score below the
// rejection threshold; see risk.Resolve.
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusVerified VerificationStatus = "verified"
	VerificationStatusRejected VerificationStatus = "rejected"
	VerificationStatusExpired  VerificationStatus = "expired"
)

var validVerificationStatuses = map[VerificationStatus]bool{
	VerificationStatusPending:  true,
	VerificationStatusVerified: true,
	VerificationStatusRejected: true,
	VerificationStatusExpired:  true,
}

// ParseVerificationStatus constructs a VerificationStatus from external input.
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	return parseEnum(s, validVerificationStatuses, "verification status")
}

func (s VerificationStatus) IsValid() bool  { return validVerificationStatuses[s] }
func (s VerificationStatus) String() string { return string(s) }

// RiskLevel is a coarse classification of a risk score.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

var validRiskLevels = map[RiskLevel]bool{
	RiskLevelLow:    true,
	RiskLevelMedium: true,
	RiskLevelHigh:   true,
}

// ParseRiskLevel constructs a RiskLevel from external input.
func ParseRiskLevel(s string) (RiskLevel, error) {
	return parseEnum(s, validRiskLevels, "risk level")
}

func (l RiskLevel) IsValid() bool  { return validRiskLevels[l] }
func (l RiskLevel) String() string { return string(l) }
