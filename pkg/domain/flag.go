package domain

// EntityType is the kind of entity a compliance flag is raised against.
type EntityType string

const (
	EntityTypeAccount     EntityType = "account"
	EntityTypeTransaction EntityType = "transaction"
)

var validEntityTypes = map[EntityType]bool{
	EntityTypeAccount:     true,
	EntityTypeTransaction: true,
}

// ParseEntityType constructs an EntityType from external input.
func ParseEntityType(s string) (EntityType, error) {
	return parseEnum(s, validEntityTypes, "entity type")
}

func (t EntityType) IsValid() bool  { return validEntityTypes[t] }
func (t EntityType) String() string { return string(t) }

// FlagType classifies the concern behind a compliance flag.
type FlagType string

const (
	FlagTypeAML       FlagType = "aml"
	FlagTypeKYC       FlagType = "kyc"
	FlagTypeSanctions FlagType = "sanctions"
	FlagTypeRisk      FlagType = "risk"
)

var validFlagTypes = map[FlagType]bool{
	FlagTypeAML:       true,
	FlagTypeKYC:       true,
	FlagTypeSanctions: true,
	FlagTypeRisk:      true,
}

// FlagTypes lists all flag types in reporting order.
var FlagTypes = []FlagType{FlagTypeAML, FlagTypeKYC, FlagTypeSanctions, FlagTypeRisk}

// ParseFlagType constructs a FlagType from external input.
func ParseFlagType(s string) (FlagType, error) {
	return parseEnum(s, validFlagTypes, "flag type")
}

func (t FlagType) IsValid() bool  { return validFlagTypes[t] }
func (t FlagType) String() string { return string(t) }

// Severity ranks how urgent a compliance flag is. Severities are ordered;
// use Rank for comparisons rather than string order.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRanks = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

var validSeverities = map[Severity]bool{
	SeverityLow:      true,
	SeverityMedium:   true,
	SeverityHigh:     true,
	SeverityCritical: true,
}

// Severities lists all severities from lowest to highest.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// ParseSeverity constructs a Severity from external input.
func ParseSeverity(s string) (Severity, error) {
	return parseEnum(s, validSeverities, "severity")
}

// Rank returns the ordinal of the severity (1 = low); unknown values rank 0.
func (s Severity) Rank() int      { return severityRanks[s] }
func (s Severity) IsValid() bool  { return validSeverities[s] }
func (s Severity) String() string { return string(s) }

// FlagStatus is the lifecycle state of a compliance flag.
type FlagStatus string

const (
	FlagStatusActive    FlagStatus = "active"
	FlagStatusResolved  FlagStatus = "resolved"
	FlagStatusClosed    FlagStatus = "closed"
	FlagStatusEscalated FlagStatus = "escalated"
)

var validFlagStatuses = map[FlagStatus]bool{
	FlagStatusActive:    true,
	FlagStatusResolved:  true,
	FlagStatusClosed:    true,
	FlagStatusEscalated: true,
}

// flagTransitions is the single source of truth for the flag state machine.
// Nothing transitions into active, so escalation has no way back; closed is
// terminal. Active is still a parseable target and yields a conflict.
var flagTransitions = map[FlagStatus]map[FlagStatus]bool{
	FlagStatusActive: {
		FlagStatusResolved:  true,
		FlagStatusClosed:    true,
		FlagStatusEscalated: true,
	},
	FlagStatusEscalated: {
		FlagStatusResolved: true,
		FlagStatusClosed:   true,
	},
	FlagStatusResolved: {
		FlagStatusResolved: true,
		FlagStatusClosed:   true,
	},
	FlagStatusClosed: {},
}

// ParseFlagStatus constructs a FlagStatus from external input.
func ParseFlagStatus(s string) (FlagStatus, error) {
	return parseEnum(s, validFlagStatuses, "flag status")
}

func (s FlagStatus) IsValid() bool  { return validFlagStatuses[s] }
func (s FlagStatus) String() string { return string(s) }

// CanTransitionTo reports whether the state machine allows s -> next.
func (s FlagStatus) CanTransitionTo(next FlagStatus) bool {
	return flagTransitions[s][next]
}

// IsResolution reports whether entering this status stamps resolution fields.
func (s FlagStatus) IsResolution() bool {
	return s == FlagStatusResolved || s == FlagStatusClosed
}

// Disposition records why a flag was resolved or closed. A false positive is
// a disposition of a closing transition, not a separate status.
type Disposition string

const (
	DispositionFalsePositive Disposition = "false_positive"
	DispositionConfirmed     Disposition = "confirmed"
)

var validDispositions = map[Disposition]bool{
	DispositionFalsePositive: true,
	DispositionConfirmed:     true,
}

// ParseDisposition constructs a Disposition from external input.
func ParseDisposition(s string) (Disposition, error) {
	return parseEnum(s, validDispositions, "disposition")
}

func (d Disposition) IsValid() bool  { return validDispositions[d] }
func (d Disposition) String() string { return string(d) }
