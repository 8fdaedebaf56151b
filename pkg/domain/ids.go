package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "kycgate/pkg/domain-errors"
)

// FlagID identifies a compliance flag.
type FlagID uuid.UUID

// AuditEventID identifies a flag audit-trail entry.
type AuditEventID uuid.UUID

// VerificationID is the externally shown identifier of a KYC verification,
// formatted as "kyc_" followed by a UUID.
type VerificationID string

const verificationIDPrefix = "kyc_"

// NewFlagID returns a fresh random flag ID.
func NewFlagID() FlagID { return FlagID(uuid.New()) }

// NewAuditEventID returns a fresh random audit event ID.
func NewAuditEventID() AuditEventID { return AuditEventID(uuid.New()) }

// NewVerificationID returns a fresh verification ID.
func NewVerificationID() VerificationID {
	return VerificationID(verificationIDPrefix + uuid.NewString())
}

// ParseFlagID parses a flag ID from external input.
//
// Errors: CodeInvalidInput for empty, malformed or nil UUIDs.
func ParseFlagID(s string) (FlagID, error) {
	u, err := parseUUID(s, "flag id")
	return FlagID(u), err
}

// ParseVerificationID parses a verification ID from external input.
//
// Errors: CodeInvalidInput when the prefix or UUID part is invalid.
func ParseVerificationID(s string) (VerificationID, error) {
	rest, ok := strings.CutPrefix(s, verificationIDPrefix)
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid verification id")
	}
	u, err := parseUUID(rest, "verification id")
	if err != nil {
		return "", err
	}
	return VerificationID(verificationIDPrefix + u.String()), nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}

func (id FlagID) String() string       { return uuid.UUID(id).String() }
func (id FlagID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id AuditEventID) String() string { return uuid.UUID(id).String() }
func (id VerificationID) String() string {
	return string(id)
}

// MarshalText lets FlagID render as a plain UUID string in JSON.
func (id FlagID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses a FlagID from its UUID string form.
func (id *FlagID) UnmarshalText(b []byte) error {
	parsed, err := ParseFlagID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id AuditEventID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}
