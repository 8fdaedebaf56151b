package domain

import (
	"strings"

	dErrors "kycgate/pkg/domain-errors"
)

// parseEnum normalizes external input and checks it against an allowlist.
// Values are case-insensitive at the boundary and canonical (lowercase) inside.
func parseEnum[T ~string](s string, valid map[T]bool, label string) (T, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	v := T(s)
	if !valid[v] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+": "+s)
	}
	return v, nil
}
