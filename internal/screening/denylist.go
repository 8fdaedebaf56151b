package screening

import (
	"context"
	"fmt"
	"strings"

	pkgstrings "kycgate/pkg/platform/strings"
)

// DenylistProviderName tags verifications screened by the denylist.
const DenylistProviderName = "internal_denylist"

// Denylist flags subjects whose first or last name exactly matches a listed
// name, ignoring case and surrounding whitespace.
type Denylist struct {
	names map[string]struct{}
}

// NewDenylist builds a Denylist from configured names.
func NewDenylist(names []string) *Denylist {
	return &Denylist{names: pkgstrings.Set(pkgstrings.DedupeAndTrimLower(names))}
}

func (d *Denylist) Name() string { return DenylistProviderName }

// Screen never blocks and never fails.
func (d *Denylist) Screen(_ context.Context, subject Subject) (Result, error) {
	res := Clear(d.Name())
	for _, field := range []struct {
		label string
		value string
	}{
		{"first name", subject.FirstName},
		{"last name", subject.LastName},
	} {
		name := strings.ToLower(strings.TrimSpace(field.value))
		if name == "" {
			continue
		}
		if _, listed := d.names[name]; listed {
			res.Hit = true
			res.Details = append(res.Details, fmt.Sprintf("%s %q matches watchlist entry", field.label, name))
		}
	}
	if res.Hit {
		res.Status = StatusFlagged
	}
	return res, nil
}
