// Package screening checks verification subjects against watchlists.
//
// Provider is the extension point for sanctions data sources. The risk scorer
// only sees a Result, so swapping the denylist for a real sanctions API does
// not touch scoring or outcome resolution.
package screening

import "context"

// Status summarizes a screening outcome.
type Status string

const (
	StatusClear   Status = "clear"
	StatusFlagged Status = "flagged"
)

// Subject holds the identity fields a provider screens.
type Subject struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

// Result is the outcome of screening one subject.
type Result struct {
	Hit      bool     `json:"hit"`
	Status   Status   `json:"status"`
	Details  []string `json:"details"`
	Provider string   `json:"provider"`
}

// Clear returns a no-hit result attributed to provider.
func Clear(provider string) Result {
	return Result{Status: StatusClear, Details: []string{}, Provider: provider}
}

// Provider screens subjects against a watchlist source.
type Provider interface {
	Name() string
	Screen(ctx context.Context, subject Subject) (Result, error)
}
