package models

import (
	"strings"
	"time"

	"kycgate/pkg/domain"
)

// SortField is a sortable flag attribute.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByRiskScore SortField = "riskScore"
	SortBySeverity  SortField = "severity"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

var sortFields = map[SortField]bool{
	SortByCreatedAt: true,
	SortByUpdatedAt: true,
	SortByRiskScore: true,
	SortBySeverity:  true,
}

// SortFieldOrDefault returns the named field, falling back to createdAt for
// anything unrecognized. Field names are case-sensitive.
func SortFieldOrDefault(s string) SortField {
	f := SortField(strings.TrimSpace(s))
	if sortFields[f] {
		return f
	}
	return SortByCreatedAt
}

// SortOrderOrDefault returns asc or desc, falling back to desc.
func SortOrderOrDefault(s string) SortOrder {
	if SortOrder(strings.ToLower(strings.TrimSpace(s))) == SortAsc {
		return SortAsc
	}
	return SortDesc
}

// Filter narrows flag listings and analytics. Zero values match everything;
// the time bounds are inclusive.
type Filter struct {
	EntityType  domain.EntityType
	EntityID    string
	Type        domain.FlagType
	Severity    domain.Severity
	Status      domain.FlagStatus
	Network     domain.Network
	CountryCode string
	Region      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// Matches reports whether f satisfies the filter.
func (flt Filter) Matches(f *Flag) bool {
	switch {
	case flt.EntityType != "" && f.EntityType != flt.EntityType,
		flt.EntityID != "" && f.EntityID != flt.EntityID,
		flt.Type != "" && f.Type != flt.Type,
		flt.Severity != "" && f.Severity != flt.Severity,
		flt.Status != "" && f.Status != flt.Status,
		flt.Network != "" && f.Network != flt.Network,
		flt.CountryCode != "" && f.CountryCode != flt.CountryCode,
		flt.Region != "" && f.Region != flt.Region,
		flt.CreatedFrom != nil && f.CreatedAt.Before(*flt.CreatedFrom),
		flt.CreatedTo != nil && f.CreatedAt.After(*flt.CreatedTo):
		return false
	}
	return true
}

// ListQuery is a filtered, sorted, paginated flag listing request.
type ListQuery struct {
	Filter Filter
	SortBy SortField
	Order  SortOrder
	Limit  int
	Offset int
}

// ListResult is one page of flags.
type ListResult struct {
	Items  []*Flag
	Total  int
	Limit  int
	Offset int
}

// HasMore reports whether flags exist past this page.
func (r ListResult) HasMore() bool {
	// Offset and Total are non-negative, so the subtraction cannot overflow.
	return r.Total-r.Offset > r.Limit
}
