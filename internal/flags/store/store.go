// Package store persists compliance flags and their audit trail.
package store

import (
	"cmp"
	"encoding/json"
	"slices"
	"strings"

	"kycgate/internal/flags/models"
	"kycgate/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
)

func clone(f *models.Flag) *models.Flag {
	if f == nil {
		return nil
	}
	c := *f
	if f.RiskScore != nil {
		score := *f.RiskScore
		c.RiskScore = &score
	}
	if f.ResolvedAt != nil {
		t := *f.ResolvedAt
		c.ResolvedAt = &t
	}
	c.Data = cloneJSON(f.Data)
	c.ResolutionData = cloneJSON(f.ResolutionData)
	return &c
}

func cloneJSON(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage{}, raw...)
}

// sortFlags orders flags by the query's field and direction. Missing risk
// scores sort last in both directions; ties fall back to newest first.
func sortFlags(items []*models.Flag, field models.SortField, order models.SortOrder) {
	slices.SortStableFunc(items, func(a, b *models.Flag) int {
		if field == models.SortByRiskScore {
			switch {
			case a.RiskScore == nil && b.RiskScore != nil:
				return 1
			case a.RiskScore != nil && b.RiskScore == nil:
				return -1
			}
		}
		if c := compareField(a, b, field); c != 0 {
			if order == models.SortAsc {
				return c
			}
			return -c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID.String(), a.ID.String())
	})
}

func compareField(a, b *models.Flag, field models.SortField) int {
	switch field {
	case models.SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case models.SortBySeverity:
		return cmp.Compare(a.Severity.Rank(), b.Severity.Rank())
	case models.SortByRiskScore:
		if a.RiskScore == nil || b.RiskScore == nil {
			return 0
		}
		return cmp.Compare(*a.RiskScore, *b.RiskScore)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}
