package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"kycgate/pkg/domain"
)

func TestSortDefaults(t *testing.T) {
	assert.Equal(t, SortByRiskScore, SortFieldOrDefault("riskScore"))
	assert.Equal(t, SortBySeverity, SortFieldOrDefault(" severity "))
	assert.Equal(t, SortByCreatedAt, SortFieldOrDefault("not_a_field"))
	assert.Equal(t, SortByCreatedAt, SortFieldOrDefault(""))

	assert.Equal(t, SortAsc, SortOrderOrDefault("ASC"))
	assert.Equal(t, SortDesc, SortOrderOrDefault("sideways"))
	assert.Equal(t, SortDesc, SortOrderOrDefault(""))
}

func TestFilter_Matches(t *testing.T) {
	f := &Flag{
		EntityType:  domain.EntityTypeTransaction,
		EntityID:    "abc",
		Network:     domain.NetworkHedera,
		Type:        domain.FlagTypeSanctions,
		Severity:    domain.SeverityHigh,
		Status:      domain.FlagStatusEscalated,
		CountryCode: "NG",
		Region:      "west_africa",
		CreatedAt:   now,
	}
	before := now.Add(-time.Hour)
	after := now.Add(time.Hour)

	assert.True(t, Filter{}.Matches(f))
	assert.True(t, Filter{Network: domain.NetworkHedera, CountryCode: "NG", CreatedFrom: &now, CreatedTo: &now}.Matches(f))
	assert.False(t, Filter{Network: domain.NetworkStellar}.Matches(f))
	assert.False(t, Filter{Status: domain.FlagStatusActive}.Matches(f))
	assert.False(t, Filter{CreatedFrom: &after}.Matches(f))
	assert.False(t, Filter{CreatedTo: &before}.Matches(f))
}

func TestListResult_HasMore(t *testing.T) {
	tests := []struct {
		name string
		res  ListResult
		want bool
	}{
		{"more pages remain", ListResult{Total: 51, Limit: 50, Offset: 0}, true},
		{"last page exactly full", ListResult{Total: 100, Limit: 50, Offset: 50}, false},
		{"offset beyond total", ListResult{Total: 3, Limit: 50, Offset: 10}, false},
		{"maximal offset", ListResult{Total: 1, Limit: 10, Offset: math.MaxInt}, false},
		{"maximal limit", ListResult{Total: 5, Limit: math.MaxInt, Offset: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.res.HasMore())
		})
	}
}
