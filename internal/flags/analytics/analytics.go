// Package analytics summarizes a population of compliance flags.
package analytics

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"kycgate/internal/flags/models"
	"kycgate/pkg/domain"
)

// TopCountriesLimit caps the country ranking.
const TopCountriesLimit = 10

// Summary holds the headline counts. AverageRiskScore is nil when no flag in
// the population carries a score.
type Summary struct {
	Total            int
	Active           int
	Resolved         int
	Closed           int
	Escalated        int
	FalsePositive    int
	AverageRiskScore *decimal.Decimal
}

// CountryCount is one entry of the country ranking.
type CountryCount struct {
	CountryCode string
	Count       int
}

// Report is the full analytics payload. Every breakdown carries all of its
// buckets, zero or not.
type Report struct {
	Summary      Summary
	BySeverity   map[domain.Severity]int
	ByType       map[domain.FlagType]int
	ByNetwork    map[domain.Network]int
	TopCountries []CountryCount
}

// Empty returns a zeroed report with every bucket present.
func Empty() Report {
	r := Report{
		BySeverity:   make(map[domain.Severity]int, len(domain.Severities)),
		ByType:       make(map[domain.FlagType]int, len(domain.FlagTypes)),
		ByNetwork:    make(map[domain.Network]int, len(domain.Networks)),
		TopCountries: []CountryCount{},
	}
	for _, s := range domain.Severities {
		r.BySeverity[s] = 0
	}
	for _, t := range domain.FlagTypes {
		r.ByType[t] = 0
	}
	for _, n := range domain.Networks {
		r.ByNetwork[n] = 0
	}
	return r
}

// Aggregate computes the report over flags in one pass. Values outside the
// fixed bucket sets are counted in the total but not in a breakdown.
func Aggregate(flags []*models.Flag) Report {
	r := Empty()

	var (
		scoreSum   = decimal.Zero
		scoreCount int64
		countries  = map[string]int{}
	)
	for _, f := range flags {
		r.Summary.Total++
		switch f.Status {
		case domain.FlagStatusActive:
			r.Summary.Active++
		case domain.FlagStatusResolved:
			r.Summary.Resolved++
		case domain.FlagStatusClosed:
			r.Summary.Closed++
		case domain.FlagStatusEscalated:
			r.Summary.Escalated++
		}
		if f.Disposition == domain.DispositionFalsePositive {
			r.Summary.FalsePositive++
		}
		if f.RiskScore != nil {
			scoreSum = scoreSum.Add(decimal.NewFromFloat(*f.RiskScore))
			scoreCount++
		}
		if _, ok := r.BySeverity[f.Severity]; ok {
			r.BySeverity[f.Severity]++
		}
		if _, ok := r.ByType[f.Type]; ok {
			r.ByType[f.Type]++
		}
		if _, ok := r.ByNetwork[f.Network]; ok {
			r.ByNetwork[f.Network]++
		}
		if f.CountryCode != "" {
			countries[f.CountryCode]++
		}
	}

	if scoreCount > 0 {
		avg := scoreSum.Div(decimal.NewFromInt(scoreCount)).Round(2)
		r.Summary.AverageRiskScore = &avg
	}
	r.TopCountries = topCountries(countries, TopCountriesLimit)
	return r
}

// topCountries ranks by count descending, ties broken by country code.
func topCountries(counts map[string]int, limit int) []CountryCount {
	out := make([]CountryCount, 0, len(counts))
	for code, n := range counts {
		out = append(out, CountryCount{CountryCode: code, Count: n})
	}
	slices.SortFunc(out, func(a, b CountryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.CountryCode, b.CountryCode)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
