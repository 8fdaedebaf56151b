// Package risk scores verification subjects and resolves verification
// outcomes from the score.
package risk

import (
	"strings"
	"time"

	"kycgate/internal/identity"
	"kycgate/internal/screening"
	pkgstrings "kycgate/pkg/platform/strings"
)

const (
	MinScore = 0
	MaxScore = 100
)

// Score terms, applied in this order.
const (
	pointsBase            = 20
	pointsPassport        = 10
	pointsNationalID      = 5
	pointsBVN             = 2
	pointsHighRiskCountry = 15
	pointsSanctionsHit    = 50
	pointsMinor           = 20
	pointsElderly         = 10
	pointsBadBirthDate    = 5
)

const dateOfBirthLayout = "2006-01-02"

// Factor is one term that contributed to a score.
type Factor struct {
	Name   string
	Points float64
}

// Assessment is a clamped score and the terms that produced it.
type Assessment struct {
	Score   float64
	Factors []Factor
}

// Scorer computes the additive risk score. It is safe for concurrent use.
type Scorer struct {
	highRiskCountries map[string]struct{}
	now               func() time.Time
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithHighRiskCountries sets the ISO country codes that add the
// document-country term.
func WithHighRiskCountries(codes []string) Option {
	return func(s *Scorer) {
		s.highRiskCountries = pkgstrings.Set(pkgstrings.DedupeAndTrimUpper(codes))
	}
}

// WithClock sets the time source used for age calculation.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// NewScorer creates a Scorer with no high-risk countries and the wall clock.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		highRiskCountries: map[string]struct{}{},
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score combines subject data and the screening result into a value in
// [MinScore, MaxScore].
func (s *Scorer) Score(subject identity.Subject, screen screening.Result) Assessment {
	var a Assessment
	add := func(name string, points float64) {
		a.Factors = append(a.Factors, Factor{Name: name, Points: points})
		a.Score += points
	}

	add("base", pointsBase)

	switch strings.ToLower(strings.TrimSpace(subject.DocumentType)) {
	case "passport":
		add("document_passport", pointsPassport)
	case "national_id":
		add("document_national_id", pointsNationalID)
	case "bvn":
		add("document_bvn", pointsBVN)
	}

	if _, ok := s.highRiskCountries[strings.ToUpper(strings.TrimSpace(subject.DocumentCountry))]; ok {
		add("high_risk_country", pointsHighRiskCountry)
	}

	if screen.Hit {
		add("sanctions_hit", pointsSanctionsHit)
	}

	if dob := strings.TrimSpace(subject.DateOfBirth); dob != "" {
		born, err := time.Parse(dateOfBirthLayout, dob)
		switch {
		case err != nil:
			add("unparseable_birth_date", pointsBadBirthDate)
		case ageAt(born, s.now()) < 18:
			add("minor", pointsMinor)
		case ageAt(born, s.now()) > 80:
			add("elderly", pointsElderly)
		}
	}

	a.Score = clamp(a.Score)
	return a
}

// ageAt returns completed years between born and now.
func ageAt(born, now time.Time) int {
	now = now.UTC()
	years := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		years--
	}
	return years
}

func clamp(score float64) float64 {
	switch {
	case score < MinScore:
		return MinScore
	case score > MaxScore:
		return MaxScore
	default:
		return score
	}
}
