package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kycgate/internal/identity"
	"kycgate/internal/kyc/models"
	"kycgate/internal/kyc/store"
	"kycgate/internal/risk"
	"kycgate/internal/screening"
	"kycgate/pkg/domain"
	dErrors "kycgate/pkg/domain-errors"
	audit "kycgate/pkg/platform/audit"
	"kycgate/pkg/platform/audit/publishers/compliance"
	auditmemory "kycgate/pkg/platform/audit/store/memory"
	"kycgate/pkg/requestcontext"
)

type failingAuditStore struct{}

func (failingAuditStore) Append(context.Context, audit.Event) error {
	return errors.New("outbox unavailable")
}

type failingStore struct {
	*store.InMemoryStore
}

func (failingStore) Create(context.Context, *models.Verification) error {
	return errors.New("connection reset")
}

type erroringProvider struct{}

func (erroringProvider) Name() string { return "broken" }

func (erroringProvider) Screen(context.Context, screening.Subject) (screening.Result, error) {
	return screening.Result{}, errors.New("upstream timeout")
}

type VerificationServiceSuite struct {
	suite.Suite
	ctx    context.Context
	now    time.Time
	store  *store.InMemoryStore
	audit  *auditmemory.InMemoryStore
	svc    *Service
	logger *slog.Logger
}

func TestVerificationServiceSuite(t *testing.T) {
	suite.Run(t, new(VerificationServiceSuite))
}

func (s *VerificationServiceSuite) SetupTest() {
	s.now = time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(requestcontext.WithRequestID(context.Background(), "req-1"), s.now)
	s.store = store.NewInMemoryStore()
	s.audit = auditmemory.NewInMemoryStore()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = s.newService(s.store, screening.NewDenylist([]string{"john", "doe", "test"}), compliance.New(s.audit))
}

func (s *VerificationServiceSuite) newService(st Store, provider screening.Provider, auditor AuditPublisher) *Service {
	svc, err := New(st,
		identity.NewValidator(),
		provider,
		risk.NewScorer(
			risk.WithHighRiskCountries([]string{"KP"}),
			risk.WithClock(func() time.Time { return s.now }),
		),
		WithLogger(s.logger),
		WithAuditPublisher(auditor),
		WithMaxListLimit(100),
	)
	s.Require().NoError(err)
	return svc
}

func (s *VerificationServiceSuite) verify(subject identity.Subject) (*models.Verification, error) {
	return s.svc.Verify(s.ctx, VerifyRequest{
		AccountID: "GACCOUNT",
		Network:   domain.NetworkStellar,
		Type:      domain.VerificationTypeIndividual,
		Subject:   subject,
	})
}

func (s *VerificationServiceSuite) TestVerify() {
	s.Run("valid bvn with clear screening is verified", func() {
		v, err := s.verify(identity.Subject{BVN: "12345678901", DocumentType: "bvn", FirstName: "Alice"})
		s.Require().NoError(err)

		s.Equal(domain.VerificationStatusVerified, v.Status)
		s.Equal(domain.RiskLevelLow, v.RiskLevel)
		s.Require().NotNil(v.Score)
		s.Equal(float64(22), *v.Score)
		s.Equal(screening.DenylistProviderName, v.Provider)
		s.Require().NotNil(v.VerifiedAt)
		s.Require().NotNil(v.ExpiresAt)
		s.Equal(models.ExpiryFor(s.now), *v.ExpiresAt)
		s.Contains(v.Notes, "Document validation passed (bvn)")
		s.Contains(v.Notes, "Risk score 22 (low)")
		s.NotEmpty(v.SubjectHash)

		stored, err := s.store.FindByID(s.ctx, v.ID)
		s.Require().NoError(err)
		s.Equal(v.Status, stored.Status)
	})

	s.Run("invalid document persists nothing and skips screening", func() {
		svc := s.newService(s.store, erroringProvider{}, compliance.New(s.audit))
		before, err := s.store.List(s.ctx, models.ListQuery{Limit: 100})
		s.Require().NoError(err)

		_, err = svc.Verify(s.ctx, VerifyRequest{
			AccountID: "GACCOUNT",
			Network:   domain.NetworkStellar,
			Type:      domain.VerificationTypeIndividual,
			Subject:   identity.Subject{BVN: "123", GhanaCard: "GHA-1-1"},
		})
		vf, ok := identity.AsValidationFailure(err)
		s.Require().True(ok, "expected a validation failure, got %v", err)
		s.Equal([]string{
			"BVN must be exactly 11 digits",
			"Ghana Card must match format GHA-#########-#",
		}, vf.Details)

		after, err := s.store.List(s.ctx, models.ListQuery{Limit: 100})
		s.Require().NoError(err)
		s.Equal(before.Total, after.Total)
	})

	s.Run("denylist hit is rejected with high risk", func() {
		v, err := s.verify(identity.Subject{FirstName: "john"})
		s.Require().NoError(err)
		s.Equal(domain.VerificationStatusRejected, v.Status)
		s.Equal(domain.RiskLevelHigh, v.RiskLevel)
		s.GreaterOrEqual(*v.Score, float64(70))
		s.Nil(v.VerifiedAt)
		s.Nil(v.ExpiresAt)
		s.Len(v.ScreeningDetails, 1)
		s.Contains(v.Notes, "Watchlist screening flagged")
	})

	s.Run("mid score goes to manual review", func() {
		v, err := s.verify(identity.Subject{DocumentType: "passport", DocumentNumber: "A1234567", DocumentCountry: "KP"})
		s.Require().NoError(err)
		// 20 base + 10 passport + 15 high-risk country
		s.Equal(float64(45), *v.Score)
		s.Equal(domain.VerificationStatusPending, v.Status)
		s.Equal(domain.RiskLevelMedium, v.RiskLevel)
		s.Contains(v.Notes, "Manual review required")
	})

	s.Run("emits a compliance audit event", func() {
		v, err := s.verify(identity.Subject{NIN: "12345678901"})
		s.Require().NoError(err)

		events := s.audit.ListBySubject(v.ID.String())
		s.Require().Len(events, 1)
		s.Equal(audit.EventVerificationCompleted, events[0].Action)
		s.Equal("verified", events[0].Decision)
		s.Equal("req-1", events[0].RequestID)
		s.Equal(v.SubjectHash, events[0].SubjectIDHash)
	})
}

func (s *VerificationServiceSuite) TestVerifyFailures() {
	s.Run("screening error is internal", func() {
		svc := s.newService(s.store, erroringProvider{}, nil)
		_, err := svc.Verify(s.ctx, VerifyRequest{AccountID: "GACCOUNT", Network: domain.NetworkStellar, Type: domain.VerificationTypeIndividual})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("store failure is internal", func() {
		svc := s.newService(failingStore{store.NewInMemoryStore()}, screening.NewDenylist(nil), nil)
		_, err := svc.Verify(s.ctx, VerifyRequest{AccountID: "GACCOUNT", Network: domain.NetworkStellar, Type: domain.VerificationTypeIndividual})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("audit failure fails closed and persists nothing", func() {
		st := store.NewInMemoryStore()
		svc := s.newService(st, screening.NewDenylist(nil), compliance.New(failingAuditStore{}))
		_, err := svc.Verify(s.ctx, VerifyRequest{AccountID: "GACCOUNT", Network: domain.NetworkStellar, Type: domain.VerificationTypeIndividual})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))

		res, err := st.List(s.ctx, models.ListQuery{Limit: 10})
		s.Require().NoError(err)
		s.Zero(res.Total)
	})
}

func (s *VerificationServiceSuite) TestGet() {
	created, err := s.verify(identity.Subject{BVN: "12345678901", DocumentType: "bvn"})
	s.Require().NoError(err)

	s.Run("refetch returns identical core fields", func() {
		got, err := s.svc.Get(s.ctx, created.ID)
		s.Require().NoError(err)
		s.Equal(created.Status, got.Status)
		s.Equal(*created.Score, *got.Score)
		s.Equal(created.Notes, got.Notes)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.svc.Get(s.ctx, domain.NewVerificationID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *VerificationServiceSuite) TestList() {
	for i := 0; i < 3; i++ {
		_, err := s.verify(identity.Subject{BVN: "12345678901"})
		s.Require().NoError(err)
	}
	_, err := s.verify(identity.Subject{FirstName: "doe"})
	s.Require().NoError(err)

	s.Run("defaults and pagination", func() {
		res, err := s.svc.List(s.ctx, models.ListQuery{Limit: 2})
		s.Require().NoError(err)
		s.Equal(4, res.Total)
		s.Len(res.Items, 2)
		s.True(res.HasMore())

		res, err = s.svc.List(s.ctx, models.ListQuery{})
		s.Require().NoError(err)
		s.Equal(DefaultListLimit, res.Limit)
		s.False(res.HasMore())
	})

	s.Run("limit is capped and negative offset reset", func() {
		res, err := s.svc.List(s.ctx, models.ListQuery{Limit: 1000, Offset: -5})
		s.Require().NoError(err)
		s.Equal(100, res.Limit)
		s.Equal(0, res.Offset)
	})

	s.Run("filters by status", func() {
		res, err := s.svc.List(s.ctx, models.ListQuery{
			Filter: models.Filter{Status: domain.VerificationStatusRejected},
			Limit:  10,
		})
		s.Require().NoError(err)
		s.Equal(1, res.Total)
		s.Equal(domain.VerificationStatusRejected, res.Items[0].Status)
	})
}
