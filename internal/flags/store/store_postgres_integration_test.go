//go:build integration

package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"kycgate/internal/flags/models"
	"kycgate/internal/flags/store"
	"kycgate/pkg/domain"
	"kycgate/pkg/platform/tx"
	"kycgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	runner   *tx.SQLRunner
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.runner = tx.NewSQLRunner(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "flag_audit_events", "compliance_flags")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newFlag(severity domain.Severity, score *float64, at time.Time) *models.Flag {
	f, err := models.NewFlag(domain.NewFlagID(), models.NewFlagParams{
		EntityType:  domain.EntityTypeTransaction,
		EntityID:    "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
		Network:     domain.NetworkStellar,
		Type:        domain.FlagTypeSanctions,
		Severity:    severity,
		Reason:      "counterparty on sanctions list",
		Data:        json.RawMessage(`{"list":"ofac"}`),
		RiskScore:   score,
		CountryCode: "GH",
		Region:      "west_africa",
	}, at)
	s.Require().NoError(err)
	return f
}

func score(v float64) *float64 { return &v }

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	at := time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)
	f := s.newFlag(domain.SeverityCritical, score(88.5), at)
	s.Require().NoError(s.store.Create(ctx, f))

	got, err := s.store.FindByID(ctx, f.ID)
	s.Require().NoError(err)
	s.Equal(f.ID, got.ID)
	s.Equal(domain.FlagStatusActive, got.Status)
	s.JSONEq(`{"list":"ofac"}`, string(got.Data))
	s.Equal(88.5, *got.RiskScore)
	s.Nil(got.ResolvedAt)
	s.Empty(got.ResolvedBy)
	s.True(at.Equal(got.CreatedAt))

	s.ErrorIs(s.store.Create(ctx, f), store.ErrConflict)

	_, err = s.store.FindByID(ctx, domain.NewFlagID())
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *PostgresStoreSuite) TestResolveWithinTransaction() {
	ctx := context.Background()
	f := s.newFlag(domain.SeverityHigh, nil, time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, f))

	resolve := models.Transition{
		To:              domain.FlagStatusResolved,
		ResolvedBy:      "officer1",
		ResolutionNotes: "cleared after review",
		ResolutionData:  json.RawMessage(`{"ticket":"CASE-7"}`),
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		var event models.FlagAuditEvent
		_, err := s.store.Execute(txCtx, f.ID,
			func(fl *models.Flag) error { return fl.CanTransition(resolve) },
			func(fl *models.Flag) { event = fl.ApplyTransition(resolve, "", now) })
		if err != nil {
			return err
		}
		return s.store.AppendEvent(txCtx, event)
	})
	s.Require().NoError(err)

	got, err := s.store.FindByID(ctx, f.ID)
	s.Require().NoError(err)
	s.Equal(domain.FlagStatusResolved, got.Status)
	s.Equal("officer1", got.ResolvedBy)
	s.JSONEq(`{"ticket":"CASE-7"}`, string(got.ResolutionData))
	s.Require().NotNil(got.ResolvedAt)
	s.True(now.Equal(*got.ResolvedAt))

	events, err := s.store.ListEvents(ctx, f.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(models.ActionResolved, events[0].Action)
	s.Equal("officer1", events[0].Actor)
}

func (s *PostgresStoreSuite) TestRollbackDiscardsTransition() {
	ctx := context.Background()
	f := s.newFlag(domain.SeverityMedium, nil, time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, f))

	escalate := models.Transition{To: domain.FlagStatusEscalated}
	err := s.runner.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.store.Execute(txCtx, f.ID,
			func(fl *models.Flag) error { return fl.CanTransition(escalate) },
			func(fl *models.Flag) { fl.ApplyTransition(escalate, "officer2", time.Now().UTC()) }); err != nil {
			return err
		}
		return errors.New("audit publish failed")
	})
	s.Error(err)

	got, err := s.store.FindByID(ctx, f.ID)
	s.Require().NoError(err)
	s.Equal(domain.FlagStatusActive, got.Status)
}

func (s *PostgresStoreSuite) TestResolutionStampConstraint() {
	ctx := context.Background()
	f := s.newFlag(domain.SeverityLow, nil, time.Now().UTC())
	f.Status = domain.FlagStatusClosed
	s.Error(s.store.Create(ctx, f))
}

func (s *PostgresStoreSuite) TestListSortsAndFilters() {
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	low := s.newFlag(domain.SeverityLow, score(15), base)
	unscored := s.newFlag(domain.SeverityCritical, nil, base.Add(time.Hour))
	high := s.newFlag(domain.SeverityHigh, score(75), base.Add(2*time.Hour))
	hedera := s.newFlag(domain.SeverityMedium, score(40), base.Add(3*time.Hour))
	hedera.Network = domain.NetworkHedera
	for _, f := range []*models.Flag{low, unscored, high, hedera} {
		s.Require().NoError(s.store.Create(ctx, f))
	}

	res, err := s.store.List(ctx, models.ListQuery{SortBy: models.SortByRiskScore, Order: models.SortAsc, Limit: 10})
	s.Require().NoError(err)
	s.Equal(4, res.Total)
	s.Require().Len(res.Items, 4)
	s.Equal(low.ID, res.Items[0].ID)
	s.Equal(unscored.ID, res.Items[3].ID)

	res, err = s.store.List(ctx, models.ListQuery{SortBy: models.SortBySeverity, Order: models.SortDesc, Limit: 1})
	s.Require().NoError(err)
	s.Equal(unscored.ID, res.Items[0].ID)
	s.True(res.HasMore())

	from := base.Add(time.Hour)
	res, err = s.store.List(ctx, models.ListQuery{
		Filter: models.Filter{Network: domain.NetworkStellar, CreatedFrom: &from},
		SortBy: models.SortByCreatedAt,
		Order:  models.SortDesc,
		Limit:  10,
	})
	s.Require().NoError(err)
	s.Equal(2, res.Total)
	s.Equal(high.ID, res.Items[0].ID)

	all, err := s.store.ListAll(ctx, models.Filter{CountryCode: "GH"})
	s.Require().NoError(err)
	s.Len(all, 4)
}
