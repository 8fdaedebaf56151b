package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycgate/internal/identity"
	"kycgate/internal/kyc/models"
	"kycgate/pkg/domain"
)

func newRecord(account string, network domain.Network, status domain.VerificationStatus, at time.Time) *models.Verification {
	return models.NewVerification(domain.NewVerificationID(), account, network, domain.VerificationTypeIndividual,
		identity.Subject{FirstName: "Ama"}, "hash",
		models.Outcome{Status: status, Provider: "internal_denylist", Score: 22, RiskLevel: domain.RiskLevelLow},
		at)
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("create and find return copies", func(t *testing.T) {
		s := NewInMemoryStore()
		v := newRecord("GA", domain.NetworkStellar, domain.VerificationStatusVerified, base)
		require.NoError(t, s.Create(ctx, v))

		got, err := s.FindByID(ctx, v.ID)
		require.NoError(t, err)
		*got.Score = 99
		got.ScreeningDetails = append(got.ScreeningDetails, "mutated")

		again, err := s.FindByID(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, float64(22), *again.Score)
		assert.Empty(t, again.ScreeningDetails)
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		s := NewInMemoryStore()
		v := newRecord("GA", domain.NetworkStellar, domain.VerificationStatusVerified, base)
		require.NoError(t, s.Create(ctx, v))
		assert.ErrorIs(t, s.Create(ctx, v), ErrConflict)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := NewInMemoryStore().FindByID(ctx, domain.NewVerificationID())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list is newest first with pagination", func(t *testing.T) {
		s := NewInMemoryStore()
		for i := 0; i < 5; i++ {
			require.NoError(t, s.Create(ctx, newRecord("GA", domain.NetworkStellar, domain.VerificationStatusVerified, base.Add(time.Duration(i)*time.Hour))))
		}
		require.NoError(t, s.Create(ctx, newRecord("GB", domain.NetworkHedera, domain.VerificationStatusRejected, base)))

		res, err := s.List(ctx, models.ListQuery{Filter: models.Filter{AccountID: "GA"}, Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, 5, res.Total)
		require.Len(t, res.Items, 2)
		assert.Equal(t, base.Add(3*time.Hour), res.Items[0].CreatedAt)
		assert.Equal(t, base.Add(2*time.Hour), res.Items[1].CreatedAt)
		assert.True(t, res.HasMore())

		res, err = s.List(ctx, models.ListQuery{Filter: models.Filter{Network: domain.NetworkHedera}, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Total)

		res, err = s.List(ctx, models.ListQuery{Limit: 10, Offset: 50})
		require.NoError(t, err)
		assert.Equal(t, 6, res.Total)
		assert.Empty(t, res.Items)
	})

	t.Run("latest status per account and network", func(t *testing.T) {
		s := NewInMemoryStore()
		require.NoError(t, s.Create(ctx, newRecord("GA", domain.NetworkStellar, domain.VerificationStatusRejected, base)))
		require.NoError(t, s.Create(ctx, newRecord("GA", domain.NetworkStellar, domain.VerificationStatusPending, base.Add(time.Hour))))
		require.NoError(t, s.Create(ctx, newRecord("GA", domain.NetworkHedera, domain.VerificationStatusVerified, base.Add(2*time.Hour))))

		status, err := s.LatestStatus(ctx, "GA", domain.NetworkStellar)
		require.NoError(t, err)
		assert.Equal(t, domain.VerificationStatusPending, status)

		_, err = s.LatestStatus(ctx, "GZ", domain.NetworkStellar)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
