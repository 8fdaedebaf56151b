package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycgate/internal/identity"
	"kycgate/pkg/domain"
)

func TestNewVerification_StampsOnlyVerified(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for _, status := range []domain.VerificationStatus{
		domain.VerificationStatusVerified,
		domain.VerificationStatusPending,
		domain.VerificationStatusRejected,
	} {
		t.Run(string(status), func(t *testing.T) {
			v := NewVerification(domain.NewVerificationID(), "GACC", domain.NetworkStellar,
				domain.VerificationTypeIndividual, identity.Subject{}, "hash",
				Outcome{Status: status, Score: 22, RiskLevel: domain.RiskLevelLow}, now)

			require.NotNil(t, v.Score)
			assert.Equal(t, float64(22), *v.Score)
			assert.NotNil(t, v.ScreeningDetails)
			if status == domain.VerificationStatusVerified {
				require.NotNil(t, v.VerifiedAt)
				require.NotNil(t, v.ExpiresAt)
				assert.Equal(t, now, *v.VerifiedAt)
				assert.Equal(t, ExpiryFor(now), *v.ExpiresAt)
				return
			}
			assert.Nil(t, v.VerifiedAt)
			assert.Nil(t, v.ExpiresAt)
		})
	}
}

func TestListResult_HasMore(t *testing.T) {
	assert.True(t, ListResult{Total: 11, Limit: 10, Offset: 0}.HasMore())
	assert.False(t, ListResult{Total: 10, Limit: 10, Offset: 0}.HasMore())
	assert.False(t, ListResult{Total: 3, Limit: 50, Offset: 0}.HasMore())
	assert.False(t, ListResult{Total: 0, Limit: 50, Offset: 100}.HasMore())
	assert.False(t, ListResult{Total: 1, Limit: 10, Offset: math.MaxInt}.HasMore())
	assert.False(t, ListResult{Total: math.MaxInt, Limit: math.MaxInt, Offset: math.MaxInt}.HasMore())
	assert.True(t, ListResult{Total: math.MaxInt, Limit: 100, Offset: 0}.HasMore())
}

func TestExpiryFor_CalendarYear(t *testing.T) {
	leap := time.Date(2027, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2028, 3, 1, 9, 0, 0, 0, time.UTC), ExpiryFor(leap))

	plain := time.Date(2026, 10, 17, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2027, 10, 17, 12, 30, 0, 0, time.UTC), ExpiryFor(plain))
}
