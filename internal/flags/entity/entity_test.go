package entity

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stellar/go/keypair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycgate/pkg/domain"
	"kycgate/pkg/platform/sentinel"
)

type stubLookup struct {
	status domain.VerificationStatus
	err    error
	calls  int
}

func (s *stubLookup) LatestStatus(context.Context, string, domain.Network) (domain.VerificationStatus, error) {
	s.calls++
	return s.status, s.err
}

const txHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func TestAddressValid(t *testing.T) {
	kp, err := keypair.Random()
	require.NoError(t, err)

	tests := []struct {
		name       string
		entityType domain.EntityType
		id         string
		network    domain.Network
		want       bool
	}{
		{"stellar account", domain.EntityTypeAccount, kp.Address(), domain.NetworkStellar, true},
		{"stellar secret seed is not an address", domain.EntityTypeAccount, kp.Seed(), domain.NetworkStellar, false},
		{"truncated stellar account", domain.EntityTypeAccount, kp.Address()[:20], domain.NetworkStellar, false},
		{"hedera account", domain.EntityTypeAccount, "0.0.12345", domain.NetworkHedera, true},
		{"hedera account missing realm", domain.EntityTypeAccount, "0.12345", domain.NetworkHedera, false},
		{"stellar address on hedera", domain.EntityTypeAccount, kp.Address(), domain.NetworkHedera, false},
		{"transaction hash", domain.EntityTypeTransaction, txHash, domain.NetworkStellar, true},
		{"short transaction hash", domain.EntityTypeTransaction, txHash[:63], domain.NetworkHedera, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddressValid(tt.entityType, tt.id, tt.network))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Hedera account 0.0.12345", DisplayName(domain.EntityTypeAccount, "0.0.12345", domain.NetworkHedera))
	assert.Equal(t, "Stellar transaction 9f86…0a08", DisplayName(domain.EntityTypeTransaction, txHash, domain.NetworkStellar))

	t.Run("multibyte ids are abbreviated by character", func(t *testing.T) {
		name := DisplayName(domain.EntityTypeAccount, "账户账户-ÄÖÜß-客户编号", domain.NetworkHedera)
		assert.Equal(t, "Hedera account 账户账户…客户编号", name)
		assert.True(t, utf8.ValidString(name))
	})

	t.Run("twelve multibyte characters are kept whole", func(t *testing.T) {
		assert.Equal(t, "Hedera account ÄÖÜÄÖÜÄÖÜÄÖÜ", DisplayName(domain.EntityTypeAccount, "ÄÖÜÄÖÜÄÖÜÄÖÜ", domain.NetworkHedera))
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("accounts include the latest kyc status", func(t *testing.T) {
		lookup := &stubLookup{status: domain.VerificationStatusVerified}
		info, err := NewResolver(lookup).Resolve(ctx, domain.EntityTypeAccount, "0.0.7", domain.NetworkHedera)
		require.NoError(t, err)
		require.NotNil(t, info.KYCStatus)
		assert.Equal(t, domain.VerificationStatusVerified, *info.KYCStatus)
		assert.True(t, info.AddressValid)
	})

	t.Run("never verified accounts have no status", func(t *testing.T) {
		info, err := NewResolver(&stubLookup{err: sentinel.ErrNotFound}).Resolve(ctx, domain.EntityTypeAccount, "0.0.7", domain.NetworkHedera)
		require.NoError(t, err)
		assert.Nil(t, info.KYCStatus)
	})

	t.Run("transactions skip the lookup", func(t *testing.T) {
		lookup := &stubLookup{status: domain.VerificationStatusVerified}
		info, err := NewResolver(lookup).Resolve(ctx, domain.EntityTypeTransaction, txHash, domain.NetworkStellar)
		require.NoError(t, err)
		assert.Nil(t, info.KYCStatus)
		assert.Zero(t, lookup.calls)
	})

	t.Run("lookup failures are returned", func(t *testing.T) {
		_, err := NewResolver(&stubLookup{err: errors.New("connection reset")}).Resolve(ctx, domain.EntityTypeAccount, "0.0.7", domain.NetworkHedera)
		assert.Error(t, err)
	})

	t.Run("nil lookup", func(t *testing.T) {
		info, err := NewResolver(nil).Resolve(ctx, domain.EntityTypeAccount, "0.0.7", domain.NetworkHedera)
		require.NoError(t, err)
		assert.Nil(t, info.KYCStatus)
	})
}
