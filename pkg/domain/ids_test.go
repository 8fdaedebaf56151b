package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "kycgate/pkg/domain-errors"
)

// TestParseFlagID_Invariants validates the parsing invariant:
// "flag IDs must be valid, non-empty, non-nil UUIDs"
func TestParseFlagID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseFlagID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseFlagID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseFlagID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		u := uuid.New()
		id, err := ParseFlagID(u.String())
		require.NoError(t, err)
		assert.Equal(t, FlagID(u), id)
	})
}

func TestParseVerificationID(t *testing.T) {
	t.Run("round-trips generated ids", func(t *testing.T) {
		generated := NewVerificationID()
		assert.True(t, strings.HasPrefix(generated.String(), "kyc_"))

		parsed, err := ParseVerificationID(generated.String())
		require.NoError(t, err)
		assert.Equal(t, generated, parsed)
	})

	t.Run("canonicalizes the uuid part", func(t *testing.T) {
		u := uuid.New()
		parsed, err := ParseVerificationID("kyc_" + strings.ToUpper(u.String()))
		require.NoError(t, err)
		assert.Equal(t, VerificationID("kyc_"+u.String()), parsed)
	})

	for _, input := range []string{"", "kyc_", "vrf_" + uuid.NewString(), uuid.NewString(), "kyc_" + uuid.Nil.String()} {
		_, err := ParseVerificationID(input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "input %q", input)
	}
}

// TestFlagIDJSONForm verifies flag IDs travel as plain UUID strings.
func TestFlagIDJSONForm(t *testing.T) {
	id := NewFlagID()
	text, err := id.MarshalText()
	require.NoError(t, err)

	var decoded FlagID
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, id, decoded)
	assert.False(t, decoded.IsNil())
}
