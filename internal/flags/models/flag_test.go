package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycgate/pkg/domain"
	dErrors "kycgate/pkg/domain-errors"
)

var now = time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)

func newTestFlag(t *testing.T) *Flag {
	t.Helper()
	score := 80.0
	f, err := NewFlag(domain.NewFlagID(), NewFlagParams{
		EntityType: domain.EntityTypeAccount,
		EntityID:   "GACCOUNT",
		Network:    domain.NetworkStellar,
		Type:       domain.FlagTypeAML,
		Severity:   domain.SeverityCritical,
		Reason:     "structuring pattern",
		RiskScore:  &score,
	}, now)
	require.NoError(t, err)
	return f
}

func TestNewFlag(t *testing.T) {
	f := newTestFlag(t)
	assert.Equal(t, domain.FlagStatusActive, f.Status)
	assert.Nil(t, f.ResolvedAt)
	assert.Equal(t, now, f.CreatedAt)

	_, err := NewFlag(domain.NewFlagID(), NewFlagParams{
		EntityType: domain.EntityTypeAccount, EntityID: "x", Network: domain.NetworkStellar,
		Type: domain.FlagTypeAML, Severity: domain.SeverityLow, Reason: " ",
	}, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	bad := 101.0
	_, err = NewFlag(domain.NewFlagID(), NewFlagParams{
		EntityType: domain.EntityTypeAccount, EntityID: "x", Network: domain.NetworkStellar,
		Type: domain.FlagTypeAML, Severity: domain.SeverityLow, Reason: "r", RiskScore: &bad,
	}, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestTransition_Validate(t *testing.T) {
	tests := []struct {
		name string
		tr   Transition
		code dErrors.Code
	}{
		{"unknown status", Transition{To: "false_positive"}, dErrors.CodeInvalidInput},
		{"resolve without resolver", Transition{To: domain.FlagStatusResolved, ResolutionNotes: "n"}, dErrors.CodeValidation},
		{"close without notes", Transition{To: domain.FlagStatusClosed, ResolvedBy: "officer1"}, dErrors.CodeValidation},
		{"disposition on escalation", Transition{To: domain.FlagStatusEscalated, Disposition: domain.DispositionFalsePositive}, dErrors.CodeValidation},
		{"resolution data on escalation", Transition{To: domain.FlagStatusEscalated, ResolutionData: json.RawMessage(`{}`)}, dErrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, dErrors.HasCode(tt.tr.Validate(), tt.code))
		})
	}

	assert.NoError(t, Transition{To: domain.FlagStatusEscalated}.Validate())
	assert.NoError(t, Transition{To: domain.FlagStatusActive}.Validate())
	assert.NoError(t, Transition{
		To: domain.FlagStatusClosed, ResolvedBy: "officer1", ResolutionNotes: "n",
		Disposition: domain.DispositionFalsePositive,
	}.Validate())
}

func TestFlag_CanTransition(t *testing.T) {
	f := newTestFlag(t)
	assert.NoError(t, f.CanTransition(Transition{To: domain.FlagStatusEscalated}))

	err := f.CanTransition(Transition{To: domain.FlagStatusActive})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	f.Status = domain.FlagStatusClosed
	for _, to := range []domain.FlagStatus{
		domain.FlagStatusActive, domain.FlagStatusResolved, domain.FlagStatusClosed, domain.FlagStatusEscalated,
	} {
		assert.Error(t, f.CanTransition(Transition{To: to}), "closed -> %s", to)
	}
}

func TestFlag_ApplyTransition(t *testing.T) {
	later := now.Add(time.Hour)

	t.Run("escalation leaves resolution fields untouched", func(t *testing.T) {
		f := newTestFlag(t)
		ev := f.ApplyTransition(Transition{To: domain.FlagStatusEscalated}, "analyst", later)

		assert.Equal(t, domain.FlagStatusEscalated, f.Status)
		assert.Nil(t, f.ResolvedAt)
		assert.Empty(t, f.ResolvedBy)
		assert.Equal(t, later, f.UpdatedAt)
		assert.Equal(t, ActionStatusChanged, ev.Action)
		assert.Equal(t, domain.FlagStatusActive, ev.FromStatus)
		assert.Equal(t, "analyst", ev.Actor)
	})

	t.Run("resolution stamps resolvedAt and fields", func(t *testing.T) {
		f := newTestFlag(t)
		ev := f.ApplyTransition(Transition{
			To:              domain.FlagStatusResolved,
			ResolvedBy:      "officer1",
			ResolutionNotes: "cleared after review",
			ResolutionData:  json.RawMessage(`{"ticket":"C-1"}`),
			Disposition:     domain.DispositionFalsePositive,
		}, "", later)

		require.NotNil(t, f.ResolvedAt)
		assert.Equal(t, later, *f.ResolvedAt)
		assert.Equal(t, "officer1", f.ResolvedBy)
		assert.Equal(t, "cleared after review", f.ResolutionNotes)
		assert.JSONEq(t, `{"ticket":"C-1"}`, string(f.ResolutionData))
		assert.Equal(t, domain.DispositionFalsePositive, f.Disposition)
		assert.Equal(t, ActionResolved, ev.Action)
		assert.Equal(t, "officer1", ev.Actor)
	})
}

// Resolution timestamps track the status for every reachable path.
func TestFlag_ResolvedAtInvariant(t *testing.T) {
	targets := []domain.FlagStatus{
		domain.FlagStatusActive, domain.FlagStatusResolved, domain.FlagStatusClosed, domain.FlagStatusEscalated,
	}
	var walk func(f Flag, depth int)
	walk = func(f Flag, depth int) {
		assert.Equal(t, f.Status.IsResolution(), f.ResolvedAt != nil, "status %s", f.Status)
		if depth == 0 {
			return
		}
		for _, to := range targets {
			next := f
			tr := Transition{To: to, ResolvedBy: "officer1", ResolutionNotes: "notes"}
			if next.CanTransition(tr) != nil {
				continue
			}
			next.ApplyTransition(tr, "", now.Add(time.Minute))
			walk(next, depth-1)
		}
	}
	walk(*newTestFlag(t), 3)
}
