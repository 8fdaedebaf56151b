// Package store persists KYC verification records.
package store

import (
	"kycgate/internal/kyc/models"
	"kycgate/pkg/platform/sentinel"
)

// Error aliases keep callers on sentinel errors without importing the
// platform package.
var (
	ErrNotFound = sentinel.ErrNotFound
	ErrConflict = sentinel.ErrConflict
)

func clone(v *models.Verification) *models.Verification {
	if v == nil {
		return nil
	}
	c := *v
	if v.Score != nil {
		score := *v.Score
		c.Score = &score
	}
	if v.VerifiedAt != nil {
		t := *v.VerifiedAt
		c.VerifiedAt = &t
	}
	if v.ExpiresAt != nil {
		t := *v.ExpiresAt
		c.ExpiresAt = &t
	}
	c.ScreeningDetails = append([]string{}, v.ScreeningDetails...)
	return &c
}
