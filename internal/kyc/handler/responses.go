package handler

import (
	"time"

	"kycgate/internal/kyc/models"
)

// VerifyResponse is the HTTP response for POST /kyc/verifications.
type VerifyResponse struct {
	VerificationID     string     `json:"verificationId"`
	VerificationStatus string     `json:"verificationStatus"`
	RiskScore          *float64   `json:"riskScore"`
	RiskLevel          string     `json:"riskLevel"`
	VerificationNotes  string     `json:"verificationNotes"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
}

// ValidationFailureResponse is returned when identity numbers are malformed.
type ValidationFailureResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

// VerificationResponse is the public projection of a verification. Names,
// birth dates and identity numbers are never returned.
type VerificationResponse struct {
	VerificationID     string     `json:"verificationId"`
	AccountID          string     `json:"accountId"`
	Network            string     `json:"network"`
	VerificationType   string     `json:"verificationType"`
	VerificationStatus string     `json:"verificationStatus"`
	Provider           string     `json:"provider"`
	RiskScore          *float64   `json:"riskScore"`
	RiskLevel          string     `json:"riskLevel"`
	VerificationNotes  string     `json:"verificationNotes"`
	DocumentType       string     `json:"documentType,omitempty"`
	DocumentCountry    string     `json:"documentCountry,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	VerifiedAt         *time.Time `json:"verifiedAt,omitempty"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
}

// ListResponse is the HTTP response for GET /kyc/verifications.
type ListResponse struct {
	Verifications []VerificationResponse `json:"verifications"`
	Total         int                    `json:"total"`
	Limit         int                    `json:"limit"`
	Offset        int                    `json:"offset"`
	HasMore       bool                   `json:"hasMore"`
}

func FromVerifyResult(v *models.Verification) *VerifyResponse {
	return &VerifyResponse{
		VerificationID:     v.ID.String(),
		VerificationStatus: v.Status.String(),
		RiskScore:          v.Score,
		RiskLevel:          v.RiskLevel.String(),
		VerificationNotes:  v.Notes,
		ExpiresAt:          v.ExpiresAt,
	}
}

func FromVerification(v *models.Verification) VerificationResponse {
	return VerificationResponse{
		VerificationID:     v.ID.String(),
		AccountID:          v.AccountID,
		Network:            v.Network.String(),
		VerificationType:   v.Type.String(),
		VerificationStatus: v.Status.String(),
		Provider:           v.Provider,
		RiskScore:          v.Score,
		RiskLevel:          v.RiskLevel.String(),
		VerificationNotes:  v.Notes,
		DocumentType:       v.Subject.DocumentType,
		DocumentCountry:    v.Subject.DocumentCountry,
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
		VerifiedAt:         v.VerifiedAt,
		ExpiresAt:          v.ExpiresAt,
	}
}

func FromListResult(res models.ListResult) *ListResponse {
	out := &ListResponse{
		Verifications: make([]VerificationResponse, 0, len(res.Items)),
		Total:         res.Total,
		Limit:         res.Limit,
		Offset:        res.Offset,
		HasMore:       res.HasMore(),
	}
	for _, v := range res.Items {
		out.Verifications = append(out.Verifications, FromVerification(v))
	}
	return out
}
