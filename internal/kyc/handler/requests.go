package handler

import (
	"net/http"
	"strings"

	"kycgate/internal/identity"
	"kycgate/internal/kyc/models"
	"kycgate/pkg/domain"
	dErrors "kycgate/pkg/domain-errors"
	"kycgate/pkg/platform/httputil"
)

const (
	maxAccountIDLength = 128
	maxFieldLength     = 256
)

// VerifyRequest is the HTTP request body for POST /kyc/verifications.
type VerifyRequest struct {
	AccountID        string `json:"accountId"`
	Network          string `json:"network"`
	VerificationType string `json:"verificationType"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	DateOfBirth      string `json:"dateOfBirth"`
	Nationality      string `json:"nationality"`
	DocumentType     string `json:"documentType"`
	DocumentNumber   string `json:"documentNumber"`
	DocumentCountry  string `json:"documentCountry"`
	BVN              string `json:"bvn"`
	NIN              string `json:"nin"`
	SAIDNumber       string `json:"saIdNumber"`
	GhanaCard        string `json:"ghanaCard"`

	// Parsed values (populated by Validate)
	parsedNetwork domain.Network
	parsedType    domain.VerificationType
}

// Validate checks the request shape. Identity number formats are checked by
// the verification workflow, not here.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Size validation (fail fast)
	if len(r.AccountID) > maxAccountIDLength {
		return dErrors.New(dErrors.CodeValidation, "accountId must be at most 128 characters")
	}
	for _, f := range []string{
		r.FirstName, r.LastName, r.DateOfBirth, r.Nationality,
		r.DocumentType, r.DocumentNumber, r.DocumentCountry,
		r.BVN, r.NIN, r.SAIDNumber, r.GhanaCard,
	} {
		if len(f) > maxFieldLength {
			return dErrors.New(dErrors.CodeValidation, "subject fields must be at most 256 characters")
		}
	}

	// Required fields
	r.AccountID = strings.TrimSpace(r.AccountID)
	if r.AccountID == "" {
		return dErrors.New(dErrors.CodeValidation, "accountId is required")
	}
	if strings.TrimSpace(r.Network) == "" {
		return dErrors.New(dErrors.CodeValidation, "network is required")
	}
	if strings.TrimSpace(r.VerificationType) == "" {
		return dErrors.New(dErrors.CodeValidation, "verificationType is required")
	}

	network, err := domain.ParseNetwork(r.Network)
	if err != nil {
		return err
	}
	r.parsedNetwork = network

	vType, err := domain.ParseVerificationType(r.VerificationType)
	if err != nil {
		return err
	}
	r.parsedType = vType

	return nil
}

func (r *VerifyRequest) ParsedNetwork() domain.Network { return r.parsedNetwork }

func (r *VerifyRequest) ParsedType() domain.VerificationType { return r.parsedType }

// Subject returns the trimmed identity fields.
func (r *VerifyRequest) Subject() identity.Subject {
	return identity.Subject{
		FirstName:       strings.TrimSpace(r.FirstName),
		LastName:        strings.TrimSpace(r.LastName),
		DateOfBirth:     strings.TrimSpace(r.DateOfBirth),
		Nationality:     strings.TrimSpace(r.Nationality),
		DocumentType:    strings.TrimSpace(r.DocumentType),
		DocumentNumber:  strings.TrimSpace(r.DocumentNumber),
		DocumentCountry: strings.TrimSpace(r.DocumentCountry),
		BVN:             strings.TrimSpace(r.BVN),
		NIN:             strings.TrimSpace(r.NIN),
		SAIDNumber:      strings.TrimSpace(r.SAIDNumber),
		GhanaCard:       strings.TrimSpace(r.GhanaCard),
	}
}

// parseListQuery reads GET /kyc/verifications query parameters. Unknown enum
// values are rejected; a missing or malformed limit selects the default.
func parseListQuery(r *http.Request) (models.ListQuery, error) {
	q := r.URL.Query()
	lq := models.ListQuery{
		Filter: models.Filter{AccountID: strings.TrimSpace(q.Get("accountId"))},
		Limit:  httputil.QueryInt(r, "limit", 0),
		Offset: httputil.QueryInt(r, "offset", 0),
	}
	if raw := q.Get("verificationStatus"); raw != "" {
		status, err := domain.ParseVerificationStatus(raw)
		if err != nil {
			return models.ListQuery{}, err
		}
		lq.Filter.Status = status
	}
	if raw := q.Get("verificationType"); raw != "" {
		vType, err := domain.ParseVerificationType(raw)
		if err != nil {
			return models.ListQuery{}, err
		}
		lq.Filter.Type = vType
	}
	if raw := q.Get("network"); raw != "" {
		network, err := domain.ParseNetwork(raw)
		if err != nil {
			return models.ListQuery{}, err
		}
		lq.Filter.Network = network
	}
	return lq, nil
}
