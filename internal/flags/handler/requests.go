package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"kycgate/internal/flags/models"
	"kycgate/internal/flags/service"
	"kycgate/pkg/domain"
	dErrors "kycgate/pkg/domain-errors"
	"kycgate/pkg/platform/httputil"
)

const (
	maxEntityIDLength = 128
	maxReasonLength   = 2048
	maxActorLength    = 128
	maxNotesLength    = 4096
	dateOnlyLayout    = "2006-01-02"
)

// CreateFlagRequest is the HTTP request body for POST /compliance/flags.
type CreateFlagRequest struct {
	EntityType  string          `json:"entityType"`
	EntityID    string          `json:"entityId"`
	Network     string          `json:"network"`
	FlagType    string          `json:"flagType"`
	Severity    string          `json:"severity"`
	Reason      string          `json:"reason"`
	FlagData    json.RawMessage `json:"flagData,omitempty"`
	RiskScore   *float64        `json:"riskScore,omitempty"`
	CountryCode string          `json:"countryCode,omitempty"`
	Region      string          `json:"region,omitempty"`

	params models.NewFlagParams
}

// Validate implements httputil.Validatable.
func (r *CreateFlagRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	// Size validation (fail fast)
	if len(r.EntityID) > maxEntityIDLength {
		return dErrors.New(dErrors.CodeValidation, "entityId must be at most 128 characters")
	}
	if len(r.Reason) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason must be at most 2048 characters")
	}

	// Required fields
	for _, f := range []struct{ name, value string }{
		{"entityType", r.EntityType},
		{"entityId", r.EntityID},
		{"network", r.Network},
		{"flagType", r.FlagType},
		{"severity", r.Severity},
		{"reason", r.Reason},
	} {
		if strings.TrimSpace(f.value) == "" {
			return dErrors.New(dErrors.CodeValidation, f.name+" is required")
		}
	}
	if r.RiskScore != nil && (*r.RiskScore < 0 || *r.RiskScore > 100) {
		return dErrors.New(dErrors.CodeValidation, "riskScore must be between 0 and 100")
	}

	entityType, err := domain.ParseEntityType(r.EntityType)
	if err != nil {
		return err
	}
	network, err := domain.ParseNetwork(r.Network)
	if err != nil {
		return err
	}
	flagType, err := domain.ParseFlagType(r.FlagType)
	if err != nil {
		return err
	}
	severity, err := domain.ParseSeverity(r.Severity)
	if err != nil {
		return err
	}

	var data json.RawMessage
	if len(r.FlagData) > 0 && string(r.FlagData) != "null" {
		data = r.FlagData
	}
	r.params = models.NewFlagParams{
		EntityType:  entityType,
		EntityID:    strings.TrimSpace(r.EntityID),
		Network:     network,
		Type:        flagType,
		Severity:    severity,
		Reason:      strings.TrimSpace(r.Reason),
		Data:        data,
		RiskScore:   r.RiskScore,
		CountryCode: strings.ToUpper(strings.TrimSpace(r.CountryCode)),
		Region:      strings.TrimSpace(r.Region),
	}
	return nil
}

func (r *CreateFlagRequest) Params() models.NewFlagParams { return r.params }

// UpdateStatusRequest is the HTTP request body for PATCH /compliance/flags/{flagId}/status.
type UpdateStatusRequest struct {
	NewStatus       string `json:"newStatus"`
	ResolvedBy      string `json:"resolvedBy,omitempty"`
	ResolutionNotes string `json:"resolutionNotes,omitempty"`
	Disposition     string `json:"disposition,omitempty"`

	transition models.Transition
}

// Validate parses the target status. Whether resolution fields are required
// depends on the target and is checked by the service.
func (r *UpdateStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := checkResolutionSizes(r.ResolvedBy, r.ResolutionNotes); err != nil {
		return err
	}
	if strings.TrimSpace(r.NewStatus) == "" {
		return dErrors.New(dErrors.CodeValidation, "newStatus is required")
	}
	status, err := domain.ParseFlagStatus(r.NewStatus)
	if err != nil {
		return err
	}
	disposition, err := parseDisposition(r.Disposition)
	if err != nil {
		return err
	}
	r.transition = models.Transition{
		To:              status,
		ResolvedBy:      strings.TrimSpace(r.ResolvedBy),
		ResolutionNotes: strings.TrimSpace(r.ResolutionNotes),
		Disposition:     disposition,
	}
	return nil
}

func (r *UpdateStatusRequest) Transition() models.Transition { return r.transition }

// ResolveFlagRequest is the HTTP request body for POST /compliance/flags/{flagId}/resolve.
type ResolveFlagRequest struct {
	ResolvedBy      string          `json:"resolvedBy"`
	ResolutionNotes string          `json:"resolutionNotes"`
	ResolutionData  json.RawMessage `json:"resolutionData,omitempty"`
	Disposition     string          `json:"disposition,omitempty"`

	parsedDisposition domain.Disposition
}

func (r *ResolveFlagRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := checkResolutionSizes(r.ResolvedBy, r.ResolutionNotes); err != nil {
		return err
	}
	r.ResolvedBy = strings.TrimSpace(r.ResolvedBy)
	r.ResolutionNotes = strings.TrimSpace(r.ResolutionNotes)
	if r.ResolvedBy == "" {
		return dErrors.New(dErrors.CodeValidation, "resolvedBy is required")
	}
	if r.ResolutionNotes == "" {
		return dErrors.New(dErrors.CodeValidation, "resolutionNotes is required")
	}
	if string(r.ResolutionData) == "null" {
		r.ResolutionData = nil
	}
	disposition, err := parseDisposition(r.Disposition)
	if err != nil {
		return err
	}
	r.parsedDisposition = disposition
	return nil
}

func (r *ResolveFlagRequest) ServiceRequest() service.ResolveRequest {
	return service.ResolveRequest{
		ResolvedBy:      r.ResolvedBy,
		ResolutionNotes: r.ResolutionNotes,
		ResolutionData:  r.ResolutionData,
		Disposition:     r.parsedDisposition,
	}
}

func checkResolutionSizes(resolvedBy, notes string) error {
	if len(resolvedBy) > maxActorLength {
		return dErrors.New(dErrors.CodeValidation, "resolvedBy must be at most 128 characters")
	}
	if len(notes) > maxNotesLength {
		return dErrors.New(dErrors.CodeValidation, "resolutionNotes must be at most 4096 characters")
	}
	return nil
}

func parseDisposition(raw string) (domain.Disposition, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return domain.ParseDisposition(raw)
}

// parseFilter reads the flag filter shared by listing and analytics. Unknown
// enum values are rejected.
func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	f := models.Filter{
		EntityID:    strings.TrimSpace(q.Get("entityId")),
		CountryCode: strings.ToUpper(strings.TrimSpace(q.Get("countryCode"))),
		Region:      strings.TrimSpace(q.Get("region")),
	}
	if raw := q.Get("entityType"); raw != "" {
		v, err := domain.ParseEntityType(raw)
		if err != nil {
			return models.Filter{}, err
		}
		f.EntityType = v
	}
	if raw := q.Get("flagType"); raw != "" {
		v, err := domain.ParseFlagType(raw)
		if err != nil {
			return models.Filter{}, err
		}
		f.Type = v
	}
	if raw := q.Get("severity"); raw != "" {
		v, err := domain.ParseSeverity(raw)
		if err != nil {
			return models.Filter{}, err
		}
		f.Severity = v
	}
	if raw := q.Get("status"); raw != "" {
		v, err := domain.ParseFlagStatus(raw)
		if err != nil {
			return models.Filter{}, err
		}
		f.Status = v
	}
	if raw := q.Get("network"); raw != "" {
		v, err := domain.ParseNetwork(raw)
		if err != nil {
			return models.Filter{}, err
		}
		f.Network = v
	}
	return f, nil
}

// parseListQuery reads GET /compliance/flags. Sort parameters never fail:
// unknown values fall back to createdAt descending.
func parseListQuery(r *http.Request) (models.ListQuery, error) {
	filter, err := parseFilter(r)
	if err != nil {
		return models.ListQuery{}, err
	}
	q := r.URL.Query()
	return models.ListQuery{
		Filter: filter,
		SortBy: models.SortFieldOrDefault(q.Get("sortBy")),
		Order:  models.SortOrderOrDefault(q.Get("sortOrder")),
		Limit:  httputil.QueryInt(r, "limit", 0),
		Offset: httputil.QueryInt(r, "offset", 0),
	}, nil
}

// parseAnalyticsFilter adds the startDate/endDate window to the list filter.
// A date-only endDate covers that whole day.
func parseAnalyticsFilter(r *http.Request) (models.Filter, error) {
	filter, err := parseFilter(r)
	if err != nil {
		return models.Filter{}, err
	}
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("startDate")); raw != "" {
		t, _, err := parseDate(raw)
		if err != nil {
			return models.Filter{}, dErrors.New(dErrors.CodeValidation, "startDate must be an ISO-8601 date or timestamp")
		}
		filter.CreatedFrom = &t
	}
	if raw := strings.TrimSpace(q.Get("endDate")); raw != "" {
		t, dateOnly, err := parseDate(raw)
		if err != nil {
			return models.Filter{}, dErrors.New(dErrors.CodeValidation, "endDate must be an ISO-8601 date or timestamp")
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		filter.CreatedTo = &t
	}
	if filter.CreatedFrom != nil && filter.CreatedTo != nil && filter.CreatedFrom.After(*filter.CreatedTo) {
		return models.Filter{}, dErrors.New(dErrors.CodeValidation, "startDate must not be after endDate")
	}
	return filter, nil
}

func parseDate(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), false, nil
	}
	t, err := time.Parse(dateOnlyLayout, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}
