package handler

import (
	"encoding/json"
	"time"

	"kycgate/internal/flags/analytics"
	"kycgate/internal/flags/entity"
	"kycgate/internal/flags/models"
	"kycgate/internal/flags/service"
	"kycgate/pkg/domain"
)

// CreateFlagResponse is the HTTP response for POST /compliance/flags.
type CreateFlagResponse struct {
	FlagID     string    `json:"flagId"`
	FlagStatus string    `json:"flagStatus"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FlagResponse is the full projection of a flag.
type FlagResponse struct {
	FlagID          string          `json:"flagId"`
	EntityType      string          `json:"entityType"`
	EntityID        string          `json:"entityId"`
	Network         string          `json:"network"`
	FlagType        string          `json:"flagType"`
	Severity        string          `json:"severity"`
	Reason          string          `json:"reason"`
	FlagData        json.RawMessage `json:"flagData,omitempty"`
	RiskScore       *float64        `json:"riskScore"`
	CountryCode     string          `json:"countryCode,omitempty"`
	Region          string          `json:"region,omitempty"`
	FlagStatus      string          `json:"flagStatus"`
	Disposition     string          `json:"disposition,omitempty"`
	ResolvedBy      string          `json:"resolvedBy,omitempty"`
	ResolutionNotes string          `json:"resolutionNotes,omitempty"`
	ResolutionData  json.RawMessage `json:"resolutionData,omitempty"`
	ResolvedAt      *time.Time      `json:"resolvedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

// ListFlagsResponse is the HTTP response for GET /compliance/flags.
type ListFlagsResponse struct {
	Flags      []FlagResponse `json:"flags"`
	Pagination Pagination     `json:"pagination"`
}

// HistoryEntry is one row of a flag's audit trail.
type HistoryEntry struct {
	EventID    string    `json:"eventId"`
	Action     string    `json:"action"`
	FromStatus string    `json:"fromStatus,omitempty"`
	ToStatus   string    `json:"toStatus"`
	Actor      string    `json:"actor,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// EntityInfoResponse describes the flagged entity.
type EntityInfoResponse struct {
	EntityType   string  `json:"entityType"`
	EntityID     string  `json:"entityId"`
	Network      string  `json:"network"`
	DisplayName  string  `json:"displayName"`
	AddressValid bool    `json:"addressValid"`
	KYCStatus    *string `json:"kycStatus,omitempty"`
}

// FlagDetailsResponse is the HTTP response for GET /compliance/flags/{flagId}.
type FlagDetailsResponse struct {
	Flag       FlagResponse       `json:"flag"`
	History    []HistoryEntry     `json:"history"`
	EntityInfo EntityInfoResponse `json:"entityInfo"`
}

// SummaryResponse carries the headline analytics counts.
type SummaryResponse struct {
	TotalFlags       int      `json:"totalFlags"`
	ActiveFlags      int      `json:"activeFlags"`
	ResolvedFlags    int      `json:"resolvedFlags"`
	ClosedFlags      int      `json:"closedFlags"`
	EscalatedFlags   int      `json:"escalatedFlags"`
	FalsePositives   int      `json:"falsePositives"`
	AverageRiskScore *float64 `json:"averageRiskScore"`
}

type CountryCountResponse struct {
	CountryCode string `json:"countryCode"`
	Count       int    `json:"count"`
}

// AnalyticsResponse is the HTTP response for GET /compliance/flags/analytics.
type AnalyticsResponse struct {
	Summary      SummaryResponse        `json:"summary"`
	BySeverity   map[string]int         `json:"bySeverity"`
	ByType       map[string]int         `json:"byType"`
	ByNetwork    map[string]int         `json:"byNetwork"`
	TopCountries []CountryCountResponse `json:"topCountries"`
}

func FromCreatedFlag(f *models.Flag) *CreateFlagResponse {
	return &CreateFlagResponse{
		FlagID:     f.ID.String(),
		FlagStatus: f.Status.String(),
		CreatedAt:  f.CreatedAt,
	}
}

func FromFlag(f *models.Flag) FlagResponse {
	return FlagResponse{
		FlagID:          f.ID.String(),
		EntityType:      f.EntityType.String(),
		EntityID:        f.EntityID,
		Network:         f.Network.String(),
		FlagType:        f.Type.String(),
		Severity:        f.Severity.String(),
		Reason:          f.Reason,
		FlagData:        f.Data,
		RiskScore:       f.RiskScore,
		CountryCode:     f.CountryCode,
		Region:          f.Region,
		FlagStatus:      f.Status.String(),
		Disposition:     f.Disposition.String(),
		ResolvedBy:      f.ResolvedBy,
		ResolutionNotes: f.ResolutionNotes,
		ResolutionData:  f.ResolutionData,
		ResolvedAt:      f.ResolvedAt,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

func FromListResult(res models.ListResult) *ListFlagsResponse {
	out := &ListFlagsResponse{
		Flags: make([]FlagResponse, 0, len(res.Items)),
		Pagination: Pagination{
			Total:   res.Total,
			Limit:   res.Limit,
			Offset:  res.Offset,
			HasMore: res.HasMore(),
		},
	}
	for _, f := range res.Items {
		out.Flags = append(out.Flags, FromFlag(f))
	}
	return out
}

func FromDetails(d *service.Details) *FlagDetailsResponse {
	out := &FlagDetailsResponse{
		Flag:       FromFlag(d.Flag),
		History:    make([]HistoryEntry, 0, len(d.History)),
		EntityInfo: fromEntity(d.Entity),
	}
	for _, e := range d.History {
		out.History = append(out.History, HistoryEntry{
			EventID:    e.ID.String(),
			Action:     string(e.Action),
			FromStatus: e.FromStatus.String(),
			ToStatus:   e.ToStatus.String(),
			Actor:      e.Actor,
			Notes:      e.Notes,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out
}

func fromEntity(info entity.Info) EntityInfoResponse {
	out := EntityInfoResponse{
		EntityType:   info.EntityType.String(),
		EntityID:     info.EntityID,
		Network:      info.Network.String(),
		DisplayName:  info.DisplayName,
		AddressValid: info.AddressValid,
	}
	if info.KYCStatus != nil {
		status := info.KYCStatus.String()
		out.KYCStatus = &status
	}
	return out
}

func FromReport(r analytics.Report) *AnalyticsResponse {
	out := &AnalyticsResponse{
		Summary: SummaryResponse{
			TotalFlags:     r.Summary.Total,
			ActiveFlags:    r.Summary.Active,
			ResolvedFlags:  r.Summary.Resolved,
			ClosedFlags:    r.Summary.Closed,
			EscalatedFlags: r.Summary.Escalated,
			FalsePositives: r.Summary.FalsePositive,
		},
		BySeverity:   make(map[string]int, len(r.BySeverity)),
		ByType:       make(map[string]int, len(r.ByType)),
		ByNetwork:    make(map[string]int, len(r.ByNetwork)),
		TopCountries: make([]CountryCountResponse, 0, len(r.TopCountries)),
	}
	if r.Summary.AverageRiskScore != nil {
		avg := r.Summary.AverageRiskScore.InexactFloat64()
		out.Summary.AverageRiskScore = &avg
	}
	for _, s := range domain.Severities {
		out.BySeverity[s.String()] = r.BySeverity[s]
	}
	for _, t := range domain.FlagTypes {
		out.ByType[t.String()] = r.ByType[t]
	}
	for _, n := range domain.Networks {
		out.ByNetwork[n.String()] = r.ByNetwork[n]
	}
	for _, c := range r.TopCountries {
		out.TopCountries = append(out.TopCountries, CountryCountResponse{CountryCode: c.CountryCode, Count: c.Count})
	}
	return out
}
