package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kycgate/internal/flags/analytics"
	"kycgate/internal/flags/models"
	"kycgate/internal/flags/service"
	"kycgate/pkg/domain"
	"kycgate/pkg/platform/httputil"
	"kycgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the interface for compliance flag operations.
type Service interface {
	Create(ctx context.Context, params models.NewFlagParams) (*models.Flag, error)
	List(ctx context.Context, q models.ListQuery) (models.ListResult, error)
	GetDetails(ctx context.Context, id domain.FlagID) (*service.Details, error)
	UpdateStatus(ctx context.Context, id domain.FlagID, t models.Transition) (*models.Flag, error)
	Resolve(ctx context.Context, id domain.FlagID, req service.ResolveRequest) (*models.Flag, error)
	Analytics(ctx context.Context, filter models.Filter) analytics.Report
}

// Handler wires compliance flag endpoints to the flag service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a flag handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts flag endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/compliance/flags", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/analytics", h.HandleAnalytics)
		r.Get("/{flagId}", h.HandleGetDetails)
		r.Patch("/{flagId}/status", h.HandleUpdateStatus)
		r.Post("/{flagId}/resolve", h.HandleResolve)
	})
}

// HandleCreate handles POST /compliance/flags requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateFlagRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	f, err := h.service.Create(ctx, req.Params())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create flag",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromCreatedFlag(f))
}

// HandleList handles GET /compliance/flags requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := parseListQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.List(ctx, q)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list flags",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromListResult(res))
}

// HandleAnalytics handles GET /compliance/flags/analytics requests.
func (h *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAnalyticsFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromReport(h.service.Analytics(r.Context(), filter)))
}

// HandleGetDetails handles GET /compliance/flags/{flagId} requests.
func (h *Handler) HandleGetDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseFlagID(chi.URLParam(r, "flagId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	d, err := h.service.GetDetails(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDetails(d))
}

// HandleUpdateStatus handles PATCH /compliance/flags/{flagId}/status requests.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseFlagID(chi.URLParam(r, "flagId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	f, err := h.service.UpdateStatus(ctx, id, req.Transition())
	if err != nil {
		h.logger.InfoContext(ctx, "flag status update refused",
			"request_id", requestID,
			"flag_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromFlag(f))
}

// HandleResolve handles POST /compliance/flags/{flagId}/resolve requests.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseFlagID(chi.URLParam(r, "flagId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ResolveFlagRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	f, err := h.service.Resolve(ctx, id, req.ServiceRequest())
	if err != nil {
		h.logger.InfoContext(ctx, "flag resolution refused",
			"request_id", requestID,
			"flag_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromFlag(f))
}
