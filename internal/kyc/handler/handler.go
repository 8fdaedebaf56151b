package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kycgate/internal/identity"
	"kycgate/internal/kyc/models"
	"kycgate/internal/kyc/service"
	"kycgate/pkg/domain"
	"kycgate/pkg/platform/httputil"
	"kycgate/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the interface for verification operations.
type Service interface {
	Verify(ctx context.Context, req service.VerifyRequest) (*models.Verification, error)
	Get(ctx context.Context, id domain.VerificationID) (*models.Verification, error)
	List(ctx context.Context, q models.ListQuery) (models.ListResult, error)
}

// Handler wires KYC endpoints to the verification service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a KYC handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts KYC endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/kyc/verifications", h.HandleVerify)
	r.Get("/kyc/verifications", h.HandleList)
	r.Get("/kyc/verifications/{verificationId}", h.HandleGet)
}

// HandleVerify handles POST /kyc/verifications requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Verify(ctx, service.VerifyRequest{
		AccountID: req.AccountID,
		Network:   req.ParsedNetwork(),
		Type:      req.ParsedType(),
		Subject:   req.Subject(),
	})
	if err != nil {
		if vf, ok := identity.AsValidationFailure(err); ok {
			httputil.WriteJSON(w, http.StatusBadRequest, ValidationFailureResponse{
				Error:   "Invalid ID format",
				Details: vf.Details,
			})
			return
		}
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestID,
			"account_id", req.AccountID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "verification created",
		"request_id", requestID,
		"verification_id", result.ID,
		"status", result.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromVerifyResult(result))
}

// HandleGet handles GET /kyc/verifications/{verificationId} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseVerificationID(chi.URLParam(r, "verificationId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	v, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromVerification(v))
}

// HandleList handles GET /kyc/verifications requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q, err := parseListQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.List(ctx, q)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list verifications",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromListResult(res))
}
