// Package service orchestrates KYC verifications: document validation,
// watchlist screening, risk scoring and outcome resolution, then persistence.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kycgate/internal/identity"
	"kycgate/internal/kyc/metrics"
	"kycgate/internal/kyc/models"
	"kycgate/internal/risk"
	"kycgate/internal/screening"
	"kycgate/pkg/domain"
	dErrors "kycgate/pkg/domain-errors"
	audit "kycgate/pkg/platform/audit"
	"kycgate/pkg/platform/sentinel"
	"kycgate/pkg/platform/tx"
	"kycgate/pkg/requestcontext"
)

const (
	DefaultListLimit = 50
	DefaultMaxLimit  = 100
)

// Store persists verification records.
type Store interface {
	Create(ctx context.Context, v *models.Verification) error
	FindByID(ctx context.Context, id domain.VerificationID) (*models.Verification, error)
	List(ctx context.Context, q models.ListQuery) (models.ListResult, error)
}

// AuditPublisher records compliance events. Emit failures fail the operation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Fingerprinter derives the subject hash stored with each verification.
type Fingerprinter interface {
	Subject(s identity.Subject) string
}

// VerifyRequest is a validated verification request.
type VerifyRequest struct {
	AccountID string
	Network   domain.Network
	Type      domain.VerificationType
	Subject   identity.Subject
}

// Service runs verifications and serves verification lookups.
type Service struct {
	store       Store
	tx          tx.Runner
	validator   *identity.Validator
	screener    screening.Provider
	scorer      *risk.Scorer
	fingerprint Fingerprinter
	auditor     AuditPublisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	maxLimit    int
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithTxRunner(r tx.Runner) Option {
	return func(s *Service) { s.tx = r }
}

func WithFingerprinter(f Fingerprinter) Option {
	return func(s *Service) { s.fingerprint = f }
}

// WithMaxListLimit caps the page size of List.
func WithMaxListLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxLimit = limit
		}
	}
}

// New creates a verification service. The in-memory lock runner is used when
// no transaction runner is supplied.
func New(store Store, validator *identity.Validator, screener screening.Provider, scorer *risk.Scorer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if validator == nil || screener == nil || scorer == nil {
		return nil, errors.New("validator, screener and scorer are required")
	}
	s := &Service{
		store:     store,
		validator: validator,
		screener:  screener,
		scorer:    scorer,
		maxLimit:  DefaultMaxLimit,
		tracer:    otel.Tracer("kycgate/kyc"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tx == nil {
		s.tx = tx.NewLockRunner()
	}
	if s.fingerprint == nil {
		fp, err := identity.NewFingerprinter("")
		if err != nil {
			return nil, err
		}
		s.fingerprint = fp
	}
	return s, nil
}

// Verify validates, screens and scores a subject and persists the outcome.
//
// A document format failure returns a *identity.ValidationFailure and
// persists nothing. Screening and scoring never run for invalid documents.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*models.Verification, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveVerifyLatency(time.Since(start)) }()

	ctx, span := s.tracer.Start(ctx, "kyc.Verify", trace.WithAttributes(
		attribute.String("network", req.Network.String()),
		attribute.String("verification_type", req.Type.String()),
	))
	defer span.End()

	requestID := requestcontext.RequestID(ctx)
	id := domain.NewVerificationID()
	subjectHash := s.fingerprint.Subject(req.Subject)

	validation := s.validator.Validate(req.Subject)
	if !validation.Valid {
		s.metrics.IncrementValidationFailure()
		span.SetAttributes(attribute.Bool("documents_valid", false))
		s.logger.InfoContext(ctx, "verification rejected: invalid document format",
			"request_id", requestID,
			"subject_hash", subjectHash,
			"errors", validation.Errors,
		)
		return nil, validation.Err()
	}

	screen, err := s.screen(ctx, req.Subject)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "screening failed")
		s.logger.ErrorContext(ctx, "watchlist screening failed",
			"request_id", requestID,
			"provider", s.screener.Name(),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "watchlist screening failed")
	}

	assessment := s.scorer.Score(req.Subject, screen)
	status := risk.Resolve(assessment.Score, validation)
	level := risk.LevelFor(assessment.Score)
	span.SetAttributes(
		attribute.Float64("risk_score", assessment.Score),
		attribute.String("status", status.String()),
	)

	v := models.NewVerification(id, req.AccountID, req.Network, req.Type, req.Subject, subjectHash, models.Outcome{
		Status:           status,
		Provider:         screen.Provider,
		Score:            assessment.Score,
		RiskLevel:        level,
		Notes:            buildNotes(validation, screen, assessment, status),
		ScreeningDetails: screen.Details,
	}, requestcontext.Now(ctx))

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		// audit first: the in-memory stores cannot roll back an insert
		if err := s.emit(txCtx, audit.Event{
			Subject:       v.ID.String(),
			Action:        audit.EventVerificationCompleted,
			Decision:      v.Status.String(),
			Reason:        v.RiskLevel.String(),
			SubjectIDHash: subjectHash,
			ActorID:       v.AccountID,
		}); err != nil {
			return fmt.Errorf("emit audit event: %w", err)
		}
		if err := s.store.Create(txCtx, v); err != nil {
			return fmt.Errorf("create verification: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.logger.ErrorContext(ctx, "failed to persist verification",
			"request_id", requestID,
			"verification_id", v.ID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist verification")
	}

	s.metrics.IncrementOutcome(v.Status.String(), v.RiskLevel.String())
	s.metrics.ObserveRiskScore(assessment.Score)
	s.logger.InfoContext(ctx, "verification completed",
		"request_id", requestID,
		"verification_id", v.ID,
		"account_id", v.AccountID,
		"status", v.Status,
		"risk_score", assessment.Score,
		"risk_level", v.RiskLevel,
		"provider", v.Provider,
	)
	return v, nil
}

func (s *Service) screen(ctx context.Context, subject identity.Subject) (screening.Result, error) {
	ctx, span := s.tracer.Start(ctx, "kyc.Screen", trace.WithAttributes(
		attribute.String("provider", s.screener.Name()),
	))
	defer span.End()

	res, err := s.screener.Screen(ctx, screening.Subject{
		FirstName:   subject.FirstName,
		LastName:    subject.LastName,
		DateOfBirth: subject.DateOfBirth,
		Nationality: subject.Nationality,
	})
	if err != nil {
		return screening.Result{}, err
	}
	if res.Provider == "" {
		res.Provider = s.screener.Name()
	}
	span.SetAttributes(attribute.Bool("hit", res.Hit))
	return res, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditor == nil {
		return nil
	}
	return s.auditor.Emit(ctx, event)
}

// Get returns one verification.
//
// Errors: CodeNotFound when no verification has the id.
func (s *Service) Get(ctx context.Context, id domain.VerificationID) (*models.Verification, error) {
	v, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	return v, nil
}

// List returns a page of verifications, newest first. A non-positive limit
// selects the default; limits above the configured maximum are capped.
func (s *Service) List(ctx context.Context, q models.ListQuery) (models.ListResult, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	q.Limit = min(q.Limit, s.maxLimit)
	q.Offset = max(q.Offset, 0)

	res, err := s.store.List(ctx, q)
	if err != nil {
		return models.ListResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verifications")
	}
	return res, nil
}

// buildNotes summarizes how the outcome was reached. The rejection reason
// is only recoverable from here, not from the risk level.
func buildNotes(validation identity.Result, screen screening.Result, a risk.Assessment, status domain.VerificationStatus) string {
	var b strings.Builder

	fields := make([]string, 0, len(validation.FieldResults))
	for field := range validation.FieldResults {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	if len(fields) == 0 {
		b.WriteString("No identity numbers supplied.")
	} else {
		fmt.Fprintf(&b, "Document validation passed (%s).", strings.Join(fields, ", "))
	}

	if screen.Hit {
		fmt.Fprintf(&b, " Watchlist screening flagged by %s: %s.", screen.Provider, strings.Join(screen.Details, "; "))
	} else {
		fmt.Fprintf(&b, " Watchlist screening clear (%s).", screen.Provider)
	}

	fmt.Fprintf(&b, " Risk score %s (%s).", formatScore(a.Score), risk.LevelFor(a.Score))
	switch status {
	case domain.VerificationStatusRejected:
		b.WriteString(" Rejected: risk score at or above rejection threshold.")
	case domain.VerificationStatusPending:
		b.WriteString(" Manual review required.")
	}
	return b.String()
}

func formatScore(score float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", score), "0"), ".")
}
