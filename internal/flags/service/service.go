// Package service manages the compliance flag lifecycle: creation, listing,
// status transitions with their audit trail, and analytics.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"kycgate/internal/flags/analytics"
	"kycgate/internal/flags/entity"
	"kycgate/internal/flags/metrics"
	"kycgate/internal/flags/models"
	"kycgate/pkg/domain"
	dErrors "kycgate/pkg/domain-errors"
	audit "kycgate/pkg/platform/audit"
	"kycgate/pkg/platform/sentinel"
	"kycgate/pkg/platform/tx"
	"kycgate/pkg/requestcontext"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100

	systemActor = "system"
)

// Store persists flags and their history.
type Store interface {
	Create(ctx context.Context, f *models.Flag) error
	FindByID(ctx context.Context, id domain.FlagID) (*models.Flag, error)
	Execute(ctx context.Context, id domain.FlagID, validate func(*models.Flag) error, mutate func(*models.Flag)) (*models.Flag, error)
	List(ctx context.Context, q models.ListQuery) (models.ListResult, error)
	ListAll(ctx context.Context, filter models.Filter) ([]*models.Flag, error)
	AppendEvent(ctx context.Context, e models.FlagAuditEvent) error
	ListEvents(ctx context.Context, flagID domain.FlagID) ([]models.FlagAuditEvent, error)
}

// AuditPublisher records compliance events. Emit failures fail the operation.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// EntityResolver describes the entity a flag points at.
type EntityResolver interface {
	Resolve(ctx context.Context, entityType domain.EntityType, entityID string, network domain.Network) (entity.Info, error)
}

// ResolveRequest resolves a flag. ResolutionData is optional.
type ResolveRequest struct {
	ResolvedBy      string
	ResolutionNotes string
	ResolutionData  json.RawMessage
	Disposition     domain.Disposition
}

// Details is a flag with its history and entity description.
type Details struct {
	Flag    *models.Flag
	History []models.FlagAuditEvent
	Entity  entity.Info
}

// Service manages compliance flags.
type Service struct {
	store    Store
	tx       tx.Runner
	entities EntityResolver
	auditor  AuditPublisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
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

func WithEntityResolver(r EntityResolver) Option {
	return func(s *Service) { s.entities = r }
}

// New creates a flag service.
func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	s := &Service{
		store:  store,
		tracer: otel.Tracer("kycgate/flags"),
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
	if s.entities == nil {
		s.entities = entity.NewResolver(nil)
	}
	return s, nil
}

// Create raises a new active flag. Multiple flags may exist for one entity.
//
// Errors: CodeValidation when a required field is missing or out of range.
func (s *Service) Create(ctx context.Context, params models.NewFlagParams) (*models.Flag, error) {
	ctx, span := s.tracer.Start(ctx, "flags.Create", trace.WithAttributes(
		attribute.String("flag_type", params.Type.String()),
		attribute.String("severity", params.Severity.String()),
	))
	defer span.End()

	requestID := requestcontext.RequestID(ctx)
	f, err := models.NewFlag(domain.NewFlagID(), params, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "invalid flag")
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.emit(txCtx, audit.Event{
			Subject:  f.ID.String(),
			Action:   audit.EventFlagCreated,
			Decision: f.Status.String(),
			Reason:   f.Reason,
			ActorID:  systemActor,
		}); err != nil {
			return fmt.Errorf("emit audit event: %w", err)
		}
		if err := s.store.Create(txCtx, f); err != nil {
			return fmt.Errorf("create flag: %w", err)
		}
		if err := s.store.AppendEvent(txCtx, f.CreatedEvent(systemActor)); err != nil {
			return fmt.Errorf("append flag event: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		s.logger.ErrorContext(ctx, "failed to create flag",
			"request_id", requestID,
			"flag_id", f.ID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create flag")
	}

	s.metrics.IncrementCreated(f.Type.String(), f.Severity.String())
	s.logger.InfoContext(ctx, "compliance flag created",
		"request_id", requestID,
		"flag_id", f.ID,
		"entity_type", f.EntityType,
		"network", f.Network,
		"flag_type", f.Type,
		"severity", f.Severity,
	)
	return f, nil
}

// List returns a page of flags. Limits are clamped to [1, MaxListLimit] with
// zero selecting DefaultListLimit; unknown sort fields fall back to createdAt.
func (s *Service) List(ctx context.Context, q models.ListQuery) (models.ListResult, error) {
	if q.Limit == 0 {
		q.Limit = DefaultListLimit
	}
	q.Limit = min(max(q.Limit, 1), MaxListLimit)
	q.Offset = max(q.Offset, 0)
	q.SortBy = models.SortFieldOrDefault(string(q.SortBy))
	q.Order = models.SortOrderOrDefault(string(q.Order))

	res, err := s.store.List(ctx, q)
	if err != nil {
		return models.ListResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list flags")
	}
	return res, nil
}

// GetDetails loads a flag, its history and its entity description. History
// and entity lookups run concurrently; an entity lookup failure degrades to
// the address-only description.
//
// Errors: CodeNotFound when no flag has the id.
func (s *Service) GetDetails(ctx context.Context, id domain.FlagID) (*Details, error) {
	ctx, span := s.tracer.Start(ctx, "flags.GetDetails")
	defer span.End()

	f, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreErr(err, "failed to load flag")
	}

	d := &Details{Flag: f}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		history, err := s.store.ListEvents(gctx, id)
		if err != nil {
			return err
		}
		d.History = history
		return nil
	})
	g.Go(func() error {
		info, err := s.entities.Resolve(gctx, f.EntityType, f.EntityID, f.Network)
		if err != nil {
			s.logger.WarnContext(ctx, "entity lookup failed",
				"request_id", requestcontext.RequestID(ctx),
				"flag_id", id,
				"error", err,
			)
		}
		d.Entity = info
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load flag history")
	}
	return d, nil
}

// UpdateStatus moves a flag to t.To. Resolution fields are only written for
// resolved and closed targets.
//
// Errors: CodeInvalidInput for unknown statuses, CodeValidation for missing
// resolution fields, CodeNotFound for unknown flags and CodeConflict when the
// state machine forbids the transition.
func (s *Service) UpdateStatus(ctx context.Context, id domain.FlagID, t models.Transition) (*models.Flag, error) {
	return s.transition(ctx, id, t, t.ResolvedBy)
}

// Resolve moves a flag to resolved with optional structured resolution data.
func (s *Service) Resolve(ctx context.Context, id domain.FlagID, req ResolveRequest) (*models.Flag, error) {
	return s.transition(ctx, id, models.Transition{
		To:              domain.FlagStatusResolved,
		ResolvedBy:      req.ResolvedBy,
		ResolutionNotes: req.ResolutionNotes,
		ResolutionData:  req.ResolutionData,
		Disposition:     req.Disposition,
	}, req.ResolvedBy)
}

func (s *Service) transition(ctx context.Context, id domain.FlagID, t models.Transition, actor string) (*models.Flag, error) {
	ctx, span := s.tracer.Start(ctx, "flags.Transition", trace.WithAttributes(
		attribute.String("flag_id", id.String()),
		attribute.String("to", t.To.String()),
	))
	defer span.End()

	if err := t.Validate(); err != nil {
		return nil, err
	}

	requestID := requestcontext.RequestID(ctx)
	now := requestcontext.Now(ctx)
	var (
		event   models.FlagAuditEvent
		from    domain.FlagStatus
		updated *models.Flag
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		updated, err = s.store.Execute(txCtx, id,
			func(f *models.Flag) error {
				from = f.Status
				return f.CanTransition(t)
			},
			func(f *models.Flag) {
				event = f.ApplyTransition(t, actor, now)
			},
		)
		if err != nil {
			return err
		}
		if err := s.store.AppendEvent(txCtx, event); err != nil {
			return fmt.Errorf("append flag event: %w", err)
		}
		action := audit.EventFlagStatusChanged
		if t.To == domain.FlagStatusResolved {
			action = audit.EventFlagResolved
		}
		if err := s.emit(txCtx, audit.Event{
			Subject:  id.String(),
			Action:   action,
			Decision: t.To.String(),
			Reason:   t.ResolutionNotes,
			ActorID:  event.Actor,
		}); err != nil {
			return fmt.Errorf("emit audit event: %w", err)
		}
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			s.metrics.IncrementRejectedTransition(from.String(), t.To.String())
			return nil, dErrors.New(dErrors.CodeConflict, err.Error())
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "flag not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition failed")
		s.logger.ErrorContext(ctx, "failed to transition flag",
			"request_id", requestID,
			"flag_id", id,
			"to", t.To,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update flag status")
	}

	s.metrics.IncrementTransition(from.String(), t.To.String())
	s.logger.InfoContext(ctx, "compliance flag status changed",
		"request_id", requestID,
		"flag_id", id,
		"from", from,
		"to", t.To,
		"actor", event.Actor,
	)
	return updated, nil
}

// Analytics aggregates every flag matching the filter. A store failure yields
// an empty report rather than an error.
func (s *Service) Analytics(ctx context.Context, filter models.Filter) analytics.Report {
	ctx, span := s.tracer.Start(ctx, "flags.Analytics")
	defer span.End()

	flags, err := s.store.ListAll(ctx, filter)
	if err != nil {
		span.RecordError(err)
		s.metrics.IncrementAnalyticsDegraded()
		s.logger.WarnContext(ctx, "flag analytics degraded to empty report",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return analytics.Empty()
	}
	return analytics.Aggregate(flags)
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditor == nil {
		return nil
	}
	return s.auditor.Emit(ctx, event)
}

func (s *Service) mapStoreErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "flag not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
