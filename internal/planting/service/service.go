// Package service coordinates planting: candidate sites, initiatives with
// their scheduled events, and the registry-wide species diversity goals.
//
// Mutations run in one transaction keyed on the entity they change. Events
// serialize on their initiative's key so event ids stay unique per initiative.
// Reads take the same key, since memory stores apply writes before commit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"arbor/internal/planting/metrics"
	"arbor/internal/planting/models"
	"arbor/pkg/domain"
	dErrors "arbor/pkg/domain-errors"
	"arbor/pkg/platform/audit"
	"arbor/pkg/platform/sentinel"
	"arbor/pkg/platform/tx"
	"arbor/pkg/requestcontext"
)

type SiteStore interface {
	Create(ctx context.Context, site *models.PlantingSite) error
	FindByID(ctx context.Context, id domain.SiteID) (*models.PlantingSite, error)
	FindByIDForUpdate(ctx context.Context, id domain.SiteID) (*models.PlantingSite, error)
	Update(ctx context.Context, site *models.PlantingSite) error
}

type InitiativeStore interface {
	Create(ctx context.Context, in *models.PlantingInitiative) error
	FindByID(ctx context.Context, id domain.InitiativeID) (*models.PlantingInitiative, error)
	FindByIDForUpdate(ctx context.Context, id domain.InitiativeID) (*models.PlantingInitiative, error)
	Update(ctx context.Context, in *models.PlantingInitiative) error
}

type EventStore interface {
	Create(ctx context.Context, e *models.PlantingEvent) error
	Find(ctx context.Context, initiativeID domain.InitiativeID, id domain.EventID) (*models.PlantingEvent, error)
	FindForUpdate(ctx context.Context, initiativeID domain.InitiativeID, id domain.EventID) (*models.PlantingEvent, error)
	Update(ctx context.Context, e *models.PlantingEvent) error
	ListByInitiative(ctx context.Context, initiativeID domain.InitiativeID) ([]*models.PlantingEvent, error)
}

// DiversityStore holds the single goals record. Get returns
// sentinel.ErrNotFound until the first Save.
type DiversityStore interface {
	Get(ctx context.Context) (*models.SpeciesDiversityGoals, error)
	GetForUpdate(ctx context.Context) (*models.SpeciesDiversityGoals, error)
	Save(ctx context.Context, goals *models.SpeciesDiversityGoals) error
}

// SiteCache is an optional read-through cache for GetSite.
type SiteCache interface {
	Get(ctx context.Context, key string) (*models.PlantingSite, error)
	Set(ctx context.Context, key string, site *models.PlantingSite) error
	Delete(ctx context.Context, key string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Stores groups the persistence dependencies.
type Stores struct {
	Sites       SiteStore
	Initiatives InitiativeStore
	Events      EventStore
	Diversity   DiversityStore
}

type Service struct {
	sites          SiteStore
	initiatives    InitiativeStore
	events         EventStore
	diversity      DiversityStore
	tx             tx.Runner
	cache          SiteCache
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func WithSiteCache(c SiteCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func New(stores Stores, opts ...Option) *Service {
	s := &Service{
		sites:       stores.Sites,
		initiatives: stores.Initiatives,
		events:      stores.Events,
		diversity:   stores.Diversity,
		logger:      slog.Default(),
		tracer:      otel.Tracer("arbor/planting"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewSharded()
	}
	return s
}

const diversitySubject = "diversity"

func siteKey(id domain.SiteID) string             { return "site:" + id.String() }
func initiativeKey(id domain.InitiativeID) string { return "initiative:" + id.String() }

// emitAudit fails the transaction when the event cannot be recorded.
func (s *Service) emitAudit(ctx context.Context, event audit.AuditEvent, subject, reason string) error {
	if s.auditPublisher == nil {
		return nil
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    string(event),
		Subject:   subject,
		ActorID:   requestcontext.Principal(ctx).String(),
		RequestID: requestcontext.RequestID(ctx),
		Reason:    reason,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

// committed logs and counts a successful mutation.
func (s *Service) committed(ctx context.Context, event audit.AuditEvent, subject string, attrs ...any) {
	args := append([]any{
		"request_id", requestcontext.RequestID(ctx),
		"subject", subject,
		"principal", requestcontext.Principal(ctx),
	}, attrs...)
	s.logger.InfoContext(ctx, string(event), args...)
	if s.metrics != nil {
		s.metrics.IncrementMutation(string(event))
	}
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

func requireCaller(ctx context.Context) (domain.Principal, error) {
	caller := requestcontext.Principal(ctx)
	if caller.IsNil() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "authenticated caller required")
	}
	return caller, nil
}

func isCoordinator(ctx context.Context) bool {
	return requestcontext.HasRole(ctx, requestcontext.RoleCoordinator)
}

func translateNotFound(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}

func translateCreate(err error, conflictMsg, internalMsg string) error {
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		return dErrors.New(dErrors.CodeConflict, conflictMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internalMsg)
}

// invalidInput converts model invariant violations into input errors; other
// coded errors pass through.
func invalidInput(err error) error {
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return dErrors.New(dErrors.CodeInvalidInput, dErrors.Message(err))
	}
	return err
}
