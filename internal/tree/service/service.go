// Package service implements the tree registry: registration, measurement and
// status updates, ownership transfer and the per-tree history log.
//
// Every mutation runs in one transaction that loads the tree, checks the
// caller owns it, writes the new state, appends exactly one history record and
// emits one audit event. A failure anywhere leaves no partial state.
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

	"arbor/internal/tree/metrics"
	"arbor/internal/tree/models"
	"arbor/pkg/domain"
	dErrors "arbor/pkg/domain-errors"
	"arbor/pkg/platform/audit"
	"arbor/pkg/platform/sentinel"
	"arbor/pkg/platform/tx"
	"arbor/pkg/requestcontext"
)

type TreeStore interface {
	Create(ctx context.Context, t *models.Tree) error
	FindByID(ctx context.Context, id domain.TreeID) (*models.Tree, error)
	FindByIDForUpdate(ctx context.Context, id domain.TreeID) (*models.Tree, error)
	Update(ctx context.Context, t *models.Tree) error
}

type HistoryStore interface {
	Append(ctx context.Context, rec *models.HistoryRecord) error
	Get(ctx context.Context, treeID domain.TreeID, sequence int64) (*models.HistoryRecord, error)
	Count(ctx context.Context, treeID domain.TreeID) (int64, error)
	List(ctx context.Context, treeID domain.TreeID) ([]*models.HistoryRecord, error)
}

// Cache is an optional read-through cache for GetTree. Get returns
// sentinel.ErrNotFound on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*models.Tree, error)
	Set(ctx context.Context, key string, t *models.Tree) error
	Delete(ctx context.Context, key string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	trees          TreeStore
	history        HistoryStore
	tx             tx.Runner
	cache          Cache
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

// WithTx sets the transaction runner. Defaults to an in-memory sharded runner.
func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func New(trees TreeStore, history HistoryStore, opts ...Option) *Service {
	s := &Service{
		trees:   trees,
		history: history,
		logger:  slog.Default(),
		tracer:  otel.Tracer("arbor/tree"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewSharded()
	}
	return s
}

func lockKey(id domain.TreeID) string {
	return "tree:" + id.String()
}

// Register creates a tree owned by the caller and records its registration.
func (s *Service) Register(ctx context.Context, cmd models.RegisterTreeCommand) (_ *models.Tree, err error) {
	ctx, span := s.startSpan(ctx, "tree.Register", cmd.ID)
	defer func() { endSpan(span, err) }()
	start := time.Now()
	defer s.observe("register", start)

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Timestamp(ctx)

	t, err := models.NewTree(cmd.ID, caller, cmd.Species, cmd.Location, cmd.Height, cmd.Diameter,
		cmd.Condition, cmd.PlantingDate, now)
	if err != nil {
		return nil, invalidInput(err)
	}

	err = s.tx.RunInTx(tx.WithLockKey(ctx, lockKey(cmd.ID)), func(txCtx context.Context) error {
		if err := s.trees.Create(txCtx, t); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.Newf(dErrors.CodeConflict, "tree %s already exists", cmd.ID)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tree")
		}
		rec := models.NewHistoryRecord(t.ID, models.UpdateRegistration, caller, now,
			"", t.Condition, models.RegistrationNote)
		if err := s.appendHistory(txCtx, rec); err != nil {
			return err
		}
		return s.emitAudit(txCtx, audit.EventTreeRegistered, t.ID, "")
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, string(audit.EventTreeRegistered),
		"request_id", requestcontext.RequestID(ctx),
		"tree_id", t.ID,
		"principal", caller,
		"species", t.Species,
	)
	if s.metrics != nil {
		s.metrics.IncrementRegistered()
		s.metrics.IncrementMutation(string(models.UpdateRegistration))
	}
	return t, nil
}

// Update replaces height, diameter and condition. Owner only.
func (s *Service) Update(ctx context.Context, id domain.TreeID, cmd models.UpdateTreeCommand) (_ *models.Tree, err error) {
	ctx, span := s.startSpan(ctx, "tree.Update", id)
	defer func() { endSpan(span, err) }()
	defer s.observe("update", time.Now())

	return s.mutate(ctx, id, audit.EventTreeUpdated, func(t *models.Tree, caller domain.Principal, now domain.Timestamp) (*models.HistoryRecord, error) {
		previous := t.Condition
		if err := t.ApplyMeasurement(cmd.Height, cmd.Diameter, cmd.Condition, now); err != nil {
			return nil, err
		}
		return models.NewHistoryRecord(t.ID, models.UpdateMeasurement, caller, now, previous, t.Condition, cmd.Notes), nil
	})
}

// UpdateStatus moves the tree to status. Owner only; the condition is
// carried unchanged into the history record.
func (s *Service) UpdateStatus(ctx context.Context, id domain.TreeID, status models.Status, notes string) (_ *models.Tree, err error) {
	ctx, span := s.startSpan(ctx, "tree.UpdateStatus", id)
	defer func() { endSpan(span, err) }()
	defer s.observe("update_status", time.Now())

	return s.mutate(ctx, id, audit.EventTreeStatusChanged, func(t *models.Tree, caller domain.Principal, now domain.Timestamp) (*models.HistoryRecord, error) {
		if err := t.ChangeStatus(status, now); err != nil {
			return nil, err
		}
		return models.NewHistoryRecord(t.ID, models.UpdateStatusChange, caller, now, t.Condition, t.Condition, notes), nil
	})
}

// TransferOwnership hands the tree to newOwner. Owner only.
func (s *Service) TransferOwnership(ctx context.Context, id domain.TreeID, newOwner domain.Principal) (_ *models.Tree, err error) {
	ctx, span := s.startSpan(ctx, "tree.TransferOwnership", id)
	defer func() { endSpan(span, err) }()
	defer s.observe("transfer", time.Now())

	return s.mutate(ctx, id, audit.EventTreeTransferred, func(t *models.Tree, caller domain.Principal, now domain.Timestamp) (*models.HistoryRecord, error) {
		previousOwner := t.Owner
		if err := t.TransferTo(newOwner, now); err != nil {
			return nil, err
		}
		notes := "Transferred from " + previousOwner.String() + " to " + newOwner.String()
		return models.NewHistoryRecord(t.ID, models.UpdateTransfer, caller, now, t.Condition, t.Condition, notes), nil
	})
}

type mutation func(t *models.Tree, caller domain.Principal, now domain.Timestamp) (*models.HistoryRecord, error)

// mutate is the shared owner-only update path: lock, authorize, apply, persist
// the tree and its history record, emit the audit event.
func (s *Service) mutate(ctx context.Context, id domain.TreeID, event audit.AuditEvent, apply mutation) (*models.Tree, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Timestamp(ctx)

	var (
		updated *models.Tree
		rec     *models.HistoryRecord
	)
	err = s.tx.RunInTx(tx.WithLockKey(ctx, lockKey(id)), func(txCtx context.Context) error {
		t, err := s.trees.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return translateNotFound(err, "tree not found", "failed to load tree")
		}
		if !t.IsOwnedBy(caller) {
			return dErrors.New(dErrors.CodeForbidden, "only the tree owner may modify it")
		}
		rec, err = apply(t, caller, now)
		if err != nil {
			return invalidInput(err)
		}
		if err := s.trees.Update(txCtx, t); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update tree")
		}
		if err := s.appendHistory(txCtx, rec); err != nil {
			return err
		}
		updated = t
		return s.emitAudit(txCtx, event, t.ID, rec.Notes)
	})
	// Invalidate on failure too, so no cached copy outlives a rollback.
	s.invalidate(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, string(event),
		"request_id", requestcontext.RequestID(ctx),
		"tree_id", id,
		"principal", caller,
		"sequence", rec.Sequence,
	)
	if s.metrics != nil {
		s.metrics.IncrementMutation(string(rec.UpdateType))
	}
	return updated, nil
}

// Get returns the tree, reading through the cache when one is configured.
func (s *Service) Get(ctx context.Context, id domain.TreeID) (_ *models.Tree, err error) {
	ctx, span := s.startSpan(ctx, "tree.Get", id)
	defer func() { endSpan(span, err) }()
	defer s.observe("get", time.Now())

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id.String())
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "tree cache read failed",
				"request_id", requestcontext.RequestID(ctx),
				"tree_id", id,
				"error", err,
			)
		}
	}

	var t *models.Tree
	err = s.read(ctx, id, func(txCtx context.Context) error {
		found, err := s.trees.FindByID(txCtx, id)
		if err != nil {
			return translateNotFound(err, "tree not found", "failed to load tree")
		}
		t = found
		s.fill(txCtx, id, found)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// HistoryRecord returns record sequence of the tree's history.
func (s *Service) HistoryRecord(ctx context.Context, id domain.TreeID, sequence int64) (rec *models.HistoryRecord, err error) {
	err = s.read(ctx, id, func(txCtx context.Context) error {
		if err := s.requireTree(txCtx, id); err != nil {
			return err
		}
		rec, err = s.history.Get(txCtx, id, sequence)
		if err != nil {
			return translateNotFound(err, "history record not found", "failed to load history record")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// HistoryCount returns the number of history records, which is also the
// next sequence number. Unknown trees are NotFound rather than zero.
func (s *Service) HistoryCount(ctx context.Context, id domain.TreeID) (n int64, err error) {
	err = s.read(ctx, id, func(txCtx context.Context) error {
		if err := s.requireTree(txCtx, id); err != nil {
			return err
		}
		n, err = s.history.Count(txCtx, id)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count history")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// History lists every record in sequence order.
func (s *Service) History(ctx context.Context, id domain.TreeID) (records []*models.HistoryRecord, err error) {
	err = s.read(ctx, id, func(txCtx context.Context) error {
		if err := s.requireTree(txCtx, id); err != nil {
			return err
		}
		records, err = s.history.List(txCtx, id)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list history")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// read runs fn on the tree's lock key, so memory stores never expose the
// writes of a transaction that has not finished.
func (s *Service) read(ctx context.Context, id domain.TreeID, fn func(txCtx context.Context) error) error {
	return s.tx.RunInTx(tx.WithLockKey(ctx, lockKey(id)), fn)
}

func (s *Service) requireTree(ctx context.Context, id domain.TreeID) error {
	if _, err := s.trees.FindByID(ctx, id); err != nil {
		return translateNotFound(err, "tree not found", "failed to load tree")
	}
	return nil
}

func (s *Service) fill(ctx context.Context, id domain.TreeID, t *models.Tree) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, id.String(), t); err != nil {
		s.logger.WarnContext(ctx, "tree cache write failed",
			"request_id", requestcontext.RequestID(ctx),
			"tree_id", id,
			"error", err,
		)
	}
}

func (s *Service) appendHistory(ctx context.Context, rec *models.HistoryRecord) error {
	if err := s.history.Append(ctx, rec); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append tree history")
	}
	return nil
}

// emitAudit fails the transaction when the event cannot be recorded.
func (s *Service) emitAudit(ctx context.Context, event audit.AuditEvent, id domain.TreeID, reason string) error {
	if s.auditPublisher == nil {
		return nil
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    string(event),
		Subject:   lockKey(id),
		ActorID:   requestcontext.Principal(ctx).String(),
		RequestID: requestcontext.RequestID(ctx),
		Reason:    reason,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, id domain.TreeID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id.String()); err != nil {
		s.logger.WarnContext(ctx, "tree cache invalidation failed",
			"request_id", requestcontext.RequestID(ctx),
			"tree_id", id,
			"error", err,
		)
	}
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
	}
}

func (s *Service) startSpan(ctx context.Context, name string, id domain.TreeID) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("tree.id", id.String())))
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

func translateNotFound(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
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
