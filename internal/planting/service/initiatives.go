package service

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"arbor/internal/planting/models"
	"arbor/pkg/domain"
	dErrors "arbor/pkg/domain-errors"
	"arbor/pkg/platform/audit"
	"arbor/pkg/platform/tx"
)

// CreateInitiative opens an active initiative coordinated by the caller.
func (s *Service) CreateInitiative(ctx context.Context, cmd models.CreateInitiativeCommand) (_ *models.PlantingInitiative, err error) {
	ctx, span := s.startSpan(ctx, "planting.CreateInitiative", attribute.String("initiative.id", cmd.ID.String()))
	defer func() { endSpan(span, err) }()
	defer s.observe("create_initiative", time.Now())

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	in, err := models.NewPlantingInitiative(cmd, caller)
	if err != nil {
		return nil, invalidInput(err)
	}

	err = s.tx.RunInTx(tx.WithLockKey(ctx, initiativeKey(cmd.ID)), func(txCtx context.Context) error {
		if err := s.initiatives.Create(txCtx, in); err != nil {
			return translateCreate(err, "initiative "+cmd.ID.String()+" already exists", "failed to create initiative")
		}
		return s.emitAudit(txCtx, audit.EventInitiativeCreated, initiativeKey(in.ID), "")
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, audit.EventInitiativeCreated, initiativeKey(in.ID), "target_count", in.TargetCount)
	return in, nil
}

// RecordProgress adds planted trees. Reaching the target completes the
// initiative; completed and cancelled initiatives accept no more progress.
func (s *Service) RecordProgress(ctx context.Context, id domain.InitiativeID, planted int64) (_ *models.PlantingInitiative, err error) {
	ctx, span := s.startSpan(ctx, "planting.RecordProgress",
		attribute.String("initiative.id", id.String()),
		attribute.Int64("trees_planted", planted),
	)
	defer func() { endSpan(span, err) }()
	defer s.observe("record_progress", time.Now())

	var completed bool
	in, err := s.mutateInitiative(ctx, id, audit.EventInitiativeProgressed, func(txCtx context.Context, in *models.PlantingInitiative) (string, error) {
		done, err := in.RecordProgress(planted)
		if err != nil {
			return "", err
		}
		if done {
			completed = true
			if err := s.emitAudit(txCtx, audit.EventInitiativeCompleted, initiativeKey(id), ""); err != nil {
				return "", err
			}
		}
		return strconv.FormatInt(planted, 10) + " trees planted", nil
	})
	if err != nil {
		return nil, err
	}
	if completed {
		s.committed(ctx, audit.EventInitiativeCompleted, initiativeKey(id), "current_count", in.CurrentCount)
		if s.metrics != nil {
			s.metrics.IncrementCompleted()
		}
	}
	return in, nil
}

// CancelInitiative ends an active initiative early.
func (s *Service) CancelInitiative(ctx context.Context, id domain.InitiativeID) (_ *models.PlantingInitiative, err error) {
	ctx, span := s.startSpan(ctx, "planting.CancelInitiative", attribute.String("initiative.id", id.String()))
	defer func() { endSpan(span, err) }()
	defer s.observe("cancel_initiative", time.Now())

	return s.mutateInitiative(ctx, id, audit.EventInitiativeCancelled, func(_ context.Context, in *models.PlantingInitiative) (string, error) {
		return "", in.Cancel()
	})
}

type initiativeMutation func(txCtx context.Context, in *models.PlantingInitiative) (reason string, err error)

func (s *Service) mutateInitiative(ctx context.Context, id domain.InitiativeID, event audit.AuditEvent, apply initiativeMutation) (*models.PlantingInitiative, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	var updated *models.PlantingInitiative
	err = s.tx.RunInTx(tx.WithLockKey(ctx, initiativeKey(id)), func(txCtx context.Context) error {
		in, err := s.initiatives.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return translateNotFound(err, "initiative not found", "failed to load initiative")
		}
		if !in.CanManage(caller, isCoordinator(ctx)) {
			return dErrors.New(dErrors.CodeForbidden, "only the initiative coordinator may modify it")
		}
		reason, err := apply(txCtx, in)
		if err != nil {
			return invalidInput(err)
		}
		if err := s.initiatives.Update(txCtx, in); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update initiative")
		}
		updated = in
		return s.emitAudit(txCtx, event, initiativeKey(id), reason)
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, event, initiativeKey(id),
		"current_count", updated.CurrentCount,
		"status", updated.Status,
	)
	return updated, nil
}

func (s *Service) GetInitiative(ctx context.Context, id domain.InitiativeID) (_ *models.PlantingInitiative, err error) {
	ctx, span := s.startSpan(ctx, "planting.GetInitiative", attribute.String("initiative.id", id.String()))
	defer func() { endSpan(span, err) }()
	defer s.observe("get_initiative", time.Now())

	var in *models.PlantingInitiative
	err = s.tx.RunInTx(tx.WithLockKey(ctx, initiativeKey(id)), func(txCtx context.Context) error {
		in, err = s.initiatives.FindByID(txCtx, id)
		if err != nil {
			return translateNotFound(err, "initiative not found", "failed to load initiative")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}
