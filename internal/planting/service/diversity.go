package service

import (
	"context"
	"errors"
	"time"

	"arbor/internal/planting/models"
	dErrors "arbor/pkg/domain-errors"
	"arbor/pkg/platform/audit"
	"arbor/pkg/platform/sentinel"
	"arbor/pkg/platform/tx"
	"arbor/pkg/requestcontext"
)

// SetDiversityGoals replaces the target percentages. Coordinator role only.
func (s *Service) SetDiversityGoals(ctx context.Context, targets []models.SpeciesTarget) (_ *models.SpeciesDiversityGoals, err error) {
	ctx, span := s.startSpan(ctx, "planting.SetDiversityGoals")
	defer func() { endSpan(span, err) }()
	defer s.observe("set_diversity_goals", time.Now())

	return s.mutateDiversity(ctx, audit.EventDiversityGoalsSet, func(g *models.SpeciesDiversityGoals) error {
		return g.ReplaceTargets(targets, requestcontext.Timestamp(ctx))
	})
}

// RecordObservedPercentages replaces the measured species mix. Coordinator
// role only; this is the feed from field surveys.
func (s *Service) RecordObservedPercentages(ctx context.Context, observed []models.SpeciesObservation) (_ *models.SpeciesDiversityGoals, err error) {
	ctx, span := s.startSpan(ctx, "planting.RecordObservedPercentages")
	defer func() { endSpan(span, err) }()
	defer s.observe("record_observed_percentages", time.Now())

	return s.mutateDiversity(ctx, audit.EventDiversityObservations, func(g *models.SpeciesDiversityGoals) error {
		return g.ReplaceObservations(observed, requestcontext.Timestamp(ctx))
	})
}

func (s *Service) mutateDiversity(ctx context.Context, event audit.AuditEvent, apply func(*models.SpeciesDiversityGoals) error) (*models.SpeciesDiversityGoals, error) {
	if _, err := requireCaller(ctx); err != nil {
		return nil, err
	}
	if !isCoordinator(ctx) {
		return nil, dErrors.New(dErrors.CodeForbidden, "coordinator role required")
	}

	var saved *models.SpeciesDiversityGoals
	err := s.tx.RunInTx(tx.WithLockKey(ctx, diversitySubject), func(txCtx context.Context) error {
		goals, err := s.diversity.GetForUpdate(txCtx)
		if errors.Is(err, sentinel.ErrNotFound) {
			goals, err = models.EmptyDiversityGoals(), nil
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load diversity goals")
		}
		if err := apply(goals); err != nil {
			return invalidInput(err)
		}
		if err := s.diversity.Save(txCtx, goals); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save diversity goals")
		}
		saved = goals
		return s.emitAudit(txCtx, event, diversitySubject, "")
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, event, diversitySubject,
		"targets", len(saved.TargetPercentages),
		"observations", len(saved.CurrentPercentages),
	)
	return saved, nil
}

// GetDiversityGoals is NotFound until goals or observations are first set.
func (s *Service) GetDiversityGoals(ctx context.Context) (_ *models.SpeciesDiversityGoals, err error) {
	ctx, span := s.startSpan(ctx, "planting.GetDiversityGoals")
	defer func() { endSpan(span, err) }()
	defer s.observe("get_diversity_goals", time.Now())

	var goals *models.SpeciesDiversityGoals
	err = s.tx.RunInTx(tx.WithLockKey(ctx, diversitySubject), func(txCtx context.Context) error {
		goals, err = s.diversity.Get(txCtx)
		if err != nil {
			return translateNotFound(err, "species diversity goals not set", "failed to load diversity goals")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return goals, nil
}
