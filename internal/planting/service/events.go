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
	arborstrings "arbor/pkg/platform/strings"
	"arbor/pkg/platform/tx"
	"arbor/pkg/requestcontext"
)

func eventSubject(initiativeID domain.InitiativeID, id domain.EventID) string {
	return "event:" + initiativeID.String() + "/" + id.String()
}

func eventAttrs(initiativeID domain.InitiativeID, id domain.EventID) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("initiative.id", initiativeID.String()),
		attribute.String("event.id", id.String()),
	}
}

// CreateEvent schedules an event within the initiative's date window. Every
// target site must exist; duplicate site references are dropped.
func (s *Service) CreateEvent(ctx context.Context, initiativeID domain.InitiativeID, cmd models.CreateEventCommand) (_ *models.PlantingEvent, err error) {
	ctx, span := s.startSpan(ctx, "planting.CreateEvent", eventAttrs(initiativeID, cmd.ID)...)
	defer func() { endSpan(span, err) }()
	defer s.observe("create_event", time.Now())

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	cmd.TargetSites = dedupeSites(cmd.TargetSites)

	var created *models.PlantingEvent
	err = s.tx.RunInTx(tx.WithLockKey(ctx, initiativeKey(initiativeID)), func(txCtx context.Context) error {
		in, err := s.initiatives.FindByID(txCtx, initiativeID)
		if err != nil {
			return translateNotFound(err, "initiative not found", "failed to load initiative")
		}
		e, err := models.NewPlantingEvent(in, cmd, caller)
		if err != nil {
			return invalidInput(err)
		}
		for _, siteID := range e.TargetSites {
			if _, err := s.sites.FindByID(txCtx, siteID); err != nil {
				return translateNotFound(err, "planting site "+siteID.String()+" not found", "failed to load planting site")
			}
		}
		if err := s.events.Create(txCtx, e); err != nil {
			return translateCreate(err, "event "+cmd.ID.String()+" already exists in initiative", "failed to create event")
		}
		created = e
		return s.emitAudit(txCtx, audit.EventPlantingEventCreated, eventSubject(initiativeID, e.ID), "")
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, audit.EventPlantingEventCreated, eventSubject(initiativeID, created.ID),
		"date", created.Date,
		"target_sites", len(created.TargetSites),
	)
	return created, nil
}

// RegisterVolunteers signs up count volunteers. Any authenticated caller may
// register; the total never exceeds VolunteersNeeded.
func (s *Service) RegisterVolunteers(ctx context.Context, initiativeID domain.InitiativeID, id domain.EventID, count int64) (_ *models.PlantingEvent, err error) {
	ctx, span := s.startSpan(ctx, "planting.RegisterVolunteers", eventAttrs(initiativeID, id)...)
	defer func() { endSpan(span, err) }()
	defer s.observe("register_volunteers", time.Now())

	e, err := s.mutateEvent(ctx, initiativeID, id, audit.EventVolunteersRegistered,
		func(e *models.PlantingEvent, _ *models.PlantingInitiative) (string, error) {
			if err := e.RegisterVolunteers(count); err != nil {
				return "", err
			}
			return strconv.FormatInt(count, 10) + " volunteers", nil
		})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.AddVolunteers(count)
	}
	return e, nil
}

// UpdateEventStatus completes or cancels a scheduled event. Event organizer,
// initiative coordinator or coordinator role.
func (s *Service) UpdateEventStatus(ctx context.Context, initiativeID domain.InitiativeID, id domain.EventID, status models.EventStatus) (_ *models.PlantingEvent, err error) {
	ctx, span := s.startSpan(ctx, "planting.UpdateEventStatus", eventAttrs(initiativeID, id)...)
	defer func() { endSpan(span, err) }()
	defer s.observe("update_event_status", time.Now())

	caller, coordinator := requestcontext.Principal(ctx), isCoordinator(ctx)
	return s.mutateEvent(ctx, initiativeID, id, audit.EventPlantingEventStatus,
		func(e *models.PlantingEvent, in *models.PlantingInitiative) (string, error) {
			if !e.CanManage(caller, in, coordinator) {
				return "", dErrors.New(dErrors.CodeForbidden, "only the organizer or initiative coordinator may change event status")
			}
			return string(status), e.ChangeStatus(status)
		})
}

type eventMutation func(e *models.PlantingEvent, in *models.PlantingInitiative) (reason string, err error)

func (s *Service) mutateEvent(ctx context.Context, initiativeID domain.InitiativeID, id domain.EventID, event audit.AuditEvent, apply eventMutation) (*models.PlantingEvent, error) {
	if _, err := requireCaller(ctx); err != nil {
		return nil, err
	}

	var updated *models.PlantingEvent
	err := s.tx.RunInTx(tx.WithLockKey(ctx, initiativeKey(initiativeID)), func(txCtx context.Context) error {
		in, err := s.initiatives.FindByID(txCtx, initiativeID)
		if err != nil {
			return translateNotFound(err, "initiative not found", "failed to load initiative")
		}
		e, err := s.events.FindForUpdate(txCtx, initiativeID, id)
		if err != nil {
			return translateNotFound(err, "event not found", "failed to load event")
		}
		reason, err := apply(e, in)
		if err != nil {
			return invalidInput(err)
		}
		if err := s.events.Update(txCtx, e); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update event")
		}
		updated = e
		return s.emitAudit(txCtx, event, eventSubject(initiativeID, id), reason)
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, event, eventSubject(initiativeID, id),
		"status", updated.Status,
		"volunteers_registered", updated.VolunteersRegistered,
	)
	return updated, nil
}

func (s *Service) GetEvent(ctx context.Context, initiativeID domain.InitiativeID, id domain.EventID) (_ *models.PlantingEvent, err error) {
	ctx, span := s.startSpan(ctx, "planting.GetEvent", eventAttrs(initiativeID, id)...)
	defer func() { endSpan(span, err) }()
	defer s.observe("get_event", time.Now())

	var e *models.PlantingEvent
	err = s.tx.RunInTx(tx.WithLockKey(ctx, initiativeKey(initiativeID)), func(txCtx context.Context) error {
		e, err = s.events.Find(txCtx, initiativeID, id)
		if err != nil {
			return translateNotFound(err, "event not found", "failed to load event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListEvents returns the initiative's events ordered by date, then id.
func (s *Service) ListEvents(ctx context.Context, initiativeID domain.InitiativeID) (_ []*models.PlantingEvent, err error) {
	ctx, span := s.startSpan(ctx, "planting.ListEvents", attribute.String("initiative.id", initiativeID.String()))
	defer func() { endSpan(span, err) }()
	defer s.observe("list_events", time.Now())

	var events []*models.PlantingEvent
	err = s.tx.RunInTx(tx.WithLockKey(ctx, initiativeKey(initiativeID)), func(txCtx context.Context) error {
		if _, err := s.initiatives.FindByID(txCtx, initiativeID); err != nil {
			return translateNotFound(err, "initiative not found", "failed to load initiative")
		}
		events, err = s.events.ListByInitiative(txCtx, initiativeID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func dedupeSites(ids []domain.SiteID) []domain.SiteID {
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	unique := arborstrings.DedupeAndTrim(raw)
	out := make([]domain.SiteID, len(unique))
	for i, id := range unique {
		out[i] = domain.SiteID(id)
	}
	return out
}
