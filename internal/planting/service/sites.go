package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"arbor/internal/planting/models"
	"arbor/pkg/domain"
	dErrors "arbor/pkg/domain-errors"
	"arbor/pkg/platform/audit"
	"arbor/pkg/platform/sentinel"
	arborstrings "arbor/pkg/platform/strings"
	"arbor/pkg/platform/tx"
	"arbor/pkg/requestcontext"
)

// RegisterSite records a candidate site with the default priority for its
// type and sun exposure.
func (s *Service) RegisterSite(ctx context.Context, cmd models.RegisterSiteCommand) (_ *models.PlantingSite, err error) {
	ctx, span := s.startSpan(ctx, "planting.RegisterSite", attribute.String("site.id", cmd.ID.String()))
	defer func() { endSpan(span, err) }()
	defer s.observe("register_site", time.Now())

	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	site, err := models.NewPlantingSite(cmd.ID, cmd.Location, cmd.SiteType, cmd.SoilType,
		cmd.SunExposure, cmd.AvailableSpace, caller, requestcontext.Timestamp(ctx))
	if err != nil {
		return nil, invalidInput(err)
	}

	err = s.tx.RunInTx(tx.WithLockKey(ctx, siteKey(cmd.ID)), func(txCtx context.Context) error {
		if err := s.sites.Create(txCtx, site); err != nil {
			return translateCreate(err, "planting site "+cmd.ID.String()+" already exists", "failed to create planting site")
		}
		return s.emitAudit(txCtx, audit.EventSiteRegistered, siteKey(site.ID), "")
	})
	if err != nil {
		return nil, err
	}
	s.committed(ctx, audit.EventSiteRegistered, siteKey(site.ID), "priority_score", site.PriorityScore)
	return site, nil
}

// UpdateSitePriority sets the score. Site creator or coordinator role.
func (s *Service) UpdateSitePriority(ctx context.Context, id domain.SiteID, score int) (_ *models.PlantingSite, err error) {
	ctx, span := s.startSpan(ctx, "planting.UpdateSitePriority", attribute.String("site.id", id.String()))
	defer func() { endSpan(span, err) }()
	defer s.observe("update_site_priority", time.Now())

	return s.mutateSite(ctx, id, audit.EventSitePriorityUpdated, "priority "+strconv.Itoa(score), func(site *models.PlantingSite) error {
		return site.SetPriority(score)
	})
}

// SetRecommendedSpecies replaces the ordered species list. Names are trimmed
// and case-insensitive duplicates dropped.
func (s *Service) SetRecommendedSpecies(ctx context.Context, id domain.SiteID, species []string) (_ *models.PlantingSite, err error) {
	ctx, span := s.startSpan(ctx, "planting.SetRecommendedSpecies", attribute.String("site.id", id.String()))
	defer func() { endSpan(span, err) }()
	defer s.observe("set_recommended_species", time.Now())

	normalized := arborstrings.DedupeFold(species)
	for _, name := range normalized {
		if err := domain.CheckText("species", name, domain.MaxNameLength); err != nil {
			return nil, err
		}
	}
	return s.mutateSite(ctx, id, audit.EventSiteSpeciesUpdated, "", func(site *models.PlantingSite) error {
		return site.SetRecommendedSpecies(normalized)
	})
}

// UpdateSiteStatus walks the site state machine.
func (s *Service) UpdateSiteStatus(ctx context.Context, id domain.SiteID, status models.SiteStatus) (_ *models.PlantingSite, err error) {
	ctx, span := s.startSpan(ctx, "planting.UpdateSiteStatus", attribute.String("site.id", id.String()))
	defer func() { endSpan(span, err) }()
	defer s.observe("update_site_status", time.Now())

	return s.mutateSite(ctx, id, audit.EventSiteStatusChanged, string(status), func(site *models.PlantingSite) error {
		return site.ChangeStatus(status)
	})
}

func (s *Service) mutateSite(ctx context.Context, id domain.SiteID, event audit.AuditEvent, reason string, apply func(*models.PlantingSite) error) (*models.PlantingSite, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	var updated *models.PlantingSite
	err = s.tx.RunInTx(tx.WithLockKey(ctx, siteKey(id)), func(txCtx context.Context) error {
		site, err := s.sites.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return translateNotFound(err, "planting site not found", "failed to load planting site")
		}
		if !site.CanAdminister(caller, isCoordinator(ctx)) {
			return dErrors.New(dErrors.CodeForbidden, "only the site creator or a coordinator may modify it")
		}
		if err := apply(site); err != nil {
			return invalidInput(err)
		}
		if err := s.sites.Update(txCtx, site); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update planting site")
		}
		updated = site
		return s.emitAudit(txCtx, event, siteKey(id), reason)
	})
	s.invalidateSite(ctx, id)
	if err != nil {
		return nil, err
	}

	s.committed(ctx, event, siteKey(id), "status", updated.Status)
	return updated, nil
}

// GetSite reads through the site cache when one is configured.
func (s *Service) GetSite(ctx context.Context, id domain.SiteID) (_ *models.PlantingSite, err error) {
	ctx, span := s.startSpan(ctx, "planting.GetSite", attribute.String("site.id", id.String()))
	defer func() { endSpan(span, err) }()
	defer s.observe("get_site", time.Now())

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id.String())
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "site cache read failed",
				"request_id", requestcontext.RequestID(ctx),
				"site_id", id,
				"error", err,
			)
		}
	}

	var site *models.PlantingSite
	err = s.tx.RunInTx(tx.WithLockKey(ctx, siteKey(id)), func(txCtx context.Context) error {
		found, err := s.sites.FindByID(txCtx, id)
		if err != nil {
			return translateNotFound(err, "planting site not found", "failed to load planting site")
		}
		site = found
		if s.cache == nil {
			return nil
		}
		if err := s.cache.Set(txCtx, id.String(), found); err != nil {
			s.logger.WarnContext(ctx, "site cache write failed",
				"request_id", requestcontext.RequestID(ctx),
				"site_id", id,
				"error", err,
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return site, nil
}

func (s *Service) invalidateSite(ctx context.Context, id domain.SiteID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id.String()); err != nil {
		s.logger.WarnContext(ctx, "site cache invalidation failed",
			"request_id", requestcontext.RequestID(ctx),
			"site_id", id,
			"error", err,
		)
	}
}
