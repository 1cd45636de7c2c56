package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"arbor/internal/planting/models"
	"arbor/pkg/domain"
	dErrors "arbor/pkg/domain-errors"
	"arbor/pkg/platform/httputil"
	"arbor/pkg/requestcontext"
)

// Service is the planting coordinator as seen by HTTP.
type Service interface {
	RegisterSite(ctx context.Context, cmd models.RegisterSiteCommand) (*models.PlantingSite, error)
	GetSite(ctx context.Context, id domain.SiteID) (*models.PlantingSite, error)
	UpdateSitePriority(ctx context.Context, id domain.SiteID, score int) (*models.PlantingSite, error)
	SetRecommendedSpecies(ctx context.Context, id domain.SiteID, species []string) (*models.PlantingSite, error)
	UpdateSiteStatus(ctx context.Context, id domain.SiteID, status models.SiteStatus) (*models.PlantingSite, error)
	CreateInitiative(ctx context.Context, cmd models.CreateInitiativeCommand) (*models.PlantingInitiative, error)
	GetInitiative(ctx context.Context, id domain.InitiativeID) (*models.PlantingInitiative, error)
	RecordProgress(ctx context.Context, id domain.InitiativeID, planted int64) (*models.PlantingInitiative, error)
	CancelInitiative(ctx context.Context, id domain.InitiativeID) (*models.PlantingInitiative, error)
	CreateEvent(ctx context.Context, initiativeID domain.InitiativeID, cmd models.CreateEventCommand) (*models.PlantingEvent, error)
	GetEvent(ctx context.Context, initiativeID domain.InitiativeID, id domain.EventID) (*models.PlantingEvent, error)
	ListEvents(ctx context.Context, initiativeID domain.InitiativeID) ([]*models.PlantingEvent, error)
	RegisterVolunteers(ctx context.Context, initiativeID domain.InitiativeID, id domain.EventID, count int64) (*models.PlantingEvent, error)
	UpdateEventStatus(ctx context.Context, initiativeID domain.InitiativeID, id domain.EventID, status models.EventStatus) (*models.PlantingEvent, error)
	SetDiversityGoals(ctx context.Context, targets []models.SpeciesTarget) (*models.SpeciesDiversityGoals, error)
	RecordObservedPercentages(ctx context.Context, observed []models.SpeciesObservation) (*models.SpeciesDiversityGoals, error)
	GetDiversityGoals(ctx context.Context) (*models.SpeciesDiversityGoals, error)
}

type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register mounts the site, initiative and diversity routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/sites", func(r chi.Router) {
		r.Post("/", h.handleRegisterSite)
		r.Get("/{siteID}", h.handleGetSite)
		r.Put("/{siteID}/priority", h.handleUpdatePriority)
		r.Put("/{siteID}/species", h.handleSetSpecies)
		r.Put("/{siteID}/status", h.handleUpdateSiteStatus)
	})
	r.Route("/initiatives", func(r chi.Router) {
		r.Post("/", h.handleCreateInitiative)
		r.Route("/{initiativeID}", func(r chi.Router) {
			r.Get("/", h.handleGetInitiative)
			r.Post("/progress", h.handleProgress)
			r.Post("/cancel", h.handleCancel)
			r.Post("/events", h.handleCreateEvent)
			r.Get("/events", h.handleListEvents)
			r.Get("/events/{eventID}", h.handleGetEvent)
			r.Post("/events/{eventID}/volunteers", h.handleVolunteers)
			r.Put("/events/{eventID}/status", h.handleUpdateEventStatus)
		})
	})
	r.Route("/diversity-goals", func(r chi.Router) {
		r.Get("/", h.handleGetDiversity)
		r.Put("/", h.handleSetDiversity)
		r.Put("/observed", h.handleObserved)
	})
}

// decode wraps DecodeAndPrepare with the request's own context.
func decode[T any](h *Handler, w http.ResponseWriter, r *http.Request) (*T, bool) {
	ctx := r.Context()
	return httputil.DecodeAndPrepare[T](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
}

func (h *Handler) handleRegisterSite(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[RegisterSiteRequest](h, w, r)
	if !ok {
		return
	}
	site, err := h.service.RegisterSite(r.Context(), req.cmd)
	if err != nil {
		h.fail(r.Context(), w, "failed to register planting site", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, SiteResponse{OK: true, Site: site})
}

func (h *Handler) handleGetSite(w http.ResponseWriter, r *http.Request) {
	id, ok := h.siteID(w, r)
	if !ok {
		return
	}
	site, err := h.service.GetSite(r.Context(), id)
	if err != nil {
		h.fail(r.Context(), w, "failed to get planting site", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, site)
}

func (h *Handler) handleUpdatePriority(w http.ResponseWriter, r *http.Request) {
	id, ok := h.siteID(w, r)
	if !ok {
		return
	}
	req, ok := decode[UpdatePriorityRequest](h, w, r)
	if !ok {
		return
	}
	site, err := h.service.UpdateSitePriority(r.Context(), id, *req.PriorityScore)
	h.writeSite(w, r, site, err, "failed to update site priority")
}

func (h *Handler) handleSetSpecies(w http.ResponseWriter, r *http.Request) {
	id, ok := h.siteID(w, r)
	if !ok {
		return
	}
	req, ok := decode[SetSpeciesRequest](h, w, r)
	if !ok {
		return
	}
	site, err := h.service.SetRecommendedSpecies(r.Context(), id, req.RecommendedSpecies)
	h.writeSite(w, r, site, err, "failed to set recommended species")
}

func (h *Handler) handleUpdateSiteStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.siteID(w, r)
	if !ok {
		return
	}
	req, ok := decode[UpdateSiteStatusRequest](h, w, r)
	if !ok {
		return
	}
	site, err := h.service.UpdateSiteStatus(r.Context(), id, req.status)
	h.writeSite(w, r, site, err, "failed to update site status")
}

func (h *Handler) writeSite(w http.ResponseWriter, r *http.Request, site *models.PlantingSite, err error, msg string) {
	if err != nil {
		h.fail(r.Context(), w, msg, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SiteResponse{OK: true, Site: site})
}

func (h *Handler) handleCreateInitiative(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[CreateInitiativeRequest](h, w, r)
	if !ok {
		return
	}
	in, err := h.service.CreateInitiative(r.Context(), req.cmd)
	if err != nil {
		h.fail(r.Context(), w, "failed to create initiative", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, InitiativeResponse{OK: true, Initiative: in})
}

func (h *Handler) handleGetInitiative(w http.ResponseWriter, r *http.Request) {
	id, ok := h.initiativeID(w, r)
	if !ok {
		return
	}
	in, err := h.service.GetInitiative(r.Context(), id)
	if err != nil {
		h.fail(r.Context(), w, "failed to get initiative", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, in)
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := h.initiativeID(w, r)
	if !ok {
		return
	}
	req, ok := decode[ProgressRequest](h, w, r)
	if !ok {
		return
	}
	in, err := h.service.RecordProgress(r.Context(), id, req.TreesPlanted)
	h.writeInitiative(w, r, in, err, "failed to record initiative progress")
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.initiativeID(w, r)
	if !ok {
		return
	}
	in, err := h.service.CancelInitiative(r.Context(), id)
	h.writeInitiative(w, r, in, err, "failed to cancel initiative")
}

func (h *Handler) writeInitiative(w http.ResponseWriter, r *http.Request, in *models.PlantingInitiative, err error, msg string) {
	if err != nil {
		h.fail(r.Context(), w, msg, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, InitiativeResponse{OK: true, Initiative: in})
}

func (h *Handler) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	initiativeID, ok := h.initiativeID(w, r)
	if !ok {
		return
	}
	req, ok := decode[CreateEventRequest](h, w, r)
	if !ok {
		return
	}
	e, err := h.service.CreateEvent(r.Context(), initiativeID, req.cmd)
	if err != nil {
		h.fail(r.Context(), w, "failed to create planting event", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, EventResponse{OK: true, Event: e})
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	initiativeID, ok := h.initiativeID(w, r)
	if !ok {
		return
	}
	events, err := h.service.ListEvents(r.Context(), initiativeID)
	if err != nil {
		h.fail(r.Context(), w, "failed to list planting events", err)
		return
	}
	if events == nil {
		events = []*models.PlantingEvent{}
	}
	httputil.WriteJSON(w, http.StatusOK, EventListResponse{InitiativeID: initiativeID, Events: events})
}

func (h *Handler) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	initiativeID, eventID, ok := h.eventIDs(w, r)
	if !ok {
		return
	}
	e, err := h.service.GetEvent(r.Context(), initiativeID, eventID)
	if err != nil {
		h.fail(r.Context(), w, "failed to get planting event", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) handleVolunteers(w http.ResponseWriter, r *http.Request) {
	initiativeID, eventID, ok := h.eventIDs(w, r)
	if !ok {
		return
	}
	req, ok := decode[VolunteersRequest](h, w, r)
	if !ok {
		return
	}
	e, err := h.service.RegisterVolunteers(r.Context(), initiativeID, eventID, req.Count)
	h.writeEvent(w, r, e, err, "failed to register volunteers")
}

func (h *Handler) handleUpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	initiativeID, eventID, ok := h.eventIDs(w, r)
	if !ok {
		return
	}
	req, ok := decode[UpdateEventStatusRequest](h, w, r)
	if !ok {
		return
	}
	e, err := h.service.UpdateEventStatus(r.Context(), initiativeID, eventID, req.status)
	h.writeEvent(w, r, e, err, "failed to update planting event status")
}

func (h *Handler) writeEvent(w http.ResponseWriter, r *http.Request, e *models.PlantingEvent, err error, msg string) {
	if err != nil {
		h.fail(r.Context(), w, msg, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EventResponse{OK: true, Event: e})
}

func (h *Handler) handleGetDiversity(w http.ResponseWriter, r *http.Request) {
	goals, err := h.service.GetDiversityGoals(r.Context())
	if err != nil {
		h.fail(r.Context(), w, "failed to get diversity goals", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, goals)
}

func (h *Handler) handleSetDiversity(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[DiversityGoalsRequest](h, w, r)
	if !ok {
		return
	}
	goals, err := h.service.SetDiversityGoals(r.Context(), req.TargetPercentages)
	h.writeDiversity(w, r, goals, err, "failed to set diversity goals")
}

func (h *Handler) handleObserved(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[ObservationsRequest](h, w, r)
	if !ok {
		return
	}
	goals, err := h.service.RecordObservedPercentages(r.Context(), req.CurrentPercentages)
	h.writeDiversity(w, r, goals, err, "failed to record observed percentages")
}

func (h *Handler) writeDiversity(w http.ResponseWriter, r *http.Request, goals *models.SpeciesDiversityGoals, err error, msg string) {
	if err != nil {
		h.fail(r.Context(), w, msg, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, DiversityResponse{OK: true, Goals: goals})
}

func (h *Handler) siteID(w http.ResponseWriter, r *http.Request) (domain.SiteID, bool) {
	id, err := domain.ParseSiteID(chi.URLParam(r, "siteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return id, true
}

func (h *Handler) initiativeID(w http.ResponseWriter, r *http.Request) (domain.InitiativeID, bool) {
	id, err := domain.ParseInitiativeID(chi.URLParam(r, "initiativeID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return id, true
}

func (h *Handler) eventIDs(w http.ResponseWriter, r *http.Request) (domain.InitiativeID, domain.EventID, bool) {
	initiativeID, ok := h.initiativeID(w, r)
	if !ok {
		return "", "", false
	}
	eventID, err := domain.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", "", false
	}
	return initiativeID, eventID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"principal", requestcontext.Principal(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
