package handler

import (
	"arbor/internal/planting/models"
	"arbor/pkg/domain"
	dErrors "arbor/pkg/domain-errors"
)

// RegisterSiteRequest is the body of POST /sites. availableSpace is in
// integer centimeters.
type RegisterSiteRequest struct {
	ID             string          `json:"id"`
	Location       domain.Location `json:"location"`
	SiteType       string          `json:"siteType"`
	SoilType       string          `json:"soilType"`
	SunExposure    string          `json:"sunExposure"`
	AvailableSpace int64           `json:"availableSpace"`

	cmd models.RegisterSiteCommand
}

func (r *RegisterSiteRequest) Validate() error {
	id, err := domain.ParseSiteID(r.ID)
	if err != nil {
		return err
	}
	loc, err := domain.NewLocation(r.Location.Latitude, r.Location.Longitude, r.Location.Address)
	if err != nil {
		return err
	}
	siteType, err := models.ParseSiteType(r.SiteType)
	if err != nil {
		return err
	}
	soil, err := models.ParseSoilType(r.SoilType)
	if err != nil {
		return err
	}
	sun, err := models.ParseSunExposure(r.SunExposure)
	if err != nil {
		return err
	}
	r.cmd = models.RegisterSiteCommand{
		ID:             id,
		Location:       loc,
		SiteType:       siteType,
		SoilType:       soil,
		SunExposure:    sun,
		AvailableSpace: domain.Centimeters(r.AvailableSpace),
	}
	return nil
}

type UpdatePriorityRequest struct {
	PriorityScore *int `json:"priorityScore"`
}

func (r *UpdatePriorityRequest) Validate() error {
	if r.PriorityScore == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "priorityScore is required")
	}
	return nil
}

type SetSpeciesRequest struct {
	RecommendedSpecies []string `json:"recommendedSpecies"`
}

func (r *SetSpeciesRequest) Validate() error {
	if r.RecommendedSpecies == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "recommendedSpecies is required")
	}
	return nil
}

type UpdateSiteStatusRequest struct {
	Status string `json:"status"`

	status models.SiteStatus
}

func (r *UpdateSiteStatusRequest) Validate() error {
	status, err := models.ParseSiteStatus(r.Status)
	if err != nil {
		return err
	}
	r.status = status
	return nil
}

// CreateInitiativeRequest is the body of POST /initiatives. Dates are Unix
// seconds.
type CreateInitiativeRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TargetArea  string `json:"targetArea"`
	StartDate   int64  `json:"startDate"`
	EndDate     int64  `json:"endDate"`
	TargetCount int64  `json:"targetCount"`

	cmd models.CreateInitiativeCommand
}

func (r *CreateInitiativeRequest) Validate() error {
	id, err := domain.ParseInitiativeID(r.ID)
	if err != nil {
		return err
	}
	name, err := domain.RequireText("name", r.Name, domain.MaxNameLength)
	if err != nil {
		return err
	}
	if err := domain.CheckText("description", r.Description, domain.MaxNotesLength); err != nil {
		return err
	}
	if err := domain.CheckText("targetArea", r.TargetArea, domain.MaxNameLength); err != nil {
		return err
	}
	r.cmd = models.CreateInitiativeCommand{
		ID:          id,
		Name:        name,
		Description: r.Description,
		TargetArea:  r.TargetArea,
		StartDate:   domain.Timestamp(r.StartDate),
		EndDate:     domain.Timestamp(r.EndDate),
		TargetCount: r.TargetCount,
	}
	return nil
}

type ProgressRequest struct {
	TreesPlanted int64 `json:"treesPlanted"`
}

type CreateEventRequest struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Date             int64    `json:"date"`
	Location         string   `json:"location"`
	TargetSites      []string `json:"targetSites"`
	VolunteersNeeded int64    `json:"volunteersNeeded"`

	cmd models.CreateEventCommand
}

func (r *CreateEventRequest) Validate() error {
	id, err := domain.ParseEventID(r.ID)
	if err != nil {
		return err
	}
	name, err := domain.RequireText("name", r.Name, domain.MaxNameLength)
	if err != nil {
		return err
	}
	if err := domain.CheckText("location", r.Location, domain.MaxAddressLength); err != nil {
		return err
	}
	sites := make([]domain.SiteID, 0, len(r.TargetSites))
	for _, raw := range r.TargetSites {
		siteID, err := domain.ParseSiteID(raw)
		if err != nil {
			return err
		}
		sites = append(sites, siteID)
	}
	r.cmd = models.CreateEventCommand{
		ID:               id,
		Name:             name,
		Date:             domain.Timestamp(r.Date),
		Location:         r.Location,
		TargetSites:      sites,
		VolunteersNeeded: r.VolunteersNeeded,
	}
	return nil
}

type VolunteersRequest struct {
	Count int64 `json:"count"`
}

type UpdateEventStatusRequest struct {
	Status string `json:"status"`

	status models.EventStatus
}

func (r *UpdateEventStatusRequest) Validate() error {
	status, err := models.ParseEventStatus(r.Status)
	if err != nil {
		return err
	}
	r.status = status
	return nil
}

type DiversityGoalsRequest struct {
	TargetPercentages []models.SpeciesTarget `json:"targetPercentages"`
}

func (r *DiversityGoalsRequest) Validate() error {
	for i := range r.TargetPercentages {
		species, err := domain.RequireText("species", r.TargetPercentages[i].Species, domain.MaxNameLength)
		if err != nil {
			return err
		}
		r.TargetPercentages[i].Species = species
	}
	return nil
}

type ObservationsRequest struct {
	CurrentPercentages []models.SpeciesObservation `json:"currentPercentages"`
}

func (r *ObservationsRequest) Validate() error {
	for i := range r.CurrentPercentages {
		species, err := domain.RequireText("species", r.CurrentPercentages[i].Species, domain.MaxNameLength)
		if err != nil {
			return err
		}
		r.CurrentPercentages[i].Species = species
	}
	return nil
}
