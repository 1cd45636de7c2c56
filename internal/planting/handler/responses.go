package handler

import (
	"arbor/internal/planting/models"
	"arbor/pkg/domain"
)

type SiteResponse struct {
	OK   bool                 `json:"ok"`
	Site *models.PlantingSite `json:"site"`
}

type InitiativeResponse struct {
	OK         bool                       `json:"ok"`
	Initiative *models.PlantingInitiative `json:"initiative"`
}

type EventResponse struct {
	OK    bool                  `json:"ok"`
	Event *models.PlantingEvent `json:"event"`
}

type EventListResponse struct {
	InitiativeID domain.InitiativeID     `json:"initiativeId"`
	Events       []*models.PlantingEvent `json:"events"`
}

type DiversityResponse struct {
	OK    bool                          `json:"ok"`
	Goals *models.SpeciesDiversityGoals `json:"goals"`
}
