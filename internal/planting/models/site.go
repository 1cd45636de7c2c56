package models

import (
	"strings"

	"arbor/pkg/domain"
	dErrors "arbor/pkg/domain-errors"
)

type SiteType string

const (
	SiteSidewalk  SiteType = "sidewalk"
	SitePark      SiteType = "park"
	SiteYard      SiteType = "yard"
	SiteMedian    SiteType = "median"
	SiteSchool    SiteType = "school"
	SiteVacantLot SiteType = "vacant-lot"
)

// basePriority ranks site types by public benefit of planting there.
var basePriority = map[SiteType]int{
	SiteSidewalk:  75,
	SitePark:      60,
	SiteYard:      40,
	SiteMedian:    50,
	SiteSchool:    70,
	SiteVacantLot: 80,
}

func ParseSiteType(s string) (SiteType, error) {
	t := SiteType(normalize(s))
	if _, ok := basePriority[t]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown site type %q", s)
	}
	return t, nil
}

type SoilType string

const (
	SoilLoam  SoilType = "loam"
	SoilClay  SoilType = "clay"
	SoilSand  SoilType = "sand"
	SoilSilt  SoilType = "silt"
	SoilPeat  SoilType = "peat"
	SoilChalk SoilType = "chalk"
)

func ParseSoilType(s string) (SoilType, error) {
	switch t := SoilType(normalize(s)); t {
	case SoilLoam, SoilClay, SoilSand, SoilSilt, SoilPeat, SoilChalk:
		return t, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown soil type %q", s)
	}
}

type SunExposure string

const (
	SunFull    SunExposure = "full"
	SunPartial SunExposure = "partial"
	SunShade   SunExposure = "shade"
)

var sunBonus = map[SunExposure]int{
	SunFull:    15,
	SunPartial: 10,
	SunShade:   0,
}

func ParseSunExposure(s string) (SunExposure, error) {
	e := SunExposure(normalize(s))
	if _, ok := sunBonus[e]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown sun exposure %q", s)
	}
	return e, nil
}

const (
	MinPriority = 0
	MaxPriority = 100
)

// DefaultPriority is the base score of the site type plus the sun bonus,
// clamped to [MinPriority, MaxPriority]. A partially lit sidewalk scores 85.
func DefaultPriority(t SiteType, sun SunExposure) int {
	return min(max(basePriority[t]+sunBonus[sun], MinPriority), MaxPriority)
}

// SiteStatus moves available -> reserved -> planted; a reservation can be
// released back to available. Planted is terminal.
type SiteStatus string

const (
	SiteAvailable SiteStatus = "available"
	SiteReserved  SiteStatus = "reserved"
	SitePlanted   SiteStatus = "planted"
)

var siteTransitions = map[SiteStatus][]SiteStatus{
	SiteAvailable: {SiteReserved},
	SiteReserved:  {SitePlanted, SiteAvailable},
}

func ParseSiteStatus(s string) (SiteStatus, error) {
	switch st := SiteStatus(normalize(s)); st {
	case SiteAvailable, SiteReserved, SitePlanted:
		return st, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown site status %q", s)
	}
}

// MaxRecommendedSpecies bounds the recommended species list.
const MaxRecommendedSpecies = 32

type PlantingSite struct {
	ID                 domain.SiteID      `json:"id"`
	Location           domain.Location    `json:"location"`
	SiteType           SiteType           `json:"siteType"`
	SoilType           SoilType           `json:"soilType"`
	SunExposure        SunExposure        `json:"sunExposure"`
	AvailableSpace     domain.Centimeters `json:"availableSpace"`
	PriorityScore      int                `json:"priorityScore"`
	RecommendedSpecies []string           `json:"recommendedSpecies"`
	Status             SiteStatus         `json:"status"`
	CreatedBy          domain.Principal   `json:"createdBy"`
	CreationTime       domain.Timestamp   `json:"creationTime"`
}

func NewPlantingSite(
	id domain.SiteID,
	location domain.Location,
	siteType SiteType,
	soil SoilType,
	sun SunExposure,
	space domain.Centimeters,
	createdBy domain.Principal,
	now domain.Timestamp,
) (*PlantingSite, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "site id is required")
	}
	if createdBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "creator is required")
	}
	if space <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "available space must be positive")
	}
	return &PlantingSite{
		ID:                 id,
		Location:           location,
		SiteType:           siteType,
		SoilType:           soil,
		SunExposure:        sun,
		AvailableSpace:     space,
		PriorityScore:      DefaultPriority(siteType, sun),
		RecommendedSpecies: []string{},
		Status:             SiteAvailable,
		CreatedBy:          createdBy,
		CreationTime:       now,
	}, nil
}

// CanAdminister reports whether p may change the site's priority, species
// or status: the creator, or anyone acting as coordinator.
func (s *PlantingSite) CanAdminister(p domain.Principal, coordinator bool) bool {
	return coordinator || (!p.IsNil() && s.CreatedBy == p)
}

func (s *PlantingSite) SetPriority(score int) error {
	if score < MinPriority || score > MaxPriority {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "priority score must be within [%d, %d]", MinPriority, MaxPriority)
	}
	s.PriorityScore = score
	return nil
}

// SetRecommendedSpecies replaces the ordered list. species must already be
// normalized.
func (s *PlantingSite) SetRecommendedSpecies(species []string) error {
	if len(species) > MaxRecommendedSpecies {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "at most %d recommended species", MaxRecommendedSpecies)
	}
	s.RecommendedSpecies = append([]string{}, species...)
	return nil
}

func (s *PlantingSite) ChangeStatus(next SiteStatus) error {
	for _, allowed := range siteTransitions[s.Status] {
		if allowed == next {
			s.Status = next
			return nil
		}
	}
	return dErrors.Newf(dErrors.CodeInvalidTransition, "site cannot move from %s to %s", s.Status, next)
}

// RegisterSiteCommand carries the parsed inputs of a site registration.
type RegisterSiteCommand struct {
	ID             domain.SiteID
	Location       domain.Location
	SiteType       SiteType
	SoilType       SoilType
	SunExposure    SunExposure
	AvailableSpace domain.Centimeters
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
