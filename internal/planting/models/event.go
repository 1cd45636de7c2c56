package models

import (
	"strings"

	"arbor/pkg/domain"
	dErrors "arbor/pkg/domain-errors"
)

// EventStatus: scheduled -> completed | cancelled. Both ends are terminal.
type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventCompleted EventStatus = "completed"
	EventCancelled EventStatus = "cancelled"
)

func ParseEventStatus(s string) (EventStatus, error) {
	switch st := EventStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case EventScheduled, EventCompleted, EventCancelled:
		return st, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown event status %q", s)
	}
}

// MaxTargetSites bounds the sites one event may reference.
const MaxTargetSites = 64

// PlantingEvent is scoped under an initiative; (InitiativeID, ID) is its key.
// Location is a free-form meeting point such as "City Park".
type PlantingEvent struct {
	InitiativeID         domain.InitiativeID `json:"initiativeId"`
	ID                   domain.EventID      `json:"id"`
	Name                 string              `json:"name"`
	Date                 domain.Timestamp    `json:"date"`
	Location             string              `json:"location"`
	TargetSites          []domain.SiteID     `json:"targetSites"`
	VolunteersNeeded     int64               `json:"volunteersNeeded"`
	VolunteersRegistered int64               `json:"volunteersRegistered"`
	Status               EventStatus         `json:"status"`
	Organizer            domain.Principal    `json:"organizer"`
}

// NewPlantingEvent validates the event against its initiative's window.
// Site existence is checked by the caller.
func NewPlantingEvent(initiative *PlantingInitiative, cmd CreateEventCommand, organizer domain.Principal) (*PlantingEvent, error) {
	if cmd.ID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event id is required")
	}
	if organizer.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organizer is required")
	}
	if !initiative.Covers(cmd.Date) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event date must fall within the initiative's start and end dates")
	}
	if cmd.VolunteersNeeded <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "volunteers needed must be positive")
	}
	if len(cmd.TargetSites) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "at least one target site is required")
	}
	if len(cmd.TargetSites) > MaxTargetSites {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "at most %d target sites", MaxTargetSites)
	}
	return &PlantingEvent{
		InitiativeID:     initiative.ID,
		ID:               cmd.ID,
		Name:             cmd.Name,
		Date:             cmd.Date,
		Location:         cmd.Location,
		TargetSites:      append([]domain.SiteID{}, cmd.TargetSites...),
		VolunteersNeeded: cmd.VolunteersNeeded,
		Status:           EventScheduled,
		Organizer:        organizer,
	}, nil
}

// RegisterVolunteers adds count sign-ups. The total may not exceed
// VolunteersNeeded.
func (e *PlantingEvent) RegisterVolunteers(count int64) error {
	if e.Status != EventScheduled {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "event is %s", e.Status)
	}
	if count <= 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "volunteer count must be positive")
	}
	if count > e.VolunteersNeeded-e.VolunteersRegistered {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "only %d volunteer places remain", e.VolunteersNeeded-e.VolunteersRegistered)
	}
	e.VolunteersRegistered += count
	return nil
}

func (e *PlantingEvent) ChangeStatus(next EventStatus) error {
	if e.Status != EventScheduled || next == EventScheduled {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "event cannot move from %s to %s", e.Status, next)
	}
	e.Status = next
	return nil
}

// CanManage reports whether p may change the event's status.
func (e *PlantingEvent) CanManage(p domain.Principal, initiative *PlantingInitiative, coordinator bool) bool {
	if coordinator {
		return true
	}
	if p.IsNil() {
		return false
	}
	return e.Organizer == p || initiative.Coordinator == p
}

type CreateEventCommand struct {
	ID               domain.EventID
	Name             string
	Date             domain.Timestamp
	Location         string
	TargetSites      []domain.SiteID
	VolunteersNeeded int64
}
