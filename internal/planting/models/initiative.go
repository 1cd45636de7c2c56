package models

import (
	"math"

	"arbor/pkg/domain"
	dErrors "arbor/pkg/domain-errors"
)

// InitiativeStatus: active -> completed | cancelled. Both ends are terminal.
type InitiativeStatus string

const (
	InitiativeActive    InitiativeStatus = "active"
	InitiativeCompleted InitiativeStatus = "completed"
	InitiativeCancelled InitiativeStatus = "cancelled"
)

type PlantingInitiative struct {
	ID           domain.InitiativeID `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	TargetArea   string              `json:"targetArea"`
	StartDate    domain.Timestamp    `json:"startDate"`
	EndDate      domain.Timestamp    `json:"endDate"`
	TargetCount  int64               `json:"targetCount"`
	CurrentCount int64               `json:"currentCount"`
	Status       InitiativeStatus    `json:"status"`
	Coordinator  domain.Principal    `json:"coordinator"`
}

func NewPlantingInitiative(cmd CreateInitiativeCommand, coordinator domain.Principal) (*PlantingInitiative, error) {
	if cmd.ID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "initiative id is required")
	}
	if coordinator.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "coordinator is required")
	}
	if cmd.EndDate <= cmd.StartDate {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "end date must be after start date")
	}
	if cmd.TargetCount <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "target count must be positive")
	}
	return &PlantingInitiative{
		ID:          cmd.ID,
		Name:        cmd.Name,
		Description: cmd.Description,
		TargetArea:  cmd.TargetArea,
		StartDate:   cmd.StartDate,
		EndDate:     cmd.EndDate,
		TargetCount: cmd.TargetCount,
		Status:      InitiativeActive,
		Coordinator: coordinator,
	}, nil
}

// CanManage reports whether p may record progress or cancel.
func (i *PlantingInitiative) CanManage(p domain.Principal, coordinator bool) bool {
	return coordinator || (!p.IsNil() && i.Coordinator == p)
}

// Covers reports whether t falls within [StartDate, EndDate].
func (i *PlantingInitiative) Covers(t domain.Timestamp) bool {
	return t >= i.StartDate && t <= i.EndDate
}

// RecordProgress adds planted trees and reports whether this call completed
// the initiative.
func (i *PlantingInitiative) RecordProgress(planted int64) (bool, error) {
	if planted <= 0 {
		return false, dErrors.New(dErrors.CodeInvariantViolation, "trees planted must be positive")
	}
	if i.Status != InitiativeActive {
		return false, dErrors.Newf(dErrors.CodeInvalidTransition, "initiative is %s", i.Status)
	}
	if planted > math.MaxInt64-i.CurrentCount {
		return false, dErrors.New(dErrors.CodeInvariantViolation, "trees planted exceeds the representable count")
	}
	i.CurrentCount += planted
	if i.CurrentCount >= i.TargetCount {
		i.Status = InitiativeCompleted
		return true, nil
	}
	return false, nil
}

func (i *PlantingInitiative) Cancel() error {
	if i.Status != InitiativeActive {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "initiative is %s", i.Status)
	}
	i.Status = InitiativeCancelled
	return nil
}

type CreateInitiativeCommand struct {
	ID          domain.InitiativeID
	Name        string
	Description string
	TargetArea  string
	StartDate   domain.Timestamp
	EndDate     domain.Timestamp
	TargetCount int64
}
