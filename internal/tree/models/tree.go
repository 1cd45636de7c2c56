package models

import (
	"strings"

	"arbor/pkg/domain"
	dErrors "arbor/pkg/domain-errors"
)

// Condition is the assessed health of a tree.
type Condition string

const (
	ConditionHealthy  Condition = "healthy"
	ConditionGood     Condition = "good"
	ConditionFair     Condition = "fair"
	ConditionPoor     Condition = "poor"
	ConditionCritical Condition = "critical"
	ConditionDead     Condition = "dead"
)

var conditions = map[Condition]struct{}{
	ConditionHealthy: {}, ConditionGood: {}, ConditionFair: {},
	ConditionPoor: {}, ConditionCritical: {}, ConditionDead: {},
}

func ParseCondition(s string) (Condition, error) {
	c := Condition(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := conditions[c]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown condition %q", s)
	}
	return c, nil
}

// Status is the lifecycle state of a tree. Removed is terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusProtected Status = "protected"
	StatusRemoved   Status = "removed"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusActive, StatusProtected, StatusRemoved:
		return st, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown tree status %q", s)
	}
}

// Tree is a registered tree. ID never changes and Owner only changes
// through TransferTo.
type Tree struct {
	ID           domain.TreeID      `json:"id"`
	Owner        domain.Principal   `json:"owner"`
	Species      string             `json:"species"`
	Location     domain.Location    `json:"location"`
	Height       domain.Centimeters `json:"height"`
	Diameter     domain.Centimeters `json:"diameter"`
	Condition    Condition          `json:"condition"`
	PlantingDate domain.Timestamp   `json:"plantingDate"`
	LastUpdated  domain.Timestamp   `json:"lastUpdated"`
	Status       Status             `json:"status"`
}

// NewTree builds an active tree owned by owner. Measurements must be positive
// and the planting date may not lie after now.
func NewTree(
	id domain.TreeID,
	owner domain.Principal,
	species string,
	location domain.Location,
	height, diameter domain.Centimeters,
	condition Condition,
	plantingDate, now domain.Timestamp,
) (*Tree, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tree id is required")
	}
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "owner is required")
	}
	if species == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "species is required")
	}
	if err := checkMeasurements(height, diameter); err != nil {
		return nil, err
	}
	if _, ok := conditions[condition]; !ok {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown condition %q", condition)
	}
	if plantingDate > now {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "planting date cannot be in the future")
	}
	return &Tree{
		ID:           id,
		Owner:        owner,
		Species:      species,
		Location:     location,
		Height:       height,
		Diameter:     diameter,
		Condition:    condition,
		PlantingDate: plantingDate,
		LastUpdated:  now,
		Status:       StatusActive,
	}, nil
}

func checkMeasurements(height, diameter domain.Centimeters) error {
	if height <= 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "height must be positive")
	}
	if diameter <= 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "diameter must be positive")
	}
	return nil
}

// IsOwnedBy reports whether p is the current owner.
func (t *Tree) IsOwnedBy(p domain.Principal) bool {
	return !p.IsNil() && t.Owner == p
}

// ApplyMeasurement replaces the measurements and condition.
func (t *Tree) ApplyMeasurement(height, diameter domain.Centimeters, condition Condition, now domain.Timestamp) error {
	if err := checkMeasurements(height, diameter); err != nil {
		return err
	}
	if _, ok := conditions[condition]; !ok {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "unknown condition %q", condition)
	}
	t.Height = height
	t.Diameter = diameter
	t.Condition = condition
	t.touch(now)
	return nil
}

// ChangeStatus moves the tree to next. Setting the current status again, or
// leaving removed, is an invalid transition.
func (t *Tree) ChangeStatus(next Status, now domain.Timestamp) error {
	if next == t.Status {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "tree is already %s", next)
	}
	if t.Status == StatusRemoved {
		return dErrors.New(dErrors.CodeInvalidTransition, "removed trees cannot change status")
	}
	t.Status = next
	t.touch(now)
	return nil
}

// TransferTo hands the tree to a different owner.
func (t *Tree) TransferTo(owner domain.Principal, now domain.Timestamp) error {
	if owner.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "new owner is required")
	}
	if owner == t.Owner {
		return dErrors.New(dErrors.CodeInvariantViolation, "new owner must differ from the current owner")
	}
	t.Owner = owner
	t.touch(now)
	return nil
}

// touch keeps LastUpdated monotonically non-decreasing even if the clock
// steps backwards between calls.
func (t *Tree) touch(now domain.Timestamp) {
	if now > t.LastUpdated {
		t.LastUpdated = now
	}
}

// RegisterTreeCommand carries the parsed inputs of a registration.
type RegisterTreeCommand struct {
	ID           domain.TreeID
	Species      string
	Location     domain.Location
	Height       domain.Centimeters
	Diameter     domain.Centimeters
	Condition    Condition
	PlantingDate domain.Timestamp
}

// UpdateTreeCommand carries the parsed inputs of a measurement update.
type UpdateTreeCommand struct {
	Height    domain.Centimeters
	Diameter  domain.Centimeters
	Condition Condition
	Notes     string
}
