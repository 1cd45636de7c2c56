package handler

import (
	"arbor/internal/tree/models"
	"arbor/pkg/domain"
)

// RegisterTreeRequest is the body of POST /trees. Coordinates are integer
// microdegrees and measurements integer centimeters.
type RegisterTreeRequest struct {
	ID           string          `json:"id"`
	Species      string          `json:"species"`
	Location     domain.Location `json:"location"`
	Height       int64           `json:"height"`
	Diameter     int64           `json:"diameter"`
	Condition    string          `json:"condition"`
	PlantingDate int64           `json:"plantingDate"`

	cmd models.RegisterTreeCommand
}

func (r *RegisterTreeRequest) Validate() error {
	id, err := domain.ParseTreeID(r.ID)
	if err != nil {
		return err
	}
	species, err := domain.RequireText("species", r.Species, domain.MaxNameLength)
	if err != nil {
		return err
	}
	loc, err := domain.NewLocation(r.Location.Latitude, r.Location.Longitude, r.Location.Address)
	if err != nil {
		return err
	}
	condition, err := models.ParseCondition(r.Condition)
	if err != nil {
		return err
	}
	r.cmd = models.RegisterTreeCommand{
		ID:           id,
		Species:      species,
		Location:     loc,
		Height:       domain.Centimeters(r.Height),
		Diameter:     domain.Centimeters(r.Diameter),
		Condition:    condition,
		PlantingDate: domain.Timestamp(r.PlantingDate),
	}
	return nil
}

// UpdateTreeRequest is the body of PUT /trees/{treeID}.
type UpdateTreeRequest struct {
	Height    int64  `json:"height"`
	Diameter  int64  `json:"diameter"`
	Condition string `json:"condition"`
	Notes     string `json:"notes"`

	cmd models.UpdateTreeCommand
}

func (r *UpdateTreeRequest) Validate() error {
	condition, err := models.ParseCondition(r.Condition)
	if err != nil {
		return err
	}
	if err := domain.CheckText("notes", r.Notes, domain.MaxNotesLength); err != nil {
		return err
	}
	r.cmd = models.UpdateTreeCommand{
		Height:    domain.Centimeters(r.Height),
		Diameter:  domain.Centimeters(r.Diameter),
		Condition: condition,
		Notes:     r.Notes,
	}
	return nil
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`

	status models.Status
}

func (r *UpdateStatusRequest) Validate() error {
	status, err := models.ParseStatus(r.Status)
	if err != nil {
		return err
	}
	if err := domain.CheckText("notes", r.Notes, domain.MaxNotesLength); err != nil {
		return err
	}
	r.status = status
	return nil
}

type TransferRequest struct {
	NewOwner string `json:"newOwner"`

	newOwner domain.Principal
}

func (r *TransferRequest) Validate() error {
	owner, err := domain.ParsePrincipal(r.NewOwner)
	if err != nil {
		return err
	}
	r.newOwner = owner
	return nil
}
