package models

import "arbor/pkg/domain"

// UpdateType names the mutation a history record describes.
type UpdateType string

const (
	UpdateRegistration UpdateType = "registration"
	UpdateMeasurement  UpdateType = "update"
	UpdateStatusChange UpdateType = "status-change"
	UpdateTransfer     UpdateType = "transfer"
)

// RegistrationNote is the note on every registration record.
const RegistrationNote = "Initial tree registration"

// HistoryRecord is one immutable entry in a tree's audit trail, keyed by
// (TreeID, Sequence). Sequences start at 0 and have no gaps.
type HistoryRecord struct {
	TreeID            domain.TreeID    `json:"treeId"`
	Sequence          int64            `json:"sequence"`
	UpdateType        UpdateType       `json:"updateType"`
	UpdatedBy         domain.Principal `json:"updatedBy"`
	UpdateTime        domain.Timestamp `json:"updateTime"`
	PreviousCondition Condition        `json:"previousCondition"`
	NewCondition      Condition        `json:"newCondition"`
	Notes             string           `json:"notes"`
}

// NewHistoryRecord builds an unsequenced record; the history store assigns
// Sequence on append.
func NewHistoryRecord(
	treeID domain.TreeID,
	kind UpdateType,
	by domain.Principal,
	at domain.Timestamp,
	previous, next Condition,
	notes string,
) *HistoryRecord {
	return &HistoryRecord{
		TreeID:            treeID,
		UpdateType:        kind,
		UpdatedBy:         by,
		UpdateTime:        at,
		PreviousCondition: previous,
		NewCondition:      next,
		Notes:             notes,
	}
}
