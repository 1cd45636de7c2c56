package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by retention and routing needs.
type EventCategory string

const (
	// CategoryCompliance covers ownership and lifecycle changes that must be retained.
	CategoryCompliance EventCategory = "compliance"
	// CategoryOperations covers routine registry activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Category  EventCategory
	Timestamp time.Time
	Action    string
	// Subject is the affected entity, e.g. "tree:tree-001".
	Subject   string
	ActorID   string
	RequestID string
	Reason    string
}

type AuditEvent string

const (
	// Tree registry events
	EventTreeRegistered    AuditEvent = "tree_registered"
	EventTreeUpdated       AuditEvent = "tree_updated"
	EventTreeStatusChanged AuditEvent = "tree_status_changed"
	EventTreeTransferred   AuditEvent = "tree_transferred"

	// Planting coordination events
	EventSiteRegistered        AuditEvent = "site_registered"
	EventSitePriorityUpdated   AuditEvent = "site_priority_updated"
	EventSiteSpeciesUpdated    AuditEvent = "site_species_updated"
	EventSiteStatusChanged     AuditEvent = "site_status_changed"
	EventInitiativeCreated     AuditEvent = "initiative_created"
	EventInitiativeProgressed  AuditEvent = "initiative_progressed"
	EventInitiativeCompleted   AuditEvent = "initiative_completed"
	EventInitiativeCancelled   AuditEvent = "initiative_cancelled"
	EventPlantingEventCreated  AuditEvent = "planting_event_created"
	EventVolunteersRegistered  AuditEvent = "volunteers_registered"
	EventPlantingEventStatus   AuditEvent = "planting_event_status_changed"
	EventDiversityGoalsSet     AuditEvent = "diversity_goals_set"
	EventDiversityObservations AuditEvent = "diversity_observations_recorded"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventTreeRegistered:      CategoryCompliance,
	EventTreeStatusChanged:   CategoryCompliance,
	EventTreeTransferred:     CategoryCompliance,
	EventInitiativeCompleted: CategoryCompliance,
	EventInitiativeCancelled: CategoryCompliance,
	EventDiversityGoalsSet:   CategoryCompliance,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Postgres-backed stores join the transaction in ctx.
type Store interface {
	Append(ctx context.Context, event Event) error
}
