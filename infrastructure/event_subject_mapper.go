package infrastructure

import (
	"fmt"

	"questhelper/events"
)

// DomainEventStream is the JetStream stream holding every published event
const DomainEventStream = "questhelper_events"

var subjectsByType = map[events.EventType]string{
	events.EventTypeDiaryCreated:         "diaries.created",
	events.EventTypeDiaryStatusChanged:   "diaries.status_changed",
	events.EventTypeDiaryRenamed:         "diaries.renamed",
	events.EventTypeDiaryDeleted:         "diaries.deleted",
	events.EventTypeRoleReferencesPruned: "roles.references_pruned",
	events.EventTypePrefixChanged:        "guilds.prefix_changed",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("unknown.%s", event.Type())
}

// GetAllSubjects returns the subjects the stream must capture
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{"diaries.>", "roles.>", "guilds.>"}
}
