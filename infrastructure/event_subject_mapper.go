package infrastructure

import (
	"fmt"

	"betpool/events"
)

// EventSubjectMapper maps domain events to NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

var subjectsByType = map[events.EventType]string{
	events.EventTypeBalanceChange:  "wallets.balance_changed",
	events.EventTypeAccountCreated: "accounts.created",
	events.EventTypeBetPlaced:      "betting.placed",
	events.EventTypeEventSubmitted: "events.submitted",
	events.EventTypeEventApproved:  "events.approved",
	events.EventTypeEventRejected:  "events.rejected",
	events.EventTypeEventRemoved:   "events.removed",
	events.EventTypeEventSettled:   "events.settled",
}

// MapEventToSubject returns the subject an event is published on
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("unknown.%s", event.Type())
}

// MapSubjectToEventType converts a subject back to its event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjectsByType {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns every subject the service publishes to, in event type order
func (m *EventSubjectMapper) GetAllSubjects() []string {
	types := events.AllEventTypes()
	subjects := make([]string, 0, len(types))
	for _, t := range types {
		subjects = append(subjects, subjectsByType[t])
	}
	return subjects
}
