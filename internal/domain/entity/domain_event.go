package entity

import "time"

const (
	EventAppointmentCreated   = "appointment.created"
	EventAppointmentConfirmed = "appointment.confirmed"
	EventAppointmentCancelled = "appointment.cancelled"
	EventAppointmentCompleted = "appointment.completed"
	EventAppointmentReminder  = "appointment.reminder"
	EventAnalysisResult       = "analysis.result_recorded"
)

// DomainEvent is published to the message broker after a state change commits.
type DomainEvent struct {
	Type        string                 `json:"type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
}

func NewDomainEvent(eventType, aggregateID string, payload map[string]interface{}) DomainEvent {
	return DomainEvent{
		Type:        eventType,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}
}
