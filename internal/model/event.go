package model

import "time"

type EventType string

const (
	EventAvailabilityPublished EventType = "availability_published"
	EventAvailabilityWithdrawn EventType = "availability_withdrawn"
	EventAvailabilityClaimed   EventType = "availability_claimed"
	EventSessionStarted        EventType = "session_started"
	EventSessionCompleted      EventType = "session_completed"
	EventSessionCancelled      EventType = "session_cancelled"
)

// Event событие об изменении данных, доставляется подписчикам через relay.
// Для завершения сессии поле Session.EndReason позволяет клиенту отличить
// ручное завершение от принудительного по лимиту времени.
type Event struct {
	Type          EventType      `json:"type"`
	Advertisement *Advertisement `json:"advertisement,omitempty"`
	Session       *Session       `json:"session,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}
