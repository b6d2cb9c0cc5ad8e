package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"   // Зарезервировано под будущий matchmaking
	SessionStatusActive    SessionStatus = "active"    // Идёт прямо сейчас
	SessionStatusCompleted SessionStatus = "completed" // Завершена (терминальный статус)
	SessionStatusCancelled SessionStatus = "cancelled" // Отменена (терминальный статус)
)

type EndReason string

const (
	EndReasonManual  EndReason = "manual"   // Один из участников завершил звонок
	EndReasonTimeCap EndReason = "time_cap" // Принудительно по часовому лимиту
)

// MaxSessionDuration жёсткий лимит длительности сессии
const MaxSessionDuration = time.Hour

type Session struct {
	ID              uuid.UUID     `json:"id"`
	StudentID       uuid.UUID     `json:"student_id"`
	TeacherID       uuid.UUID     `json:"teacher_id"`
	SubjectID       uuid.UUID     `json:"subject_id"`
	TopicID         *uuid.UUID    `json:"topic_id,omitempty"`
	Status          SessionStatus `json:"status"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	EndedAt         *time.Time    `json:"ended_at,omitempty"`
	DurationMinutes *int          `json:"duration_minutes,omitempty"`
	EndReason       *EndReason    `json:"end_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// IsTerminal терминальные статусы неизменяемы
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

// HasParticipant проверяет что пользователь — участник сессии
func (s *Session) HasParticipant(id uuid.UUID) bool {
	return s.StudentID == id || s.TeacherID == id
}

// DurationMinutes считает длительность в целых минутах с учётом часового
// лимита: floor(min(elapsed, 1h) / 60s). Единственное место, где длительность
// вычисляется — клиент её никогда не присылает.
func DurationMinutes(startedAt, endedAt time.Time) int {
	elapsed := endedAt.Sub(startedAt)
	if elapsed < 0 {
		return 0
	}
	if elapsed > MaxSessionDuration {
		elapsed = MaxSessionDuration
	}
	return int(elapsed / time.Minute)
}
