package model

import (
	"time"

	"github.com/google/uuid"
)

// Rating оценка сессии студентом. Не больше одной на сессию
// (уникальный индекс по session_id), после создания не меняется.
type Rating struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	StudentID uuid.UUID `json:"student_id"`
	TeacherID uuid.UUID `json:"teacher_id"`
	Score     int       `json:"score"` // от 1 до 5
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
