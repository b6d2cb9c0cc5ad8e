package model

import (
	"time"

	"github.com/google/uuid"
)

// Advertisement объявление учителя "я свободен прямо сейчас".
// У учителя может быть не больше одного открытого объявления —
// это гарантирует уникальный индекс по teacher_id.
type Advertisement struct {
	ID        uuid.UUID  `json:"id"`
	TeacherID uuid.UUID  `json:"teacher_id"`
	SubjectID uuid.UUID  `json:"subject_id"`
	TopicID   *uuid.UUID `json:"topic_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	// Дополнительные поля для удобства (заполняются из JOIN, не из таблицы)
	TeacherName string `json:"teacher_name,omitempty"`
	SubjectName string `json:"subject_name,omitempty"`
	TopicName   string `json:"topic_name,omitempty"`
}

// AdvertisementFilter фильтр для списка открытых объявлений
type AdvertisementFilter struct {
	SubjectID *uuid.UUID
	TopicID   *uuid.UUID
	TextQuery string
}
