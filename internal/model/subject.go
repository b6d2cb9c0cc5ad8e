package model

import "github.com/google/uuid"

// Subject и Topic — статический каталог, заполняется миграциями
type Subject struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Topic struct {
	ID        uuid.UUID `json:"id"`
	SubjectID uuid.UUID `json:"subject_id"`
	Name      string    `json:"name"`
}
