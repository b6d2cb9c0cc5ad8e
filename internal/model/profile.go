package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin" // Служебная роль, выдаётся только вручную
)

type Profile struct {
	ID          uuid.UUID `json:"id"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	Bio         string    `json:"bio"`
	IsVerified  bool      `json:"is_verified"` // Только для учителей, выставляется админом
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
