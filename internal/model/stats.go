package model

import "time"

// PlatformStats платформенная статистика, единственная строка.
// Всегда пересчитывается целиком из исходных таблиц, никогда не
// инкрементируется — так не накапливается дрейф от пропущенных событий.
type PlatformStats struct {
	TotalCompletedSessions int64     `json:"total_completed_sessions"`
	AverageRating          float64   `json:"average_rating"` // 0 если оценок ещё нет
	UpdatedAt              time.Time `json:"updated_at"`
}
