package service

import (
	"context"

	"github.com/Freeeeeet/tutormatch/internal/apperr"
	"github.com/Freeeeeet/tutormatch/internal/model"
	"go.uber.org/zap"
)

type CompletedCounter interface {
	CountCompleted(ctx context.Context) (int64, error)
}

type ScoreAverager interface {
	AverageScore(ctx context.Context) (float64, error)
}

type StatsStore interface {
	Upsert(ctx context.Context, stats *model.PlatformStats) error
	Get(ctx context.Context) (*model.PlatformStats, error)
}

type StatsService struct {
	sessions CompletedCounter
	ratings  ScoreAverager
	store    StatsStore
	logger   *zap.Logger
}

func NewStatsService(sessions CompletedCounter, ratings ScoreAverager, store StatsStore, logger *zap.Logger) *StatsService {
	return &StatsService{
		sessions: sessions,
		ratings:  ratings,
		store:    store,
		logger:   logger,
	}
}

// Recompute пересчитывает статистику целиком из исходных таблиц. Никаких
// инкрементов: пропущенный триггер не оставляет дрейфа, следующий пересчёт
// даёт точное значение.
func (s *StatsService) Recompute(ctx context.Context) (*model.PlatformStats, error) {
	completed, err := s.sessions.CountCompleted(ctx)
	if err != nil {
		return nil, apperr.Unavailable("count completed sessions", err)
	}

	average, err := s.ratings.AverageScore(ctx)
	if err != nil {
		return nil, apperr.Unavailable("average rating score", err)
	}

	stats := &model.PlatformStats{
		TotalCompletedSessions: completed,
		AverageRating:          average,
	}

	if err := s.store.Upsert(ctx, stats); err != nil {
		return nil, apperr.Unavailable("store platform stats", err)
	}

	s.logger.Debug("Platform stats recomputed",
		zap.Int64("total_completed_sessions", completed),
		zap.Float64("average_rating", average),
	)

	return stats, nil
}

// Get получает текущую статистику, доступно всем. До первого пересчёта
// возвращает нули.
func (s *StatsService) Get(ctx context.Context) (*model.PlatformStats, error) {
	stats, err := s.store.Get(ctx)
	if err != nil {
		return nil, apperr.Unavailable("get platform stats", err)
	}
	if stats == nil {
		return &model.PlatformStats{}, nil
	}
	return stats, nil
}
