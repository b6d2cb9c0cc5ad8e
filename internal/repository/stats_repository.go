package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepository единственная строка платформенной статистики (id = true)
type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// Upsert записывает пересчитанную статистику
func (r *StatsRepository) Upsert(ctx context.Context, stats *model.PlatformStats) error {
	query := `
		INSERT INTO platform_stats (singleton, total_completed_sessions, average_rating, updated_at)
		VALUES (true, $1, $2, now())
		ON CONFLICT (singleton) DO UPDATE
		SET total_completed_sessions = EXCLUDED.total_completed_sessions,
		    average_rating = EXCLUDED.average_rating,
		    updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query, stats.TotalCompletedSessions, stats.AverageRating).Scan(&stats.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert platform stats: %w", err)
	}

	return nil
}

// Get получает текущую статистику
func (r *StatsRepository) Get(ctx context.Context) (*model.PlatformStats, error) {
	query := `
		SELECT total_completed_sessions, average_rating, updated_at
		FROM platform_stats
		WHERE singleton = true
	`

	var stats model.PlatformStats
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.TotalCompletedSessions,
		&stats.AverageRating,
		&stats.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get platform stats: %w", err)
	}

	return &stats, nil
}
