package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateRating сессия уже оценена (уникальный индекс по session_id)
var ErrDuplicateRating = errors.New("session already rated")

type RatingRepository struct {
	pool *pgxpool.Pool
}

func NewRatingRepository(pool *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{pool: pool}
}

// Create создаёт оценку. Повторная оценка той же сессии упирается в
// уникальный индекс — возвращаем ErrDuplicateRating.
func (r *RatingRepository) Create(ctx context.Context, rating *model.Rating) error {
	query := `
		INSERT INTO ratings (id, session_id, student_id, teacher_id, score, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		rating.ID,
		rating.SessionID,
		rating.StudentID,
		rating.TeacherID,
		rating.Score,
		rating.Comment,
	).Scan(&rating.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateRating
		}
		return fmt.Errorf("create rating: %w", err)
	}

	return nil
}

// GetBySessionID получает оценку сессии
func (r *RatingRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.Rating, error) {
	query := `
		SELECT id, session_id, student_id, teacher_id, score, comment, created_at
		FROM ratings
		WHERE session_id = $1
	`

	var rating model.Rating
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&rating.ID,
		&rating.SessionID,
		&rating.StudentID,
		&rating.TeacherID,
		&rating.Score,
		&rating.Comment,
		&rating.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get rating by session id: %w", err)
	}

	return &rating, nil
}

// AverageScore средний балл по всем оценкам, 0 если оценок нет
func (r *RatingRepository) AverageScore(ctx context.Context) (float64, error) {
	query := `SELECT COALESCE(AVG(score), 0) FROM ratings`

	var avg float64
	if err := r.pool.QueryRow(ctx, query).Scan(&avg); err != nil {
		return 0, fmt.Errorf("average rating score: %w", err)
	}

	return avg, nil
}
