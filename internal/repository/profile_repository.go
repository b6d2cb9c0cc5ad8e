package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// Create создаёт профиль. Роль назначается один раз и дальше не меняется.
func (r *ProfileRepository) Create(ctx context.Context, profile *model.Profile) error {
	query := `
		INSERT INTO profiles (id, role, display_name, avatar_url, bio, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		profile.ID,
		profile.Role,
		profile.DisplayName,
		profile.AvatarURL,
		profile.Bio,
		profile.IsVerified,
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}

	return nil
}

// GetByID получает профиль по ID
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	query := `
		SELECT id, role, display_name, avatar_url, bio, is_verified, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	var profile model.Profile
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.Role,
		&profile.DisplayName,
		&profile.AvatarURL,
		&profile.Bio,
		&profile.IsVerified,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile by id: %w", err)
	}

	return &profile, nil
}

// Update обновляет данные профиля. Роль намеренно не трогаем.
func (r *ProfileRepository) Update(ctx context.Context, profile *model.Profile) error {
	query := `
		UPDATE profiles
		SET display_name = $1, avatar_url = $2, bio = $3, updated_at = now()
		WHERE id = $4
	`

	result, err := r.pool.Exec(
		ctx, query,
		profile.DisplayName,
		profile.AvatarURL,
		profile.Bio,
		profile.ID,
	)

	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile not found")
	}

	return nil
}

// SetVerified выставляет флаг верификации учителя
func (r *ProfileRepository) SetVerified(ctx context.Context, teacherID uuid.UUID, verified bool) error {
	query := `
		UPDATE profiles
		SET is_verified = $1, updated_at = now()
		WHERE id = $2 AND role = 'teacher'
	`

	result, err := r.pool.Exec(ctx, query, verified, teacherID)
	if err != nil {
		return fmt.Errorf("set verified: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("teacher not found")
	}

	return nil
}
