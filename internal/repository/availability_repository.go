package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutormatch/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AvailabilityRepository struct {
	pool *pgxpool.Pool
}

func NewAvailabilityRepository(pool *pgxpool.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool}
}

// Upsert публикует объявление учителя. Уникальный индекс по teacher_id
// гарантирует не больше одного открытого объявления: повторная публикация
// заменяет старое атомарно, без блокировок на уровне приложения.
func (r *AvailabilityRepository) Upsert(ctx context.Context, ad *model.Advertisement) error {
	query := `
		INSERT INTO availability_ads (id, teacher_id, subject_id, topic_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (teacher_id) DO UPDATE
		SET id = EXCLUDED.id, subject_id = EXCLUDED.subject_id, topic_id = EXCLUDED.topic_id, created_at = now()
		RETURNING created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		ad.ID,
		ad.TeacherID,
		ad.SubjectID,
		ad.TopicID,
	).Scan(&ad.CreatedAt)

	if err != nil {
		return fmt.Errorf("upsert advertisement: %w", err)
	}

	return nil
}

// DeleteByTeacher снимает объявление учителя. Возвращает false если
// открытого объявления не было (это не ошибка — withdraw идемпотентен).
func (r *AvailabilityRepository) DeleteByTeacher(ctx context.Context, teacherID uuid.UUID) (bool, error) {
	query := `DELETE FROM availability_ads WHERE teacher_id = $1`

	result, err := r.pool.Exec(ctx, query, teacherID)
	if err != nil {
		return false, fmt.Errorf("delete advertisement by teacher: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// GetByID получает объявление по ID
func (r *AvailabilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Advertisement, error) {
	query := `
		SELECT id, teacher_id, subject_id, topic_id, created_at
		FROM availability_ads
		WHERE id = $1
	`

	var ad model.Advertisement
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ad.ID,
		&ad.TeacherID,
		&ad.SubjectID,
		&ad.TopicID,
		&ad.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get advertisement by id: %w", err)
	}

	return &ad, nil
}

// ListOpen получает открытые объявления с фильтрами. Фильтры соединяются
// по AND, текстовый поиск идёт по имени учителя, предмету и теме.
func (r *AvailabilityRepository) ListOpen(ctx context.Context, filter model.AdvertisementFilter) ([]*model.Advertisement, error) {
	query := `
		SELECT a.id, a.teacher_id, a.subject_id, a.topic_id, a.created_at,
		       p.display_name, s.name, COALESCE(t.name, '')
		FROM availability_ads a
		JOIN profiles p ON p.id = a.teacher_id
		JOIN subjects s ON s.id = a.subject_id
		LEFT JOIN topics t ON t.id = a.topic_id
		WHERE ($1::uuid IS NULL OR a.subject_id = $1)
		  AND ($2::uuid IS NULL OR a.topic_id = $2)
		  AND ($3 = '' OR p.display_name ILIKE '%' || $3 || '%'
		       OR s.name ILIKE '%' || $3 || '%'
		       OR t.name ILIKE '%' || $3 || '%')
		ORDER BY a.created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, filter.SubjectID, filter.TopicID, filter.TextQuery)
	if err != nil {
		return nil, fmt.Errorf("list open advertisements: %w", err)
	}
	defer rows.Close()

	var ads []*model.Advertisement
	for rows.Next() {
		var ad model.Advertisement
		err := rows.Scan(
			&ad.ID,
			&ad.TeacherID,
			&ad.SubjectID,
			&ad.TopicID,
			&ad.CreatedAt,
			&ad.TeacherName,
			&ad.SubjectName,
			&ad.TopicName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan advertisement: %w", err)
		}
		ads = append(ads, &ad)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate advertisements: %w", err)
	}

	return ads, nil
}
